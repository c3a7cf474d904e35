// Package main provides the periodic jobs worker entry point.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/avito-insight/internal/avito"
	"github.com/avito-insight/internal/circuitbreaker"
	"github.com/avito-insight/internal/config"
	"github.com/avito-insight/internal/logging"
	"github.com/avito-insight/internal/scheduler"
	"github.com/avito-insight/internal/service"
	"github.com/avito-insight/internal/storage"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}
	log := logging.New(&cfg.Logging)
	log.Info("Statistics worker starting")

	postgres, err := storage.NewPostgresDB(&cfg.Postgres)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	// The snapshot cache is an optimization; the worker runs without it.
	var cache service.SnapshotCacher
	redis, err := storage.NewRedisCache(&cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, snapshot caching disabled")
	} else {
		defer redis.Close()
		cache = storage.NewSnapshotCache(redis, cfg.Cache.TTL)
	}

	accountRepo := storage.NewAccountRepository(postgres)
	dailyRepo := storage.NewDailyStatsRepository(postgres)
	weeklyRepo := storage.NewWeeklyStatsRepository(postgres)

	client := avito.NewClient(cfg.Avito.BaseURL, cfg.Avito.RequestTimeout)
	client.SetBreaker(circuitbreaker.New(circuitbreaker.DefaultConfig("avito-api"), log))

	tracker := service.NewExpenseTracker(accountRepo, client, log)
	resolver := service.NewResolver(dailyRepo, weeklyRepo)
	retention := service.NewRetentionSweeper(dailyRepo, weeklyRepo, cfg.Retention.DailyDays, cfg.Retention.WeeklyWeeks, log)
	anomaly := service.NewExpenseSpikeChecker(decimal.NewFromInt(3), log)
	dispatcher := service.NewLogDispatcher(log)
	ingest := service.NewIngestService(
		accountRepo, dailyRepo, weeklyRepo, client, cache,
		resolver, anomaly, dispatcher, retention,
		cfg.Scheduler.Location(), log,
	)

	sched := scheduler.New(&cfg.Scheduler, log)
	if err := sched.AddTick("expense-tick", cfg.Scheduler.ExpenseTick, tracker.Tick); err != nil {
		log.WithError(err).Fatal("Failed to schedule expense tick")
	}
	if err := sched.AddCron("daily-pipeline", cfg.Scheduler.DailyCron, ingest.RunDaily); err != nil {
		log.WithError(err).Fatal("Failed to schedule daily pipeline")
	}
	if err := sched.AddCron("weekly-pipeline", cfg.Scheduler.WeeklyCron, ingest.RunWeekly); err != nil {
		log.WithError(err).Fatal("Failed to schedule weekly pipeline")
	}

	sched.Start()
	log.Info("Worker running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Worker shutting down")
	sched.Stop()
	log.Info("Worker stopped")
}
