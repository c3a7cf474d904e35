// Package main provides the HTTP API server entry point.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/avito-insight/internal/api"
	"github.com/avito-insight/internal/avito"
	"github.com/avito-insight/internal/circuitbreaker"
	"github.com/avito-insight/internal/config"
	"github.com/avito-insight/internal/logging"
	"github.com/avito-insight/internal/service"
	"github.com/avito-insight/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}
	log := logging.New(&cfg.Logging)
	log.Info("API server starting")

	postgres, err := storage.NewPostgresDB(&cfg.Postgres)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	var cache service.SnapshotCacher
	var cachePinger api.Pinger
	redis, err := storage.NewRedisCache(&cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, snapshot caching disabled")
	} else {
		defer redis.Close()
		cache = storage.NewSnapshotCache(redis, cfg.Cache.TTL)
		cachePinger = redis
	}

	accountRepo := storage.NewAccountRepository(postgres)
	dailyRepo := storage.NewDailyStatsRepository(postgres)
	weeklyRepo := storage.NewWeeklyStatsRepository(postgres)

	client := avito.NewClient(cfg.Avito.BaseURL, cfg.Avito.RequestTimeout)
	client.SetBreaker(circuitbreaker.New(circuitbreaker.DefaultConfig("avito-api"), log))

	resolver := service.NewResolver(dailyRepo, weeklyRepo)
	retention := service.NewRetentionSweeper(dailyRepo, weeklyRepo, cfg.Retention.DailyDays, cfg.Retention.WeeklyWeeks, log)
	ingest := service.NewIngestService(
		accountRepo, dailyRepo, weeklyRepo, client, cache,
		resolver, service.NoopAnomalyChecker{}, service.NewLogDispatcher(log), retention,
		cfg.Scheduler.Location(), log,
	)
	reports := service.NewReportBuilder(ingest, resolver, cfg.Scheduler.Location())
	backfill := service.NewBackfillService(accountRepo, dailyRepo, client, cfg.Backfill.ProviderPause, log)

	server := api.NewServer(
		api.DefaultServerConfig(cfg.Server.Host, cfg.Server.Port),
		accountRepo, reports, backfill, postgres, cachePinger, log,
	)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server shutting down")
	if err := server.Shutdown(context.Background()); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	log.Info("Server stopped")
}
