// Package main provides the historical backfill CLI.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avito-insight/internal/avito"
	"github.com/avito-insight/internal/config"
	"github.com/avito-insight/internal/logging"
	"github.com/avito-insight/internal/service"
	"github.com/avito-insight/internal/storage"
)

func main() {
	var (
		days      = flag.Int("days", 0, "Number of past days to backfill (default from config)")
		accountID = flag.String("account", "", "Backfill a single account by ID (default: all)")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}
	log := logging.New(&cfg.Logging)

	if *days <= 0 {
		*days = cfg.Backfill.DefaultDays
	}

	postgres, err := storage.NewPostgresDB(&cfg.Postgres)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	accountRepo := storage.NewAccountRepository(postgres)
	dailyRepo := storage.NewDailyStatsRepository(postgres)
	client := avito.NewClient(cfg.Avito.BaseURL, cfg.Avito.RequestTimeout)
	backfill := service.NewBackfillService(accountRepo, dailyRepo, client, cfg.Backfill.ProviderPause, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("Interrupted, finishing current day")
		cancel()
	}()

	now := time.Now()
	if *accountID != "" {
		account, err := accountRepo.GetByID(ctx, *accountID)
		if err != nil {
			log.WithError(err).Fatal("Failed to load account")
		}
		created, err := backfill.RunAccount(ctx, account, *days, now)
		if err != nil {
			log.WithError(err).Fatal("Backfill failed")
		}
		log.WithField("created", created).Info("Backfill finished")
		return
	}

	if err := backfill.Run(ctx, *days, now); err != nil {
		log.WithError(err).Fatal("Backfill failed")
	}
	log.Info("Backfill finished")
}
