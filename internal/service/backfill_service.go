package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avito-insight/internal/models"
	"github.com/avito-insight/internal/period"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// BackfillService fills historical gaps in daily records. Days already
// present are skipped without touching the provider, so re-running a backfill
// is cheap and safe. Provider calls are spaced by a rate limiter to stay
// under the API's request ceiling.
type BackfillService struct {
	accounts IngestAccountStore
	daily    DailyStatsStore
	provider StatsProvider
	limiter  *rate.Limiter
	log      *logrus.Logger
}

// NewBackfillService creates a backfill service pacing provider calls at most
// one per pause interval.
func NewBackfillService(accounts IngestAccountStore, daily DailyStatsStore, provider StatsProvider, pause time.Duration, log *logrus.Logger) *BackfillService {
	return &BackfillService{
		accounts: accounts,
		daily:    daily,
		provider: provider,
		limiter:  rate.NewLimiter(rate.Every(pause), 1),
		log:      log,
	}
}

// Run backfills the last days calendar days for every credentialed account.
func (s *BackfillService) Run(ctx context.Context, days int, now time.Time) error {
	accounts, err := s.accounts.ListWithCredentials(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"accounts": len(accounts),
		"days":     days,
	}).Info("Backfill started")

	for _, account := range accounts {
		created, err := s.RunAccount(ctx, account, days, now)
		if err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"account": account.Name,
			"created": created,
		}).Info("Account backfill finished")
	}
	return nil
}

// RunAccount backfills the last days calendar days for one account, walking
// from yesterday backwards. A failing day is logged and skipped; only context
// cancellation aborts the walk. Returns the number of records created.
func (s *BackfillService) RunAccount(ctx context.Context, account *models.Account, days int, now time.Time) (int, error) {
	today := period.DateOf(now, time.UTC)
	created := 0

	for offset := 1; offset <= days; offset++ {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		date := today.AddDate(0, 0, -offset)
		ok, err := s.backfillDay(ctx, account, date)
		if err != nil {
			if ctx.Err() != nil {
				return created, ctx.Err()
			}
			s.log.WithFields(logrus.Fields{
				"account": account.Name,
				"date":    date.Format("2006-01-02"),
			}).WithError(err).Warn("Backfill day failed, skipped")
			continue
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// backfillDay writes the record for one missing day. Existing days return
// (false, nil) without consuming a rate token.
func (s *BackfillService) backfillDay(ctx context.Context, account *models.Account, date time.Time) (bool, error) {
	exists, err := s.daily.Exists(ctx, account.ID, date)
	if err != nil {
		return false, fmt.Errorf("failed to check record existence: %w", err)
	}
	if exists {
		return false, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return false, err
	}

	snapshot, err := s.provider.GetDailyStats(ctx, account.ClientID, account.ClientSecret)
	if err != nil {
		return false, fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	// Past dates never capture the live accumulator.
	stats := snapshotToDaily(account.ID, date, snapshot)
	created, err := s.daily.Insert(ctx, stats)
	if err != nil {
		return false, fmt.Errorf("failed to insert record: %w", err)
	}
	return created, nil
}
