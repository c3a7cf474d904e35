package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avito-insight/internal/period"
	"github.com/sirupsen/logrus"
)

// DailyStatsPruner defines the delete interface for daily records
type DailyStatsPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// WeeklyStatsPruner defines the delete interface for weekly records
type WeeklyStatsPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionSweeper deletes statistics records past their retention horizon.
// Daily records are kept for a fixed number of days, weekly records for a
// fixed number of weeks.
type RetentionSweeper struct {
	daily       DailyStatsPruner
	weekly      WeeklyStatsPruner
	dailyDays   int
	weeklyWeeks int
	log         *logrus.Logger
}

// NewRetentionSweeper creates a new retention sweeper
func NewRetentionSweeper(daily DailyStatsPruner, weekly WeeklyStatsPruner, dailyDays, weeklyWeeks int, log *logrus.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		daily:       daily,
		weekly:      weekly,
		dailyDays:   dailyDays,
		weeklyWeeks: weeklyWeeks,
		log:         log,
	}
}

// Sweep deletes daily records dated before today minus the daily horizon and
// weekly records starting before the current week minus the weekly horizon.
// A record exactly at the horizon is retained.
func (s *RetentionSweeper) Sweep(ctx context.Context, now time.Time) error {
	today := period.DateOf(now, time.UTC)

	dailyCutoff := today.AddDate(0, 0, -s.dailyDays)
	dailyDeleted, err := s.daily.DeleteOlderThan(ctx, dailyCutoff)
	if err != nil {
		return fmt.Errorf("failed to prune daily records: %w", err)
	}

	weeklyCutoff := period.WeekStart(today).AddDate(0, 0, -7*s.weeklyWeeks)
	weeklyDeleted, err := s.weekly.DeleteOlderThan(ctx, weeklyCutoff)
	if err != nil {
		return fmt.Errorf("failed to prune weekly records: %w", err)
	}

	if dailyDeleted > 0 || weeklyDeleted > 0 {
		s.log.WithFields(logrus.Fields{
			"daily_deleted":  dailyDeleted,
			"weekly_deleted": weeklyDeleted,
		}).Info("Retention sweep completed")
	}
	return nil
}
