package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avito-insight/internal/models"
	"github.com/avito-insight/internal/period"
)

// RecordEnsurer defines the get-or-create interface for period records
type RecordEnsurer interface {
	EnsureDailyRecord(ctx context.Context, account *models.Account, date time.Time, captureExpense bool) (*models.DailyStats, error)
	EnsureWeeklyRecord(ctx context.Context, account *models.Account, weekStart time.Time) (*models.WeeklyStats, error)
}

// ReportBuilder assembles on-demand comparison reports for the HTTP API. It
// reuses the pipeline's get-or-create path, so requesting today's report
// before the daily job has run stores today's record as a side effect.
type ReportBuilder struct {
	ensurer    RecordEnsurer
	resolver   *Resolver
	defaultLoc *time.Location
}

// NewReportBuilder creates a new report builder
func NewReportBuilder(ensurer RecordEnsurer, resolver *Resolver, defaultLoc *time.Location) *ReportBuilder {
	return &ReportBuilder{ensurer: ensurer, resolver: resolver, defaultLoc: defaultLoc}
}

// BuildDailyReport builds the comparison report for the account's current day.
func (b *ReportBuilder) BuildDailyReport(ctx context.Context, account *models.Account, now time.Time) (*DailyComparison, error) {
	today := period.DateOf(now, account.Location(b.defaultLoc))

	current, err := b.ensurer.EnsureDailyRecord(ctx, account, today, true)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure daily record: %w", err)
	}

	previous, err := b.resolver.PreviousDaily(ctx, account.ID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve previous day: %w", err)
	}

	return &DailyComparison{
		AccountID:   account.ID,
		AccountName: account.Name,
		Date:        today.Format("2006-01-02"),
		Current:     current,
		Previous:    previous,
		Metrics:     CompareDaily(current, previous),
	}, nil
}

// BuildWeeklyReport builds the comparison report for the account's most
// recently finished week.
func (b *ReportBuilder) BuildWeeklyReport(ctx context.Context, account *models.Account, now time.Time) (*WeeklyComparison, error) {
	today := period.DateOf(now, account.Location(b.defaultLoc))
	weekStart := period.PreviousWeekStart(today)

	current, err := b.ensurer.EnsureWeeklyRecord(ctx, account, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure weekly record: %w", err)
	}

	previous, err := b.resolver.PreviousWeekly(ctx, account.ID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve previous week: %w", err)
	}

	return &WeeklyComparison{
		AccountID:   account.ID,
		AccountName: account.Name,
		Period:      current.Period,
		Current:     current,
		Previous:    previous,
		Metrics:     CompareWeekly(current, previous),
	}, nil
}
