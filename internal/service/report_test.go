package service

import (
	"context"
	"testing"
	"time"

	"github.com/avito-insight/internal/avito"
	"github.com/avito-insight/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportFixture(accounts ...*models.Account) (*ReportBuilder, *ingestFixture) {
	f := newIngestFixture(accounts...)
	builder := NewReportBuilder(f.service, NewResolver(f.daily, f.weekly), time.UTC)
	return builder, f
}

func TestBuildDailyReportStoresTodayOnDemand(t *testing.T) {
	account := testAccount("acc-1", "Shop One")
	account.DailyExpense = decimal.NewFromInt(50)
	builder, f := newReportFixture(account)

	now := time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC)
	report, err := builder.BuildDailyReport(context.Background(), account, now)

	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", report.Date)
	assert.Nil(t, report.Previous)

	// Requesting the report before the daily job ran stored today's record.
	stored, _ := f.daily.GetByDate(context.Background(), "acc-1", utcDate(2025, 3, 11))
	require.NotNil(t, stored)
	assert.True(t, stored.DailyExpense.Equal(decimal.NewFromInt(50)))
}

func TestBuildDailyReportReusesStoredRecord(t *testing.T) {
	account := testAccount("acc-1", "Shop One")
	builder, f := newReportFixture(account)

	existing := storedDaily(f.daily, "acc-1", utcDate(2025, 3, 11), 640)
	storedDaily(f.daily, "acc-1", utcDate(2025, 3, 10), 320)

	now := time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC)
	report, err := builder.BuildDailyReport(context.Background(), account, now)

	require.NoError(t, err)
	assert.Same(t, existing, report.Current)
	require.NotNil(t, report.Previous)
	assert.Zero(t, f.provider.dailyCalls)

	for _, m := range report.Metrics {
		if m.Name == "views" {
			assert.InDelta(t, 100.0, m.Change, 1e-9)
		}
	}
}

func TestBuildWeeklyReportTargetsFinishedWeek(t *testing.T) {
	account := testAccount("acc-1", "Shop One")
	builder, f := newReportFixture(account)
	f.provider.weeklyFn = func(clientID string) (*avito.StatsSnapshot, error) {
		return &avito.StatsSnapshot{Statistics: avito.TrafficStats{Views: 700}}, nil
	}

	now := time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC)
	report, err := builder.BuildWeeklyReport(context.Background(), account, now)

	require.NoError(t, err)
	require.NotNil(t, report.Current)
	assert.True(t, report.Current.WeekStart.Equal(utcDate(2025, 3, 3)))
	assert.Equal(t, 700, report.Current.Views)
}
