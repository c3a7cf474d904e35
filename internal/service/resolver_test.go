package service

import (
	"context"
	"testing"
	"time"

	"github.com/avito-insight/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedDaily(store *mockDailyStore, accountID string, date time.Time, views int) *models.DailyStats {
	stats := &models.DailyStats{AccountID: accountID, StatDate: date, Views: views}
	store.records[dailyKeyOf(accountID, date)] = stats
	return stats
}

func storedWeekly(store *mockWeeklyStore, accountID string, weekStart time.Time, views int) *models.WeeklyStats {
	stats := models.NewWeeklyStats(accountID, weekStart)
	stats.Views = views
	store.records[dailyKeyOf(accountID, weekStart)] = stats
	return stats
}

func TestPreviousDailyPrefersExactPreviousDay(t *testing.T) {
	daily := newMockDailyStore()
	ref := utcDate(2025, 3, 11)
	want := storedDaily(daily, "acc-1", ref.AddDate(0, 0, -1), 100)
	storedDaily(daily, "acc-1", ref.AddDate(0, 0, -5), 50)

	resolver := NewResolver(daily, newMockWeeklyStore())
	got, err := resolver.PreviousDaily(context.Background(), "acc-1", ref)

	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestPreviousDailyFallsBackToLatestBefore(t *testing.T) {
	daily := newMockDailyStore()
	ref := utcDate(2025, 3, 11)
	storedDaily(daily, "acc-1", ref.AddDate(0, 0, -9), 30)
	want := storedDaily(daily, "acc-1", ref.AddDate(0, 0, -4), 70)

	resolver := NewResolver(daily, newMockWeeklyStore())
	got, err := resolver.PreviousDaily(context.Background(), "acc-1", ref)

	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestPreviousDailyAbsenceIsNotAnError(t *testing.T) {
	resolver := NewResolver(newMockDailyStore(), newMockWeeklyStore())

	got, err := resolver.PreviousDaily(context.Background(), "acc-1", utcDate(2025, 3, 11))

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPreviousDailyIsDeterministic(t *testing.T) {
	daily := newMockDailyStore()
	ref := utcDate(2025, 3, 11)
	storedDaily(daily, "acc-1", ref.AddDate(0, 0, -3), 10)
	storedDaily(daily, "acc-1", ref.AddDate(0, 0, -6), 20)

	resolver := NewResolver(daily, newMockWeeklyStore())

	first, err := resolver.PreviousDaily(context.Background(), "acc-1", ref)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := resolver.PreviousDaily(context.Background(), "acc-1", ref)
		require.NoError(t, err)
		assert.Same(t, first, again)
	}
}

func TestPreviousWeeklyPrefersExactPreviousWeek(t *testing.T) {
	weekly := newMockWeeklyStore()
	weekStart := utcDate(2025, 3, 10) // Monday
	want := storedWeekly(weekly, "acc-1", weekStart.AddDate(0, 0, -7), 400)
	storedWeekly(weekly, "acc-1", weekStart.AddDate(0, 0, -21), 100)

	resolver := NewResolver(newMockDailyStore(), weekly)
	got, err := resolver.PreviousWeekly(context.Background(), "acc-1", weekStart)

	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestPreviousWeeklyFallsBackToLatestBefore(t *testing.T) {
	weekly := newMockWeeklyStore()
	weekStart := utcDate(2025, 3, 10)
	want := storedWeekly(weekly, "acc-1", weekStart.AddDate(0, 0, -14), 250)

	resolver := NewResolver(newMockDailyStore(), weekly)
	got, err := resolver.PreviousWeekly(context.Background(), "acc-1", weekStart)

	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestPreviousWeeklySynthesizesFromDailyRecords(t *testing.T) {
	daily := newMockDailyStore()
	weekStart := utcDate(2025, 3, 10)
	prevStart := weekStart.AddDate(0, 0, -7) // 2025-03-03

	// Seven days of the previous week plus records outside the window that
	// must not leak into the aggregate.
	for i := 0; i < 7; i++ {
		day := storedDaily(daily, "acc-1", prevStart.AddDate(0, 0, i), i+1)
		day.TotalCalls = 2
		day.NewReviews = 1
		day.Rating = 4.0 + float64(i)*0.1
		day.TotalItems = 10 + i
		day.DailyExpense = decimal.NewFromInt(int64(10 * (i + 1)))
	}
	storedDaily(daily, "acc-1", prevStart.AddDate(0, 0, -1), 999)
	storedDaily(daily, "acc-1", weekStart, 999)

	resolver := NewResolver(daily, newMockWeeklyStore())
	got, err := resolver.PreviousWeekly(context.Background(), "acc-1", weekStart)

	require.NoError(t, err)
	require.NotNil(t, got)

	// Flow counters sum: views 1+2+...+7, expense 10+20+...+70.
	assert.Equal(t, 28, got.Views)
	assert.Equal(t, 14, got.TotalCalls)
	assert.Equal(t, 7, got.WeeklyReviews)
	assert.True(t, got.WeeklyExpense.Equal(decimal.NewFromInt(280)))

	// Level metrics take the last day's value.
	assert.InDelta(t, 4.6, got.Rating, 1e-9)
	assert.Equal(t, 16, got.TotalItems)

	assert.True(t, got.WeekStart.Equal(prevStart))
	assert.True(t, got.WeekEnd.Equal(prevStart.AddDate(0, 0, 6)))
}

func TestPreviousWeeklyExhaustedChainReturnsNothing(t *testing.T) {
	resolver := NewResolver(newMockDailyStore(), newMockWeeklyStore())

	got, err := resolver.PreviousWeekly(context.Background(), "acc-1", utcDate(2025, 3, 10))

	require.NoError(t, err)
	assert.Nil(t, got)
}
