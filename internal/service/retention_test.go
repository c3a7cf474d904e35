package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepDeletesPastHorizonOnly(t *testing.T) {
	daily := newMockDailyStore()
	weekly := newMockWeeklyStore()
	today := utcDate(2025, 3, 11)

	storedDaily(daily, "acc-1", today.AddDate(0, 0, -31), 1)
	atHorizon := storedDaily(daily, "acc-1", today.AddDate(0, 0, -30), 2)
	kept := storedDaily(daily, "acc-1", today.AddDate(0, 0, -29), 3)

	sweeper := NewRetentionSweeper(daily, weekly, 30, 12, testLogger())
	require.NoError(t, sweeper.Sweep(context.Background(), today.Add(5*time.Hour)))

	gone, _ := daily.GetByDate(context.Background(), "acc-1", today.AddDate(0, 0, -31))
	assert.Nil(t, gone)
	still, _ := daily.GetByDate(context.Background(), "acc-1", atHorizon.StatDate)
	assert.Same(t, atHorizon, still, "a record exactly at the horizon is retained")
	still, _ = daily.GetByDate(context.Background(), "acc-1", kept.StatDate)
	assert.Same(t, kept, still)
}

func TestSweepWeeklyHorizonInWeeks(t *testing.T) {
	daily := newMockDailyStore()
	weekly := newMockWeeklyStore()

	// Tuesday 2025-03-11: current week starts 2025-03-10, cutoff 12 weeks back.
	currentMonday := utcDate(2025, 3, 10)
	storedWeekly(weekly, "acc-1", currentMonday.AddDate(0, 0, -13*7), 1)
	kept := storedWeekly(weekly, "acc-1", currentMonday.AddDate(0, 0, -12*7), 2)

	sweeper := NewRetentionSweeper(daily, weekly, 30, 12, testLogger())
	require.NoError(t, sweeper.Sweep(context.Background(), utcDate(2025, 3, 11)))

	gone, _ := weekly.GetByWeekStart(context.Background(), "acc-1", currentMonday.AddDate(0, 0, -13*7))
	assert.Nil(t, gone)
	still, _ := weekly.GetByWeekStart(context.Background(), "acc-1", kept.WeekStart)
	assert.Same(t, kept, still)
}
