package service

import (
	"testing"

	"github.com/avito-insight/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		want     float64
	}{
		{"both zero", 0, 0, 0},
		{"appearing metric reads as full growth", 5, 0, 100},
		{"halved", 50, 100, -50},
		{"grown by half", 150, 100, 50},
		{"unchanged", 42, 42, 0},
		{"dropped to zero", 0, 80, -100},
		{"negative baseline", -50, -100, -50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PercentChange(tt.current, tt.previous), 1e-9)
		})
	}
}

func TestCompareDailyWithoutPrevious(t *testing.T) {
	current := &models.DailyStats{
		Views:        120,
		Contacts:     8,
		DailyExpense: decimal.NewFromInt(500),
	}

	metrics := CompareDaily(current, nil)

	byName := make(map[string]MetricChange, len(metrics))
	for _, m := range metrics {
		byName[m.Name] = m
	}

	assert.Equal(t, 100.0, byName["views"].Change)
	assert.Equal(t, 0.0, byName["views"].Previous)
	assert.Equal(t, 100.0, byName["daily_expense"].Change)
	assert.Equal(t, 0.0, byName["rating"].Change)
}

func TestCompareDailyAgainstPrevious(t *testing.T) {
	current := &models.DailyStats{Views: 150, Contacts: 5, Rating: 4.8}
	previous := &models.DailyStats{Views: 100, Contacts: 10, Rating: 4.8}

	metrics := CompareDaily(current, previous)

	byName := make(map[string]MetricChange, len(metrics))
	for _, m := range metrics {
		byName[m.Name] = m
	}

	assert.Equal(t, 50.0, byName["views"].Change)
	assert.Equal(t, -50.0, byName["contacts"].Change)
	assert.Equal(t, 0.0, byName["rating"].Change)
}

func TestCompareWeeklyExpense(t *testing.T) {
	current := &models.WeeklyStats{WeeklyExpense: decimal.NewFromInt(300)}
	previous := &models.WeeklyStats{WeeklyExpense: decimal.NewFromInt(200)}

	metrics := CompareWeekly(current, previous)

	for _, m := range metrics {
		if m.Name == "weekly_expense" {
			assert.InDelta(t, 50.0, m.Change, 1e-9)
			return
		}
	}
	t.Fatal("weekly_expense metric not found")
}
