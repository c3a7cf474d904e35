package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avito-insight/internal/models"
)

// DailyStatsHistory defines the interface for reading daily stats history
type DailyStatsHistory interface {
	GetByDate(ctx context.Context, accountID string, date time.Time) (*models.DailyStats, error)
	GetLatestBefore(ctx context.Context, accountID string, date time.Time) (*models.DailyStats, error)
	ListRange(ctx context.Context, accountID string, from, to time.Time) ([]*models.DailyStats, error)
}

// WeeklyStatsHistory defines the interface for reading weekly stats history
type WeeklyStatsHistory interface {
	GetByWeekStart(ctx context.Context, accountID string, weekStart time.Time) (*models.WeeklyStats, error)
	GetLatestBefore(ctx context.Context, accountID string, weekStart time.Time) (*models.WeeklyStats, error)
}

// Resolver finds the previous-period record to compare a current record
// against. Sparse history is expected after downtime, so each lookup walks a
// fallback chain; exhausting the chain returns (nil, nil) because a missing
// comparison baseline is a normal state, not a failure.
type Resolver struct {
	daily  DailyStatsHistory
	weekly WeeklyStatsHistory
}

// NewResolver creates a new previous-period resolver
func NewResolver(daily DailyStatsHistory, weekly WeeklyStatsHistory) *Resolver {
	return &Resolver{daily: daily, weekly: weekly}
}

// PreviousDaily resolves the comparison record for the daily record at date.
// Chain: the exact previous day, then the most recent record strictly before
// date, then nothing.
func (r *Resolver) PreviousDaily(ctx context.Context, accountID string, date time.Time) (*models.DailyStats, error) {
	exact, err := r.daily.GetByDate(ctx, accountID, date.AddDate(0, 0, -1))
	if err != nil {
		return nil, fmt.Errorf("failed to get previous day record: %w", err)
	}
	if exact != nil {
		return exact, nil
	}

	latest, err := r.daily.GetLatestBefore(ctx, accountID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest record before %s: %w", date.Format("2006-01-02"), err)
	}
	return latest, nil
}

// PreviousWeekly resolves the comparison record for the weekly record starting
// at weekStart. Chain: the exact previous week, then the most recent weekly
// record strictly before weekStart, then an aggregate synthesized from the
// previous week's daily records, then nothing.
func (r *Resolver) PreviousWeekly(ctx context.Context, accountID string, weekStart time.Time) (*models.WeeklyStats, error) {
	prevStart := weekStart.AddDate(0, 0, -7)

	exact, err := r.weekly.GetByWeekStart(ctx, accountID, prevStart)
	if err != nil {
		return nil, fmt.Errorf("failed to get previous week record: %w", err)
	}
	if exact != nil {
		return exact, nil
	}

	latest, err := r.weekly.GetLatestBefore(ctx, accountID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest weekly record before %s: %w", weekStart.Format("2006-01-02"), err)
	}
	if latest != nil {
		return latest, nil
	}

	days, err := r.daily.ListRange(ctx, accountID, prevStart, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily records for week synthesis: %w", err)
	}
	if len(days) == 0 {
		return nil, nil
	}
	return synthesizeWeekly(accountID, prevStart, days), nil
}

// synthesizeWeekly aggregates daily records into a weekly shape. Flow counters
// are summed; level metrics (rating, totals, balances) take the value of the
// last day present, matching how a genuine weekly snapshot reads at week end.
func synthesizeWeekly(accountID string, weekStart time.Time, days []*models.DailyStats) *models.WeeklyStats {
	weekly := models.NewWeeklyStats(accountID, weekStart)

	for _, day := range days {
		weekly.TotalCalls += day.TotalCalls
		weekly.AnsweredCalls += day.AnsweredCalls
		weekly.MissedCalls += day.MissedCalls
		weekly.TotalChats += day.TotalChats
		weekly.NewChats += day.NewChats
		weekly.PhonesReceived += day.PhonesReceived
		weekly.WeeklyReviews += day.NewReviews
		weekly.Views += day.Views
		weekly.Contacts += day.Contacts
		weekly.Favorites += day.Favorites
		weekly.WeeklyExpense = weekly.WeeklyExpense.Add(day.DailyExpense)
	}

	last := days[len(days)-1]
	weekly.Rating = last.Rating
	weekly.TotalReviews = last.TotalReviews
	weekly.TotalItems = last.TotalItems
	weekly.XLPromotionCount = last.XLPromotionCount
	weekly.ToolsSubscriptionCount = last.ToolsSubscriptionCount
	weekly.BalanceReal = last.BalanceReal
	weekly.BalanceBonus = last.BalanceBonus
	weekly.Advance = last.Advance

	return weekly
}
