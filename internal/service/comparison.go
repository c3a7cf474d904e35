package service

import (
	"github.com/avito-insight/internal/models"
	"github.com/shopspring/decimal"
)

// PercentChange returns the signed percentage change from previous to current.
// A zero previous value yields 100 when current is positive and 0 otherwise,
// so a metric appearing for the first time reads as full growth rather than a
// division error.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

// MetricChange is one compared metric with its period-over-period delta.
type MetricChange struct {
	Name     string  `json:"name"`
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Change   float64 `json:"change"`
}

// DailyComparison is a daily record joined with its resolved previous period.
// Previous is nil and Metrics carries zero previous values when no earlier
// record could be resolved.
type DailyComparison struct {
	AccountID   string             `json:"accountId"`
	AccountName string             `json:"accountName"`
	Date        string             `json:"date"`
	Current     *models.DailyStats `json:"current"`
	Previous    *models.DailyStats `json:"previous,omitempty"`
	Metrics     []MetricChange     `json:"metrics"`
}

// WeeklyComparison is a weekly record joined with its resolved previous week.
type WeeklyComparison struct {
	AccountID   string              `json:"accountId"`
	AccountName string              `json:"accountName"`
	Period      string              `json:"period"`
	Current     *models.WeeklyStats `json:"current"`
	Previous    *models.WeeklyStats `json:"previous,omitempty"`
	Metrics     []MetricChange      `json:"metrics"`
}

func metric(name string, current, previous float64) MetricChange {
	return MetricChange{
		Name:     name,
		Current:  current,
		Previous: previous,
		Change:   PercentChange(current, previous),
	}
}

func decimalValue(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}

// CompareDaily computes the metric deltas between a daily record and its
// previous period. A nil previous compares against zeroes.
func CompareDaily(current, previous *models.DailyStats) []MetricChange {
	prev := previous
	if prev == nil {
		prev = &models.DailyStats{}
	}
	return []MetricChange{
		metric("views", float64(current.Views), float64(prev.Views)),
		metric("contacts", float64(current.Contacts), float64(prev.Contacts)),
		metric("favorites", float64(current.Favorites), float64(prev.Favorites)),
		metric("total_calls", float64(current.TotalCalls), float64(prev.TotalCalls)),
		metric("answered_calls", float64(current.AnsweredCalls), float64(prev.AnsweredCalls)),
		metric("missed_calls", float64(current.MissedCalls), float64(prev.MissedCalls)),
		metric("total_chats", float64(current.TotalChats), float64(prev.TotalChats)),
		metric("new_chats", float64(current.NewChats), float64(prev.NewChats)),
		metric("phones_received", float64(current.PhonesReceived), float64(prev.PhonesReceived)),
		metric("rating", current.Rating, prev.Rating),
		metric("total_reviews", float64(current.TotalReviews), float64(prev.TotalReviews)),
		metric("new_reviews", float64(current.NewReviews), float64(prev.NewReviews)),
		metric("total_items", float64(current.TotalItems), float64(prev.TotalItems)),
		metric("xl_promotion", float64(current.XLPromotionCount), float64(prev.XLPromotionCount)),
		metric("tools_subscription", float64(current.ToolsSubscriptionCount), float64(prev.ToolsSubscriptionCount)),
		metric("daily_expense", decimalValue(current.DailyExpense), decimalValue(prev.DailyExpense)),
	}
}

// CompareWeekly computes the metric deltas between a weekly record and its
// previous week. A nil previous compares against zeroes.
func CompareWeekly(current, previous *models.WeeklyStats) []MetricChange {
	prev := previous
	if prev == nil {
		prev = &models.WeeklyStats{}
	}
	return []MetricChange{
		metric("views", float64(current.Views), float64(prev.Views)),
		metric("contacts", float64(current.Contacts), float64(prev.Contacts)),
		metric("favorites", float64(current.Favorites), float64(prev.Favorites)),
		metric("total_calls", float64(current.TotalCalls), float64(prev.TotalCalls)),
		metric("answered_calls", float64(current.AnsweredCalls), float64(prev.AnsweredCalls)),
		metric("missed_calls", float64(current.MissedCalls), float64(prev.MissedCalls)),
		metric("total_chats", float64(current.TotalChats), float64(prev.TotalChats)),
		metric("new_chats", float64(current.NewChats), float64(prev.NewChats)),
		metric("phones_received", float64(current.PhonesReceived), float64(prev.PhonesReceived)),
		metric("rating", current.Rating, prev.Rating),
		metric("total_reviews", float64(current.TotalReviews), float64(prev.TotalReviews)),
		metric("weekly_reviews", float64(current.WeeklyReviews), float64(prev.WeeklyReviews)),
		metric("total_items", float64(current.TotalItems), float64(prev.TotalItems)),
		metric("xl_promotion", float64(current.XLPromotionCount), float64(prev.XLPromotionCount)),
		metric("tools_subscription", float64(current.ToolsSubscriptionCount), float64(prev.ToolsSubscriptionCount)),
		metric("weekly_expense", decimalValue(current.WeeklyExpense), decimalValue(prev.WeeklyExpense)),
	}
}
