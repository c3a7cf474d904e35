package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// WeeklyStats is an immutable statistics snapshot for one account over one
// Monday-to-Sunday week. WeekEnd is always WeekStart plus six days; at most
// one record exists per (account, week start).
type WeeklyStats struct {
	ID        int64     `json:"id"`
	AccountID string    `json:"accountId"`
	WeekStart time.Time `json:"weekStart"` // always a Monday, UTC midnight
	WeekEnd   time.Time `json:"weekEnd"`
	Period    string    `json:"period"`

	TotalCalls    int `json:"totalCalls"`
	AnsweredCalls int `json:"answeredCalls"`
	MissedCalls   int `json:"missedCalls"`

	TotalChats     int `json:"totalChats"`
	NewChats       int `json:"newChats"`
	PhonesReceived int `json:"phonesReceived"`

	Rating        float64 `json:"rating"`
	TotalReviews  int     `json:"totalReviews"`
	WeeklyReviews int     `json:"weeklyReviews"`

	TotalItems             int `json:"totalItems"`
	XLPromotionCount       int `json:"xlPromotionCount"`
	ToolsSubscriptionCount int `json:"toolsSubscriptionCount"`

	Views     int `json:"views"`
	Contacts  int `json:"contacts"`
	Favorites int `json:"favorites"`

	BalanceReal  decimal.Decimal `json:"balanceReal"`
	BalanceBonus decimal.Decimal `json:"balanceBonus"`
	Advance      decimal.Decimal `json:"advance"`
	CPABalance   decimal.Decimal `json:"cpaBalance"`

	// WeeklyExpense is the accumulator value captured at write time.
	WeeklyExpense decimal.Decimal `json:"weeklyExpense"`

	ExpenseDetails map[string]ExpenseDetail `json:"expenseDetails,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// NewWeeklyStats creates a weekly record for the week starting at weekStart,
// deriving WeekEnd and the default period label.
func NewWeeklyStats(accountID string, weekStart time.Time) *WeeklyStats {
	weekEnd := weekStart.AddDate(0, 0, 6)
	return &WeeklyStats{
		AccountID: accountID,
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		Period:    fmt.Sprintf("%s - %s", weekStart.Format("2006-01-02"), weekEnd.Format("2006-01-02")),
	}
}
