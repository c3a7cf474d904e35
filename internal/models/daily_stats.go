package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseDetail is one category of the provider's expense breakdown.
type ExpenseDetail struct {
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
	Items  []string        `json:"items,omitempty"`
}

// DailyStats is an immutable statistics snapshot for one account over one
// calendar day. At most one record exists per (account, date); the composite
// unique constraint in the store is the final authority on that.
type DailyStats struct {
	ID        int64     `json:"id"`
	AccountID string    `json:"accountId"`
	StatDate  time.Time `json:"statDate"` // date component only, UTC midnight

	TotalCalls    int `json:"totalCalls"`
	AnsweredCalls int `json:"answeredCalls"`
	MissedCalls   int `json:"missedCalls"`

	TotalChats     int `json:"totalChats"`
	NewChats       int `json:"newChats"`
	PhonesReceived int `json:"phonesReceived"`

	Rating       float64 `json:"rating"`
	TotalReviews int     `json:"totalReviews"`
	NewReviews   int     `json:"newReviews"`

	TotalItems             int `json:"totalItems"`
	XLPromotionCount       int `json:"xlPromotionCount"`
	ToolsSubscriptionCount int `json:"toolsSubscriptionCount"`

	Views     int `json:"views"`
	Contacts  int `json:"contacts"`
	Favorites int `json:"favorites"`

	BalanceReal  decimal.Decimal `json:"balanceReal"`
	BalanceBonus decimal.Decimal `json:"balanceBonus"`
	Advance      decimal.Decimal `json:"advance"`

	// DailyExpense is the accumulator value captured at write time. Backfilled
	// past dates record zero because the accumulator has no historical memory.
	DailyExpense decimal.Decimal `json:"dailyExpense"`

	ExpenseDetails map[string]ExpenseDetail `json:"expenseDetails,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
