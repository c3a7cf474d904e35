// Package models provides data structures for tracked advertising accounts
// and their statistics records.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents one tracked advertising account with its API credentials
// and running expense counters.
type Account struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"-"`

	// Timezone is the IANA name of the account's local timezone. Empty means
	// the service default applies.
	Timezone string `json:"timezone,omitempty"`

	// Report recipients. Nil means the account receives no report of that kind.
	DailyReportChatID  *int64 `json:"dailyReportChatId,omitempty"`
	WeeklyReportChatID *int64 `json:"weeklyReportChatId,omitempty"`

	// Balance observation state for expense tracking. LastBalance is nil until
	// the first successful balance fetch.
	LastBalance          *decimal.Decimal `json:"lastBalance,omitempty"`
	LastBalanceCheckedAt *time.Time       `json:"lastBalanceCheckedAt,omitempty"`

	// Running expense accumulators, reset by the daily and weekly pipelines.
	DailyExpense  decimal.Decimal `json:"dailyExpense"`
	WeeklyExpense decimal.Decimal `json:"weeklyExpense"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasCredentials reports whether the account carries a usable API credential
// pair. Accounts registered without credentials store the literal "none".
func (a *Account) HasCredentials() bool {
	if a.ClientID == "" || a.ClientID == "none" {
		return false
	}
	if a.ClientSecret == "" || a.ClientSecret == "none" {
		return false
	}
	return true
}

// Location resolves the account's timezone, falling back to the given default
// when the account has none or an invalid one configured.
func (a *Account) Location(fallback *time.Location) *time.Location {
	if a.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}
