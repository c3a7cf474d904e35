package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avito-insight/internal/avito"
	"github.com/avito-insight/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// BalanceProvider defines the interface for fetching an account's balance
type BalanceProvider interface {
	GetBalance(ctx context.Context, clientID, clientSecret string) (*avito.BalanceInfo, error)
}

// ExpenseAccountStore defines the account operations the tracker needs
type ExpenseAccountStore interface {
	ListWithCredentials(ctx context.Context) ([]*models.Account, error)
	RecordBalanceObservation(ctx context.Context, accountID string, balance decimal.Decimal, checkedAt time.Time) error
	AccrueExpense(ctx context.Context, accountID string, amount, balance decimal.Decimal, checkedAt time.Time) error
}

// ExpenseTracker accrues spend by sampling account balances. Each drop between
// consecutive samples counts as expense; top-ups raise the balance and are
// simply absorbed into the next baseline, so spend during a top-up interval is
// measured net.
type ExpenseTracker struct {
	accounts ExpenseAccountStore
	provider BalanceProvider
	log      *logrus.Logger
}

// NewExpenseTracker creates a new expense tracker
func NewExpenseTracker(accounts ExpenseAccountStore, provider BalanceProvider, log *logrus.Logger) *ExpenseTracker {
	return &ExpenseTracker{accounts: accounts, provider: provider, log: log}
}

// Tick samples every credentialed account once. A failing account is logged
// and skipped; the next tick is the retry. The returned error is non-nil only
// when the account list itself cannot be read.
func (t *ExpenseTracker) Tick(ctx context.Context, now time.Time) error {
	accounts, err := t.accounts.ListWithCredentials(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	for _, account := range accounts {
		if err := t.observe(ctx, account, now); err != nil {
			t.log.WithFields(logrus.Fields{
				"account": account.Name,
			}).WithError(err).Warn("Balance observation failed")
		}
	}
	return nil
}

func (t *ExpenseTracker) observe(ctx context.Context, account *models.Account, now time.Time) error {
	balance, err := t.provider.GetBalance(ctx, account.ClientID, account.ClientSecret)
	if err != nil {
		return fmt.Errorf("failed to fetch balance: %w", err)
	}

	current := balance.Total()

	// First observation establishes the baseline without recording expense.
	if account.LastBalance == nil {
		if err := t.accounts.RecordBalanceObservation(ctx, account.ID, current, now); err != nil {
			return fmt.Errorf("failed to record initial balance: %w", err)
		}
		t.log.WithFields(logrus.Fields{
			"account": account.Name,
			"balance": current.String(),
		}).Info("Initial balance observed")
		return nil
	}

	delta := account.LastBalance.Sub(current)
	if !delta.IsPositive() {
		if err := t.accounts.RecordBalanceObservation(ctx, account.ID, current, now); err != nil {
			return fmt.Errorf("failed to record balance: %w", err)
		}
		return nil
	}

	if err := t.accounts.AccrueExpense(ctx, account.ID, delta, current, now); err != nil {
		return fmt.Errorf("failed to accrue expense: %w", err)
	}
	t.log.WithFields(logrus.Fields{
		"account": account.Name,
		"expense": delta.String(),
		"balance": current.String(),
	}).Debug("Expense accrued")
	return nil
}
