package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avito-insight/internal/models"
	"github.com/avito-insight/internal/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository handles account persistence
type AccountRepository struct {
	db *PostgresDB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *PostgresDB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `
	id, name, client_id, client_secret, timezone,
	daily_report_chat_id, weekly_report_chat_id,
	last_balance, last_balance_checked_at,
	daily_expense, weekly_expense,
	created_at, updated_at
`

// Create creates a new account. Registration happens outside the core; this
// exists for the admin surface and for tests.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	query := `
		INSERT INTO accounts (id, name, client_id, client_secret, timezone,
			daily_report_chat_id, weekly_report_chat_id,
			daily_expense, weekly_expense, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		account.ID,
		account.Name,
		account.ClientID,
		account.ClientSecret,
		account.Timezone,
		account.DailyReportChatID,
		account.WeeklyReportChatID,
		account.DailyExpense,
		account.WeeklyExpense,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &types.ServiceError{
				Code:    "ACCOUNT_NOT_FOUND",
				Message: fmt.Sprintf("account not found: %s", id),
			}
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

// List retrieves all accounts ordered by creation time
func (r *AccountRepository) List(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at`
	return r.queryAccounts(ctx, query)
}

// ListWithCredentials retrieves all accounts with a complete credential pair.
// Accounts stored with "none" placeholders are filtered at the query level so
// no batch ever sees them.
func (r *AccountRepository) ListWithCredentials(ctx context.Context) ([]*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE client_id IS NOT NULL AND client_id NOT IN ('', 'none')
		  AND client_secret IS NOT NULL AND client_secret NOT IN ('', 'none')
		ORDER BY created_at
	`
	return r.queryAccounts(ctx, query)
}

// RecordBalanceObservation stores the latest observed balance without
// recording any expense. Used for the first observation of an account and for
// flat-or-increased balance ticks.
func (r *AccountRepository) RecordBalanceObservation(ctx context.Context, accountID string, balance decimal.Decimal, checkedAt time.Time) error {
	query := `
		UPDATE accounts
		SET last_balance = $2, last_balance_checked_at = $3, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query, accountID, balance, checkedAt)
	if err != nil {
		return fmt.Errorf("failed to record balance observation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", accountID)
	}

	return nil
}

// AccrueExpense adds amount to both expense accumulators and stores the new
// balance observation in the same statement, keeping the read-modify-write
// scoped to a single account and a single round trip.
func (r *AccountRepository) AccrueExpense(ctx context.Context, accountID string, amount, balance decimal.Decimal, checkedAt time.Time) error {
	query := `
		UPDATE accounts
		SET daily_expense = daily_expense + $2,
		    weekly_expense = weekly_expense + $2,
		    last_balance = $3,
		    last_balance_checked_at = $4,
		    updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query, accountID, amount, balance, checkedAt)
	if err != nil {
		return fmt.Errorf("failed to accrue expense: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", accountID)
	}

	return nil
}

// ResetDailyExpenses zeroes the daily accumulator for all accounts
func (r *AccountRepository) ResetDailyExpenses(ctx context.Context) (int64, error) {
	result, err := r.db.Pool().Exec(ctx,
		`UPDATE accounts SET daily_expense = 0, updated_at = now() WHERE daily_expense <> 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to reset daily expenses: %w", err)
	}
	return result.RowsAffected(), nil
}

// ResetWeeklyExpenses zeroes the weekly accumulator for all accounts
func (r *AccountRepository) ResetWeeklyExpenses(ctx context.Context) (int64, error) {
	result, err := r.db.Pool().Exec(ctx,
		`UPDATE accounts SET weekly_expense = 0, updated_at = now() WHERE weekly_expense <> 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to reset weekly expenses: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *AccountRepository) queryAccounts(ctx context.Context, query string, args ...interface{}) ([]*models.Account, error) {
	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	var lastBalance decimal.NullDecimal

	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.ClientID,
		&account.ClientSecret,
		&account.Timezone,
		&account.DailyReportChatID,
		&account.WeeklyReportChatID,
		&lastBalance,
		&account.LastBalanceCheckedAt,
		&account.DailyExpense,
		&account.WeeklyExpense,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastBalance.Valid {
		account.LastBalance = &lastBalance.Decimal
	}

	return &account, nil
}
