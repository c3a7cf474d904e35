package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avito-insight/internal/models"
	"github.com/jackc/pgx/v5"
)

// DailyStatsRepository handles daily statistics records. Records are written
// exactly once per (account, date); the unique constraint on that pair is the
// final backstop against concurrent writers.
type DailyStatsRepository struct {
	db *PostgresDB
}

// NewDailyStatsRepository creates a new daily stats repository
func NewDailyStatsRepository(db *PostgresDB) *DailyStatsRepository {
	return &DailyStatsRepository{db: db}
}

const dailyStatsColumns = `
	id, account_id, stat_date,
	total_calls, answered_calls, missed_calls,
	total_chats, new_chats, phones_received,
	rating, total_reviews, new_reviews,
	total_items, xl_promotion_count, tools_subscription_count,
	views, contacts, favorites,
	balance_real, balance_bonus, advance,
	daily_expense, expense_details, created_at
`

// Insert writes a daily record with insert-if-absent semantics. It reports
// whether a row was actually created; losing the race to another writer is a
// normal outcome, not an error.
func (r *DailyStatsRepository) Insert(ctx context.Context, stats *models.DailyStats) (bool, error) {
	detailsJSON, err := marshalExpenseDetails(stats.ExpenseDetails)
	if err != nil {
		return false, err
	}

	query := `
		INSERT INTO account_daily_stats (account_id, stat_date,
			total_calls, answered_calls, missed_calls,
			total_chats, new_chats, phones_received,
			rating, total_reviews, new_reviews,
			total_items, xl_promotion_count, tools_subscription_count,
			views, contacts, favorites,
			balance_real, balance_bonus, advance,
			daily_expense, expense_details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, now())
		ON CONFLICT (account_id, stat_date) DO NOTHING
	`

	result, err := r.db.Pool().Exec(ctx, query,
		stats.AccountID, stats.StatDate,
		stats.TotalCalls, stats.AnsweredCalls, stats.MissedCalls,
		stats.TotalChats, stats.NewChats, stats.PhonesReceived,
		stats.Rating, stats.TotalReviews, stats.NewReviews,
		stats.TotalItems, stats.XLPromotionCount, stats.ToolsSubscriptionCount,
		stats.Views, stats.Contacts, stats.Favorites,
		stats.BalanceReal, stats.BalanceBonus, stats.Advance,
		stats.DailyExpense, detailsJSON,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert daily stats: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Exists checks whether a record exists for the account and date
func (r *DailyStatsRepository) Exists(ctx context.Context, accountID string, date time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM account_daily_stats WHERE account_id = $1 AND stat_date = $2)`

	if err := r.db.Pool().QueryRow(ctx, query, accountID, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check daily stats existence: %w", err)
	}

	return exists, nil
}

// GetByDate retrieves the record for an exact date. Absence returns nil, nil.
func (r *DailyStatsRepository) GetByDate(ctx context.Context, accountID string, date time.Time) (*models.DailyStats, error) {
	query := `SELECT ` + dailyStatsColumns + `
		FROM account_daily_stats WHERE account_id = $1 AND stat_date = $2`

	stats, err := scanDailyStats(r.db.Pool().QueryRow(ctx, query, accountID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}

	return stats, nil
}

// GetLatestBefore retrieves the most recent record strictly before the date.
// Absence returns nil, nil.
func (r *DailyStatsRepository) GetLatestBefore(ctx context.Context, accountID string, date time.Time) (*models.DailyStats, error) {
	query := `SELECT ` + dailyStatsColumns + `
		FROM account_daily_stats
		WHERE account_id = $1 AND stat_date < $2
		ORDER BY stat_date DESC
		LIMIT 1`

	stats, err := scanDailyStats(r.db.Pool().QueryRow(ctx, query, accountID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest daily stats: %w", err)
	}

	return stats, nil
}

// ListRange retrieves records with from <= stat_date < to, oldest first
func (r *DailyStatsRepository) ListRange(ctx context.Context, accountID string, from, to time.Time) ([]*models.DailyStats, error) {
	query := `SELECT ` + dailyStatsColumns + `
		FROM account_daily_stats
		WHERE account_id = $1 AND stat_date >= $2 AND stat_date < $3
		ORDER BY stat_date`

	rows, err := r.db.Pool().Query(ctx, query, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily stats: %w", err)
	}
	defer rows.Close()

	var records []*models.DailyStats
	for rows.Next() {
		stats, err := scanDailyStats(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily stats: %w", err)
		}
		records = append(records, stats)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily stats: %w", err)
	}

	return records, nil
}

// DeleteOlderThan removes records with stat_date before the cutoff and
// returns the number deleted
func (r *DailyStatsRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Pool().Exec(ctx,
		`DELETE FROM account_daily_stats WHERE stat_date < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old daily stats: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanDailyStats(row pgx.Row) (*models.DailyStats, error) {
	var stats models.DailyStats
	var detailsJSON []byte

	err := row.Scan(
		&stats.ID, &stats.AccountID, &stats.StatDate,
		&stats.TotalCalls, &stats.AnsweredCalls, &stats.MissedCalls,
		&stats.TotalChats, &stats.NewChats, &stats.PhonesReceived,
		&stats.Rating, &stats.TotalReviews, &stats.NewReviews,
		&stats.TotalItems, &stats.XLPromotionCount, &stats.ToolsSubscriptionCount,
		&stats.Views, &stats.Contacts, &stats.Favorites,
		&stats.BalanceReal, &stats.BalanceBonus, &stats.Advance,
		&stats.DailyExpense, &detailsJSON, &stats.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(detailsJSON) > 0 {
		if err := json.Unmarshal(detailsJSON, &stats.ExpenseDetails); err != nil {
			return nil, fmt.Errorf("failed to unmarshal expense details: %w", err)
		}
	}

	return &stats, nil
}

func marshalExpenseDetails(details map[string]models.ExpenseDetail) ([]byte, error) {
	if details == nil {
		return nil, nil
	}
	data, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal expense details: %w", err)
	}
	return data, nil
}
