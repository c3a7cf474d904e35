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

// WeeklyStatsRepository handles weekly statistics records, keyed by the
// Monday their week starts on.
type WeeklyStatsRepository struct {
	db *PostgresDB
}

// NewWeeklyStatsRepository creates a new weekly stats repository
func NewWeeklyStatsRepository(db *PostgresDB) *WeeklyStatsRepository {
	return &WeeklyStatsRepository{db: db}
}

const weeklyStatsColumns = `
	id, account_id, week_start, week_end, period,
	total_calls, answered_calls, missed_calls,
	total_chats, new_chats, phones_received,
	rating, total_reviews, weekly_reviews,
	total_items, xl_promotion_count, tools_subscription_count,
	views, contacts, favorites,
	balance_real, balance_bonus, advance, cpa_balance,
	weekly_expense, expense_details, created_at
`

// Insert writes a weekly record with insert-if-absent semantics, reporting
// whether a row was created.
func (r *WeeklyStatsRepository) Insert(ctx context.Context, stats *models.WeeklyStats) (bool, error) {
	detailsJSON, err := marshalExpenseDetails(stats.ExpenseDetails)
	if err != nil {
		return false, err
	}

	query := `
		INSERT INTO account_weekly_stats (account_id, week_start, week_end, period,
			total_calls, answered_calls, missed_calls,
			total_chats, new_chats, phones_received,
			rating, total_reviews, weekly_reviews,
			total_items, xl_promotion_count, tools_subscription_count,
			views, contacts, favorites,
			balance_real, balance_bonus, advance, cpa_balance,
			weekly_expense, expense_details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, now())
		ON CONFLICT (account_id, week_start) DO NOTHING
	`

	result, err := r.db.Pool().Exec(ctx, query,
		stats.AccountID, stats.WeekStart, stats.WeekEnd, stats.Period,
		stats.TotalCalls, stats.AnsweredCalls, stats.MissedCalls,
		stats.TotalChats, stats.NewChats, stats.PhonesReceived,
		stats.Rating, stats.TotalReviews, stats.WeeklyReviews,
		stats.TotalItems, stats.XLPromotionCount, stats.ToolsSubscriptionCount,
		stats.Views, stats.Contacts, stats.Favorites,
		stats.BalanceReal, stats.BalanceBonus, stats.Advance, stats.CPABalance,
		stats.WeeklyExpense, detailsJSON,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert weekly stats: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Exists checks whether a record exists for the account and week start
func (r *WeeklyStatsRepository) Exists(ctx context.Context, accountID string, weekStart time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM account_weekly_stats WHERE account_id = $1 AND week_start = $2)`

	if err := r.db.Pool().QueryRow(ctx, query, accountID, weekStart).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check weekly stats existence: %w", err)
	}

	return exists, nil
}

// GetByWeekStart retrieves the record for an exact week start. Absence
// returns nil, nil.
func (r *WeeklyStatsRepository) GetByWeekStart(ctx context.Context, accountID string, weekStart time.Time) (*models.WeeklyStats, error) {
	query := `SELECT ` + weeklyStatsColumns + `
		FROM account_weekly_stats WHERE account_id = $1 AND week_start = $2`

	stats, err := scanWeeklyStats(r.db.Pool().QueryRow(ctx, query, accountID, weekStart))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get weekly stats: %w", err)
	}

	return stats, nil
}

// GetLatestBefore retrieves the most recent record whose week starts strictly
// before the given Monday. Absence returns nil, nil.
func (r *WeeklyStatsRepository) GetLatestBefore(ctx context.Context, accountID string, weekStart time.Time) (*models.WeeklyStats, error) {
	query := `SELECT ` + weeklyStatsColumns + `
		FROM account_weekly_stats
		WHERE account_id = $1 AND week_start < $2
		ORDER BY week_start DESC
		LIMIT 1`

	stats, err := scanWeeklyStats(r.db.Pool().QueryRow(ctx, query, accountID, weekStart))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest weekly stats: %w", err)
	}

	return stats, nil
}

// DeleteOlderThan removes records whose week starts before the cutoff and
// returns the number deleted
func (r *WeeklyStatsRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.Pool().Exec(ctx,
		`DELETE FROM account_weekly_stats WHERE week_start < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old weekly stats: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanWeeklyStats(row pgx.Row) (*models.WeeklyStats, error) {
	var stats models.WeeklyStats
	var detailsJSON []byte

	err := row.Scan(
		&stats.ID, &stats.AccountID, &stats.WeekStart, &stats.WeekEnd, &stats.Period,
		&stats.TotalCalls, &stats.AnsweredCalls, &stats.MissedCalls,
		&stats.TotalChats, &stats.NewChats, &stats.PhonesReceived,
		&stats.Rating, &stats.TotalReviews, &stats.WeeklyReviews,
		&stats.TotalItems, &stats.XLPromotionCount, &stats.ToolsSubscriptionCount,
		&stats.Views, &stats.Contacts, &stats.Favorites,
		&stats.BalanceReal, &stats.BalanceBonus, &stats.Advance, &stats.CPABalance,
		&stats.WeeklyExpense, &detailsJSON, &stats.CreatedAt,
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
