package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avito-insight/internal/avito"
	"github.com/avito-insight/internal/models"
	"github.com/avito-insight/internal/period"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// StatsProvider defines the interface for fetching metric snapshots
type StatsProvider interface {
	GetDailyStats(ctx context.Context, clientID, clientSecret string) (*avito.StatsSnapshot, error)
	GetWeeklyStats(ctx context.Context, clientID, clientSecret string) (*avito.StatsSnapshot, error)
}

// IngestAccountStore defines the account operations the ingestion pipeline needs
type IngestAccountStore interface {
	ListWithCredentials(ctx context.Context) ([]*models.Account, error)
	ResetDailyExpenses(ctx context.Context) (int64, error)
	ResetWeeklyExpenses(ctx context.Context) (int64, error)
}

// DailyStatsStore defines the write-side interface for daily records
type DailyStatsStore interface {
	Exists(ctx context.Context, accountID string, date time.Time) (bool, error)
	Insert(ctx context.Context, stats *models.DailyStats) (bool, error)
	GetByDate(ctx context.Context, accountID string, date time.Time) (*models.DailyStats, error)
}

// WeeklyStatsStore defines the write-side interface for weekly records
type WeeklyStatsStore interface {
	Exists(ctx context.Context, accountID string, weekStart time.Time) (bool, error)
	Insert(ctx context.Context, stats *models.WeeklyStats) (bool, error)
	GetByWeekStart(ctx context.Context, accountID string, weekStart time.Time) (*models.WeeklyStats, error)
}

// SnapshotCacher caches provider snapshots between the pipeline and the API.
// Nil-safe at the call sites; cache failures degrade to provider fetches.
type SnapshotCacher interface {
	GetDaily(ctx context.Context, accountID string, date time.Time) (*avito.StatsSnapshot, bool, error)
	SetDaily(ctx context.Context, accountID string, date time.Time, snapshot *avito.StatsSnapshot) error
	GetWeekly(ctx context.Context, accountID string, weekStart time.Time) (*avito.StatsSnapshot, bool, error)
	SetWeekly(ctx context.Context, accountID string, weekStart time.Time, snapshot *avito.StatsSnapshot) error
}

// IngestService runs the daily and weekly ingestion pipelines: it makes sure
// each period has exactly one stored record per account, hands finished
// records to the anomaly checker and report dispatcher, and resets the expense
// accumulators that the stored records captured.
type IngestService struct {
	accounts   IngestAccountStore
	daily      DailyStatsStore
	weekly     WeeklyStatsStore
	provider   StatsProvider
	cache      SnapshotCacher
	resolver   *Resolver
	anomaly    AnomalyChecker
	dispatcher ReportDispatcher
	retention  *RetentionSweeper
	defaultLoc *time.Location
	log        *logrus.Logger
}

// NewIngestService creates a new ingestion service. cache may be nil.
func NewIngestService(
	accounts IngestAccountStore,
	daily DailyStatsStore,
	weekly WeeklyStatsStore,
	provider StatsProvider,
	cache SnapshotCacher,
	resolver *Resolver,
	anomaly AnomalyChecker,
	dispatcher ReportDispatcher,
	retention *RetentionSweeper,
	defaultLoc *time.Location,
	log *logrus.Logger,
) *IngestService {
	return &IngestService{
		accounts:   accounts,
		daily:      daily,
		weekly:     weekly,
		provider:   provider,
		cache:      cache,
		resolver:   resolver,
		anomaly:    anomaly,
		dispatcher: dispatcher,
		retention:  retention,
		defaultLoc: defaultLoc,
		log:        log,
	}
}

// RunDaily executes the daily pipeline: ensure yesterday's and today's records
// exist for every account, run the anomaly check, dispatch reports, reset the
// daily accumulators, and sweep expired records. Per-account failures are
// logged and skipped; only a failure before account enumeration aborts the run.
func (s *IngestService) RunDaily(ctx context.Context, now time.Time) error {
	accounts, err := s.accounts.ListWithCredentials(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	s.log.WithField("accounts", len(accounts)).Info("Daily pipeline started")

	for _, account := range accounts {
		if err := s.processDailyAccount(ctx, account, now); err != nil {
			s.log.WithFields(logrus.Fields{
				"account": account.Name,
			}).WithError(err).Warn("Daily processing failed, account skipped")
		}
	}

	reset, err := s.accounts.ResetDailyExpenses(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset daily expenses: %w", err)
	}
	s.log.WithField("accounts", reset).Info("Daily expense accumulators reset")

	if err := s.retention.Sweep(ctx, now); err != nil {
		s.log.WithError(err).Warn("Retention sweep failed")
	}
	return nil
}

func (s *IngestService) processDailyAccount(ctx context.Context, account *models.Account, now time.Time) error {
	today := period.DateOf(now, account.Location(s.defaultLoc))
	yesterday := today.AddDate(0, 0, -1)

	// Yesterday first: an absent record means the previous run never
	// completed, and the accumulator belonging to that day is already gone.
	if _, err := s.EnsureDailyRecord(ctx, account, yesterday, false); err != nil {
		return err
	}

	current, err := s.EnsureDailyRecord(ctx, account, today, true)
	if err != nil {
		return err
	}

	previous, err := s.resolver.PreviousDaily(ctx, account.ID, today)
	if err != nil {
		s.log.WithField("account", account.Name).WithError(err).Warn("Previous period lookup failed")
	}

	if err := s.anomaly.CheckDaily(ctx, account, current, previous); err != nil {
		s.log.WithField("account", account.Name).WithError(err).Warn("Anomaly check failed")
	}

	report := &DailyComparison{
		AccountID:   account.ID,
		AccountName: account.Name,
		Date:        today.Format("2006-01-02"),
		Current:     current,
		Previous:    previous,
		Metrics:     CompareDaily(current, previous),
	}
	if err := s.dispatcher.DispatchDaily(ctx, account, report); err != nil {
		s.log.WithField("account", account.Name).WithError(err).Warn("Daily report dispatch failed")
	}
	return nil
}

// EnsureDailyRecord returns the record for (account, date), creating it from a
// provider snapshot when absent. The expense accumulator is captured only when
// captureExpense is set; records written for past dates carry zero because the
// accumulator holds no history. Duplicate-key inserts from concurrent writers
// collapse to the first stored record.
func (s *IngestService) EnsureDailyRecord(ctx context.Context, account *models.Account, date time.Time, captureExpense bool) (*models.DailyStats, error) {
	existing, err := s.daily.GetByDate(ctx, account.ID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to check daily record: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	snapshot, err := s.fetchDailySnapshot(ctx, account, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily snapshot: %w", err)
	}

	stats := snapshotToDaily(account.ID, date, snapshot)
	if captureExpense {
		stats.DailyExpense = account.DailyExpense
	}

	created, err := s.daily.Insert(ctx, stats)
	if err != nil {
		return nil, fmt.Errorf("failed to insert daily record: %w", err)
	}
	if !created {
		// Lost the race; the stored record wins.
		return s.daily.GetByDate(ctx, account.ID, date)
	}

	s.log.WithFields(logrus.Fields{
		"account": account.Name,
		"date":    date.Format("2006-01-02"),
		"expense": stats.DailyExpense.String(),
	}).Info("Daily record created")
	return stats, nil
}

func (s *IngestService) fetchDailySnapshot(ctx context.Context, account *models.Account, date time.Time) (*avito.StatsSnapshot, error) {
	if s.cache != nil {
		if snapshot, found, err := s.cache.GetDaily(ctx, account.ID, date); err != nil {
			s.log.WithField("account", account.Name).WithError(err).Debug("Snapshot cache read failed")
		} else if found {
			return snapshot, nil
		}
	}

	snapshot, err := s.provider.GetDailyStats(ctx, account.ClientID, account.ClientSecret)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetDaily(ctx, account.ID, date, snapshot); err != nil {
			s.log.WithField("account", account.Name).WithError(err).Debug("Snapshot cache write failed")
		}
	}
	return snapshot, nil
}

// RunWeekly executes the weekly pipeline for the week that ended last Sunday:
// create the missing weekly record per account, dispatch weekly reports, then
// reset the weekly accumulators.
func (s *IngestService) RunWeekly(ctx context.Context, now time.Time) error {
	accounts, err := s.accounts.ListWithCredentials(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	s.log.WithField("accounts", len(accounts)).Info("Weekly pipeline started")

	for _, account := range accounts {
		if err := s.processWeeklyAccount(ctx, account, now); err != nil {
			s.log.WithFields(logrus.Fields{
				"account": account.Name,
			}).WithError(err).Warn("Weekly processing failed, account skipped")
		}
	}

	reset, err := s.accounts.ResetWeeklyExpenses(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset weekly expenses: %w", err)
	}
	s.log.WithField("accounts", reset).Info("Weekly expense accumulators reset")
	return nil
}

func (s *IngestService) processWeeklyAccount(ctx context.Context, account *models.Account, now time.Time) error {
	today := period.DateOf(now, account.Location(s.defaultLoc))
	weekStart := period.PreviousWeekStart(today)

	current, err := s.EnsureWeeklyRecord(ctx, account, weekStart)
	if err != nil {
		return err
	}

	previous, err := s.resolver.PreviousWeekly(ctx, account.ID, weekStart)
	if err != nil {
		s.log.WithField("account", account.Name).WithError(err).Warn("Previous week lookup failed")
	}

	report := &WeeklyComparison{
		AccountID:   account.ID,
		AccountName: account.Name,
		Period:      current.Period,
		Current:     current,
		Previous:    previous,
		Metrics:     CompareWeekly(current, previous),
	}
	if err := s.dispatcher.DispatchWeekly(ctx, account, report); err != nil {
		s.log.WithField("account", account.Name).WithError(err).Warn("Weekly report dispatch failed")
	}
	return nil
}

// EnsureWeeklyRecord returns the record for (account, week start), creating it
// from a provider snapshot when absent and capturing the weekly accumulator.
func (s *IngestService) EnsureWeeklyRecord(ctx context.Context, account *models.Account, weekStart time.Time) (*models.WeeklyStats, error) {
	existing, err := s.weekly.GetByWeekStart(ctx, account.ID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to check weekly record: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	snapshot, err := s.fetchWeeklySnapshot(ctx, account, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weekly snapshot: %w", err)
	}

	stats := snapshotToWeekly(account.ID, weekStart, snapshot)
	stats.WeeklyExpense = account.WeeklyExpense

	created, err := s.weekly.Insert(ctx, stats)
	if err != nil {
		return nil, fmt.Errorf("failed to insert weekly record: %w", err)
	}
	if !created {
		return s.weekly.GetByWeekStart(ctx, account.ID, weekStart)
	}

	s.log.WithFields(logrus.Fields{
		"account": account.Name,
		"week":    weekStart.Format("2006-01-02"),
		"expense": stats.WeeklyExpense.String(),
	}).Info("Weekly record created")
	return stats, nil
}

func (s *IngestService) fetchWeeklySnapshot(ctx context.Context, account *models.Account, weekStart time.Time) (*avito.StatsSnapshot, error) {
	if s.cache != nil {
		if snapshot, found, err := s.cache.GetWeekly(ctx, account.ID, weekStart); err != nil {
			s.log.WithField("account", account.Name).WithError(err).Debug("Snapshot cache read failed")
		} else if found {
			return snapshot, nil
		}
	}

	snapshot, err := s.provider.GetWeeklyStats(ctx, account.ClientID, account.ClientSecret)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetWeekly(ctx, account.ID, weekStart, snapshot); err != nil {
			s.log.WithField("account", account.Name).WithError(err).Debug("Snapshot cache write failed")
		}
	}
	return snapshot, nil
}

// snapshotToDaily maps a provider snapshot onto a daily record. DailyExpense
// stays zero; the caller decides whether the accumulator applies.
func snapshotToDaily(accountID string, date time.Time, snapshot *avito.StatsSnapshot) *models.DailyStats {
	return &models.DailyStats{
		AccountID:              accountID,
		StatDate:               date,
		TotalCalls:             snapshot.Calls.Total,
		AnsweredCalls:          snapshot.Calls.Answered,
		MissedCalls:            snapshot.Calls.Missed,
		TotalChats:             snapshot.Chats.Total,
		NewChats:               snapshot.Chats.New,
		PhonesReceived:         snapshot.PhonesReceived,
		Rating:                 snapshot.Rating,
		TotalReviews:           snapshot.Reviews.Total,
		NewReviews:             snapshot.Reviews.Today,
		TotalItems:             snapshot.Items.Total,
		XLPromotionCount:       snapshot.Items.WithXLPromotion,
		ToolsSubscriptionCount: snapshot.Items.WithToolsSubscription,
		Views:                  snapshot.Statistics.Views,
		Contacts:               snapshot.Statistics.Contacts,
		Favorites:              snapshot.Statistics.Favorites,
		BalanceReal:            snapshot.BalanceReal,
		BalanceBonus:           snapshot.BalanceBonus,
		Advance:                snapshot.Advance,
		DailyExpense:           decimal.Zero,
		ExpenseDetails:         expenseDetails(snapshot),
	}
}

// snapshotToWeekly maps a provider snapshot onto a weekly record.
func snapshotToWeekly(accountID string, weekStart time.Time, snapshot *avito.StatsSnapshot) *models.WeeklyStats {
	stats := models.NewWeeklyStats(accountID, weekStart)
	if snapshot.Period != "" {
		stats.Period = snapshot.Period
	}
	stats.TotalCalls = snapshot.Calls.Total
	stats.AnsweredCalls = snapshot.Calls.Answered
	stats.MissedCalls = snapshot.Calls.Missed
	stats.TotalChats = snapshot.Chats.Total
	stats.NewChats = snapshot.Chats.New
	stats.PhonesReceived = snapshot.PhonesReceived
	stats.Rating = snapshot.Rating
	stats.TotalReviews = snapshot.Reviews.Total
	stats.WeeklyReviews = snapshot.Reviews.Weekly
	stats.TotalItems = snapshot.Items.Total
	stats.XLPromotionCount = snapshot.Items.WithXLPromotion
	stats.ToolsSubscriptionCount = snapshot.Items.WithToolsSubscription
	stats.Views = snapshot.Statistics.Views
	stats.Contacts = snapshot.Statistics.Contacts
	stats.Favorites = snapshot.Statistics.Favorites
	stats.BalanceReal = snapshot.BalanceReal
	stats.BalanceBonus = snapshot.BalanceBonus
	stats.Advance = snapshot.Advance
	stats.CPABalance = snapshot.CPABalance
	stats.ExpenseDetails = expenseDetails(snapshot)
	return stats
}

func expenseDetails(snapshot *avito.StatsSnapshot) map[string]models.ExpenseDetail {
	if len(snapshot.Expenses.Details) == 0 {
		return nil
	}
	details := make(map[string]models.ExpenseDetail, len(snapshot.Expenses.Details))
	for category, d := range snapshot.Expenses.Details {
		details[category] = models.ExpenseDetail{Amount: d.Amount, Count: d.Count, Items: d.Items}
	}
	return details
}
