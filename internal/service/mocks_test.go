package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/avito-insight/internal/avito"
	"github.com/avito-insight/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// Mock account store tracking balance observations and accumulator resets
type mockAccountStore struct {
	accounts    []*models.Account
	listErr     error
	dailyResets int
	weekResets  int
}

func (m *mockAccountStore) ListWithCredentials(ctx context.Context) ([]*models.Account, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.accounts, nil
}

func (m *mockAccountStore) find(accountID string) *models.Account {
	for _, a := range m.accounts {
		if a.ID == accountID {
			return a
		}
	}
	return nil
}

func (m *mockAccountStore) RecordBalanceObservation(ctx context.Context, accountID string, balance decimal.Decimal, checkedAt time.Time) error {
	a := m.find(accountID)
	if a == nil {
		return fmt.Errorf("account %s not found", accountID)
	}
	b := balance
	a.LastBalance = &b
	a.LastBalanceCheckedAt = &checkedAt
	return nil
}

func (m *mockAccountStore) AccrueExpense(ctx context.Context, accountID string, amount, balance decimal.Decimal, checkedAt time.Time) error {
	a := m.find(accountID)
	if a == nil {
		return fmt.Errorf("account %s not found", accountID)
	}
	a.DailyExpense = a.DailyExpense.Add(amount)
	a.WeeklyExpense = a.WeeklyExpense.Add(amount)
	b := balance
	a.LastBalance = &b
	a.LastBalanceCheckedAt = &checkedAt
	return nil
}

func (m *mockAccountStore) ResetDailyExpenses(ctx context.Context) (int64, error) {
	m.dailyResets++
	for _, a := range m.accounts {
		a.DailyExpense = decimal.Zero
	}
	return int64(len(m.accounts)), nil
}

func (m *mockAccountStore) ResetWeeklyExpenses(ctx context.Context) (int64, error) {
	m.weekResets++
	for _, a := range m.accounts {
		a.WeeklyExpense = decimal.Zero
	}
	return int64(len(m.accounts)), nil
}

// Mock daily stats store backed by a map keyed on account and date
type mockDailyStore struct {
	records map[string]*models.DailyStats
	cutoff  time.Time
}

func newMockDailyStore() *mockDailyStore {
	return &mockDailyStore{records: make(map[string]*models.DailyStats)}
}

func dailyKeyOf(accountID string, date time.Time) string {
	return accountID + "/" + date.Format("2006-01-02")
}

func (m *mockDailyStore) Insert(ctx context.Context, stats *models.DailyStats) (bool, error) {
	key := dailyKeyOf(stats.AccountID, stats.StatDate)
	if _, ok := m.records[key]; ok {
		return false, nil
	}
	m.records[key] = stats
	return true, nil
}

func (m *mockDailyStore) Exists(ctx context.Context, accountID string, date time.Time) (bool, error) {
	_, ok := m.records[dailyKeyOf(accountID, date)]
	return ok, nil
}

func (m *mockDailyStore) GetByDate(ctx context.Context, accountID string, date time.Time) (*models.DailyStats, error) {
	return m.records[dailyKeyOf(accountID, date)], nil
}

func (m *mockDailyStore) GetLatestBefore(ctx context.Context, accountID string, date time.Time) (*models.DailyStats, error) {
	var latest *models.DailyStats
	for _, r := range m.records {
		if r.AccountID != accountID || !r.StatDate.Before(date) {
			continue
		}
		if latest == nil || r.StatDate.After(latest.StatDate) {
			latest = r
		}
	}
	return latest, nil
}

func (m *mockDailyStore) ListRange(ctx context.Context, accountID string, from, to time.Time) ([]*models.DailyStats, error) {
	var result []*models.DailyStats
	for _, r := range m.records {
		if r.AccountID != accountID || r.StatDate.Before(from) || !r.StatDate.Before(to) {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StatDate.Before(result[j].StatDate) })
	return result, nil
}

func (m *mockDailyStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.cutoff = cutoff
	var deleted int64
	for key, r := range m.records {
		if r.StatDate.Before(cutoff) {
			delete(m.records, key)
			deleted++
		}
	}
	return deleted, nil
}

// Mock weekly stats store backed by a map keyed on account and week start
type mockWeeklyStore struct {
	records map[string]*models.WeeklyStats
	cutoff  time.Time
}

func newMockWeeklyStore() *mockWeeklyStore {
	return &mockWeeklyStore{records: make(map[string]*models.WeeklyStats)}
}

func (m *mockWeeklyStore) Insert(ctx context.Context, stats *models.WeeklyStats) (bool, error) {
	key := dailyKeyOf(stats.AccountID, stats.WeekStart)
	if _, ok := m.records[key]; ok {
		return false, nil
	}
	m.records[key] = stats
	return true, nil
}

func (m *mockWeeklyStore) Exists(ctx context.Context, accountID string, weekStart time.Time) (bool, error) {
	_, ok := m.records[dailyKeyOf(accountID, weekStart)]
	return ok, nil
}

func (m *mockWeeklyStore) GetByWeekStart(ctx context.Context, accountID string, weekStart time.Time) (*models.WeeklyStats, error) {
	return m.records[dailyKeyOf(accountID, weekStart)], nil
}

func (m *mockWeeklyStore) GetLatestBefore(ctx context.Context, accountID string, weekStart time.Time) (*models.WeeklyStats, error) {
	var latest *models.WeeklyStats
	for _, r := range m.records {
		if r.AccountID != accountID || !r.WeekStart.Before(weekStart) {
			continue
		}
		if latest == nil || r.WeekStart.After(latest.WeekStart) {
			latest = r
		}
	}
	return latest, nil
}

func (m *mockWeeklyStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.cutoff = cutoff
	var deleted int64
	for key, r := range m.records {
		if r.WeekStart.Before(cutoff) {
			delete(m.records, key)
			deleted++
		}
	}
	return deleted, nil
}

// Mock provider with overridable fetch functions
type mockProvider struct {
	balanceFn    func(clientID string) (*avito.BalanceInfo, error)
	dailyFn      func(clientID string) (*avito.StatsSnapshot, error)
	weeklyFn     func(clientID string) (*avito.StatsSnapshot, error)
	dailyCalls   int
	weeklyCalls  int
	balanceCalls int
}

func (m *mockProvider) GetBalance(ctx context.Context, clientID, clientSecret string) (*avito.BalanceInfo, error) {
	m.balanceCalls++
	if m.balanceFn == nil {
		return &avito.BalanceInfo{}, nil
	}
	return m.balanceFn(clientID)
}

func (m *mockProvider) GetDailyStats(ctx context.Context, clientID, clientSecret string) (*avito.StatsSnapshot, error) {
	m.dailyCalls++
	if m.dailyFn == nil {
		return &avito.StatsSnapshot{}, nil
	}
	return m.dailyFn(clientID)
}

func (m *mockProvider) GetWeeklyStats(ctx context.Context, clientID, clientSecret string) (*avito.StatsSnapshot, error) {
	m.weeklyCalls++
	if m.weeklyFn == nil {
		return &avito.StatsSnapshot{}, nil
	}
	return m.weeklyFn(clientID)
}

// Mock dispatcher recording dispatched reports
type mockDispatcher struct {
	daily  []*DailyComparison
	weekly []*WeeklyComparison
}

func (m *mockDispatcher) DispatchDaily(ctx context.Context, account *models.Account, report *DailyComparison) error {
	m.daily = append(m.daily, report)
	return nil
}

func (m *mockDispatcher) DispatchWeekly(ctx context.Context, account *models.Account, report *WeeklyComparison) error {
	m.weekly = append(m.weekly, report)
	return nil
}

func testAccount(id, name string) *models.Account {
	return &models.Account{
		ID:           id,
		Name:         name,
		ClientID:     "client-" + id,
		ClientSecret: "secret-" + id,
	}
}

func utcDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
