package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/avito-insight/internal/avito"
	"github.com/avito-insight/internal/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func balanceOf(v int64) *avito.BalanceInfo {
	return &avito.BalanceInfo{Real: decimal.NewFromInt(v)}
}

// Runs the tracker over a fixed balance sequence for one account and returns
// the account for inspection.
func runBalanceSequence(t *testing.T, balances []int64) *models.Account {
	t.Helper()

	account := testAccount("acc-1", "Shop One")
	store := &mockAccountStore{accounts: []*models.Account{account}}

	idx := 0
	provider := &mockProvider{
		balanceFn: func(clientID string) (*avito.BalanceInfo, error) {
			b := balances[idx]
			idx++
			return balanceOf(b), nil
		},
	}

	tracker := NewExpenseTracker(store, provider, testLogger())
	now := time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)
	for range balances {
		require.NoError(t, tracker.Tick(context.Background(), now))
		now = now.Add(time.Minute)
	}
	return account
}

func TestExpenseTrackerFirstObservationSetsBaselineOnly(t *testing.T) {
	account := runBalanceSequence(t, []int64{1000})

	require.NotNil(t, account.LastBalance)
	assert.True(t, account.LastBalance.Equal(decimal.NewFromInt(1000)))
	assert.NotNil(t, account.LastBalanceCheckedAt)
	assert.True(t, account.DailyExpense.IsZero())
	assert.True(t, account.WeeklyExpense.IsZero())
}

func TestExpenseTrackerAccruesOnlyOnBalanceDrop(t *testing.T) {
	// 1000 -> 850 spends 150; the top-up to 900 records nothing; 870 spends 30.
	account := runBalanceSequence(t, []int64{1000, 850, 900, 870})

	assert.True(t, account.DailyExpense.Equal(decimal.NewFromInt(180)),
		"expected 180, got %s", account.DailyExpense)
	assert.True(t, account.WeeklyExpense.Equal(decimal.NewFromInt(180)))
	assert.True(t, account.LastBalance.Equal(decimal.NewFromInt(870)))
}

func TestExpenseTrackerFlatBalanceRecordsNothing(t *testing.T) {
	account := runBalanceSequence(t, []int64{500, 500, 500})

	assert.True(t, account.DailyExpense.IsZero())
	assert.True(t, account.LastBalance.Equal(decimal.NewFromInt(500)))
}

func TestExpenseTrackerIsolatesFailingAccount(t *testing.T) {
	broken := testAccount("acc-1", "Broken")
	healthy := testAccount("acc-2", "Healthy")
	initial := decimal.NewFromInt(300)
	healthy.LastBalance = &initial

	store := &mockAccountStore{accounts: []*models.Account{broken, healthy}}
	provider := &mockProvider{
		balanceFn: func(clientID string) (*avito.BalanceInfo, error) {
			if clientID == broken.ClientID {
				return nil, fmt.Errorf("provider timeout")
			}
			return balanceOf(250), nil
		},
	}

	tracker := NewExpenseTracker(store, provider, testLogger())
	err := tracker.Tick(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Nil(t, broken.LastBalance)
	assert.True(t, healthy.DailyExpense.Equal(decimal.NewFromInt(50)))
}

func TestExpenseTrackerListFailureAbortsTick(t *testing.T) {
	store := &mockAccountStore{listErr: fmt.Errorf("store down")}
	tracker := NewExpenseTracker(store, &mockProvider{}, testLogger())

	err := tracker.Tick(context.Background(), time.Now())
	assert.Error(t, err)
}

// The accrued total over any balance sequence equals the sum of the drops
// between consecutive samples, regardless of top-ups in between.
func TestExpenseTrackerAccrualProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("total expense equals sum of balance drops", prop.ForAll(
		func(balances []int64) bool {
			if len(balances) == 0 {
				return true
			}

			account := testAccount("acc-prop", "Property")
			store := &mockAccountStore{accounts: []*models.Account{account}}
			idx := 0
			provider := &mockProvider{
				balanceFn: func(clientID string) (*avito.BalanceInfo, error) {
					b := balances[idx]
					idx++
					return balanceOf(b), nil
				},
			}
			tracker := NewExpenseTracker(store, provider, testLogger())

			for range balances {
				if err := tracker.Tick(context.Background(), time.Now()); err != nil {
					return false
				}
			}

			expected := decimal.Zero
			for i := 1; i < len(balances); i++ {
				if drop := balances[i-1] - balances[i]; drop > 0 {
					expected = expected.Add(decimal.NewFromInt(drop))
				}
			}
			return account.DailyExpense.Equal(expected)
		},
		gen.SliceOf(gen.Int64Range(0, 100000)),
	))

	properties.TestingRun(t)
}
