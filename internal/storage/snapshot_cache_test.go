package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/avito-insight/internal/avito"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*SnapshotCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewSnapshotCache(NewRedisCacheFromClient(client), ttl), mr
}

func TestSnapshotCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	date := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	snapshot := &avito.StatsSnapshot{
		Date:       "2025-03-11",
		Calls:      avito.CallStats{Total: 7, Answered: 5, Missed: 2},
		Rating:     4.9,
		Statistics: avito.TrafficStats{Views: 120, Contacts: 8, Favorites: 3},
	}

	require.NoError(t, cache.SetDaily(ctx, "acc-1", date, snapshot))

	got, found, err := cache.GetDaily(ctx, "acc-1", date)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, snapshot.Calls, got.Calls)
	assert.Equal(t, snapshot.Statistics, got.Statistics)
}

func TestSnapshotCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	date := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	_, found, err := cache.GetDaily(context.Background(), "acc-1", date)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSnapshotCacheKeysAreScoped(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	date := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	require.NoError(t, cache.SetDaily(ctx, "acc-1", date, &avito.StatsSnapshot{Date: "2025-03-11"}))

	// Different account, same date: miss.
	_, found, err := cache.GetDaily(ctx, "acc-2", date)
	require.NoError(t, err)
	assert.False(t, found)

	// Same account, different date: miss.
	_, found, err = cache.GetDaily(ctx, "acc-1", date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, found)

	// Weekly namespace does not collide with daily.
	_, found, err = cache.GetWeekly(ctx, "acc-1", date)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSnapshotCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t, time.Second)
	ctx := context.Background()
	date := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	require.NoError(t, cache.SetDaily(ctx, "acc-1", date, &avito.StatsSnapshot{Date: "2025-03-11"}))

	mr.FastForward(2 * time.Second)

	_, found, err := cache.GetDaily(ctx, "acc-1", date)
	require.NoError(t, err)
	assert.False(t, found)
}
