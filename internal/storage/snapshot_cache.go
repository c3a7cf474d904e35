package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avito-insight/internal/avito"
	"github.com/redis/go-redis/v9"
)

// SnapshotCache caches provider snapshots briefly so the report surface and
// the ingestion pipeline don't double-fetch the same data. Cache failures are
// reported but callers treat them as misses; the cache is never load-bearing.
type SnapshotCache struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewSnapshotCache creates a snapshot cache with the given TTL
func NewSnapshotCache(redis *RedisCache, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{redis: redis, ttl: ttl}
}

// dailyKey formats the cache key for a daily snapshot.
// Format: snapshot:daily:<account-id>:<date>
func dailyKey(accountID string, date time.Time) string {
	return fmt.Sprintf("snapshot:daily:%s:%s", accountID, date.Format("2006-01-02"))
}

// weeklyKey formats the cache key for a weekly snapshot.
// Format: snapshot:weekly:<account-id>:<week-start>
func weeklyKey(accountID string, weekStart time.Time) string {
	return fmt.Sprintf("snapshot:weekly:%s:%s", accountID, weekStart.Format("2006-01-02"))
}

// GetDaily retrieves a cached daily snapshot. A miss returns found=false.
func (c *SnapshotCache) GetDaily(ctx context.Context, accountID string, date time.Time) (*avito.StatsSnapshot, bool, error) {
	return c.get(ctx, dailyKey(accountID, date))
}

// SetDaily caches a daily snapshot
func (c *SnapshotCache) SetDaily(ctx context.Context, accountID string, date time.Time, snapshot *avito.StatsSnapshot) error {
	return c.set(ctx, dailyKey(accountID, date), snapshot)
}

// GetWeekly retrieves a cached weekly snapshot. A miss returns found=false.
func (c *SnapshotCache) GetWeekly(ctx context.Context, accountID string, weekStart time.Time) (*avito.StatsSnapshot, bool, error) {
	return c.get(ctx, weeklyKey(accountID, weekStart))
}

// SetWeekly caches a weekly snapshot
func (c *SnapshotCache) SetWeekly(ctx context.Context, accountID string, weekStart time.Time, snapshot *avito.StatsSnapshot) error {
	return c.set(ctx, weeklyKey(accountID, weekStart), snapshot)
}

func (c *SnapshotCache) get(ctx context.Context, key string) (*avito.StatsSnapshot, bool, error) {
	data, err := c.redis.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get snapshot from cache: %w", err)
	}

	var snapshot avito.StatsSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached snapshot: %w", err)
	}

	return &snapshot, true, nil
}

func (c *SnapshotCache) set(ctx context.Context, key string, snapshot *avito.StatsSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return c.redis.Set(ctx, key, data, c.ttl)
}
