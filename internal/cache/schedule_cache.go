// Package cache holds the read-through cache of free schedules. Entries are
// derived and disposable: they can always be rebuilt from the slot store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when no unexpired entry exists for the key.
var ErrMiss = errors.New("schedule cache miss")

// ScheduleCache stores serialized free-slot lists per (master, date, service).
type ScheduleCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a ScheduleCache. A zero ttl defaults to 5 minutes.
func New(rdb *redis.Client, ttl time.Duration) *ScheduleCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ScheduleCache{rdb: rdb, ttl: ttl}
}

// Key builds the cache key. serviceID 0 means the unfiltered schedule.
func Key(masterID int, date string, serviceID int) string {
	if serviceID > 0 {
		return fmt.Sprintf("cache:schedule:%d:%s:%d", masterID, date, serviceID)
	}
	return fmt.Sprintf("cache:schedule:%d:%s", masterID, date)
}

// Get returns the cached payload or ErrMiss.
func (c *ScheduleCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set stores the payload under key with the cache TTL.
func (c *ScheduleCache) Set(ctx context.Context, key string, payload []byte) error {
	return c.rdb.Set(ctx, key, payload, c.ttl).Err()
}

// Invalidate drops the entry for (master, date) and every service-filtered
// variant of it. A missed invalidation is bounded above by the TTL.
func (c *ScheduleCache) Invalidate(ctx context.Context, masterID int, date string) error {
	keys := []string{Key(masterID, date, 0)}

	var cursor uint64
	pattern := Key(masterID, date, 0) + ":*"
	for {
		batch, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return c.rdb.Del(ctx, keys...).Err()
}
