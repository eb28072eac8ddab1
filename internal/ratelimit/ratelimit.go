// Package ratelimit is a sliding-window-log admission limiter over Redis.
// It is a coarse traffic shield in front of the reservation protocol, not a
// substitute for its locking: a client inside its budget can still lose a
// reservation race.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Result is the outcome of one admission check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// Limiter keeps a time-ordered set of request timestamps per key.
type Limiter struct {
	rdb *redis.Client
	now func() time.Time
}

// New creates a Limiter using wall-clock time.
func New(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb, now: time.Now}
}

// NewWithClock creates a Limiter with an injected time source, for
// deterministic tests.
func NewWithClock(rdb *redis.Client, now func() time.Time) *Limiter {
	return &Limiter{rdb: rdb, now: now}
}

// Key builds the rate-limit key for a client address and route.
func Key(clientAddr, route string) string {
	return fmt.Sprintf("rate:%s:%s", clientAddr, route)
}

// Check evicts entries older than the window, rejects when the key already
// holds limit entries, and otherwise records the request and refreshes the
// key's expiry to window+1s.
func (l *Limiter) Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := l.now()
	nowScore := float64(now.UnixNano()) / float64(time.Second)
	cutoff := nowScore - window.Seconds()

	if err := l.rdb.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%f", cutoff)).Err(); err != nil {
		return Result{}, err
	}

	count, err := l.rdb.ZCard(ctx, key).Result()
	if err != nil {
		return Result{}, err
	}

	if int(count) >= limit {
		retry := window
		oldest, err := l.rdb.ZRangeWithScores(ctx, key, 0, 0).Result()
		if err != nil {
			return Result{}, err
		}
		if len(oldest) > 0 {
			expires := oldest[0].Score + window.Seconds() - nowScore
			retry = time.Duration(expires * float64(time.Second))
			if retry < time.Second {
				retry = time.Second
			}
		}
		return Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			RetryAfter: retry,
			ResetAt:    now.Add(retry),
		}, nil
	}

	member := redis.Z{Score: nowScore, Member: "req_" + uuid.NewString()}
	if err := l.rdb.ZAdd(ctx, key, member).Err(); err != nil {
		return Result{}, err
	}
	if err := l.rdb.Expire(ctx, key, window+time.Second).Err(); err != nil {
		return Result{}, err
	}

	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - int(count) - 1,
		ResetAt:   now.Add(window),
	}, nil
}
