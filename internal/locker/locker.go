// Package locker implements short-lived mutual exclusion keys in Redis,
// used to serialize concurrent reservation attempts on the same slots.
package locker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds the caller's
// token. A lock that expired and was re-acquired by someone else must
// never be deleted by the stale holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker acquires and releases slot locks. There is no queueing or
// fairness: a failed acquire is surfaced immediately.
type Locker struct {
	rdb *redis.Client
}

// New creates a Locker on the given Redis client.
func New(rdb *redis.Client) *Locker {
	return &Locker{rdb: rdb}
}

// Acquire creates key with the holder token, but only if it does not
// already exist. Returns false when another holder owns the key.
func (l *Locker) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, key, token, ttl).Result()
}

// Release deletes key if its value still equals token. Releasing a lock
// held by someone else (or already expired) is a no-op.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
}
