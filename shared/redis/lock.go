package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockKeyPrefix     = "membership:lock:"
	lockRetryInterval = 25 * time.Millisecond
	releaseTimeout    = 2 * time.Second
)

// releaseScript deletes the lock only while it still carries the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Acquire takes the lock for key, polling until it is free or ctx is done.
// The lock expires after ttl even if release is never called.
func (c *RedisClient) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lockKey := lockKeyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		acquired, err := c.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock for %s: %w", key, err)
		}
		if acquired {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock for %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}

	var releaseOnce sync.Once
	release := func() {
		releaseOnce.Do(func() {
			// The request context may already be cancelled
			rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			err := releaseScript.Run(rctx, c.client, []string{lockKey}, token).Err()
			if err != nil && !errors.Is(err, redis.Nil) {
				slog.Warn("Failed to release redis lock", "key", lockKey, "error", err)
			}
		})
	}

	return release, nil
}
