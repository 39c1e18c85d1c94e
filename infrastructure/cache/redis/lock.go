package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront-backend/application/ports"
	"storefront-backend/infrastructure/cache"
	"storefront-backend/pkg/errors"
)

// releaseScript deletes the lock only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Acquire takes the named lock with SET NX PX, polling with backoff until
// it is free or LockWait elapses.
func (c *Cache) Acquire(ctx context.Context, name string) (ports.ReleaseFunc, error) {
	key := cache.LockKey(name)
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.LockWait)
	defer cancel()

	backoff := 25 * time.Millisecond
	for {
		var ok bool
		err := c.do(ctx, "lock "+key, func(ctx context.Context) (err error) {
			ok, err = c.rdb.SetNX(ctx, key, token, c.cfg.LockTTL).Result()
			return err
		})
		if err != nil {
			return nil, err
		}
		if ok {
			c.logger.Debug("lock acquired", zap.String("lock", key))
			return c.releaser(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.NewCacheUnavailableError("lock "+key, ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < time.Second {
			backoff *= 2
		}
	}
}

func (c *Cache) releaser(key, token string) ports.ReleaseFunc {
	return func(ctx context.Context) error {
		return c.do(ctx, "unlock "+key, func(ctx context.Context) error {
			return releaseScript.Run(ctx, c.rdb, []string{key}, token).Err()
		})
	}
}
