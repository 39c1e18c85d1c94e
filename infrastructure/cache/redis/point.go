package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Get returns the value at key. A missing key is (nil, false, nil).
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		b  []byte
		ok bool
	)
	err := c.do(ctx, "get "+key, func(ctx context.Context) error {
		var err error
		b, err = c.rdb.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return nil
		}
		ok = err == nil
		return err
	})
	return b, ok, err
}

// Set stores value with the configured point TTL
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	return c.do(ctx, "set "+key, func(ctx context.Context) error {
		return c.rdb.Set(ctx, key, value, c.cfg.PointTTL).Err()
	})
}

// Delete removes key; a missing key is not an error
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.do(ctx, "delete "+key, func(ctx context.Context) error {
		return c.rdb.Del(ctx, key).Err()
	})
}
