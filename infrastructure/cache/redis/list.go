package redis

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"storefront-backend/infrastructure/cache"
	"storefront-backend/pkg/errors"
)

// The hydration marker holds the number of rows the list should hold. A
// marker counting rows next to a missing list key means the list was
// evicted or deleted behind our back, so the list is reported cold.

// pushScript pushes ARGV[1] with the command in ARGV[2] and counts it in
// the marker when the list is hydrated
var pushScript = redis.NewScript(`
local n = redis.call(ARGV[2], KEYS[1], ARGV[1])
if redis.call("exists", KEYS[2]) == 1 then
	redis.call("incr", KEYS[2])
end
return n
`)

// hydratedScript returns 1 when the marker exists and the list key is
// present or expected to be empty
var hydratedScript = redis.NewScript(`
local count = redis.call("get", KEYS[2])
if not count then
	return 0
end
if tonumber(count) > 0 and redis.call("exists", KEYS[1]) == 0 then
	return 0
end
return 1
`)

// Push runs RPUSH when atEnd, LPUSH otherwise
func (c *Cache) Push(ctx context.Context, key string, value []byte, atEnd bool) error {
	cmd := "lpush"
	if atEnd {
		cmd = "rpush"
	}
	return c.do(ctx, "push "+key, func(ctx context.Context) error {
		return pushScript.Run(ctx, c.rdb, []string{key, cache.MarkerKey(key)}, value, cmd).Err()
	})
}

// Range runs LRANGE
func (c *Cache) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	var out [][]byte
	err := c.do(ctx, "range "+key, func(ctx context.Context) error {
		values, err := c.rdb.LRange(ctx, key, start, stop).Result()
		out = toBytes(values)
		return err
	})
	return out, err
}

// Len runs LLEN
func (c *Cache) Len(ctx context.Context, key string) (int64, error) {
	var n int64
	err := c.do(ctx, "len "+key, func(ctx context.Context) (err error) {
		n, err = c.rdb.LLen(ctx, key).Result()
		return err
	})
	return n, err
}

// All runs LRANGE 0 -1
func (c *Cache) All(ctx context.Context, key string) ([][]byte, error) {
	return c.Range(ctx, key, 0, -1)
}

// ReplaceByID finds the slot holding id and LSETs it. The list is WATCHed
// so a concurrent change between scan and write retries the scan.
func (c *Cache) ReplaceByID(ctx context.Context, key, id string, value []byte) error {
	return c.do(ctx, "replace "+key, func(ctx context.Context) error {
		return c.watch(ctx, func(tx *redis.Tx) error {
			values, err := tx.LRange(ctx, key, 0, -1).Result()
			if err != nil {
				return err
			}
			i := cache.IndexOf(toBytes(values), id)
			if i < 0 {
				return errors.NewCacheConsistencyError(key, id)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.LSet(ctx, key, int64(i), value)
				return nil
			})
			return err
		}, key)
	})
}

// RemoveByID finds the element holding id and removes exactly that element
// with LREM count 1. The marker count is decremented with it.
func (c *Cache) RemoveByID(ctx context.Context, key, id string) error {
	marker := cache.MarkerKey(key)
	return c.do(ctx, "remove "+key, func(ctx context.Context) error {
		return c.watch(ctx, func(tx *redis.Tx) error {
			values, err := tx.LRange(ctx, key, 0, -1).Result()
			if err != nil {
				return err
			}
			i := cache.IndexOf(toBytes(values), id)
			if i < 0 {
				return errors.NewCacheConsistencyError(key, id)
			}
			counted, err := tx.Exists(ctx, marker).Result()
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.LRem(ctx, key, 1, values[i])
				if counted == 1 {
					pipe.Decr(ctx, marker)
				}
				return nil
			})
			return err
		}, key, marker)
	})
}

// Hydrate replaces the list and sets its marker to the row count in one
// MULTI/EXEC
func (c *Cache) Hydrate(ctx context.Context, key string, values [][]byte) error {
	return c.do(ctx, "hydrate "+key, func(ctx context.Context) error {
		_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			if len(values) > 0 {
				args := make([]interface{}, len(values))
				for i, v := range values {
					args[i] = v
				}
				pipe.RPush(ctx, key, args...)
			}
			pipe.Set(ctx, cache.MarkerKey(key), strconv.Itoa(len(values)), 0)
			return nil
		})
		return err
	})
}

// Hydrated reports whether the marker exists and its list was not lost
func (c *Cache) Hydrated(ctx context.Context, key string) (bool, error) {
	var ok bool
	err := c.do(ctx, "hydrated "+key, func(ctx context.Context) error {
		n, err := hydratedScript.Run(ctx, c.rdb, []string{key, cache.MarkerKey(key)}).Int()
		ok = n == 1
		return err
	})
	return ok, err
}

// Drop deletes the list and its marker
func (c *Cache) Drop(ctx context.Context, key string) error {
	return c.do(ctx, "drop "+key, func(ctx context.Context) error {
		return c.rdb.Del(ctx, key, cache.MarkerKey(key)).Err()
	})
}

func (c *Cache) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for attempt := 0; attempt < c.cfg.TxRetries; attempt++ {
		err := c.rdb.Watch(ctx, fn, keys...)
		if err != redis.TxFailedErr {
			return err
		}
	}
	return redis.TxFailedErr
}

func toBytes(values []string) [][]byte {
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = []byte(v)
	}
	return out
}
