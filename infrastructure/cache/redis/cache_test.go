package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/pkg/errors"
)

func setupCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewWithClient(rdb, Config{
		OpTimeout: time.Second,
		LockTTL:   time.Second,
		LockWait:  200 * time.Millisecond,
	}, nil), mr
}

func record(id, name string) []byte {
	return []byte(`{"_id":"` + id + `","name":"` + name + `"}`)
}

func strs(values [][]byte) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func TestCache_PushAndRange(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Push(ctx, "brands", record("b", "B"), true))
	require.NoError(t, c.Push(ctx, "brands", record("c", "C"), true))
	require.NoError(t, c.Push(ctx, "brands", record("a", "A"), false))

	n, err := c.Len(ctx, "brands")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	window, err := c.Range(ctx, "brands", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{string(record("b", "B")), string(record("c", "C"))}, strs(window))

	missing, err := c.Len(ctx, "nothing")
	require.NoError(t, err)
	assert.Zero(t, missing)
}

func TestCache_HydrateSetsMarker(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	ok, err := c.Hydrated(ctx, "brands")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Push(ctx, "brands", record("stale", "S"), true))
	require.NoError(t, c.Hydrate(ctx, "brands", [][]byte{record("a", "A"), record("b", "B")}))

	ok, err = c.Hydrated(ctx, "brands")
	require.NoError(t, err)
	assert.True(t, ok)

	all, err := c.All(ctx, "brands")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.True(t, mr.Exists("brands:hydrated"))

	t.Run("empty collection still marks", func(t *testing.T) {
		require.NoError(t, c.Hydrate(ctx, "coupons", nil))
		ok, err := c.Hydrated(ctx, "coupons")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("drop clears list and marker", func(t *testing.T) {
		require.NoError(t, c.Drop(ctx, "brands"))
		ok, err := c.Hydrated(ctx, "brands")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.False(t, mr.Exists("brands"))
	})
}

func TestCache_LostListIsNotHydrated(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		setup func(c *Cache, mr *miniredis.Miniredis)
		want  bool
	}{
		{
			name: "list key deleted",
			setup: func(c *Cache, mr *miniredis.Miniredis) {
				require.NoError(t, c.Hydrate(ctx, "brands", [][]byte{record("a", "A"), record("b", "B")}))
				mr.Del("brands")
			},
			want: false,
		},
		{
			name: "pushed row lost with its list",
			setup: func(c *Cache, mr *miniredis.Miniredis) {
				require.NoError(t, c.Hydrate(ctx, "brands", nil))
				require.NoError(t, c.Push(ctx, "brands", record("a", "A"), true))
				mr.Del("brands")
			},
			want: false,
		},
		{
			name: "last row removed",
			setup: func(c *Cache, mr *miniredis.Miniredis) {
				require.NoError(t, c.Hydrate(ctx, "brands", [][]byte{record("a", "A")}))
				require.NoError(t, c.RemoveByID(ctx, "brands", "a"))
			},
			want: true,
		},
		{
			name: "empty collection",
			setup: func(c *Cache, mr *miniredis.Miniredis) {
				require.NoError(t, c.Hydrate(ctx, "brands", nil))
			},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mr := setupCache(t)
			tt.setup(c, mr)

			ok, err := c.Hydrated(ctx, "brands")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestCache_MarkerCountsRows(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Push(ctx, "brands", record("x", "X"), true))
	assert.False(t, mr.Exists("brands:hydrated"), "push does not mark a cold list")

	require.NoError(t, c.Hydrate(ctx, "brands", [][]byte{record("a", "A"), record("b", "B")}))
	require.NoError(t, c.Push(ctx, "brands", record("c", "C"), true))
	require.NoError(t, c.RemoveByID(ctx, "brands", "a"))

	marker, err := mr.Get("brands:hydrated")
	require.NoError(t, err)
	assert.Equal(t, "2", marker)
}

func TestCache_ReplaceAndRemoveByID(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Hydrate(ctx, "brands", [][]byte{
		record("a", "A"), record("b", "B"), record("c", "C"),
	}))

	require.NoError(t, c.RemoveByID(ctx, "brands", "b"))
	all, err := c.All(ctx, "brands")
	require.NoError(t, err)
	assert.Equal(t, []string{string(record("a", "A")), string(record("c", "C"))}, strs(all))

	require.NoError(t, c.ReplaceByID(ctx, "brands", "c", record("c", "C2")))
	all, err = c.All(ctx, "brands")
	require.NoError(t, err)
	assert.Equal(t, []string{string(record("a", "A")), string(record("c", "C2"))}, strs(all))

	tests := []struct {
		name string
		run  func() error
	}{
		{"replace unknown id", func() error { return c.ReplaceByID(ctx, "brands", "zzz", record("zzz", "Z")) }},
		{"remove unknown id", func() error { return c.RemoveByID(ctx, "brands", "zzz") }},
		{"remove from missing list", func() error { return c.RemoveByID(ctx, "nothing", "a") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.True(t, errors.IsCacheConsistency(err))
		})
	}
}

func TestCache_RemoveOnlyOneOfDuplicates(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Push(ctx, "users", record("u1", "Ann"), true))
	require.NoError(t, c.Push(ctx, "users", record("u2", "Bob"), true))

	require.NoError(t, c.RemoveByID(ctx, "users", "u1"))
	all, err := c.All(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{string(record("u2", "Bob"))}, strs(all))
}

func TestCache_Points(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "brand_a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "brand_a", record("a", "A")))
	got, ok, err := c.Get(ctx, "brand_a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, string(record("a", "A")), string(got))

	require.NoError(t, c.Delete(ctx, "brand_a"))
	require.NoError(t, c.Delete(ctx, "brand_a"))
	_, ok, err = c.Get(ctx, "brand_a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Lock(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	release, err := c.Acquire(ctx, "hydrate:brands")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:hydrate:brands"))

	_, err = c.Acquire(ctx, "hydrate:brands")
	require.Error(t, err)
	assert.True(t, errors.IsCacheUnavailable(err))

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("lock:hydrate:brands"))

	t.Run("waiter gets the lock after release", func(t *testing.T) {
		release, err := c.Acquire(ctx, "hydrate:products")
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(1)
		var waitErr error
		go func() {
			defer wg.Done()
			r, err := c.Acquire(ctx, "hydrate:products")
			waitErr = err
			if err == nil {
				_ = r(ctx)
			}
		}()

		time.Sleep(30 * time.Millisecond)
		require.NoError(t, release(ctx))
		wg.Wait()
		assert.NoError(t, waitErr)
	})

	t.Run("release after expiry does not delete a new holder", func(t *testing.T) {
		release, err := c.Acquire(ctx, "hydrate:orders")
		require.NoError(t, err)

		mr.FastForward(2 * time.Second)
		other, err := c.Acquire(ctx, "hydrate:orders")
		require.NoError(t, err)

		require.NoError(t, release(ctx))
		assert.True(t, mr.Exists("lock:hydrate:orders"))
		require.NoError(t, other(ctx))
	})
}

func TestCache_Unavailable(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()
	mr.Close()

	_, err := c.Len(ctx, "brands")
	require.Error(t, err)
	assert.True(t, errors.IsCacheUnavailable(err))

	_, _, err = c.Get(ctx, "brand_a")
	assert.True(t, errors.IsCacheUnavailable(err))

	assert.True(t, errors.IsCacheUnavailable(c.Ping(ctx)))
}
