// Package memory provides an in-process cache backend for local runs and
// tests. Lists and hydration locks live in maps guarded by one mutex, so
// every list operation is atomic. Point keys live in a go-cache store that
// expires them itself.
package memory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"storefront-backend/application/ports"
	"storefront-backend/infrastructure/cache"
	"storefront-backend/pkg/errors"
)

var (
	_ ports.ListCache       = (*Cache)(nil)
	_ ports.PointCache      = (*Cache)(nil)
	_ ports.HydrationLocker = (*Cache)(nil)
)

// DefaultLockWait bounds Acquire when no WithLockWait option is given
const DefaultLockWait = 10 * time.Second

// Cache provides a simple in-memory cache implementation
type Cache struct {
	mu       sync.RWMutex
	lists    map[string][][]byte
	markers  map[string]bool
	locks    map[string]chan struct{}
	points   *gocache.Cache
	lockWait time.Duration
}

// Option configures a Cache
type Option func(*Cache)

// WithLockWait bounds how long Acquire waits for a held lock
func WithLockWait(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.lockWait = d
		}
	}
}

// NewCache creates a new in-memory cache. A positive pointTTL expires point
// keys; lists never expire.
func NewCache(pointTTL time.Duration, opts ...Option) *Cache {
	expiration, cleanup := gocache.NoExpiration, time.Duration(0)
	if pointTTL > 0 {
		expiration, cleanup = pointTTL, time.Minute
	}

	c := &Cache{
		lists:    make(map[string][][]byte),
		markers:  make(map[string]bool),
		locks:    make(map[string]chan struct{}),
		points:   gocache.New(expiration, cleanup),
		lockWait: DefaultLockWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases nothing; the go-cache janitor stops when the cache is
// collected.
func (c *Cache) Close() error {
	return nil
}

// Ping always succeeds
func (c *Cache) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Push appends or prepends a copy of value
func (c *Cache) Push(ctx context.Context, key string, value []byte, atEnd bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := clone(value)
	if atEnd {
		c.lists[key] = append(c.lists[key], v)
	} else {
		c.lists[key] = append([][]byte{v}, c.lists[key]...)
	}
	return nil
}

// Range returns elements start..stop inclusive with Redis index semantics
func (c *Cache) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := c.lists[key]
	n := int64(len(list))
	if start < 0 {
		start = max(n+start, 0)
	}
	if stop < 0 {
		stop = n + stop
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return [][]byte{}, nil
	}
	return cloneAll(list[start : stop+1]), nil
}

// Len returns the list length
func (c *Cache) Len(ctx context.Context, key string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return int64(len(c.lists[key])), nil
}

// All returns the whole list
func (c *Cache) All(ctx context.Context, key string) ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return cloneAll(c.lists[key]), nil
}

// ReplaceByID overwrites the slot holding id
func (c *Cache) ReplaceByID(ctx context.Context, key, id string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.lists[key]
	i := cache.IndexOf(list, id)
	if i < 0 {
		return errors.NewCacheConsistencyError(key, id)
	}
	list[i] = clone(value)
	return nil
}

// RemoveByID removes the first element holding id
func (c *Cache) RemoveByID(ctx context.Context, key, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.lists[key]
	i := cache.IndexOf(list, id)
	if i < 0 {
		return errors.NewCacheConsistencyError(key, id)
	}
	c.lists[key] = append(list[:i:i], list[i+1:]...)
	return nil
}

// Hydrate replaces the list and sets its marker
func (c *Cache) Hydrate(ctx context.Context, key string, values [][]byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lists[key] = cloneAll(values)
	c.markers[key] = true
	return nil
}

// Hydrated reports the marker
func (c *Cache) Hydrated(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.markers[key], nil
}

// Drop deletes the list and its marker
func (c *Cache) Drop(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.lists, key)
	delete(c.markers, key)
	return nil
}

// Get retrieves a value from cache
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := c.points.Get(key)
	if !ok {
		return nil, false, nil
	}
	return clone(v.([]byte)), true, nil
}

// Set stores a value in cache with the default point TTL
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	c.points.SetDefault(key, clone(value))
	return nil
}

// Delete removes a value from cache
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.points.Delete(key)
	return nil
}

// Clear removes all values, lists and markers
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lists = make(map[string][][]byte)
	c.markers = make(map[string]bool)
	c.points.Flush()
	return nil
}

// Acquire takes the named lock, waiting until it is free, the lock wait
// elapses or ctx is done
func (c *Cache) Acquire(ctx context.Context, name string) (ports.ReleaseFunc, error) {
	key := cache.LockKey(name)

	ctx, cancel := context.WithTimeout(ctx, c.lockWait)
	defer cancel()

	for {
		c.mu.Lock()
		held, busy := c.locks[key]
		if !busy {
			released := make(chan struct{})
			c.locks[key] = released
			c.mu.Unlock()
			return c.releaser(key, released), nil
		}
		c.mu.Unlock()

		select {
		case <-held:
		case <-ctx.Done():
			return nil, errors.NewCacheUnavailableError("acquire "+key, ctx.Err())
		}
	}
}

func (c *Cache) releaser(key string, released chan struct{}) ports.ReleaseFunc {
	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			c.mu.Lock()
			if c.locks[key] == released {
				delete(c.locks, key)
			}
			c.mu.Unlock()
			close(released)
		})
		return nil
	}
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

func cloneAll(values [][]byte) [][]byte {
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = clone(v)
	}
	return out
}
