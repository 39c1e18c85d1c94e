// Package breaker guards a cache backend with a circuit breaker. While the
// circuit is open calls fail fast with CACHE_UNAVAILABLE, which sends reads
// to the Primary Store and makes mirrored writes skip the cache.
package breaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"storefront-backend/application/ports"
	"storefront-backend/pkg/errors"
)

// Backend is the cache surface the breaker wraps
type Backend interface {
	ports.ListCache
	ports.PointCache
}

// Config holds configuration for the circuit breaker
type Config struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold is the failure ratio that trips the circuit
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultConfig returns a default configuration for the circuit breaker
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Cache is a ListCache and PointCache behind a circuit breaker
type Cache struct {
	next Backend
	cb   *gobreaker.CircuitBreaker
}

var (
	_ ports.ListCache  = (*Cache)(nil)
	_ ports.PointCache = (*Cache)(nil)
)

// New wraps next. Only CACHE_UNAVAILABLE errors count as failures; a
// consistency error is an answer from a healthy backend.
func New(next Backend, config Config, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.IsCacheUnavailable(err)
		},
	})
	return &Cache{next: next, cb: cb}
}

// State returns the current breaker state
func (c *Cache) State() gobreaker.State {
	return c.cb.State()
}

func execute[R any](c *Cache, op string, fn func() (R, error)) (R, error) {
	out, err := c.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		var zero R
		return zero, errors.NewCacheUnavailableError(op, err)
	}
	if out == nil {
		var zero R
		return zero, err
	}
	return out.(R), err
}

func executeErr(c *Cache, op string, fn func() error) error {
	_, err := execute(c, op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Push forwards to the wrapped backend
func (c *Cache) Push(ctx context.Context, key string, value []byte, atEnd bool) error {
	return executeErr(c, "push", func() error { return c.next.Push(ctx, key, value, atEnd) })
}

// Range forwards to the wrapped backend
func (c *Cache) Range(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	return execute(c, "range", func() ([][]byte, error) { return c.next.Range(ctx, key, start, stop) })
}

// Len forwards to the wrapped backend
func (c *Cache) Len(ctx context.Context, key string) (int64, error) {
	return execute(c, "len", func() (int64, error) { return c.next.Len(ctx, key) })
}

// All forwards to the wrapped backend
func (c *Cache) All(ctx context.Context, key string) ([][]byte, error) {
	return execute(c, "all", func() ([][]byte, error) { return c.next.All(ctx, key) })
}

// ReplaceByID forwards to the wrapped backend. A consistency error does not
// count against the circuit.
func (c *Cache) ReplaceByID(ctx context.Context, key, id string, value []byte) error {
	return executeErr(c, "replace", func() error { return c.next.ReplaceByID(ctx, key, id, value) })
}

// RemoveByID forwards to the wrapped backend. A consistency error does not
// count against the circuit.
func (c *Cache) RemoveByID(ctx context.Context, key, id string) error {
	return executeErr(c, "remove", func() error { return c.next.RemoveByID(ctx, key, id) })
}

// Hydrate forwards to the wrapped backend
func (c *Cache) Hydrate(ctx context.Context, key string, values [][]byte) error {
	return executeErr(c, "hydrate", func() error { return c.next.Hydrate(ctx, key, values) })
}

// Hydrated forwards to the wrapped backend
func (c *Cache) Hydrated(ctx context.Context, key string) (bool, error) {
	return execute(c, "hydrated", func() (bool, error) { return c.next.Hydrated(ctx, key) })
}

// Drop forwards to the wrapped backend
func (c *Cache) Drop(ctx context.Context, key string) error {
	return executeErr(c, "drop", func() error { return c.next.Drop(ctx, key) })
}

// point carries a Get result through the breaker
type point struct {
	value []byte
	ok    bool
}

// Get forwards to the wrapped backend
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	p, err := execute(c, "get", func() (point, error) {
		v, ok, err := c.next.Get(ctx, key)
		return point{v, ok}, err
	})
	return p.value, p.ok, err
}

// Set forwards to the wrapped backend
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	return executeErr(c, "set", func() error { return c.next.Set(ctx, key, value) })
}

// Delete forwards to the wrapped backend
func (c *Cache) Delete(ctx context.Context, key string) error {
	return executeErr(c, "delete", func() error { return c.next.Delete(ctx, key) })
}
