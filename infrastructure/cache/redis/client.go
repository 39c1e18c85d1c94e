// Package redis implements the cache ports on Redis lists and strings.
// Every command runs under the configured operation timeout; transport
// failures and timeouts surface as CACHE_UNAVAILABLE errors.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront-backend/application/ports"
	"storefront-backend/pkg/errors"
)

var (
	_ ports.ListCache       = (*Cache)(nil)
	_ ports.PointCache      = (*Cache)(nil)
	_ ports.HydrationLocker = (*Cache)(nil)
	_ ports.Pinger          = (*Cache)(nil)
)

// Config holds connection and timing settings
type Config struct {
	Addr     string
	DB       int
	Password string

	// OpTimeout bounds every cache call
	OpTimeout time.Duration

	// PointTTL expires point keys; zero keeps them forever
	PointTTL time.Duration

	// LockTTL is the lease of a hydration lock, LockWait how long Acquire
	// waits for a busy lock
	LockTTL  time.Duration
	LockWait time.Duration

	// TxRetries bounds optimistic retries of replace and remove
	TxRetries int
}

func (c Config) withDefaults() Config {
	if c.OpTimeout <= 0 {
		c.OpTimeout = 2 * time.Second
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 30 * time.Second
	}
	if c.LockWait <= 0 {
		c.LockWait = 10 * time.Second
	}
	if c.TxRetries <= 0 {
		c.TxRetries = 5
	}
	return c
}

// Cache is a Redis-backed list, point and lock store
type Cache struct {
	rdb    redis.UniversalClient
	cfg    Config
	logger *zap.Logger
}

// New connects a client for cfg
func New(cfg Config, logger *zap.Logger) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return NewWithClient(rdb, cfg, logger)
}

// NewWithClient wraps an existing client
func NewWithClient(rdb redis.UniversalClient, cfg Config, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{rdb: rdb, cfg: cfg.withDefaults(), logger: logger}
}

// Ping checks connectivity
func (c *Cache) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", func(ctx context.Context) error {
		return c.rdb.Ping(ctx).Err()
	})
}

// Close closes the client
func (c *Cache) Close() error {
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Close(); err != nil {
		c.logger.Warn("error while closing redis client", zap.Error(err))
		return err
	}
	c.logger.Info("redis client closed")
	return nil
}

// do runs fn under the operation timeout and maps transport errors
func (c *Cache) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.OpTimeout)
	defer cancel()

	err := fn(ctx)
	if err == nil || errors.IsAppError(err) {
		return err
	}
	c.logger.Debug("redis command failed", zap.String("operation", op), zap.Error(err))
	return errors.NewCacheUnavailableError(op, err)
}
