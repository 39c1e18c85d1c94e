package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadConfigLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storefront.yaml")
	writeFile(t, path, `
cache_backend: redis
redis_addr: cache:6379
cache_op_timeout: 750ms
log_level: debug
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("HYDRATION_LOCK_WAIT", "2500")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.CacheBackend)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, 750*time.Millisecond, cfg.CacheOpTimeout)
	assert.Equal(t, "warn", cfg.LogLevel, "environment beats the file")
	assert.Equal(t, 2500*time.Millisecond, cfg.LockWait)
	assert.Equal(t, BackendRedis, cfg.HydrationLockBackend())
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "no_such_key: 1\n")
	t.Setenv("CONFIG_FILE", path)

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"production without secret", func(c *Config) { c.Environment = "production" }, true},
		{"unknown store", func(c *Config) { c.StoreBackend = "mongo" }, true},
		{"unknown cache", func(c *Config) { c.CacheBackend = "memcached" }, true},
		{"dynamodb lock needs dynamodb store", func(c *Config) { c.LockBackend = BackendDynamoDB }, true},
		{"dynamodb lock", func(c *Config) {
			c.LockBackend = BackendDynamoDB
			c.StoreBackend = BackendDynamoDB
		}, false},
		{"redis lock needs redis cache", func(c *Config) { c.LockBackend = BackendRedis }, true},
		{"unknown events", func(c *Config) { c.EventBackend = "kafka" }, true},
		{"eventbridge needs a bus", func(c *Config) { c.EventBackend, c.EventBusName = BackendEventBridge, "" }, true},
		{"zero timeout", func(c *Config) { c.CacheOpTimeout = 0 }, true},
		{"sample rate", func(c *Config) { c.TraceSampleRate = 2 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	writeFile(t, path, "log_level: info\n")

	cfg, err := Reload(path)
	require.NoError(t, err)

	w, err := NewWatcher(cfg, zap.NewNop())
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond

	levels := make(chan string, 4)
	w.OnChange(func(c *Config) { levels <- c.LogLevel })
	w.Start()
	defer w.Stop()

	writeFile(t, path, "log_level: debug\n")

	select {
	case level := <-levels:
		assert.Equal(t, "debug", level)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload observed")
	}
	assert.Equal(t, "debug", w.Current().LogLevel)

	writeFile(t, path, "store_backend: mongo\n")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, "debug", w.Current().LogLevel, "invalid file keeps the current config")
}
