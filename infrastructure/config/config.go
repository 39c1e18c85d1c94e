package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Backend names
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"

	BackendEventBridge = "eventbridge"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// AWS configuration
	AWSRegion        string `yaml:"aws_region"`
	DynamoDBTable    string `yaml:"dynamodb_table"`
	DynamoDBEndpoint string `yaml:"dynamodb_endpoint"`
	EventBusName     string `yaml:"event_bus_name"`
	EventBackend     string `yaml:"event_backend"`

	// Backends: memory, redis or dynamodb
	StoreBackend string `yaml:"store_backend"`
	CacheBackend string `yaml:"cache_backend"`
	LockBackend  string `yaml:"lock_backend"`

	// Redis
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Cache layer
	CacheOpTimeout   time.Duration `yaml:"cache_op_timeout"`
	PointTTL         time.Duration `yaml:"point_ttl"`
	LockTTL          time.Duration `yaml:"lock_ttl"`
	LockWait         time.Duration `yaml:"lock_wait"`
	EnableBreaker    bool          `yaml:"enable_breaker"`
	BreakerFailures  int           `yaml:"breaker_failures"`
	BreakerOpenDelay time.Duration `yaml:"breaker_open_delay"`

	// Lambda configuration
	IsLambda           bool   `yaml:"is_lambda"`
	LambdaFunctionName string `yaml:"-"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Authentication
	JWTSecret        string        `yaml:"jwt_secret"`
	JWTIssuer        string        `yaml:"jwt_issuer"`
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL  time.Duration `yaml:"refresh_token_ttl"`
	AuthRateLimit    int           `yaml:"auth_rate_limit"`
	SecureCookies    bool          `yaml:"secure_cookies"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
	PaymentsCurrency string        `yaml:"payments_currency"`

	// Feature flags
	EnableMetrics   bool    `yaml:"enable_metrics"`
	EnableTracing   bool    `yaml:"enable_tracing"`
	EnableCORS      bool    `yaml:"enable_cors"`
	TracingEndpoint string  `yaml:"tracing_endpoint"`
	TraceSampleRate float64 `yaml:"trace_sample_rate"`

	// ConfigFile is the optional YAML layer, set from CONFIG_FILE
	ConfigFile string `yaml:"-"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		ServerAddress:    ":8080",
		Environment:      "development",
		AWSRegion:        "us-west-2",
		DynamoDBTable:    "storefront",
		EventBusName:     "storefront-events",
		EventBackend:     BackendMemory,
		StoreBackend:     BackendMemory,
		CacheBackend:     BackendMemory,
		LockBackend:      "",
		RedisAddr:        "localhost:6379",
		CacheOpTimeout:   2 * time.Second,
		PointTTL:         0,
		LockTTL:          30 * time.Second,
		LockWait:         10 * time.Second,
		EnableBreaker:    true,
		BreakerFailures:  5,
		BreakerOpenDelay: 30 * time.Second,
		LogLevel:         "info",
		JWTIssuer:        "storefront-backend",
		AccessTokenTTL:   time.Hour,
		RefreshTokenTTL:  7 * 24 * time.Hour,
		AuthRateLimit:    20,
		AllowedOrigins:   []string{"*"},
		PaymentsCurrency: "usd",
		EnableMetrics:    true,
		EnableCORS:       true,
		TracingEndpoint:  "localhost:4317",
		TraceSampleRate:  0.1,
	}
}

// LoadConfig loads configuration from, in rising priority: defaults, the
// YAML file named by CONFIG_FILE, a local .env file and the environment.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := Defaults()
	cfg.ConfigFile = os.Getenv("CONFIG_FILE")
	if cfg.ConfigFile != "" {
		if err := loadFile(cfg.ConfigFile, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.ServerAddress = getEnv("SERVER_ADDRESS", cfg.ServerAddress)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)
	cfg.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", cfg.DynamoDBTable))
	cfg.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", cfg.DynamoDBEndpoint)
	cfg.EventBusName = getEnv("EVENT_BUS_NAME", cfg.EventBusName)
	cfg.EventBackend = getEnv("EVENT_BACKEND", cfg.EventBackend)

	cfg.StoreBackend = getEnv("STORE_BACKEND", cfg.StoreBackend)
	cfg.CacheBackend = getEnv("CACHE_BACKEND", cfg.CacheBackend)
	cfg.LockBackend = getEnv("LOCK_BACKEND", cfg.LockBackend)

	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB)

	cfg.CacheOpTimeout = getEnvDuration("CACHE_OP_TIMEOUT", cfg.CacheOpTimeout)
	cfg.PointTTL = getEnvDuration("CACHE_POINT_TTL", cfg.PointTTL)
	cfg.LockTTL = getEnvDuration("HYDRATION_LOCK_TTL", cfg.LockTTL)
	cfg.LockWait = getEnvDuration("HYDRATION_LOCK_WAIT", cfg.LockWait)
	cfg.EnableBreaker = getEnvBool("ENABLE_CACHE_BREAKER", cfg.EnableBreaker)
	cfg.BreakerFailures = getEnvInt("CACHE_BREAKER_FAILURES", cfg.BreakerFailures)
	cfg.BreakerOpenDelay = getEnvDuration("CACHE_BREAKER_OPEN_DELAY", cfg.BreakerOpenDelay)

	cfg.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", cfg.LambdaFunctionName)
	cfg.IsLambda = getEnvBool("IS_LAMBDA", cfg.IsLambda || cfg.LambdaFunctionName != "")

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = getEnv("JWT_ISSUER", cfg.JWTIssuer)
	cfg.AccessTokenTTL = getEnvDuration("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL)
	cfg.RefreshTokenTTL = getEnvDuration("REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL)
	cfg.AuthRateLimit = getEnvInt("AUTH_RATE_LIMIT", cfg.AuthRateLimit)
	cfg.SecureCookies = getEnvBool("SECURE_COOKIES", cfg.SecureCookies)
	cfg.PaymentsCurrency = getEnv("PAYMENTS_CURRENCY", cfg.PaymentsCurrency)

	cfg.EnableMetrics = getEnvBool("ENABLE_METRICS", cfg.EnableMetrics)
	cfg.EnableTracing = getEnvBool("ENABLE_TRACING", cfg.EnableTracing)
	cfg.EnableCORS = getEnvBool("ENABLE_CORS", cfg.EnableCORS)
	cfg.TracingEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.TracingEndpoint)
	cfg.TraceSampleRate = getEnvFloat("TRACE_SAMPLE_RATE", cfg.TraceSampleRate)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.CacheBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	switch c.LockBackend {
	case "", BackendMemory, BackendRedis:
	case BackendDynamoDB:
		if c.StoreBackend != BackendDynamoDB {
			return fmt.Errorf("LOCK_BACKEND=dynamodb requires STORE_BACKEND=dynamodb")
		}
	default:
		return fmt.Errorf("unknown LOCK_BACKEND %q", c.LockBackend)
	}
	if c.LockBackend == BackendRedis && c.CacheBackend != BackendRedis {
		return fmt.Errorf("LOCK_BACKEND=redis requires CACHE_BACKEND=redis")
	}

	switch c.EventBackend {
	case BackendMemory:
	case BackendEventBridge:
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	default:
		return fmt.Errorf("unknown EVENT_BACKEND %q", c.EventBackend)
	}

	if c.CacheOpTimeout <= 0 {
		return fmt.Errorf("CACHE_OP_TIMEOUT must be positive")
	}
	if c.LockTTL <= 0 || c.LockWait <= 0 {
		return fmt.Errorf("hydration lock TTL and wait must be positive")
	}
	if c.TraceSampleRate < 0 || c.TraceSampleRate > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATE must be between 0 and 1")
	}
	return nil
}

// HydrationLockBackend resolves the lock backend, defaulting to the cache
// backend
func (c *Config) HydrationLockBackend() string {
	if c.LockBackend != "" {
		return c.LockBackend
	}
	return c.CacheBackend
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("2s") and bare milliseconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
