package di

import (
	"context"
	"strings"

	"storefront-backend/application/listcache"
	"storefront-backend/application/ports"
	"storefront-backend/application/services"
	"storefront-backend/infrastructure/cache/breaker"
	"storefront-backend/infrastructure/cache/memory"
	"storefront-backend/infrastructure/cache/redis"
	"storefront-backend/infrastructure/config"
	"storefront-backend/infrastructure/messaging/eventbridge"
	messaging "storefront-backend/infrastructure/messaging/memory"
	"storefront-backend/infrastructure/payments"
	"storefront-backend/infrastructure/persistence/dynamodb"
	persistence "storefront-backend/infrastructure/persistence/memory"
	"storefront-backend/infrastructure/presence"
	"storefront-backend/interfaces/http/rest"
	"storefront-backend/interfaces/http/rest/handlers"
	"storefront-backend/pkg/auth"
	"storefront-backend/pkg/errors"
	"storefront-backend/pkg/observability"
	"storefront-backend/pkg/utils"

	"github.com/alexedwards/argon2id"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProvideLogLevel parses cfg.LogLevel. The level can be changed at runtime.
func ProvideLogLevel(cfg *config.Config) zap.AtomicLevel {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.LogLevel))); err != nil {
		level.SetLevel(zapcore.InfoLevel)
	}
	return level
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, func(), error) {
	var zc zap.Config
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level

	logger, err := zc.Build()
	if err != nil {
		return nil, nil, err
	}
	logger = logger.With(zap.String("environment", cfg.Environment))
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client. DYNAMODB_ENDPOINT points
// it at DynamoDB Local.
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideStores selects the Primary Store
func ProvideStores(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) ports.Stores {
	if cfg.StoreBackend == config.BackendDynamoDB {
		logger.Info("using dynamodb store", zap.String("table", cfg.DynamoDBTable))
		return dynamodb.NewStores(client, cfg.DynamoDBTable, logger)
	}
	logger.Warn("using in-memory store, data is lost on restart")
	return persistence.NewStores()
}

// CacheBackend is the selected cache adapter
type CacheBackend struct {
	Cache  breaker.Backend
	Locker ports.HydrationLocker
	Pinger ports.Pinger
}

// ProvideCacheBackend connects the configured cache
func ProvideCacheBackend(cfg *config.Config, logger *zap.Logger) (*CacheBackend, func(), error) {
	if cfg.CacheBackend == config.BackendRedis {
		c := redis.New(redis.Config{
			Addr:      cfg.RedisAddr,
			DB:        cfg.RedisDB,
			Password:  cfg.RedisPassword,
			OpTimeout: cfg.CacheOpTimeout,
			PointTTL:  cfg.PointTTL,
			LockTTL:   cfg.LockTTL,
			LockWait:  cfg.LockWait,
		}, logger.Named("redis"))
		logger.Info("using redis cache", zap.String("addr", cfg.RedisAddr))
		return &CacheBackend{Cache: c, Locker: c, Pinger: c}, func() { _ = c.Close() }, nil
	}

	c := memory.NewCache(cfg.PointTTL, memory.WithLockWait(cfg.LockWait))
	return &CacheBackend{Cache: c, Locker: c, Pinger: c}, func() { _ = c.Close() }, nil
}

// ProvidePinger exposes the cache for readiness checks
func ProvidePinger(cache *CacheBackend) ports.Pinger {
	return cache.Pinger
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("storefront")
}

// ProvideListBackend assembles the ports shared by every cached list: the
// cache, behind a breaker when enabled, and the hydration lock.
func ProvideListBackend(
	cfg *config.Config,
	cache *CacheBackend,
	client *awsdynamodb.Client,
	collector *observability.Collector,
	logger *zap.Logger,
) listcache.Backend {
	var lists breaker.Backend = cache.Cache
	if cfg.EnableBreaker {
		bc := breaker.DefaultConfig("cache")
		bc.Timeout = cfg.BreakerOpenDelay
		bc.MinRequests = uint32(cfg.BreakerFailures)
		lists = breaker.New(cache.Cache, bc, logger.Named("breaker"))
	}

	locker := cache.Locker
	if cfg.HydrationLockBackend() == config.BackendDynamoDB {
		locker = dynamodb.NewDistributedLock(client, cfg.DynamoDBTable, cfg.LockTTL, cfg.LockWait, logger.Named("lock"))
	}

	return listcache.Backend{
		Lists:    lists,
		Points:   lists,
		Locker:   locker,
		Logger:   logger.Named("listcache"),
		Recorder: collector,
	}
}

// ProvideEventPublisher selects the event bus and routes events through the
// presence registry
func ProvideEventPublisher(
	cfg *config.Config,
	client *awseventbridge.Client,
	registry *presence.Registry,
	logger *zap.Logger,
) ports.EventPublisher {
	var next ports.EventPublisher
	if cfg.EventBackend == config.BackendEventBridge {
		next = eventbridge.NewPublisher(client, cfg.EventBusName, logger.Named("eventbridge"))
	} else {
		next = messaging.NewBus(logger.Named("bus"))
	}
	return presence.NewPublisher(next, registry, logger.Named("presence"))
}

// ProvidePaymentGateway creates the payment gateway
func ProvidePaymentGateway(logger *zap.Logger) ports.PaymentGateway {
	return payments.NewLoggingGateway(logger.Named("payments"))
}

// ProvideClock returns the wall clock
func ProvideClock() utils.Clock {
	return utils.SystemClock
}

// ProvideTokenManager creates the JWT manager
func ProvideTokenManager(cfg *config.Config) (*auth.TokenManager, error) {
	secret := cfg.JWTSecret
	if secret == "" && !cfg.IsProduction() {
		secret = "development-secret-change-in-production"
	}
	return auth.NewTokenManager(auth.TokenConfig{
		Secret:     secret,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
}

// ProvidePasswordHasher creates the argon2id hasher
func ProvidePasswordHasher() *auth.PasswordHasher {
	return auth.NewPasswordHasher(argon2id.DefaultParams)
}

// ProvideAuthRateLimiter throttles /register and /login per client
func ProvideAuthRateLimiter(cfg *config.Config) (auth.RateLimiter, func()) {
	limiter := auth.NewPerMinuteLimiter(cfg.AuthRateLimit)
	return limiter, limiter.Stop
}

// ProvideErrorHandler creates the HTTP error handler. Details are only
// exposed in development.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *errors.ErrorHandler {
	return errors.NewErrorHandler(logger.Named("http"), cfg.IsDevelopment())
}

// ProvideOrderService creates the order service
func ProvideOrderService(
	cfg *config.Config,
	stores ports.Stores,
	lists *services.Collections,
	gateway ports.PaymentGateway,
	publisher ports.EventPublisher,
	collector *observability.Collector,
	logger *zap.Logger,
	clock utils.Clock,
) *services.OrderService {
	return services.NewOrderService(stores, lists, gateway, publisher, collector, cfg.PaymentsCurrency, logger, clock)
}

// ProvideAuthHandler creates the auth handler
func ProvideAuthHandler(cfg *config.Config, svc *services.AuthService, errs *errors.ErrorHandler, logger *zap.Logger) *handlers.AuthHandler {
	return handlers.NewAuthHandler(svc, errs, logger, cfg.SecureCookies)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	h rest.Handlers,
	tokens *auth.TokenManager,
	limiter auth.RateLimiter,
	errs *errors.ErrorHandler,
	collector *observability.Collector,
	ready ports.Pinger,
	logger *zap.Logger,
) *rest.Router {
	rc := rest.RouterConfig{
		EnableCORS:     cfg.EnableCORS,
		AllowedOrigins: cfg.AllowedOrigins,
		AuthRateLimit:  cfg.AuthRateLimit,
	}
	if !cfg.EnableMetrics {
		return rest.NewRouter(rc, h, tokens, limiter, errs, nil, nil, ready, logger)
	}
	return rest.NewRouter(rc, h, tokens, limiter, errs, collector, collector.Handler(), ready, logger)
}
