//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"storefront-backend/application/services"
	"storefront-backend/infrastructure/config"
	"storefront-backend/infrastructure/presence"
	"storefront-backend/interfaces/http/rest"
	"storefront-backend/interfaces/http/rest/handlers"
)

// InfrastructureSet provides adapters selected by configuration
var InfrastructureSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideStores,
	ProvideCacheBackend,
	ProvidePinger,
	ProvideCollector,
	ProvideListBackend,
	presence.NewRegistry,
	ProvideEventPublisher,
	ProvidePaymentGateway,
	ProvideClock,
	ProvideTokenManager,
	ProvidePasswordHasher,
	ProvideAuthRateLimiter,
	ProvideErrorHandler,
)

// ServiceSet provides the application services
var ServiceSet = wire.NewSet(
	services.NewCollections,
	services.NewAuthService,
	services.NewCatalogService,
	services.NewCouponService,
	services.NewUserService,
	services.NewDashboardService,
	ProvideOrderService,
	services.NewCartService,
	services.NewWishlistService,
	services.NewReviewService,
	services.NewStorefrontService,
	services.NewChatService,
)

// HTTPSet provides handlers and the router
var HTTPSet = wire.NewSet(
	ProvideAuthHandler,
	handlers.NewCatalogHandler,
	handlers.NewAdminHandler,
	handlers.NewOrderHandler,
	handlers.NewCartHandler,
	handlers.NewReviewHandler,
	handlers.NewStorefrontHandler,
	handlers.NewChatHandler,
	wire.Struct(new(rest.Handlers), "*"),
	ProvideRouter,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	InfrastructureSet,
	ServiceSet,
	HTTPSet,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
