//go:build !wireinject
// +build !wireinject

// This file is maintained by hand and follows the injector in wire.go
// provider for provider. Running go generate here replaces it with wire's
// output.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire

package di

import (
	"context"

	"storefront-backend/application/services"
	"storefront-backend/infrastructure/config"
	"storefront-backend/infrastructure/presence"
	"storefront-backend/interfaces/http/rest"
	"storefront-backend/interfaces/http/rest/handlers"
)

// Injectors from wire.go:

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	atomicLevel := ProvideLogLevel(cfg)
	logger, cleanup, err := ProvideLogger(cfg, atomicLevel)
	if err != nil {
		return nil, nil, err
	}
	awsConfig, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	client := ProvideDynamoDBClient(awsConfig, cfg)
	stores := ProvideStores(cfg, client, logger)
	cacheBackend, cleanup2, err := ProvideCacheBackend(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	collector := ProvideCollector()
	backend := ProvideListBackend(cfg, cacheBackend, client, collector, logger)
	collections := services.NewCollections(backend, stores)
	passwordHasher := ProvidePasswordHasher()
	tokenManager, err := ProvideTokenManager(cfg)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	clock := ProvideClock()
	authService := services.NewAuthService(stores, collections, passwordHasher, tokenManager, logger, clock)
	errorHandler := ProvideErrorHandler(cfg, logger)
	authHandler := ProvideAuthHandler(cfg, authService, errorHandler, logger)
	catalogService := services.NewCatalogService(stores, collections, logger, clock)
	catalogHandler := handlers.NewCatalogHandler(catalogService, errorHandler, logger)
	couponService := services.NewCouponService(stores, collections, logger, clock)
	userService := services.NewUserService(stores, collections, logger, clock)
	dashboardService := services.NewDashboardService(collections, logger, clock)
	adminHandler := handlers.NewAdminHandler(couponService, userService, dashboardService, errorHandler, logger)
	paymentGateway := ProvidePaymentGateway(logger)
	eventbridgeClient := ProvideEventBridgeClient(awsConfig)
	registry := presence.NewRegistry()
	eventPublisher := ProvideEventPublisher(cfg, eventbridgeClient, registry, logger)
	orderService := ProvideOrderService(cfg, stores, collections, paymentGateway, eventPublisher, collector, logger, clock)
	orderHandler := handlers.NewOrderHandler(orderService, errorHandler, logger)
	cartService := services.NewCartService(stores, collections, logger, clock)
	wishlistService := services.NewWishlistService(stores, collections, logger, clock)
	cartHandler := handlers.NewCartHandler(cartService, wishlistService, errorHandler, logger)
	reviewService := services.NewReviewService(stores, collections, eventPublisher, logger, clock)
	reviewHandler := handlers.NewReviewHandler(reviewService, errorHandler, logger)
	storefrontService := services.NewStorefrontService(collections, logger)
	storefrontHandler := handlers.NewStorefrontHandler(storefrontService, errorHandler, logger)
	chatService := services.NewChatService(stores, collections, eventPublisher, logger, clock)
	chatHandler := handlers.NewChatHandler(chatService, errorHandler, logger)
	restHandlers := rest.Handlers{
		Auth:       authHandler,
		Catalog:    catalogHandler,
		Admin:      adminHandler,
		Orders:     orderHandler,
		Cart:       cartHandler,
		Reviews:    reviewHandler,
		Storefront: storefrontHandler,
		Chats:      chatHandler,
	}
	rateLimiter, cleanup3 := ProvideAuthRateLimiter(cfg)
	pinger := ProvidePinger(cacheBackend)
	router := ProvideRouter(cfg, restHandlers, tokenManager, rateLimiter, errorHandler, collector, pinger, logger)
	container := &Container{
		Config:   cfg,
		Logger:   logger,
		Level:    atomicLevel,
		Router:   router,
		Metrics:  collector,
		Presence: registry,
	}
	return container, func() {
		cleanup3()
		cleanup2()
		cleanup()
	}, nil
}
