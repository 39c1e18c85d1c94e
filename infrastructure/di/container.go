package di

import (
	"storefront-backend/infrastructure/config"
	"storefront-backend/infrastructure/presence"
	"storefront-backend/interfaces/http/rest"
	"storefront-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Level    zap.AtomicLevel
	Router   *rest.Router
	Metrics  *observability.Collector
	Presence *presence.Registry
}
