package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront-backend/infrastructure/config"
	"storefront-backend/infrastructure/di"
	"storefront-backend/pkg/observability"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()
	logger := container.Logger

	if cfg.EnableTracing {
		tp, err := observability.InitTracing(ctx, observability.TracingConfig{
			ServiceName: "storefront-backend",
			Environment: cfg.Environment,
			Endpoint:    cfg.TracingEndpoint,
			SampleRate:  cfg.TraceSampleRate,
		})
		if err != nil {
			logger.Warn("Tracing disabled", zap.Error(err))
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					logger.Error("Tracer shutdown error", zap.Error(err))
				}
			}()
		}
	}

	// Only the log level is applied on reload; everything else needs a restart
	if cfg.ConfigFile != "" {
		watcher, err := config.NewWatcher(cfg, logger)
		if err != nil {
			logger.Warn("Config watcher disabled", zap.Error(err))
		} else {
			watcher.OnChange(func(next *config.Config) {
				if err := container.Level.UnmarshalText([]byte(strings.ToLower(next.LogLevel))); err != nil {
					logger.Warn("Ignoring invalid log level", zap.String("log_level", next.LogLevel))
				}
			})
			watcher.Start()
			defer watcher.Stop()
		}
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      container.Router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("cache_backend", cfg.CacheBackend),
			zap.String("store_backend", cfg.StoreBackend),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	log.Println("Server stopped")
}
