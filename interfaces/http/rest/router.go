package rest

import (
	"context"
	"net/http"
	"time"

	"storefront-backend/application/ports"
	"storefront-backend/domain/core/entities"
	"storefront-backend/interfaces/http/rest/handlers"
	"storefront-backend/interfaces/http/rest/middleware"
	"storefront-backend/pkg/auth"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig holds the HTTP surface settings
type RouterConfig struct {
	EnableCORS     bool
	AllowedOrigins []string
	AuthRateLimit  int
	RequestTimeout time.Duration
}

// Handlers groups the endpoint handlers mounted under /api
type Handlers struct {
	Auth       *handlers.AuthHandler
	Catalog    *handlers.CatalogHandler
	Admin      *handlers.AdminHandler
	Orders     *handlers.OrderHandler
	Cart       *handlers.CartHandler
	Reviews    *handlers.ReviewHandler
	Storefront *handlers.StorefrontHandler
	Chats      *handlers.ChatHandler
}

// Router creates and configures the HTTP router
type Router struct {
	cfg         RouterConfig
	handlers    Handlers
	tokens      *auth.TokenManager
	authLimiter auth.RateLimiter
	errs        *errors.ErrorHandler
	recorder    middleware.HTTPRecorder
	metrics     http.Handler
	ready       ports.Pinger
	logger      *zap.Logger
}

// NewRouter creates a new router instance. recorder, metrics and ready may
// be nil.
func NewRouter(
	cfg RouterConfig,
	h Handlers,
	tokens *auth.TokenManager,
	authLimiter auth.RateLimiter,
	errs *errors.ErrorHandler,
	recorder middleware.HTTPRecorder,
	metrics http.Handler,
	ready ports.Pinger,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:         cfg,
		handlers:    h,
		tokens:      tokens,
		authLimiter: authLimiter,
		errs:        errs,
		recorder:    recorder,
		metrics:     metrics,
		ready:       ready,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errs.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.recorder != nil {
		router.Use(middleware.Metrics(rt.recorder))
	}
	if rt.cfg.RequestTimeout > 0 {
		router.Use(chimiddleware.Timeout(rt.cfg.RequestTimeout))
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics)
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errs.Handle(w, r, errors.NewNotFoundError("route"))
	})

	authenticated := middleware.Authenticate(rt.tokens, rt.errs, rt.logger)
	admin := middleware.RequireRole(rt.errs, entities.RoleAdmin)
	h := rt.handlers

	router.Route("/api", func(r chi.Router) {
		// Public
		r.Group(func(r chi.Router) {
			if rt.authLimiter != nil {
				r.Use(middleware.RateLimit(rt.authLimiter, rt.cfg.AuthRateLimit, rt.errs, rt.logger))
			}
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
		})
		r.Get("/refreshToken", h.Auth.Refresh)

		r.Get("/products/home", h.Storefront.Home)
		r.Get("/products/filtered", h.Storefront.Filtered)
		r.Get("/products/search", h.Catalog.ListProducts)
		r.Get("/products/{productId}", h.Storefront.Product)

		// Signed in
		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Get("/logout", h.Auth.Logout)
			r.Get("/users/user", h.Auth.CurrentUser)
			r.Get("/profiles/profile", h.Auth.CurrentUser)
			r.Put("/profiles/profile", h.Auth.UpdateProfile)

			r.Get("/brands", h.Catalog.AllBrands)
			r.Get("/categories", h.Catalog.AllCategories)

			r.Get("/carts/cart", h.Cart.GetCart)
			r.Put("/carts/cart", h.Cart.UpdateCart)
			r.Patch("/carts/cart", h.Cart.ApplyCoupon)
			r.Get("/checkout", h.Cart.Checkout)

			r.Post("/orders", h.Orders.Place)
			r.Get("/orders", h.Orders.UserOrders)
			r.Get("/orders/{orderId}", h.Orders.Get)

			r.Post("/wishlists", h.Cart.AddToWishlist)
			r.Get("/wishlists/wishlist", h.Cart.Wishlist)
			r.Patch("/wishlists/wishlist", h.Cart.RemoveFromWishlist)

			r.Post("/reviews", h.Reviews.Add)

			r.Get("/chats", h.Chats.List)
			r.Get("/chats/{chatId}", h.Chats.Messages)
			r.Put("/chats/{chatId}", h.Chats.Send)
			r.Patch("/chats/{chatId}", h.Chats.MarkRead)
		})

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticated, admin)

			r.Route("/brands", func(r chi.Router) {
				r.Get("/", h.Catalog.ListBrands)
				r.Post("/", h.Catalog.CreateBrand)
				r.Get("/{brandId}", h.Catalog.GetBrand)
				r.Put("/{brandId}", h.Catalog.UpdateBrand)
				r.Delete("/{brandId}", h.Catalog.DeleteBrand)
			})
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.Catalog.ListCategories)
				r.Post("/", h.Catalog.CreateCategory)
				r.Get("/{categoryId}", h.Catalog.GetCategory)
				r.Put("/{categoryId}", h.Catalog.UpdateCategory)
				r.Delete("/{categoryId}", h.Catalog.DeleteCategory)
			})
			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.Catalog.ListProducts)
				r.Post("/", h.Catalog.CreateProduct)
				r.Get("/{productId}", h.Catalog.GetProduct)
				r.Put("/{productId}", h.Catalog.UpdateProduct)
				r.Delete("/{productId}", h.Catalog.DeleteProduct)
			})
			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", h.Admin.ListCoupons)
				r.Post("/", h.Admin.CreateCoupon)
				r.Get("/{couponId}", h.Admin.GetCoupon)
				r.Put("/{couponId}", h.Admin.UpdateCoupon)
				r.Delete("/{couponId}", h.Admin.DeleteCoupon)
			})

			r.Get("/users", h.Admin.ListUsers)
			r.Patch("/users/{userId}", h.Admin.SetUserRole)
			r.Delete("/users/{userId}", h.Admin.DeleteUser)

			r.Get("/dashboard", h.Admin.Dashboard)

			r.Get("/orders", h.Orders.AdminOrders)
			r.Get("/orders/{orderId}", h.Orders.Get)
			r.Patch("/orders/{orderId}", h.Orders.UpdateStatus)
			r.Get("/orderNotifications", h.Orders.Notifications)

			r.Get("/reviews", h.Reviews.List)
			r.Delete("/reviews/{reviewId}", h.Reviews.Delete)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck pings the cache backend
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.ready != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.ready.Ping(ctx); err != nil {
			rt.logger.Warn("readiness check failed", zap.Error(err))
			common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
