package middleware

import (
	"net/http"

	"storefront-backend/pkg/auth"
	"storefront-backend/pkg/errors"

	"go.uber.org/zap"
)

// RateLimit throttles requests per client IP. limit is only used in the
// error message.
func RateLimit(limiter auth.RateLimiter, limit int, errs *errors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := GetClientIP(r)

			allowed, err := limiter.Allow(r.Context(), clientIP)
			if err != nil {
				logger.Error("Rate limiter error", zap.Error(err))
				errs.Handle(w, r, errors.NewInternalError("rate limiter unavailable"))
				return
			}
			if !allowed {
				errs.Handle(w, r, errors.NewRateLimitError(limit, "minute"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
