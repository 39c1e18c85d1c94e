package middleware

import (
	"net/http"
	"strings"

	"storefront-backend/pkg/auth"
	"storefront-backend/pkg/errors"

	"go.uber.org/zap"
)

// Cookie names carrying the session tokens
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Authenticate validates the access token and attaches the caller to the
// request context
func Authenticate(tokens *auth.TokenManager, errs *errors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				errs.Handle(w, r, errors.NewUnauthorizedError("Please login first"))
				return
			}

			claims, err := tokens.ValidateAccess(token)
			if err != nil {
				logger.Debug("Invalid token",
					zap.Error(err),
					zap.String("ip", GetClientIP(r)),
					zap.String("path", r.URL.Path),
				)
				switch err {
				case auth.ErrExpiredToken:
					errs.Handle(w, r, errors.NewUnauthorizedError("Token has expired"))
				default:
					errs.Handle(w, r, errors.NewUnauthorizedError("Invalid token"))
				}
				return
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID: claims.UserID,
				Email:  claims.Email,
				Role:   claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated callers that hold none of roles
func RequireRole(errs *errors.ErrorHandler, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				errs.Handle(w, r, errors.NewUnauthorizedError("Please login first"))
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			errs.Handle(w, r, errors.NewForbiddenError("You do not have rights to access to this page"))
		})
	}
}

// extractToken reads the bearer header first and falls back to the cookie
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// GetClientIP extracts the client IP address
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
