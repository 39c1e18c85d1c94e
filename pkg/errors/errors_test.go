package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConstructorsCarryStatus(t *testing.T) {
	cause := stderrors.New("boom")
	tests := []struct {
		name   string
		err    *AppError
		typ    ErrorType
		status int
	}{
		{"validation", NewValidationError("bad"), ErrorTypeValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("Product"), ErrorTypeNotFound, http.StatusNotFound},
		{"conflict", NewConflictError("User already exists"), ErrorTypeConflict, http.StatusConflict},
		{"unauthorized", NewUnauthorizedError(""), ErrorTypeUnauthorized, http.StatusUnauthorized},
		{"forbidden", NewForbiddenError(""), ErrorTypeForbidden, http.StatusForbidden},
		{"status", NewStatusError(http.StatusGone, "expired"), ErrorTypeBusinessRule, http.StatusGone},
		{"rate limit", NewRateLimitError(5, "minute"), ErrorTypeRateLimit, http.StatusTooManyRequests},
		{"consistency", NewCacheConsistencyError("products", "p1"), ErrorTypeCacheConsistency, http.StatusInternalServerError},
		{"cache unavailable", NewCacheUnavailableError("lrange", cause), ErrorTypeCacheUnavailable, http.StatusServiceUnavailable},
		{"database", NewDatabaseError("get", cause), ErrorTypeDatabase, http.StatusInternalServerError},
		{"external", NewExternalError("payments", cause), ErrorTypeExternal, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.err.Type)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.True(t, IsType(fmt.Errorf("wrapped: %w", tt.err), tt.typ))
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "Product not found", NewNotFoundError("Product").Message)
}

func TestCausesUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewCacheUnavailableError("get", cause)
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, IsCacheUnavailable(err))
	assert.False(t, IsCacheConsistency(err))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ctx"))

	wrapped := Wrap(NewNotFoundError("Order"), "load order")
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, "load order: Order not found", GetAppError(wrapped).Message)

	plain := Wrapf(stderrors.New("disk"), "write %s", "cart")
	assert.True(t, IsType(plain, ErrorTypeInternal))
	assert.Equal(t, "write cart", GetAppError(plain).Message)
}

func TestErrorHandler(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"app error", NewStatusError(http.StatusNotAcceptable, "Please make an order of at least $50 to avail this Voucher"), http.StatusNotAcceptable, "Please make an order of at least $50 to avail this Voucher"},
		{"opaque error", stderrors.New("secret detail"), http.StatusInternalServerError, "An internal error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Handle(rec, httptest.NewRequest("GET", "/api/carts/cart", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.Equal(t, tt.message, body.Message)
			assert.NotContains(t, rec.Body.String(), "stack_trace")
		})
	}
}

func TestErrorHandlerCacheFailures(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)

	tests := []struct {
		name    string
		err     error
		status  int
		message string
		retry   string
	}{
		{"consistency", NewCacheConsistencyError("products", "p1"), http.StatusInternalServerError, "An internal error occurred", ""},
		{"unavailable", NewCacheUnavailableError("lrange", stderrors.New("dial tcp")), http.StatusServiceUnavailable, "Service temporarily unavailable, please retry", "5"},
		{"rate limit", NewRateLimitError(5, "minute"), http.StatusTooManyRequests, "rate limit exceeded: 5 requests per minute", "60"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Handle(rec, httptest.NewRequest("GET", "/api/products/home", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.retry, rec.Header().Get("Retry-After"))
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Message)
			assert.Nil(t, body.Details)
			assert.NotContains(t, rec.Body.String(), "products")
		})
	}
}

func TestErrorHandlerRecoversPanics(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)
	panicking := h.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil map")
	}))

	rec := httptest.NewRecorder()
	panicking.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
