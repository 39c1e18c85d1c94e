package auth

import (
	"context"
	"errors"
)

type contextKey string

const userContextKey contextKey = "user"

// UserContext is the authenticated caller attached to a request
type UserContext struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin reports whether the caller holds the admin role
func (u *UserContext) IsAdmin() bool { return u != nil && u.Role == "admin" }

// GetUserFromContext extracts user context from request context
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, errors.New("user context not found")
	}
	return user, nil
}

// SetUserInContext adds user context to request context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
