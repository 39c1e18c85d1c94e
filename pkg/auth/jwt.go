// Package auth issues and validates the bearer tokens used by the API and
// hashes account passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common authentication errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingToken     = errors.New("missing authentication token")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrWrongTokenKind   = errors.New("wrong token kind")
)

// Token kinds
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims represents the JWT claims issued by this service
type Claims struct {
	UserID string `json:"sub"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

// TokenConfig configures a TokenManager
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// IssuedToken is a signed token and the claims inside it
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// TokenManager signs and validates HS256 access and refresh tokens
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager creates a token manager
func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

// AccessTTL is the lifetime of an access token
func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL is the lifetime of a refresh token
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// IssueAccess signs an access token for a user
func (m *TokenManager) IssueAccess(userID, email, role string) (IssuedToken, error) {
	return m.issue(userID, email, role, KindAccess, m.accessTTL)
}

// IssueRefresh signs a refresh token. Its ID is the jti persisted by the
// auth service.
func (m *TokenManager) IssueRefresh(userID, role string) (IssuedToken, error) {
	return m.issue(userID, "", role, KindRefresh, m.refreshTTL)
}

func (m *TokenManager) issue(userID, email, role, kind string, ttl time.Duration) (IssuedToken, error) {
	now := m.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return IssuedToken{Token: signed, ID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// ValidateAccess validates an access token
func (m *TokenManager) ValidateAccess(tokenString string) (*Claims, error) {
	return m.validate(tokenString, KindAccess)
}

// ValidateRefresh validates a refresh token
func (m *TokenManager) ValidateRefresh(tokenString string) (*Claims, error) {
	return m.validate(tokenString, KindRefresh)
}

func (m *TokenManager) validate(tokenString, kind string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidClaims
	}
	if claims.Kind != kind {
		return nil, ErrWrongTokenKind
	}
	return claims, nil
}
