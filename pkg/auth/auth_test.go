package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(TokenConfig{
		Secret:     "test-secret",
		Issuer:     "storefront-backend",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	require.NoError(t, err)
	return m
}

func TestTokenManager(t *testing.T) {
	m := newManager(t)

	access, err := m.IssueAccess("u1", "ann@example.com", "admin")
	require.NoError(t, err)
	refresh, err := m.IssueRefresh("u1", "admin")
	require.NoError(t, err)
	assert.NotEqual(t, access.ID, refresh.ID)

	t.Run("access round trip", func(t *testing.T) {
		claims, err := m.ValidateAccess(access.Token)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
		assert.Equal(t, "admin", claims.Role)
		assert.Equal(t, "ann@example.com", claims.Email)
	})

	t.Run("kinds are not interchangeable", func(t *testing.T) {
		_, err := m.ValidateAccess(refresh.Token)
		assert.ErrorIs(t, err, ErrWrongTokenKind)
		_, err = m.ValidateRefresh(access.Token)
		assert.ErrorIs(t, err, ErrWrongTokenKind)
	})

	t.Run("expired", func(t *testing.T) {
		m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		defer func() { m.now = time.Now }()
		_, err := m.ValidateAccess(access.Token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("foreign signature", func(t *testing.T) {
		other, err := NewTokenManager(TokenConfig{Secret: "other", Issuer: "storefront-backend"})
		require.NoError(t, err)
		_, err = other.ValidateAccess(access.Token)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("garbage and empty", func(t *testing.T) {
		_, err := m.ValidateAccess("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
		_, err = m.ValidateAccess("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager(TokenConfig{})
	assert.Error(t, err)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(nil)
	hash, err := h.Hash("s3cret!pass")
	require.NoError(t, err)

	tests := []struct {
		name  string
		plain string
		hash  string
		want  bool
	}{
		{"match", "s3cret!pass", hash, true},
		{"mismatch", "wrong", hash, false},
		{"no stored hash", "s3cret!pass", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := h.Verify(tt.plain, tt.hash)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestUserContext(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.Error(t, err)

	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "u1", Role: "admin"})
	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)
	assert.True(t, user.IsAdmin())
}

func TestTokenBucketLimiter(t *testing.T) {
	ctx := context.Background()
	l := NewTokenBucketLimiter(2, time.Second)
	defer l.Stop()

	base := time.Now()
	l.now = func() time.Time { return base }

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok, "bucket should be empty")

	ok, _ = l.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "keys are independent")

	l.now = func() time.Time { return base.Add(1500 * time.Millisecond) }
	ok, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "one token refilled")
	ok, _ = l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)

	require.NoError(t, l.Reset(ctx, "1.2.3.4"))
	ok, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok)

	l.now = func() time.Time { return base.Add(2 * time.Hour) }
	l.evictIdle()
	assert.Empty(t, l.buckets)
}
