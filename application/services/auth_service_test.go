package services

import (
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/domain/core/entities"
	"storefront-backend/pkg/auth"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"
)

func newAuthService(t *testing.T, env *testEnv) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenManager(auth.TokenConfig{Secret: "test-secret", Issuer: "storefront", AccessTTL: time.Minute})
	require.NoError(t, err)
	hasher := auth.NewPasswordHasher(&argon2id.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	return NewAuthService(env.stores, env.lists, hasher, tokens, env.logger, testClock)
}

func TestAuthService_Register(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(t, env)

	valid := RegisterInput{Name: "Ada Lovelace", Email: "Ada@Example.com", Password: "s3cret!pw", RetypePassword: "s3cret!pw"}

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"short name", func(in *RegisterInput) { in.Name = "Al" }},
		{"bad email", func(in *RegisterInput) { in.Email = "ada" }},
		{"weak password", func(in *RegisterInput) { in.Password, in.RetypePassword = "password", "password" }},
		{"mismatched retype", func(in *RegisterInput) { in.RetypePassword = "other!pw1" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := svc.Register(env.ctx, in)
			assert.True(t, errors.IsValidation(err))
		})
	}

	// Hydrate users so registration appends to the list
	_, err := env.lists.Users.All(env.ctx)
	require.NoError(t, err)

	user, err := svc.Register(env.ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, entities.RoleUser, user.Role)
	assert.Equal(t, entities.MethodCustom, user.Method)

	stored, err := env.stores.Users.Get(env.ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, valid.Password, stored.PasswordHash)

	page, err := env.lists.Users.Window(env.ctx, common.ComputeWindow(1), "")
	require.NoError(t, err)
	require.Len(t, page.Values, 1)
	assert.Equal(t, user.ID, page.Values[0].ID)

	_, err = svc.Register(env.ctx, valid)
	assert.True(t, errors.IsConflict(err))
}

func TestAuthService_Session(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(t, env)
	_, err := svc.Register(env.ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "s3cret!pw", RetypePassword: "s3cret!pw"})
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(env.ctx, LoginInput{Email: "ada@example.com", Password: "nope!pw12"})
		assert.True(t, errors.IsType(err, errors.ErrorTypeUnauthorized))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(env.ctx, LoginInput{Email: "bob@example.com", Password: "s3cret!pw"})
		assert.True(t, errors.IsType(err, errors.ErrorTypeUnauthorized))
	})

	session, err := svc.Login(env.ctx, LoginInput{Email: "ADA@example.com", Password: "s3cret!pw"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", session.User.Name)
	assert.NotEmpty(t, session.Access.Token)

	_, err = env.stores.RefreshTokens.Get(env.ctx, session.Refresh.ID)
	require.NoError(t, err)

	t.Run("refresh rotates the token", func(t *testing.T) {
		rotated, err := svc.Refresh(env.ctx, session.Refresh.Token)
		require.NoError(t, err)
		assert.NotEqual(t, session.Refresh.ID, rotated.Refresh.ID)

		_, err = svc.Refresh(env.ctx, session.Refresh.Token)
		assert.True(t, errors.IsType(err, errors.ErrorTypeUnauthorized), "old token is spent")

		require.NoError(t, svc.Logout(env.ctx, rotated.Refresh.Token))
		_, err = env.stores.RefreshTokens.Get(env.ctx, rotated.Refresh.ID)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := svc.Refresh(env.ctx, session.Access.Token)
		assert.True(t, errors.IsType(err, errors.ErrorTypeUnauthorized))
	})

	t.Run("logout ignores garbage", func(t *testing.T) {
		assert.NoError(t, svc.Logout(env.ctx, "not-a-token"))
		assert.NoError(t, svc.Logout(env.ctx, ""))
	})
}

func TestAuthService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(t, env)
	ada, err := svc.Register(env.ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "s3cret!pw", RetypePassword: "s3cret!pw"})
	require.NoError(t, err)
	env.user(t, "u2", "Bob", entities.RoleUser)

	_, err = env.lists.Users.All(env.ctx)
	require.NoError(t, err)

	_, err = svc.UpdateProfile(env.ctx, ada.ID, ProfileInput{})
	assert.True(t, errors.IsValidation(err))

	_, err = svc.UpdateProfile(env.ctx, ada.ID, ProfileInput{Email: ptr("u2@example.com")})
	assert.True(t, errors.IsConflict(err))

	updated, err := svc.UpdateProfile(env.ctx, ada.ID, ProfileInput{
		Phone:   ptr("+44 20 7946 0000"),
		Address: &AddressInput{City: ptr("London"), Country: ptr("UK")},
	})
	require.NoError(t, err)
	assert.Equal(t, "London", updated.Address.City)

	updated, err = svc.UpdateProfile(env.ctx, ada.ID, ProfileInput{Address: &AddressInput{Street: ptr("1 Main St")}})
	require.NoError(t, err)
	assert.Equal(t, "London", updated.Address.City, "address fields merge")
	assert.Equal(t, "1 Main St", updated.Address.Street)

	current, err := svc.CurrentUser(env.ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "+44 20 7946 0000", current.Phone)

	all, err := env.lists.Users.All(env.ctx)
	require.NoError(t, err)
	for _, u := range all {
		if u.ID == ada.ID {
			assert.Equal(t, "1 Main St", u.Address.Street)
		}
	}
}
