package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"storefront-backend/application/dto"
	"storefront-backend/application/ports"
	"storefront-backend/domain/core/entities"
	"storefront-backend/pkg/auth"
	"storefront-backend/pkg/errors"
	"storefront-backend/pkg/utils"
)

// RegisterInput is a sign-up request
type RegisterInput struct {
	Name           string `json:"name" validate:"required,personname"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,strongpassword"`
	RetypePassword string `json:"retypePassword" validate:"required,eqfield=Password"`
}

// LoginInput is a credentials check
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AddressInput updates the provided address fields
type AddressInput struct {
	Street     *string `json:"street"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postalCode"`
	Country    *string `json:"country"`
}

// ProfileInput updates the provided profile fields
type ProfileInput struct {
	Name     *string       `json:"name" validate:"omitempty,personname"`
	Email    *string       `json:"email" validate:"omitempty,email"`
	Phone    *string       `json:"phone" validate:"omitempty,min=5,max=20"`
	Password *string       `json:"password" validate:"omitempty,strongpassword"`
	Avatar   *string       `json:"avatar" validate:"omitempty,url"`
	Address  *AddressInput `json:"address"`
}

// Session is the result of a login or a token refresh
type Session struct {
	User    dto.User
	Access  auth.IssuedToken
	Refresh auth.IssuedToken
}

// AuthService registers users and issues their tokens
type AuthService struct {
	stores ports.Stores
	lists  *Collections
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager
	logger *zap.Logger
	now    utils.Clock
}

// NewAuthService creates a new auth service
func NewAuthService(
	stores ports.Stores,
	lists *Collections,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenManager,
	logger *zap.Logger,
	clock utils.Clock,
) *AuthService {
	return &AuthService{
		stores: stores,
		lists:  lists,
		hasher: hasher,
		tokens: tokens,
		logger: logger.Named("auth"),
		now:    clock,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*entities.User, error) {
	users, err := s.stores.Users.FindBy(ctx, "email", email)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// Register creates a custom account with the user role
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (dto.User, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return dto.User{}, errors.NewValidationError("Please fill the fields data correctly").WithCause(err)
	}
	email := normalizeEmail(in.Email)
	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return dto.User{}, err
	}
	if existing != nil {
		return dto.User{}, errors.NewConflictError("User already exists")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return dto.User{}, errors.NewInternalError("failed to hash password").WithCause(err)
	}
	user := entities.User{
		ID:           entities.NewID(),
		Method:       entities.MethodCustom,
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         entities.RoleUser,
	}
	user.Touch(s.now())
	if err := s.stores.Users.Create(ctx, user); err != nil {
		return dto.User{}, err
	}

	out := dto.NewUser(user)
	s.lists.Users.Created(ctx, out)
	s.logger.Info("user registered", zap.String("id", user.ID))
	return out, nil
}

// Login verifies credentials and starts a session
func (s *AuthService) Login(ctx context.Context, in LoginInput) (Session, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return Session{}, errors.NewValidationError("All fields are required")
	}
	user, err := s.findByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		return Session{}, err
	}
	if user == nil {
		return Session{}, errors.NewUnauthorizedError("Invalid credentials")
	}
	ok, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		s.logger.Warn("stored password hash is unreadable", zap.String("id", user.ID), zap.Error(err))
	}
	if !ok {
		return Session{}, errors.NewUnauthorizedError("Invalid credentials")
	}
	return s.startSession(ctx, *user)
}

func (s *AuthService) startSession(ctx context.Context, user entities.User) (Session, error) {
	access, err := s.tokens.IssueAccess(user.ID, user.Email, user.Role)
	if err != nil {
		return Session{}, errors.NewInternalError("failed to issue token").WithCause(err)
	}
	refresh, err := s.tokens.IssueRefresh(user.ID, user.Role)
	if err != nil {
		return Session{}, errors.NewInternalError("failed to issue token").WithCause(err)
	}

	stored := entities.RefreshToken{ID: refresh.ID, UserID: user.ID, ExpiresAt: refresh.ExpiresAt}
	stored.Touch(s.now())
	if err := s.stores.RefreshTokens.Create(ctx, stored); err != nil {
		return Session{}, err
	}
	return Session{User: dto.NewUser(user), Access: access, Refresh: refresh}, nil
}

// Refresh rotates a refresh token. The presented token must be persisted;
// it is deleted and replaced by a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if refreshToken == "" {
		return Session{}, errors.NewUnauthorizedError("Please login first")
	}
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return Session{}, errors.NewUnauthorizedError("Invalid token").WithCause(err)
	}

	stored, err := s.stores.RefreshTokens.Get(ctx, claims.ID)
	if errors.IsNotFound(err) || (err == nil && stored.UserID != claims.UserID) {
		return Session{}, errors.NewUnauthorizedError("Invalid token")
	}
	if err != nil {
		return Session{}, err
	}

	user, err := s.stores.Users.Get(ctx, claims.UserID)
	if err != nil {
		if errors.IsNotFound(err) {
			return Session{}, errors.NewNotFoundError("User")
		}
		return Session{}, err
	}

	if _, err := s.stores.RefreshTokens.Delete(ctx, stored.ID); err != nil && !errors.IsNotFound(err) {
		return Session{}, err
	}
	return s.startSession(ctx, user)
}

// Logout forgets a refresh token. Unknown or invalid tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		s.logger.Debug("logout with unusable refresh token", zap.Error(err))
		return nil
	}
	if _, err := s.stores.RefreshTokens.Delete(ctx, claims.ID); err != nil && !errors.IsNotFound(err) {
		return err
	}
	return nil
}

// CurrentUser reads the signed-in user
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (dto.User, error) {
	return s.lists.Users.Get(ctx, userID)
}

// UpdateProfile applies a patch to the signed-in user
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (dto.User, error) {
	if in == (ProfileInput{}) {
		return dto.User{}, noChanges()
	}
	if err := utils.ValidateStruct(in); err != nil {
		return dto.User{}, err
	}
	user, err := s.stores.Users.Get(ctx, userID)
	if err != nil {
		return dto.User{}, err
	}

	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email != user.Email {
			existing, err := s.findByEmail(ctx, email)
			if err != nil {
				return dto.User{}, err
			}
			if existing != nil {
				return dto.User{}, errors.NewConflictError("User already exists")
			}
			user.Email = email
		}
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return dto.User{}, errors.NewInternalError("failed to hash password").WithCause(err)
		}
		user.PasswordHash = hash
	}
	if in.Address != nil {
		user.Address = mergeAddress(user.Address, *in.Address)
	}
	user.Touch(s.now())
	if err := s.stores.Users.Update(ctx, user); err != nil {
		return dto.User{}, err
	}

	out := dto.NewUser(user)
	s.lists.Users.Updated(ctx, out)
	return out, nil
}

func mergeAddress(current *entities.Address, in AddressInput) *entities.Address {
	addr := entities.Address{}
	if current != nil {
		addr = *current
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&addr.Street, in.Street)
	set(&addr.City, in.City)
	set(&addr.State, in.State)
	set(&addr.PostalCode, in.PostalCode)
	set(&addr.Country, in.Country)
	if addr.IsZero() {
		return nil
	}
	return &addr
}
