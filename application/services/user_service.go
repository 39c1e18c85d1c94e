package services

import (
	"context"

	"go.uber.org/zap"

	"storefront-backend/application/dto"
	"storefront-backend/application/ports"
	"storefront-backend/domain/core/entities"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"
	"storefront-backend/pkg/utils"
)

// UserPage is an admin page of users with their order counts
type UserPage struct {
	Users        []dto.User     `json:"users"`
	NoOfOrders   map[string]int `json:"noOfOrders"`
	TotalCount   int            `json:"-"`
	MatchedCount *int           `json:"-"`
}

// UserService is the admin view of accounts
type UserService struct {
	stores ports.Stores
	lists  *Collections
	logger *zap.Logger
	now    utils.Clock
}

// NewUserService creates a new user service
func NewUserService(stores ports.Stores, lists *Collections, logger *zap.Logger, clock utils.Clock) *UserService {
	return &UserService{
		stores: stores,
		lists:  lists,
		logger: logger.Named("user"),
		now:    clock,
	}
}

// List returns a page of users and the number of orders each has placed
func (s *UserService) List(ctx context.Context, q common.ListQuery) (UserPage, error) {
	page, err := s.lists.Users.Window(ctx, q.Window, q.Search)
	if err != nil {
		return UserPage{}, err
	}

	counts := make(map[string]int, len(page.Values))
	for _, u := range page.Values {
		counts[u.ID] = 0
	}
	if len(page.Values) > 0 {
		orders, err := s.lists.Orders.All(ctx)
		if err != nil {
			return UserPage{}, err
		}
		for _, o := range orders {
			if _, ok := counts[o.User.ID]; ok {
				counts[o.User.ID]++
			}
		}
	}

	return UserPage{
		Users:        page.Values,
		NoOfOrders:   counts,
		TotalCount:   page.TotalCount,
		MatchedCount: page.MatchedCount,
	}, nil
}

// SetRole changes the role of a user. Only admin and user are accepted.
func (s *UserService) SetRole(ctx context.Context, id, role string) (dto.User, error) {
	if role != entities.RoleAdmin && role != entities.RoleUser {
		return dto.User{}, errors.NewValidationError("Invalid role provided")
	}
	user, err := s.stores.Users.Get(ctx, id)
	if err != nil {
		return dto.User{}, err
	}
	user.Role = role
	user.Touch(s.now())
	if err := s.stores.Users.Update(ctx, user); err != nil {
		return dto.User{}, err
	}

	out := dto.NewUser(user)
	s.lists.Users.Updated(ctx, out)
	s.logger.Info("user role changed", zap.String("id", id), zap.String("role", role))
	return out, nil
}

// Delete removes a user account
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.stores.Users.Delete(ctx, id); err != nil {
		return err
	}
	s.lists.Users.Deleted(ctx, id)
	s.logger.Info("user deleted", zap.String("id", id))
	return nil
}
