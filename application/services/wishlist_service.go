package services

import (
	"context"

	"go.uber.org/zap"

	"storefront-backend/application/dto"
	"storefront-backend/application/ports"
	"storefront-backend/domain/core/entities"
	"storefront-backend/pkg/errors"
	"storefront-backend/pkg/utils"
)

// WishlistInput names a product to add or remove
type WishlistInput struct {
	ProductID string `json:"productId" validate:"required"`
}

// WishlistService keeps the products a user saved for later
type WishlistService struct {
	stores ports.Stores
	lists  *Collections
	logger *zap.Logger
	now    utils.Clock
}

// NewWishlistService creates a new wishlist service
func NewWishlistService(stores ports.Stores, lists *Collections, logger *zap.Logger, clock utils.Clock) *WishlistService {
	return &WishlistService{
		stores: stores,
		lists:  lists,
		logger: logger.Named("wishlist"),
		now:    clock,
	}
}

func (s *WishlistService) wishlist(ctx context.Context, userID string) (entities.Wishlist, error) {
	w, err := s.stores.Wishlists.Get(ctx, userID)
	if errors.IsNotFound(err) {
		return entities.Wishlist{ID: userID, ProductIDs: []string{}}, nil
	}
	return w, err
}

// Add saves a product. Adding it twice is a no-op.
func (s *WishlistService) Add(ctx context.Context, userID string, in WishlistInput) error {
	if err := utils.ValidateStruct(in); err != nil {
		return err
	}
	if _, err := s.lists.Products.Get(ctx, in.ProductID); err != nil {
		return err
	}
	w, err := s.wishlist(ctx, userID)
	if err != nil {
		return err
	}
	if !w.Add(in.ProductID) {
		return nil
	}
	w.Touch(s.now())
	return s.stores.Wishlists.Put(ctx, w)
}

// Products returns the saved products that still exist
func (s *WishlistService) Products(ctx context.Context, userID string) ([]dto.Product, error) {
	w, err := s.wishlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Product, 0, len(w.ProductIDs))
	for _, id := range w.ProductIDs {
		p, err := s.lists.Products.Get(ctx, id)
		if errors.IsNotFound(err) {
			s.logger.Debug("wishlisted product no longer exists", zap.String("product_id", id))
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Remove drops a saved product
func (s *WishlistService) Remove(ctx context.Context, userID string, in WishlistInput) error {
	if err := utils.ValidateStruct(in); err != nil {
		return err
	}
	w, err := s.wishlist(ctx, userID)
	if err != nil {
		return err
	}
	if !w.Remove(in.ProductID) {
		return nil
	}
	w.Touch(s.now())
	return s.stores.Wishlists.Put(ctx, w)
}
