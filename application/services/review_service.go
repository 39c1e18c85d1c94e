package services

import (
	"context"

	"go.uber.org/zap"

	"storefront-backend/application/dto"
	"storefront-backend/application/listcache"
	"storefront-backend/application/ports"
	"storefront-backend/domain/core/entities"
	"storefront-backend/domain/events"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"
	"storefront-backend/pkg/utils"
)

// ReviewInput posts or replaces the caller's review of a product
type ReviewInput struct {
	ProductID string `json:"productId" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Text      string `json:"text" validate:"required,max=2000"`
}

// ReviewService manages product reviews
type ReviewService struct {
	stores ports.Stores
	lists  *Collections
	proj   *projector
	events ports.EventPublisher
	logger *zap.Logger
	now    utils.Clock
}

// NewReviewService creates a new review service
func NewReviewService(stores ports.Stores, lists *Collections, publisher ports.EventPublisher, logger *zap.Logger, clock utils.Clock) *ReviewService {
	return &ReviewService{
		stores: stores,
		lists:  lists,
		proj:   &projector{stores: stores},
		events: publisher,
		logger: logger.Named("review"),
		now:    clock,
	}
}

// hasPurchased reports whether the user has a delivered order with the product
func (s *ReviewService) hasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	orders, err := s.stores.Orders.FindBy(ctx, "userId", userID)
	if err != nil {
		return false, err
	}
	for _, o := range orders {
		if o.Status == entities.OrderDelivered && o.Contains(productID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *ReviewService) existing(ctx context.Context, userID, productID string) (*entities.Review, error) {
	reviews, err := s.stores.Reviews.FindBy(ctx, "product", productID)
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		if reviews[i].AuthorID == userID {
			return &reviews[i], nil
		}
	}
	return nil, nil
}

// Add posts the user's review of a purchased product. A second review of
// the same product replaces the first.
func (s *ReviewService) Add(ctx context.Context, userID string, in ReviewInput) (dto.Review, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return dto.Review{}, errors.NewValidationError("All fields are required").WithCause(err)
	}
	purchased, err := s.hasPurchased(ctx, userID, in.ProductID)
	if err != nil {
		return dto.Review{}, err
	}
	if !purchased {
		return dto.Review{}, errors.NewForbiddenError("You can't post a review because you have not purchased this product")
	}

	product, err := s.stores.Products.Get(ctx, in.ProductID)
	if err != nil {
		return dto.Review{}, err
	}
	author, err := s.stores.Users.Get(ctx, userID)
	if err != nil {
		return dto.Review{}, err
	}

	current, err := s.existing(ctx, userID, in.ProductID)
	if err != nil {
		return dto.Review{}, err
	}
	created := current == nil
	review := entities.Review{ID: entities.NewID(), AuthorID: userID, ProductID: in.ProductID}
	if !created {
		review = *current
	}
	review.Text = in.Text
	review.Rating = in.Rating
	review.Touch(s.now())
	if err := s.stores.Reviews.Put(ctx, review); err != nil {
		return dto.Review{}, err
	}

	if product.AddReview(review.ID) {
		product.Touch(s.now())
		if err := s.stores.Products.Update(ctx, product); err != nil {
			return dto.Review{}, err
		}
	}
	projected, err := s.proj.product(ctx, product)
	if err != nil {
		return dto.Review{}, err
	}
	s.lists.Products.Updated(ctx, projected)

	out := dto.NewReview(review, author, product)
	if created {
		s.lists.Reviews.Created(ctx, out)
	} else {
		s.lists.Reviews.Updated(ctx, out)
	}

	if s.events != nil {
		event := events.NewReviewPosted(review.ID, product.ID, userID, review.Rating, review.UpdatedAt)
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish event", zap.String("type", event.GetEventType()), zap.Error(err))
		}
	}
	s.logger.Info("review posted",
		zap.String("review_id", review.ID),
		zap.String("product_id", product.ID),
		zap.Bool("created", created),
	)
	return out, nil
}

// List returns a page of reviews, optionally narrowed by product name
func (s *ReviewService) List(ctx context.Context, q common.ListQuery) (listcache.Page[dto.Review], error) {
	return s.lists.Reviews.Window(ctx, q.Window, q.Search)
}

// Delete removes a review and detaches it from its product
func (s *ReviewService) Delete(ctx context.Context, id string) error {
	review, err := s.stores.Reviews.Delete(ctx, id)
	if err != nil {
		return err
	}

	product, err := s.stores.Products.Get(ctx, review.ProductID)
	switch {
	case errors.IsNotFound(err):
		s.logger.Warn("review belonged to a missing product", zap.String("review_id", id))
	case err != nil:
		return err
	default:
		if product.RemoveReview(id) {
			product.Touch(s.now())
			if err := s.stores.Products.Update(ctx, product); err != nil {
				return err
			}
		}
		projected, err := s.proj.product(ctx, product)
		if err != nil {
			return err
		}
		s.lists.Products.Updated(ctx, projected)
	}

	s.lists.Reviews.Deleted(ctx, id)
	s.logger.Info("review deleted", zap.String("review_id", id))
	return nil
}
