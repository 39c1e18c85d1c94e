package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storefront-backend/application/dto"
	"storefront-backend/application/listcache"
	"storefront-backend/application/ports"
	"storefront-backend/domain/core/entities"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"
	"storefront-backend/pkg/utils"
)

// CouponInput creates a coupon
type CouponInput struct {
	Name               string    `json:"name" validate:"required"`
	BannerURL          string    `json:"bannerUrl" validate:"required,url"`
	CouponCode         string    `json:"couponCode" validate:"required"`
	Validity           time.Time `json:"validity" validate:"required"`
	DiscountPercentage float64   `json:"discountPercentage" validate:"required,gt=0,lte=100"`
	MinimumAmount      float64   `json:"minimumAmount" validate:"gte=0"`
}

// CouponPatch updates the provided coupon fields
type CouponPatch struct {
	Name               *string    `json:"name" validate:"omitempty,min=1"`
	BannerURL          *string    `json:"bannerUrl" validate:"omitempty,url"`
	CouponCode         *string    `json:"couponCode" validate:"omitempty,min=1"`
	Validity           *time.Time `json:"validity"`
	DiscountPercentage *float64   `json:"discountPercentage" validate:"omitempty,gt=0,lte=100"`
	MinimumAmount      *float64   `json:"minimumAmount" validate:"omitempty,gte=0"`
}

// CouponService manages vouchers
type CouponService struct {
	stores ports.Stores
	lists  *Collections
	logger *zap.Logger
	now    utils.Clock
}

// NewCouponService creates a new coupon service
func NewCouponService(stores ports.Stores, lists *Collections, logger *zap.Logger, clock utils.Clock) *CouponService {
	return &CouponService{
		stores: stores,
		lists:  lists,
		logger: logger.Named("coupon"),
		now:    clock,
	}
}

// List returns a page of coupons, optionally narrowed by name
func (s *CouponService) List(ctx context.Context, q common.ListQuery) (listcache.Page[dto.Coupon], error) {
	return s.lists.Coupons.Window(ctx, q.Window, q.Search)
}

// Get reads one coupon
func (s *CouponService) Get(ctx context.Context, id string) (dto.Coupon, error) {
	return s.lists.Coupons.Get(ctx, id)
}

// checkUnique rejects a name or code already used by another coupon
func (s *CouponService) checkUnique(ctx context.Context, name, code, exceptID string) error {
	coupons, err := s.stores.Coupons.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range coupons {
		if c.ID == exceptID {
			continue
		}
		if name != "" && entities.NormalizeName(c.Name) == entities.NormalizeName(name) {
			return errors.NewValidationError("Coupon already exists")
		}
		if code != "" && c.CouponCode == code {
			return errors.NewValidationError("Coupon code already exists")
		}
	}
	return nil
}

// Create stores a new coupon
func (s *CouponService) Create(ctx context.Context, in CouponInput) (dto.Coupon, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return dto.Coupon{}, err
	}
	if err := s.checkUnique(ctx, in.Name, in.CouponCode, ""); err != nil {
		return dto.Coupon{}, err
	}

	coupon := entities.Coupon{
		ID:                 entities.NewID(),
		Name:               in.Name,
		BannerURL:          in.BannerURL,
		CouponCode:         in.CouponCode,
		Validity:           in.Validity,
		DiscountPercentage: in.DiscountPercentage,
		MinimumAmount:      in.MinimumAmount,
	}
	coupon.Touch(s.now())
	if err := s.stores.Coupons.Create(ctx, coupon); err != nil {
		return dto.Coupon{}, err
	}

	out := dto.NewCoupon(coupon)
	s.lists.Coupons.Created(ctx, out)
	s.logger.Info("coupon created", zap.String("id", coupon.ID), zap.String("code", coupon.CouponCode))
	return out, nil
}

// Update applies a patch to a coupon
func (s *CouponService) Update(ctx context.Context, id string, in CouponPatch) (dto.Coupon, error) {
	if in == (CouponPatch{}) {
		return dto.Coupon{}, noChanges()
	}
	if err := utils.ValidateStruct(in); err != nil {
		return dto.Coupon{}, err
	}
	coupon, err := s.stores.Coupons.Get(ctx, id)
	if err != nil {
		return dto.Coupon{}, err
	}

	var name, code string
	if in.Name != nil && *in.Name != coupon.Name {
		name = *in.Name
	}
	if in.CouponCode != nil && *in.CouponCode != coupon.CouponCode {
		code = *in.CouponCode
	}
	if name != "" || code != "" {
		if err := s.checkUnique(ctx, name, code, id); err != nil {
			return dto.Coupon{}, err
		}
	}

	if in.Name != nil {
		coupon.Name = *in.Name
	}
	if in.BannerURL != nil {
		coupon.BannerURL = *in.BannerURL
	}
	if in.CouponCode != nil {
		coupon.CouponCode = *in.CouponCode
	}
	if in.Validity != nil {
		coupon.Validity = *in.Validity
	}
	if in.DiscountPercentage != nil {
		coupon.DiscountPercentage = *in.DiscountPercentage
	}
	if in.MinimumAmount != nil {
		coupon.MinimumAmount = *in.MinimumAmount
	}
	coupon.Touch(s.now())
	if err := s.stores.Coupons.Update(ctx, coupon); err != nil {
		return dto.Coupon{}, err
	}

	out := dto.NewCoupon(coupon)
	s.lists.Coupons.Updated(ctx, out)
	return out, nil
}

// Delete removes a coupon
func (s *CouponService) Delete(ctx context.Context, id string) error {
	if _, err := s.stores.Coupons.Delete(ctx, id); err != nil {
		return err
	}
	s.lists.Coupons.Deleted(ctx, id)
	s.logger.Info("coupon deleted", zap.String("id", id))
	return nil
}
