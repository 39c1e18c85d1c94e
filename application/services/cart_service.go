package services

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"storefront-backend/application/dto"
	"storefront-backend/application/ports"
	"storefront-backend/domain/core/entities"
	"storefront-backend/pkg/errors"
	"storefront-backend/pkg/utils"
)

// CartProduct is the product summary shown in a cart
type CartProduct struct {
	ID           string                  `json:"_id"`
	Name         string                  `json:"name"`
	Images       []entities.ProductImage `json:"images"`
	Stock        int                     `json:"stock"`
	RegularPrice float64                 `json:"regularPrice"`
	SalePrice    float64                 `json:"salePrice"`
	IsOnSale     bool                    `json:"isOnSale"`
}

// CartLine is one populated cart entry
type CartLine struct {
	Product  CartProduct `json:"product"`
	Quantity int         `json:"quantity"`
}

// CartView is the populated cart of a user
type CartView struct {
	Products                 []CartLine `json:"products"`
	CouponCode               string     `json:"couponCode"`
	CouponDiscountPercentage float64    `json:"couponDiscountPercentage"`
	CouponMinimumAmount      float64    `json:"couponMinimumAmount"`
}

// CartUpdateInput replaces the cart contents
type CartUpdateInput struct {
	UpdatedProducts  []entities.CartItem `json:"updatedProducts" validate:"dive"`
	OrderTotalAmount float64             `json:"orderTotalAmount" validate:"gte=0"`
}

// CartUpdateResult tells the client whether the voucher had to be dropped
type CartUpdateResult struct {
	IsVoucherRemoved        bool     `json:"isVoucherRemoved"`
	MinimumAmountForVoucher *float64 `json:"minimumAmountForVoucher"`
}

// ApplyCouponInput redeems a voucher against the cart
type ApplyCouponInput struct {
	VoucherCode    string  `json:"voucherCode" validate:"required"`
	PurchaseAmount float64 `json:"purchaseAmount" validate:"required,gt=0"`
}

// Voucher is the applied discount
type Voucher struct {
	Code       string  `json:"code"`
	Percentage float64 `json:"percentage"`
}

// AppliedCoupon is the result of redeeming a voucher
type AppliedCoupon struct {
	Voucher        Voucher `json:"voucher"`
	AlreadyApplied bool    `json:"-"`
}

// Checkout is the data needed to render the checkout page
type Checkout struct {
	Cart CartView `json:"cart"`
	User dto.User `json:"user"`
}

// CartService manages shopping carts
type CartService struct {
	stores ports.Stores
	lists  *Collections
	logger *zap.Logger
	now    utils.Clock
}

// NewCartService creates a new cart service
func NewCartService(stores ports.Stores, lists *Collections, logger *zap.Logger, clock utils.Clock) *CartService {
	return &CartService{
		stores: stores,
		lists:  lists,
		logger: logger.Named("cart"),
		now:    clock,
	}
}

// cart loads the user's cart or an empty one
func (s *CartService) cart(ctx context.Context, userID string) (entities.Cart, bool, error) {
	cart, err := s.stores.Carts.Get(ctx, userID)
	if errors.IsNotFound(err) {
		return entities.Cart{ID: userID, Products: []entities.CartItem{}}, false, nil
	}
	if err != nil {
		return entities.Cart{}, false, err
	}
	return cart, true, nil
}

// Get returns the user's populated cart. Products that no longer exist are
// left out.
func (s *CartService) Get(ctx context.Context, userID string) (CartView, error) {
	cart, _, err := s.cart(ctx, userID)
	if err != nil {
		return CartView{}, err
	}

	view := CartView{
		Products:                 make([]CartLine, 0, len(cart.Products)),
		CouponCode:               cart.CouponCode,
		CouponDiscountPercentage: cart.CouponDiscountPercentage,
		CouponMinimumAmount:      cart.CouponMinimumAmount,
	}
	for _, item := range cart.Products {
		p, err := s.lists.Products.Get(ctx, item.ProductID)
		if errors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return CartView{}, err
		}
		view.Products = append(view.Products, CartLine{
			Product: CartProduct{
				ID:           p.ID,
				Name:         p.Name,
				Images:       p.Images,
				Stock:        p.Stock,
				RegularPrice: p.RegularPrice,
				SalePrice:    p.SalePrice,
				IsOnSale:     p.IsOnSale,
			},
			Quantity: item.Quantity,
		})
	}
	return view, nil
}

// Update replaces the cart contents. An empty product list deletes the
// cart. A total below the applied voucher's minimum drops the voucher.
func (s *CartService) Update(ctx context.Context, userID string, in CartUpdateInput) (CartUpdateResult, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return CartUpdateResult{}, err
	}
	if len(in.UpdatedProducts) == 0 {
		if _, err := s.stores.Carts.Delete(ctx, userID); err != nil && !errors.IsNotFound(err) {
			return CartUpdateResult{}, err
		}
		return CartUpdateResult{}, nil
	}

	cart, _, err := s.cart(ctx, userID)
	if err != nil {
		return CartUpdateResult{}, err
	}
	var result CartUpdateResult
	if cart.CouponCode != "" && in.OrderTotalAmount < cart.CouponMinimumAmount {
		minimum := cart.CouponMinimumAmount
		result = CartUpdateResult{IsVoucherRemoved: true, MinimumAmountForVoucher: &minimum}
		cart.ClearCoupon()
	}
	cart.Products = in.UpdatedProducts
	cart.Touch(s.now())
	if err := s.stores.Carts.Put(ctx, cart); err != nil {
		return CartUpdateResult{}, err
	}
	return result, nil
}

// Error codes carried by voucher rejections
const (
	CodeVoucherInvalid = "VOUCHER_INVALID"
	CodeVoucherMinimum = "VOUCHER_MINIMUM_NOT_MET"
	CodeVoucherExpired = "VOUCHER_EXPIRED"
)

// ApplyCoupon redeems a voucher against the user's cart
func (s *CartService) ApplyCoupon(ctx context.Context, userID string, in ApplyCouponInput) (AppliedCoupon, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return AppliedCoupon{}, errors.NewValidationError("Voucher code or Purchase amount is missing")
	}
	coupons, err := s.stores.Coupons.FindBy(ctx, "couponCode", in.VoucherCode)
	if err != nil {
		return AppliedCoupon{}, err
	}
	if len(coupons) == 0 {
		return AppliedCoupon{}, errors.NewStatusError(http.StatusNotFound, "Voucher code is invalid").
			WithCode(CodeVoucherInvalid)
	}
	coupon := coupons[0]
	applied := AppliedCoupon{Voucher: Voucher{Code: coupon.CouponCode, Percentage: coupon.DiscountPercentage}}

	cart, _, err := s.cart(ctx, userID)
	if err != nil {
		return AppliedCoupon{}, err
	}
	if cart.CouponCode == coupon.CouponCode {
		applied.AlreadyApplied = true
		return applied, nil
	}
	if in.PurchaseAmount < coupon.MinimumAmount {
		return AppliedCoupon{}, errors.NewStatusError(http.StatusNotAcceptable,
			fmt.Sprintf("Please make an order of at least $%g to avail this Voucher", coupon.MinimumAmount)).
			WithCode(CodeVoucherMinimum).
			WithDetails(map[string]interface{}{"minimumAmount": coupon.MinimumAmount})
	}
	if coupon.Expired(s.now()) {
		return AppliedCoupon{}, errors.NewStatusError(http.StatusGone, "Voucher code has been expired!").
			WithCode(CodeVoucherExpired)
	}

	cart.CouponCode = coupon.CouponCode
	cart.CouponDiscountPercentage = coupon.DiscountPercentage
	cart.CouponMinimumAmount = coupon.MinimumAmount
	cart.Touch(s.now())
	if err := s.stores.Carts.Put(ctx, cart); err != nil {
		return AppliedCoupon{}, err
	}
	s.logger.Info("voucher applied", zap.String("user_id", userID), zap.String("code", coupon.CouponCode))
	return applied, nil
}

// Checkout returns the cart with the buyer's details
func (s *CartService) Checkout(ctx context.Context, userID string) (Checkout, error) {
	view, err := s.Get(ctx, userID)
	if err != nil {
		return Checkout{}, err
	}
	user, err := s.lists.Users.Get(ctx, userID)
	if err != nil {
		return Checkout{}, err
	}
	return Checkout{Cart: view, User: user}, nil
}
