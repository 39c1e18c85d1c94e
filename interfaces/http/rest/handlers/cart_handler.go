package handlers

import (
	"net/http"

	"storefront-backend/application/dto"
	"storefront-backend/application/services"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"

	"go.uber.org/zap"
)

// CartHandler serves the caller's cart, checkout data and wishlist
type CartHandler struct {
	cart     *services.CartService
	wishlist *services.WishlistService
	errs     *errors.ErrorHandler
	logger   *zap.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cart *services.CartService, wishlist *services.WishlistService, errs *errors.ErrorHandler, logger *zap.Logger) *CartHandler {
	return &CartHandler{cart: cart, wishlist: wishlist, errs: errs, logger: logger}
}

type cartUpdatedResponse struct {
	Message string `json:"message"`
	services.CartUpdateResult
}

type voucherResponse struct {
	Voucher services.Voucher `json:"voucher"`
	Message string           `json:"message"`
}

// GetCart handles GET /carts/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	user, err := caller(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	cart, err := h.cart.Get(r.Context(), user.UserID)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"cart": cart})
}

// UpdateCart handles PUT /carts/cart
func (h *CartHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	user, err := caller(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var req services.CartUpdateInput
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	res, err := h.cart.Update(r.Context(), user.UserID, req)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, cartUpdatedResponse{Message: "Cart has been updated successfully", CartUpdateResult: res})
}

// ApplyCoupon handles PATCH /carts/cart
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	user, err := caller(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var req services.ApplyCouponInput
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	applied, err := h.cart.ApplyCoupon(r.Context(), user.UserID, req)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	message := "Voucher has been applied successfully"
	if applied.AlreadyApplied {
		message = "Voucher has been already applied"
	}
	common.RespondJSON(w, http.StatusOK, voucherResponse{Voucher: applied.Voucher, Message: message})
}

// Checkout handles GET /checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	user, err := caller(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	data, err := h.cart.Checkout(r.Context(), user.UserID)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, data)
}

// AddToWishlist handles POST /wishlists
func (h *CartHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	user, err := caller(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var req services.WishlistInput
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if err := h.wishlist.Add(r.Context(), user.UserID, req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusCreated, "Product has been added to your wishlist")
}

// Wishlist handles GET /wishlists/wishlist
func (h *CartHandler) Wishlist(w http.ResponseWriter, r *http.Request) {
	user, err := caller(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	products, err := h.wishlist.Products(r.Context(), user.UserID)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if products == nil {
		products = []dto.Product{}
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"wishlistProducts": products})
}

// RemoveFromWishlist handles PATCH /wishlists/wishlist
func (h *CartHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	user, err := caller(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var req services.WishlistInput
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if err := h.wishlist.Remove(r.Context(), user.UserID, req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, "Product has been removed from your wishlist")
}
