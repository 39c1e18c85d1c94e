package handlers

import (
	"net/http"

	"storefront-backend/application/services"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"

	"go.uber.org/zap"
)

// AdminHandler serves coupons, user management and the dashboard
type AdminHandler struct {
	coupons   *services.CouponService
	users     *services.UserService
	dashboard *services.DashboardService
	errs      *errors.ErrorHandler
	logger    *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	coupons *services.CouponService,
	users *services.UserService,
	dashboard *services.DashboardService,
	errs *errors.ErrorHandler,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{coupons: coupons, users: users, dashboard: dashboard, errs: errs, logger: logger}
}

// RoleRequest is the body of PATCH /admin/users/{userId}
type RoleRequest struct {
	Role string `json:"role"`
}

// ListCoupons handles GET /admin/coupons
func (h *AdminHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	q, err := common.ParseListQuery(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	page, err := h.coupons.List(r.Context(), q)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, listResponse(page, q))
}

// GetCoupon handles GET /admin/coupons/{couponId}
func (h *AdminHandler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "couponId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	coupon, err := h.coupons.Get(r.Context(), id)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result{Result: coupon})
}

// CreateCoupon handles POST /admin/coupons
func (h *AdminHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req services.CouponInput
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if _, err := h.coupons.Create(r.Context(), req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusCreated, "Coupon has been created successfully")
}

// UpdateCoupon handles PUT /admin/coupons/{couponId}
func (h *AdminHandler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "couponId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var req services.CouponPatch
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	updated, err := h.coupons.Update(r.Context(), id, req)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"updatedCoupon": updated})
}

// DeleteCoupon handles DELETE /admin/coupons/{couponId}
func (h *AdminHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "couponId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if err := h.coupons.Delete(r.Context(), id); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, "Coupon has been deleted successfully")
}

// ListUsers handles GET /admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q, err := common.ParseListQuery(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	page, err := h.users.List(r.Context(), q)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, common.ListResponse{
		Result:     page,
		TotalCount: countFor(page.TotalCount, page.MatchedCount, q),
	})
}

// SetUserRole handles PATCH /admin/users/{userId}
func (h *AdminHandler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var req RoleRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	updated, err := h.users.SetRole(r.Context(), id, req.Role)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"updatedUser": updated})
}

// DeleteUser handles DELETE /admin/users/{userId}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, "User has been deleted successfully")
}

// Dashboard handles GET /admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data, err := h.dashboard.Get(r.Context())
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result{Result: data})
}
