package handlers

import (
	"net/http"

	"storefront-backend/application/dto"
	"storefront-backend/application/services"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"

	"go.uber.org/zap"
)

// OrderHandler serves checkout and order management
type OrderHandler struct {
	orders *services.OrderService
	errs   *errors.ErrorHandler
	logger *zap.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *services.OrderService, errs *errors.ErrorHandler, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, errs: errs, logger: logger}
}

// StatusRequest is the body of PATCH /admin/orders/{orderId}
type StatusRequest struct {
	OrderStatus string `json:"orderStatus"`
}

type placedResponse struct {
	Message string `json:"message"`
	services.PlacedOrder
}

type userOrdersResponse struct {
	Orders     []dto.Order `json:"orders"`
	TotalCount int         `json:"totalCount"`
}

// Place handles POST /orders
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	user, err := caller(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var req services.PlaceOrderInput
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	placed, err := h.orders.Place(r.Context(), user.UserID, req)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, placedResponse{Message: "Order placed successfully", PlacedOrder: placed})
}

// UserOrders handles GET /orders
func (h *OrderHandler) UserOrders(w http.ResponseWriter, r *http.Request) {
	user, err := caller(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	window, err := common.ParseOptionalPage(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	page, err := h.orders.UserOrders(r.Context(), user.UserID, window)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	orders := page.Values
	if orders == nil {
		orders = []dto.Order{}
	}
	common.RespondJSON(w, http.StatusOK, userOrdersResponse{Orders: orders, TotalCount: page.TotalCount})
}

// AdminOrders handles GET /admin/orders
func (h *OrderHandler) AdminOrders(w http.ResponseWriter, r *http.Request) {
	q, err := common.ParseListQuery(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	page, err := h.orders.AdminOrders(r.Context(), q)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, listResponse(page, q))
}

// Get handles GET /orders/{orderId} and GET /admin/orders/{orderId}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := caller(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	id, err := pathID(r, "orderId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	order, err := h.orders.Get(r.Context(), id, user)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result{Result: order})
}

// UpdateStatus handles PATCH /admin/orders/{orderId}
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var req StatusRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	updated, err := h.orders.UpdateStatus(r.Context(), id, req.OrderStatus)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"updatedOrder": updated})
}

// Notifications handles GET /admin/orderNotifications
func (h *OrderHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.orders.Notifications(r.Context())
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"orderNotifications": notifications})
}
