package handlers

import (
	"net/http"

	"storefront-backend/application/dto"
	"storefront-backend/application/services"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"

	"go.uber.org/zap"
)

// ReviewHandler serves product reviews
type ReviewHandler struct {
	reviews *services.ReviewService
	errs    *errors.ErrorHandler
	logger  *zap.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews *services.ReviewService, errs *errors.ErrorHandler, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, errs: errs, logger: logger}
}

type reviewPostedResponse struct {
	Message string     `json:"message"`
	Review  dto.Review `json:"review"`
}

// Add handles POST /reviews
func (h *ReviewHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, err := caller(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var req services.ReviewInput
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	review, err := h.reviews.Add(r.Context(), user.UserID, req)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, reviewPostedResponse{Message: "Your review has been posted successfully", Review: review})
}

// List handles GET /admin/reviews
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := common.ParseListQuery(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	page, err := h.reviews.List(r.Context(), q)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, listResponse(page, q))
}

// Delete handles DELETE /admin/reviews/{reviewId}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "reviewId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if err := h.reviews.Delete(r.Context(), id); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, "Review has been deleted successfully")
}
