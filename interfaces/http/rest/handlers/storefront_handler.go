package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"storefront-backend/application/services"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"

	"go.uber.org/zap"
)

// StorefrontHandler serves the public product pages
type StorefrontHandler struct {
	storefront *services.StorefrontService
	errs       *errors.ErrorHandler
	logger     *zap.Logger
}

// NewStorefrontHandler creates a new storefront handler
func NewStorefrontHandler(storefront *services.StorefrontService, errs *errors.ErrorHandler, logger *zap.Logger) *StorefrontHandler {
	return &StorefrontHandler{storefront: storefront, errs: errs, logger: logger}
}

// Home handles GET /products/home
func (h *StorefrontHandler) Home(w http.ResponseWriter, r *http.Request) {
	home, err := h.storefront.Home(r.Context())
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, home)
}

// Filtered handles GET /products/filtered
func (h *StorefrontHandler) Filtered(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	res, err := h.storefront.Filter(r.Context(), filter)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, res)
}

// Product handles GET /products/{productId}
func (h *StorefrontHandler) Product(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	detail, err := h.storefront.Product(r.Context(), id)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, detail)
}

// parseFilter reads the filter query. category, brand and rating may repeat.
func parseFilter(r *http.Request) (services.ProductFilter, error) {
	query := r.URL.Query()
	window, err := common.ParseOptionalPage(r)
	if err != nil {
		return services.ProductFilter{}, err
	}

	filter := services.ProductFilter{
		Categories:  query["category"],
		Brands:      query["brand"],
		Ratings:     query["rating"],
		Price:       query.Get("price"),
		ProductName: query.Get("productName"),
		Sort:        query.Get("sort"),
		Window:      window,
	}
	flags := []struct {
		name string
		dst  *bool
	}{
		{"inStock", &filter.InStock},
		{"isFeatured", &filter.IsFeatured},
		{"onSale", &filter.OnSale},
		{"topRated", &filter.TopRated},
		{"isBrand", &filter.IsBrand},
	}
	for _, f := range flags {
		v, err := queryBool(query, f.name)
		if err != nil {
			return services.ProductFilter{}, err
		}
		*f.dst = v
	}

	switch filter.Sort {
	case "", services.SortNewest, services.SortLowToHigh, services.SortHighToLow:
	default:
		return services.ProductFilter{}, errors.NewValidationError("sort must be one of date, lth, htl")
	}
	return filter, nil
}

func queryBool(query url.Values, name string) (bool, error) {
	raw := query.Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.NewValidationError(name + " must be true or false")
	}
	return v, nil
}
