package handlers

import (
	"net/http"

	"storefront-backend/application/services"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"

	"go.uber.org/zap"
)

// CatalogHandler serves brands, categories and products
type CatalogHandler struct {
	catalog *services.CatalogService
	errs    *errors.ErrorHandler
	logger  *zap.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *services.CatalogService, errs *errors.ErrorHandler, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, errs: errs, logger: logger}
}

// ListBrands handles GET /admin/brands
func (h *CatalogHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	q, err := common.ParseListQuery(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	page, err := h.catalog.ListBrands(r.Context(), q)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, listResponse(page, q))
}

// AllBrands handles GET /brands
func (h *CatalogHandler) AllBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.catalog.AllBrands(r.Context())
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result{Result: brands})
}

// GetBrand handles GET /admin/brands/{brandId}
func (h *CatalogHandler) GetBrand(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "brandId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	brand, err := h.catalog.GetBrand(r.Context(), id)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result{Result: brand})
}

// CreateBrand handles POST /admin/brands
func (h *CatalogHandler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var req services.BrandInput
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if _, err := h.catalog.CreateBrand(r.Context(), req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusCreated, "Brand has been created successfully")
}

// UpdateBrand handles PUT /admin/brands/{brandId}
func (h *CatalogHandler) UpdateBrand(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "brandId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var req services.BrandPatch
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	updated, err := h.catalog.UpdateBrand(r.Context(), id, req)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"updatedBrand": updated})
}

// DeleteBrand handles DELETE /admin/brands/{brandId}
func (h *CatalogHandler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "brandId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if err := h.catalog.DeleteBrand(r.Context(), id); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, "Brand has been deleted successfully")
}

// ListCategories handles GET /admin/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	q, err := common.ParseListQuery(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	page, err := h.catalog.ListCategories(r.Context(), q)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, listResponse(page, q))
}

// AllCategories handles GET /categories
func (h *CatalogHandler) AllCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.AllCategories(r.Context())
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result{Result: categories})
}

// GetCategory handles GET /admin/categories/{categoryId}
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "categoryId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	category, err := h.catalog.GetCategory(r.Context(), id)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result{Result: category})
}

// CreateCategory handles POST /admin/categories
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req services.CategoryInput
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if _, err := h.catalog.CreateCategory(r.Context(), req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusCreated, "Category has been created successfully")
}

// UpdateCategory handles PUT /admin/categories/{categoryId}
func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "categoryId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var req services.CategoryPatch
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	updated, err := h.catalog.UpdateCategory(r.Context(), id, req)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"updatedCategory": updated})
}

// DeleteCategory handles DELETE /admin/categories/{categoryId}
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "categoryId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, "Category has been deleted successfully")
}

// ListProducts handles GET /admin/products and GET /products/search
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q, err := common.ParseListQuery(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	page, err := h.catalog.ListProducts(r.Context(), q)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, listResponse(page, q))
}

// GetProduct handles GET /admin/products/{productId}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result{Result: product})
}

// CreateProduct handles POST /admin/products
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req services.ProductInput
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if _, err := h.catalog.CreateProduct(r.Context(), req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusCreated, "Product has been created successfully")
}

// UpdateProduct handles PUT /admin/products/{productId}
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var req services.ProductPatch
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	updated, err := h.catalog.UpdateProduct(r.Context(), id, req)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"updatedProduct": updated})
}

// DeleteProduct handles DELETE /admin/products/{productId}
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondMessage(w, http.StatusOK, "Product has been deleted successfully")
}
