package services

import (
	"context"

	"go.uber.org/zap"

	"storefront-backend/application/dto"
	"storefront-backend/application/listcache"
	"storefront-backend/application/ports"
	"storefront-backend/domain/core/entities"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"
	"storefront-backend/pkg/utils"
)

// BrandInput creates a brand
type BrandInput struct {
	Name       string `json:"name" validate:"required"`
	LogoURL    string `json:"logoUrl" validate:"required,url"`
	IsFeatured bool   `json:"isFeatured"`
}

// BrandPatch updates the provided brand fields
type BrandPatch struct {
	Name       *string `json:"name" validate:"omitempty,min=1"`
	LogoURL    *string `json:"logoUrl" validate:"omitempty,url"`
	IsFeatured *bool   `json:"isFeatured"`
}

// CategoryInput creates a category
type CategoryInput struct {
	Name        string `json:"name" validate:"required"`
	LogoURL     string `json:"logoUrl" validate:"required,url"`
	IsPublished bool   `json:"isPublished"`
}

// CategoryPatch updates the provided category fields
type CategoryPatch struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	LogoURL     *string `json:"logoUrl" validate:"omitempty,url"`
	IsPublished *bool   `json:"isPublished"`
}

// ProductInput creates a product. Every field is required.
type ProductInput struct {
	Name         string                  `json:"name" validate:"required"`
	Category     string                  `json:"category" validate:"required"`
	Brand        string                  `json:"brand" validate:"required"`
	Desc         string                  `json:"desc" validate:"required"`
	Images       []entities.ProductImage `json:"images" validate:"required,min=1,dive"`
	Stock        *int                    `json:"stock" validate:"required,gte=0"`
	RegularPrice *float64                `json:"regularPrice" validate:"required,gt=0"`
	SalePrice    *float64                `json:"salePrice" validate:"required,gt=0"`
	IsFeatured   bool                    `json:"isFeatured"`
	IsOnSale     bool                    `json:"isOnSale"`
}

// ProductPatch updates the provided product fields
type ProductPatch struct {
	Name         *string                 `json:"name" validate:"omitempty,min=1"`
	Category     *string                 `json:"category" validate:"omitempty,min=1"`
	Brand        *string                 `json:"brand" validate:"omitempty,min=1"`
	Desc         *string                 `json:"desc"`
	Images       []entities.ProductImage `json:"images" validate:"omitempty,dive"`
	Stock        *int                    `json:"stock" validate:"omitempty,gte=0"`
	RegularPrice *float64                `json:"regularPrice" validate:"omitempty,gt=0"`
	SalePrice    *float64                `json:"salePrice" validate:"omitempty,gt=0"`
	IsFeatured   *bool                   `json:"isFeatured"`
	IsOnSale     *bool                   `json:"isOnSale"`
}

// CatalogService manages brands, categories and products
type CatalogService struct {
	stores ports.Stores
	lists  *Collections
	proj   *projector
	logger *zap.Logger
	now    utils.Clock
}

// NewCatalogService creates a new catalog service
func NewCatalogService(stores ports.Stores, lists *Collections, logger *zap.Logger, clock utils.Clock) *CatalogService {
	return &CatalogService{
		stores: stores,
		lists:  lists,
		proj:   &projector{stores: stores},
		logger: logger.Named("catalog"),
		now:    clock,
	}
}

// nameTaken reports whether another document already uses name
func nameTaken[E entities.Document](ctx context.Context, store ports.DocumentStore[E], name, exceptID string, nameOf func(E) string) (bool, error) {
	docs, err := store.List(ctx)
	if err != nil {
		return false, err
	}
	want := entities.NormalizeName(name)
	for _, d := range docs {
		if d.GetID() != exceptID && entities.NormalizeName(nameOf(d)) == want {
			return true, nil
		}
	}
	return false, nil
}

func noChanges() error {
	return errors.NewValidationError("Please provide any data to update")
}

// ListBrands returns a page of brands, optionally narrowed by name
func (s *CatalogService) ListBrands(ctx context.Context, q common.ListQuery) (listcache.Page[dto.Brand], error) {
	return s.lists.Brands.Window(ctx, q.Window, q.Search)
}

// AllBrands returns every brand
func (s *CatalogService) AllBrands(ctx context.Context) ([]dto.Brand, error) {
	return s.lists.Brands.All(ctx)
}

// GetBrand reads one brand
func (s *CatalogService) GetBrand(ctx context.Context, id string) (dto.Brand, error) {
	return s.lists.Brands.Get(ctx, id)
}

// CreateBrand stores a new brand and mirrors it into the cache
func (s *CatalogService) CreateBrand(ctx context.Context, in BrandInput) (dto.Brand, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return dto.Brand{}, err
	}
	taken, err := nameTaken(ctx, s.stores.Brands, in.Name, "", func(b entities.Brand) string { return b.Name })
	if err != nil {
		return dto.Brand{}, err
	}
	if taken {
		return dto.Brand{}, errors.NewValidationError("Brand already exists")
	}

	brand := entities.Brand{
		ID:         entities.NewID(),
		Name:       in.Name,
		LogoURL:    in.LogoURL,
		IsFeatured: in.IsFeatured,
	}
	brand.Touch(s.now())
	if err := s.stores.Brands.Create(ctx, brand); err != nil {
		return dto.Brand{}, err
	}

	out := dto.NewBrand(brand)
	s.lists.Brands.Created(ctx, out)
	s.logger.Info("brand created", zap.String("id", brand.ID), zap.String("name", brand.Name))
	return out, nil
}

// UpdateBrand applies a patch to a brand
func (s *CatalogService) UpdateBrand(ctx context.Context, id string, in BrandPatch) (dto.Brand, error) {
	if in == (BrandPatch{}) {
		return dto.Brand{}, noChanges()
	}
	if err := utils.ValidateStruct(in); err != nil {
		return dto.Brand{}, err
	}
	brand, err := s.stores.Brands.Get(ctx, id)
	if err != nil {
		return dto.Brand{}, err
	}

	if in.Name != nil && *in.Name != brand.Name {
		taken, err := nameTaken(ctx, s.stores.Brands, *in.Name, id, func(b entities.Brand) string { return b.Name })
		if err != nil {
			return dto.Brand{}, err
		}
		if taken {
			return dto.Brand{}, errors.NewValidationError("Brand already exists")
		}
		brand.Name = *in.Name
	}
	if in.LogoURL != nil {
		brand.LogoURL = *in.LogoURL
	}
	if in.IsFeatured != nil {
		brand.IsFeatured = *in.IsFeatured
	}
	brand.Touch(s.now())
	if err := s.stores.Brands.Update(ctx, brand); err != nil {
		return dto.Brand{}, err
	}

	out := dto.NewBrand(brand)
	s.lists.Brands.Updated(ctx, out)
	return out, nil
}

// DeleteBrand removes a brand
func (s *CatalogService) DeleteBrand(ctx context.Context, id string) error {
	if _, err := s.stores.Brands.Delete(ctx, id); err != nil {
		return err
	}
	s.lists.Brands.Deleted(ctx, id)
	s.logger.Info("brand deleted", zap.String("id", id))
	return nil
}

// ListCategories returns a page of categories, optionally narrowed by name
func (s *CatalogService) ListCategories(ctx context.Context, q common.ListQuery) (listcache.Page[dto.Category], error) {
	return s.lists.Categories.Window(ctx, q.Window, q.Search)
}

// AllCategories returns every category
func (s *CatalogService) AllCategories(ctx context.Context) ([]dto.Category, error) {
	return s.lists.Categories.All(ctx)
}

// GetCategory reads one category
func (s *CatalogService) GetCategory(ctx context.Context, id string) (dto.Category, error) {
	return s.lists.Categories.Get(ctx, id)
}

// CreateCategory stores a new category and mirrors it into the cache
func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (dto.Category, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return dto.Category{}, err
	}
	taken, err := nameTaken(ctx, s.stores.Categories, in.Name, "", func(c entities.Category) string { return c.Name })
	if err != nil {
		return dto.Category{}, err
	}
	if taken {
		return dto.Category{}, errors.NewValidationError("Category already exists")
	}

	category := entities.Category{
		ID:          entities.NewID(),
		Name:        in.Name,
		LogoURL:     in.LogoURL,
		IsPublished: in.IsPublished,
	}
	category.Touch(s.now())
	if err := s.stores.Categories.Create(ctx, category); err != nil {
		return dto.Category{}, err
	}

	out := dto.NewCategory(category)
	s.lists.Categories.Created(ctx, out)
	s.logger.Info("category created", zap.String("id", category.ID), zap.String("name", category.Name))
	return out, nil
}

// UpdateCategory applies a patch to a category
func (s *CatalogService) UpdateCategory(ctx context.Context, id string, in CategoryPatch) (dto.Category, error) {
	if in == (CategoryPatch{}) {
		return dto.Category{}, noChanges()
	}
	if err := utils.ValidateStruct(in); err != nil {
		return dto.Category{}, err
	}
	category, err := s.stores.Categories.Get(ctx, id)
	if err != nil {
		return dto.Category{}, err
	}

	if in.Name != nil && *in.Name != category.Name {
		taken, err := nameTaken(ctx, s.stores.Categories, *in.Name, id, func(c entities.Category) string { return c.Name })
		if err != nil {
			return dto.Category{}, err
		}
		if taken {
			return dto.Category{}, errors.NewValidationError("Category already exists")
		}
		category.Name = *in.Name
	}
	if in.LogoURL != nil {
		category.LogoURL = *in.LogoURL
	}
	if in.IsPublished != nil {
		category.IsPublished = *in.IsPublished
	}
	category.Touch(s.now())
	if err := s.stores.Categories.Update(ctx, category); err != nil {
		return dto.Category{}, err
	}

	out := dto.NewCategory(category)
	s.lists.Categories.Updated(ctx, out)
	return out, nil
}

// DeleteCategory removes a category
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.stores.Categories.Delete(ctx, id); err != nil {
		return err
	}
	s.lists.Categories.Deleted(ctx, id)
	s.logger.Info("category deleted", zap.String("id", id))
	return nil
}

// ListProducts returns a page of products, optionally narrowed by name
func (s *CatalogService) ListProducts(ctx context.Context, q common.ListQuery) (listcache.Page[dto.Product], error) {
	return s.lists.Products.Window(ctx, q.Window, q.Search)
}

// GetProduct reads one product with its reviews
func (s *CatalogService) GetProduct(ctx context.Context, id string) (dto.Product, error) {
	return s.lists.Products.Get(ctx, id)
}

// CreateProduct stores a new product and mirrors it into the cache
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (dto.Product, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return dto.Product{}, errors.NewValidationError("All fields are required").WithCause(err)
	}
	taken, err := nameTaken(ctx, s.stores.Products, in.Name, "", func(p entities.Product) string { return p.Name })
	if err != nil {
		return dto.Product{}, err
	}
	if taken {
		return dto.Product{}, errors.NewValidationError("Product already exists")
	}

	product := entities.Product{
		ID:           entities.NewID(),
		Name:         in.Name,
		Category:     in.Category,
		Brand:        in.Brand,
		Images:       in.Images,
		Desc:         in.Desc,
		Stock:        *in.Stock,
		RegularPrice: *in.RegularPrice,
		SalePrice:    *in.SalePrice,
		IsFeatured:   in.IsFeatured,
		IsOnSale:     in.IsOnSale,
		ReviewIDs:    []string{},
	}
	product.Touch(s.now())
	if err := s.stores.Products.Create(ctx, product); err != nil {
		return dto.Product{}, err
	}

	out := dto.NewProduct(product, nil)
	s.lists.Products.Created(ctx, out)
	s.logger.Info("product created", zap.String("id", product.ID), zap.String("name", product.Name))
	return out, nil
}

// UpdateProduct applies a patch to a product
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductPatch) (dto.Product, error) {
	if isEmptyProductPatch(in) {
		return dto.Product{}, noChanges()
	}
	if err := utils.ValidateStruct(in); err != nil {
		return dto.Product{}, err
	}
	product, err := s.stores.Products.Get(ctx, id)
	if err != nil {
		return dto.Product{}, err
	}

	if in.Name != nil && *in.Name != product.Name {
		taken, err := nameTaken(ctx, s.stores.Products, *in.Name, id, func(p entities.Product) string { return p.Name })
		if err != nil {
			return dto.Product{}, err
		}
		if taken {
			return dto.Product{}, errors.NewValidationError("Product already exists")
		}
		product.Name = *in.Name
	}
	applyProductPatch(&product, in)
	product.Touch(s.now())
	if err := s.stores.Products.Update(ctx, product); err != nil {
		return dto.Product{}, err
	}

	out, err := s.proj.product(ctx, product)
	if err != nil {
		return dto.Product{}, err
	}
	s.lists.Products.Updated(ctx, out)
	return out, nil
}

func isEmptyProductPatch(in ProductPatch) bool {
	return in.Name == nil && in.Category == nil && in.Brand == nil && in.Desc == nil &&
		in.Images == nil && in.Stock == nil && in.RegularPrice == nil && in.SalePrice == nil &&
		in.IsFeatured == nil && in.IsOnSale == nil
}

func applyProductPatch(p *entities.Product, in ProductPatch) {
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Brand != nil {
		p.Brand = *in.Brand
	}
	if in.Desc != nil {
		p.Desc = *in.Desc
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.RegularPrice != nil {
		p.RegularPrice = *in.RegularPrice
	}
	if in.SalePrice != nil {
		p.SalePrice = *in.SalePrice
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.IsOnSale != nil {
		p.IsOnSale = *in.IsOnSale
	}
}

// DeleteProduct removes a product and every review attached to it
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.stores.Products.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.lists.Products.Deleted(ctx, id)

	for _, reviewID := range product.ReviewIDs {
		if _, err := s.stores.Reviews.Delete(ctx, reviewID); err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return errors.Wrapf(err, "delete review %s of product %s", reviewID, id)
		}
		s.lists.Reviews.Deleted(ctx, reviewID)
	}
	s.logger.Info("product deleted",
		zap.String("id", id),
		zap.Int("reviews", len(product.ReviewIDs)),
	)
	return nil
}
