package services

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"go.uber.org/zap"

	"storefront-backend/application/dto"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"
)

// homeSectionSize is the number of products in each home page section
const homeSectionSize = 8

// relatedLimit is the number of related products next to a product
const relatedLimit = 4

// Result types of a filtered query
const (
	FilterTypeProduct = "product"
	FilterTypeBrand   = "brand"
)

// Product sort orders
const (
	SortNewest    = "date"
	SortLowToHigh = "lth"
	SortHighToLow = "htl"
)

// PriceRange is the cheapest and dearest effective price in the catalog.
// Both are omitted for an empty catalog.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Home holds the sections of the storefront landing page
type Home struct {
	Categories         []dto.Category `json:"categories"`
	ProductsPriceRange PriceRange     `json:"productsPriceRange"`
	FeaturedBrands     []dto.Brand    `json:"featuredBrands"`
	FlashDealProducts  []dto.Product  `json:"flashDealProducts"`
	FeaturedProducts   []dto.Product  `json:"featuredProducts"`
	MoreForYouProducts []dto.Product  `json:"moreForYouProducts"`
	NewArrivalProducts []dto.Product  `json:"newArrivalProducts"`
	TopRatedProducts   []dto.Product  `json:"topRatedProducts"`
}

// ProductFilter narrows the storefront catalog. Empty fields do not filter.
type ProductFilter struct {
	Categories  []string
	Brands      []string
	Ratings     []string
	Price       string
	InStock     bool
	IsFeatured  bool
	OnSale      bool
	TopRated    bool
	ProductName string
	Sort        string
	IsBrand     bool
	Window      common.PageWindow
}

// Filtered is one page of a filtered query. Data holds products or, for a
// brand query, featured brands.
type Filtered struct {
	Categories         []dto.Category `json:"categories"`
	Brands             []string       `json:"brands"`
	ProductsPriceRange PriceRange     `json:"productsPriceRange"`
	Data               interface{}    `json:"data"`
	TotalCount         int            `json:"totalCount"`
	Type               string         `json:"type"`
}

// ProductDetail is a product with others from its category
type ProductDetail struct {
	Product         dto.Product   `json:"product"`
	RelatedProducts []dto.Product `json:"relatedProducts"`
}

// StorefrontService serves the public catalog from the cached lists
type StorefrontService struct {
	lists  *Collections
	logger *zap.Logger
}

// NewStorefrontService creates a new storefront service
func NewStorefrontService(lists *Collections, logger *zap.Logger) *StorefrontService {
	return &StorefrontService{lists: lists, logger: logger.Named("storefront")}
}

type catalog struct {
	brands     []dto.Brand
	categories []dto.Category
	products   []dto.Product
}

// load reads the three storefront lists concurrently
func (s *StorefrontService) load(ctx context.Context, brands bool) (catalog, error) {
	var c catalog
	g, gctx := errgroup.WithContext(ctx)
	if brands {
		g.Go(func() (err error) {
			c.brands, err = s.lists.Brands.All(gctx)
			return err
		})
	}
	g.Go(func() (err error) {
		c.categories, err = s.lists.Categories.All(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.products, err = s.lists.Products.All(gctx)
		return err
	})
	return c, g.Wait()
}

func where[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, v := range items {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func priceRange(products []dto.Product) PriceRange {
	if len(products) == 0 {
		return PriceRange{}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range products {
		price := p.EffectivePrice()
		lo = math.Min(lo, price)
		hi = math.Max(hi, price)
	}
	return PriceRange{Min: &lo, Max: &hi}
}

func newestFirst(products []dto.Product) []dto.Product {
	out := append([]dto.Product(nil), products...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func topRatedFirst(products []dto.Product) []dto.Product {
	out := append([]dto.Product(nil), products...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].AverageRating() > out[j].AverageRating() })
	return out
}

// Home builds the landing page sections
func (s *StorefrontService) Home(ctx context.Context) (Home, error) {
	c, err := s.load(ctx, true)
	if err != nil {
		return Home{}, err
	}

	home := Home{
		Categories:         c.categories,
		ProductsPriceRange: priceRange(c.products),
		FeaturedBrands:     head(where(c.brands, func(b dto.Brand) bool { return b.IsFeatured }), homeSectionSize),
		FlashDealProducts:  head(where(c.products, func(p dto.Product) bool { return p.IsOnSale }), homeSectionSize),
		FeaturedProducts:   head(where(c.products, func(p dto.Product) bool { return p.IsFeatured }), homeSectionSize),
		NewArrivalProducts: head(newestFirst(c.products), homeSectionSize),
		TopRatedProducts:   head(topRatedFirst(c.products), homeSectionSize),
	}

	shown := map[string]bool{}
	for _, section := range [][]dto.Product{home.FlashDealProducts, home.FeaturedProducts, home.NewArrivalProducts, home.TopRatedProducts} {
		for _, p := range section {
			shown[p.ID] = true
		}
	}
	home.MoreForYouProducts = head(where(c.products, func(p dto.Product) bool { return !shown[p.ID] }), homeSectionSize)
	return home, nil
}

// Filter applies the storefront filters and returns one page
func (s *StorefrontService) Filter(ctx context.Context, f ProductFilter) (Filtered, error) {
	if f.IsBrand {
		brands, err := s.lists.Brands.All(ctx)
		if err != nil {
			return Filtered{}, err
		}
		featured := where(brands, func(b dto.Brand) bool { return b.IsFeatured })
		return Filtered{
			Categories: []dto.Category{},
			Brands:     []string{},
			Data:       common.Slice(featured, f.Window),
			TotalCount: len(featured),
			Type:       FilterTypeBrand,
		}, nil
	}

	minPrice, maxPrice, err := parsePriceRange(f.Price)
	if err != nil {
		return Filtered{}, err
	}
	c, err := s.load(ctx, false)
	if err != nil {
		return Filtered{}, err
	}

	products := c.products
	if f.ProductName != "" {
		needle := strings.ToLower(f.ProductName)
		products = where(products, func(p dto.Product) bool { return strings.Contains(strings.ToLower(p.Name), needle) })
	}
	if len(f.Categories) > 0 {
		products = where(products, func(p dto.Product) bool { return contains(f.Categories, p.Category) })
	}
	if len(f.Brands) > 0 {
		products = where(products, func(p dto.Product) bool { return contains(f.Brands, p.Brand) })
	}
	if len(f.Ratings) > 0 {
		products = where(products, func(p dto.Product) bool {
			if len(p.Reviews) == 0 {
				return false
			}
			return contains(f.Ratings, strconv.Itoa(int(math.Trunc(p.AverageRating()))))
		})
	}
	if f.TopRated {
		products = topRatedFirst(products)
	}
	if f.InStock {
		products = where(products, func(p dto.Product) bool { return p.Stock > 0 })
	}
	if f.IsFeatured {
		products = where(products, func(p dto.Product) bool { return p.IsFeatured })
	}
	if f.OnSale {
		products = where(products, func(p dto.Product) bool { return p.IsOnSale })
	}
	if f.Price != "" {
		products = where(products, func(p dto.Product) bool {
			price := p.EffectivePrice()
			return price >= minPrice && price <= maxPrice
		})
	}
	switch f.Sort {
	case SortNewest:
		products = newestFirst(products)
	case SortLowToHigh:
		products = append([]dto.Product(nil), products...)
		sort.SliceStable(products, func(i, j int) bool { return products[i].EffectivePrice() < products[j].EffectivePrice() })
	case SortHighToLow:
		products = append([]dto.Product(nil), products...)
		sort.SliceStable(products, func(i, j int) bool { return products[i].EffectivePrice() > products[j].EffectivePrice() })
	}

	brands := []string{}
	seen := map[string]bool{}
	for _, p := range products {
		if !seen[p.Brand] {
			seen[p.Brand] = true
			brands = append(brands, p.Brand)
		}
	}

	return Filtered{
		Categories:         c.categories,
		Brands:             brands,
		ProductsPriceRange: priceRange(c.products),
		Data:               common.Slice(products, f.Window),
		TotalCount:         len(products),
		Type:               FilterTypeProduct,
	}, nil
}

// parsePriceRange reads "min-max"
func parsePriceRange(raw string) (float64, float64, error) {
	if raw == "" {
		return 0, 0, nil
	}
	lo, hi, ok := strings.Cut(raw, "-")
	if !ok {
		return 0, 0, errors.NewValidationError("price must be formatted as min-max")
	}
	minPrice, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return 0, 0, errors.NewValidationError("price minimum must be a number")
	}
	maxPrice, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return 0, 0, errors.NewValidationError("price maximum must be a number")
	}
	if minPrice > maxPrice {
		return 0, 0, errors.NewValidationError("price minimum exceeds maximum")
	}
	return minPrice, maxPrice, nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// Product reads one product and up to four others from its category
func (s *StorefrontService) Product(ctx context.Context, id string) (ProductDetail, error) {
	product, err := s.lists.Products.Get(ctx, id)
	if err != nil {
		return ProductDetail{}, err
	}
	products, err := s.lists.Products.All(ctx)
	if err != nil {
		return ProductDetail{}, err
	}
	related := where(products, func(p dto.Product) bool {
		return p.Category == product.Category && p.ID != product.ID
	})
	return ProductDetail{Product: product, RelatedProducts: head(related, relatedLimit)}, nil
}
