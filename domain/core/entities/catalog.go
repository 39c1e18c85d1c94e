package entities

import (
	"strings"
	"time"
)

// Brand is a product manufacturer shown on the storefront
type Brand struct {
	ID         string `dynamodbav:"id"`
	Name       string `dynamodbav:"name"`
	LogoURL    string `dynamodbav:"logoUrl"`
	IsFeatured bool   `dynamodbav:"isFeatured"`
	Timestamps
}

func (b Brand) GetID() string { return b.ID }

// Category groups products on the storefront
type Category struct {
	ID          string `dynamodbav:"id"`
	Name        string `dynamodbav:"name"`
	LogoURL     string `dynamodbav:"logoUrl"`
	IsPublished bool   `dynamodbav:"isPublished"`
	Timestamps
}

func (c Category) GetID() string { return c.ID }

// ProductImage is a hosted product picture
type ProductImage struct {
	ImageURL string `dynamodbav:"imageUrl" json:"imageUrl"`
}

// Product is a sellable item. Category and Brand hold the names of the
// owning category and brand. ReviewIDs references Review documents.
type Product struct {
	ID           string         `dynamodbav:"id"`
	Name         string         `dynamodbav:"name"`
	Category     string         `dynamodbav:"category"`
	Brand        string         `dynamodbav:"brand"`
	Images       []ProductImage `dynamodbav:"images"`
	Desc         string         `dynamodbav:"desc"`
	Stock        int            `dynamodbav:"stock"`
	RegularPrice float64        `dynamodbav:"regularPrice"`
	SalePrice    float64        `dynamodbav:"salePrice"`
	IsFeatured   bool           `dynamodbav:"isFeatured"`
	IsOnSale     bool           `dynamodbav:"isOnSale"`
	ReviewIDs    []string       `dynamodbav:"reviews"`
	Timestamps
}

func (p Product) GetID() string { return p.ID }

// EffectivePrice is the price a customer pays right now
func (p Product) EffectivePrice() float64 {
	if p.IsOnSale {
		return p.SalePrice
	}
	return p.RegularPrice
}

// AddReview adds a review reference once
func (p *Product) AddReview(reviewID string) bool {
	for _, id := range p.ReviewIDs {
		if id == reviewID {
			return false
		}
	}
	p.ReviewIDs = append(p.ReviewIDs, reviewID)
	return true
}

// RemoveReview drops a review reference
func (p *Product) RemoveReview(reviewID string) bool {
	for i, id := range p.ReviewIDs {
		if id == reviewID {
			p.ReviewIDs = append(p.ReviewIDs[:i], p.ReviewIDs[i+1:]...)
			return true
		}
	}
	return false
}

// Coupon is a voucher redeemable at checkout
type Coupon struct {
	ID                 string    `dynamodbav:"id"`
	Name               string    `dynamodbav:"name"`
	BannerURL          string    `dynamodbav:"bannerUrl"`
	CouponCode         string    `dynamodbav:"couponCode"`
	Validity           time.Time `dynamodbav:"validity"`
	DiscountPercentage float64   `dynamodbav:"discountPercentage"`
	MinimumAmount      float64   `dynamodbav:"minimumAmount"`
	Timestamps
}

func (c Coupon) GetID() string { return c.ID }

// Expired reports whether the coupon validity is before now
func (c Coupon) Expired(now time.Time) bool {
	return c.Validity.Before(now)
}

// NormalizeName is used for duplicate-name checks
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
