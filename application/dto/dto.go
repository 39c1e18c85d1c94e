// Package dto holds the fixed-field projections that are cached and
// returned by the API. A field that is not declared here never reaches the
// cache or a response body.
package dto

import (
	"strings"
	"time"

	"storefront-backend/domain/core/entities"
)

// Record is a cacheable projection with a stable identity serialized as _id
type Record interface {
	GetID() string
}

// Brand projection
type Brand struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	LogoURL    string    `json:"logoUrl"`
	IsFeatured bool      `json:"isFeatured"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (b Brand) GetID() string { return b.ID }

// NewBrand projects a brand document
func NewBrand(b entities.Brand) Brand {
	return Brand{
		ID:         b.ID,
		Name:       b.Name,
		LogoURL:    b.LogoURL,
		IsFeatured: b.IsFeatured,
		CreatedAt:  b.CreatedAt,
	}
}

// Category projection
type Category struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	LogoURL     string    `json:"logoUrl"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (c Category) GetID() string { return c.ID }

// NewCategory projects a category document
func NewCategory(c entities.Category) Category {
	return Category{
		ID:          c.ID,
		Name:        c.Name,
		LogoURL:     c.LogoURL,
		IsPublished: c.IsPublished,
		CreatedAt:   c.CreatedAt,
	}
}

// Author is the public face of a review author
type Author struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// NewAuthor projects the public fields of a user
func NewAuthor(u entities.User) Author {
	return Author{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

// ProductReview is a review embedded in a product
type ProductReview struct {
	ID           string    `json:"_id"`
	Text         string    `json:"text"`
	Rating       int       `json:"rating"`
	ReviewAuthor Author    `json:"reviewAuthor"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Product projection with its reviews populated
type Product struct {
	ID           string                  `json:"_id"`
	Name         string                  `json:"name"`
	Category     string                  `json:"category"`
	Images       []entities.ProductImage `json:"images"`
	Desc         string                  `json:"desc"`
	Stock        int                     `json:"stock"`
	Brand        string                  `json:"brand"`
	RegularPrice float64                 `json:"regularPrice"`
	SalePrice    float64                 `json:"salePrice"`
	IsFeatured   bool                    `json:"isFeatured"`
	IsOnSale     bool                    `json:"isOnSale"`
	Reviews      []ProductReview         `json:"reviews"`
	CreatedAt    time.Time               `json:"createdAt"`
}

func (p Product) GetID() string { return p.ID }

// NewProduct projects a product document and its populated reviews
func NewProduct(p entities.Product, reviews []ProductReview) Product {
	if reviews == nil {
		reviews = []ProductReview{}
	}
	images := p.Images
	if images == nil {
		images = []entities.ProductImage{}
	}
	return Product{
		ID:           p.ID,
		Name:         p.Name,
		Category:     p.Category,
		Images:       images,
		Desc:         p.Desc,
		Stock:        p.Stock,
		Brand:        p.Brand,
		RegularPrice: p.RegularPrice,
		SalePrice:    p.SalePrice,
		IsFeatured:   p.IsFeatured,
		IsOnSale:     p.IsOnSale,
		Reviews:      reviews,
		CreatedAt:    p.CreatedAt,
	}
}

// EffectivePrice is the sale price when on sale, otherwise the regular price
func (p Product) EffectivePrice() float64 {
	if p.IsOnSale {
		return p.SalePrice
	}
	return p.RegularPrice
}

// AverageRating is the mean review rating, 0 without reviews
func (p Product) AverageRating() float64 {
	if len(p.Reviews) == 0 {
		return 0
	}
	total := 0
	for _, r := range p.Reviews {
		total += r.Rating
	}
	return float64(total) / float64(len(p.Reviews))
}

// User projection. Optional fields default to empty values.
type User struct {
	ID        string           `json:"_id"`
	Method    string           `json:"method"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone"`
	Avatar    string           `json:"avatar"`
	Role      string           `json:"role"`
	Address   entities.Address `json:"address"`
	CreatedAt time.Time        `json:"createdAt"`
}

func (u User) GetID() string { return u.ID }

// NewUser projects a user document without credentials
func NewUser(u entities.User) User {
	out := User{
		ID:        u.ID,
		Method:    u.Method,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Avatar:    u.Avatar,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
	if u.Address != nil {
		out.Address = *u.Address
	}
	return out
}

// Coupon projection
type Coupon struct {
	ID                 string    `json:"_id"`
	Name               string    `json:"name"`
	BannerURL          string    `json:"bannerUrl"`
	CouponCode         string    `json:"couponCode"`
	Validity           time.Time `json:"validity"`
	DiscountPercentage float64   `json:"discountPercentage"`
	MinimumAmount      float64   `json:"minimumAmount"`
	CreatedAt          time.Time `json:"createdAt"`
}

func (c Coupon) GetID() string { return c.ID }

// NewCoupon projects a coupon document
func NewCoupon(c entities.Coupon) Coupon {
	return Coupon{
		ID:                 c.ID,
		Name:               c.Name,
		BannerURL:          c.BannerURL,
		CouponCode:         c.CouponCode,
		Validity:           c.Validity,
		DiscountPercentage: c.DiscountPercentage,
		MinimumAmount:      c.MinimumAmount,
		CreatedAt:          c.CreatedAt,
	}
}

// OrderCustomer is the populated user on an order
type OrderCustomer struct {
	ID        string           `json:"_id"`
	Name      string           `json:"name"`
	Phone     string           `json:"phone"`
	Address   entities.Address `json:"address"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Order projection with its customer populated
type Order struct {
	ID                 string               `json:"_id"`
	User               OrderCustomer        `json:"user"`
	PaymentMethod      string               `json:"paymentMethod"`
	PaymentReceived    bool                 `json:"paymentReceived"`
	Status             string               `json:"status"`
	Items              []entities.OrderItem `json:"items"`
	DiscountAmount     float64              `json:"discountAmount"`
	AmountToCharge     float64              `json:"amountToCharge"`
	Note               string               `json:"note"`
	NotificationViewed bool                 `json:"notificationViewed"`
	CreatedAt          time.Time            `json:"createdAt"`
	UpdatedAt          time.Time            `json:"updatedAt"`
}

func (o Order) GetID() string { return o.ID }

// NewOrder projects an order document with the placing user
func NewOrder(o entities.Order, customer entities.User) Order {
	out := Order{
		ID: o.ID,
		User: OrderCustomer{
			ID:        o.UserID,
			Name:      customer.Name,
			Phone:     customer.Phone,
			CreatedAt: customer.CreatedAt,
		},
		PaymentMethod:      o.PaymentMethod,
		PaymentReceived:    o.PaymentReceived,
		Status:             o.Status,
		Items:              o.Items,
		DiscountAmount:     o.DiscountAmount,
		AmountToCharge:     o.AmountToCharge,
		Note:               o.Note,
		NotificationViewed: o.NotificationViewed,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	if customer.Address != nil {
		out.User.Address = *customer.Address
	}
	if out.Items == nil {
		out.Items = []entities.OrderItem{}
	}
	return out
}

// ReviewProduct is the populated product on a review
type ReviewProduct struct {
	ID     string                  `json:"_id"`
	Name   string                  `json:"name"`
	Images []entities.ProductImage `json:"images"`
}

// Review projection with author and product populated
type Review struct {
	ID           string        `json:"_id"`
	Text         string        `json:"text"`
	Rating       int           `json:"rating"`
	ReviewAuthor Author        `json:"reviewAuthor"`
	Product      ReviewProduct `json:"product"`
	CreatedAt    time.Time     `json:"createdAt"`
}

func (r Review) GetID() string { return r.ID }

// NewReview projects a review with its author and product
func NewReview(r entities.Review, author entities.User, product entities.Product) Review {
	images := product.Images
	if images == nil {
		images = []entities.ProductImage{}
	}
	return Review{
		ID:           r.ID,
		Text:         r.Text,
		Rating:       r.Rating,
		ReviewAuthor: NewAuthor(author),
		Product:      ReviewProduct{ID: product.ID, Name: product.Name, Images: images},
		CreatedAt:    r.CreatedAt,
	}
}

// NewProductReview projects a review as embedded in a product
func NewProductReview(r entities.Review, author entities.User) ProductReview {
	return ProductReview{
		ID:           r.ID,
		Text:         r.Text,
		Rating:       r.Rating,
		ReviewAuthor: NewAuthor(author),
		CreatedAt:    r.CreatedAt,
	}
}

// Chat projection with its participants populated
type Chat struct {
	ID                string    `json:"_id"`
	Participants      []Author  `json:"participants"`
	LastMessage       string    `json:"lastMessage"`
	LastMessageReadBy []string  `json:"lastMessageReadBy"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (c Chat) GetID() string { return c.ID }

// NewChat projects a chat with the participants found in users. Unknown
// participants keep their id only.
func NewChat(c entities.Chat, users map[string]entities.User) Chat {
	participants := make([]Author, 0, len(c.ParticipantIDs))
	for _, id := range c.ParticipantIDs {
		u, ok := users[id]
		if !ok {
			u = entities.User{ID: id}
		}
		participants = append(participants, NewAuthor(u))
	}
	readBy := c.LastMessageReadBy
	if readBy == nil {
		readBy = []string{}
	}
	return Chat{
		ID:                c.ID,
		Participants:      participants,
		LastMessage:       c.LastMessage,
		LastMessageReadBy: readBy,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// ParticipantNames joins the participant names for search
func (c Chat) ParticipantNames() string {
	names := make([]string, len(c.Participants))
	for i, p := range c.Participants {
		names[i] = p.Name
	}
	return strings.Join(names, " ")
}
