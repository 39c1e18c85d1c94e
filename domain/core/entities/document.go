// Package entities holds the documents persisted in the Primary Store.
// Documents are plain structs with dynamodbav tags; the cache layer never
// stores them directly and works with the projections in application/dto.
package entities

import (
	"time"

	"github.com/google/uuid"
)

// Document is implemented by every persisted entity
type Document interface {
	GetID() string
}

// Collection names. They double as Primary Store partition keys and cache
// list keys.
const (
	CollectionBrands        = "brands"
	CollectionCategories    = "categories"
	CollectionProducts      = "products"
	CollectionUsers         = "users"
	CollectionCoupons       = "coupons"
	CollectionOrders        = "orders"
	CollectionReviews       = "reviews"
	CollectionCarts         = "carts"
	CollectionWishlists     = "wishlists"
	CollectionNotifications = "orderNotifications"
	CollectionRefreshTokens = "refreshTokens"
	CollectionChats         = "chats"
	CollectionMessages      = "messages"
)

// NewID returns a time-ordered identifier so store iteration follows
// creation order.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Timestamps is embedded by documents that track creation and update time
type Timestamps struct {
	CreatedAt time.Time `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `dynamodbav:"updatedAt" json:"updatedAt"`
}

// Touch sets UpdatedAt, and CreatedAt on first save
func (t *Timestamps) Touch(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}
