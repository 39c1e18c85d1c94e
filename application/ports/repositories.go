package ports

import (
	"context"

	"storefront-backend/domain/core/entities"
)

// DocumentStore is the Primary Store port for one collection.
// This is a port in hexagonal architecture - services never see DynamoDB.
type DocumentStore[T entities.Document] interface {
	// List returns every document in store-iteration (creation) order
	List(ctx context.Context) ([]T, error)

	// Get returns the document or a NOT_FOUND AppError
	Get(ctx context.Context, id string) (T, error)

	// FindBy returns the documents whose top-level string attribute equals value
	FindBy(ctx context.Context, field, value string) ([]T, error)

	// Create inserts a new document. An existing id is a CONFLICT.
	Create(ctx context.Context, doc T) error

	// Update overwrites an existing document. A missing id is NOT_FOUND.
	Update(ctx context.Context, doc T) error

	// Put inserts or overwrites unconditionally
	Put(ctx context.Context, doc T) error

	// Delete removes the document and returns the deleted value
	Delete(ctx context.Context, id string) (T, error)
}

// Stores groups the collections used by the services
type Stores struct {
	Brands        DocumentStore[entities.Brand]
	Categories    DocumentStore[entities.Category]
	Products      DocumentStore[entities.Product]
	Users         DocumentStore[entities.User]
	Coupons       DocumentStore[entities.Coupon]
	Orders        DocumentStore[entities.Order]
	Reviews       DocumentStore[entities.Review]
	Carts         DocumentStore[entities.Cart]
	Wishlists     DocumentStore[entities.Wishlist]
	Notifications DocumentStore[entities.OrderNotification]
	RefreshTokens DocumentStore[entities.RefreshToken]
	Chats         DocumentStore[entities.Chat]
	Messages      DocumentStore[entities.Message]
}
