// Package memory is an in-process Primary Store for local runs and tests.
// Documents are kept as DynamoDB attribute maps, so they round-trip through
// the same codec as the DynamoDB store and share its id ordering.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"storefront-backend/application/ports"
	"storefront-backend/domain/core/entities"
	"storefront-backend/pkg/errors"
)

// DocumentStore stores one collection in memory
type DocumentStore[T entities.Document] struct {
	mu       sync.RWMutex
	resource string
	items    map[string]map[string]types.AttributeValue
	ids      []string
	calls    Calls
}

var _ ports.DocumentStore[entities.Brand] = (*DocumentStore[entities.Brand])(nil)

// Calls counts store reads
type Calls struct {
	List int
	Get  int
	Find int
}

// NewDocumentStore creates an empty store. resource names the document in
// NOT_FOUND messages.
func NewDocumentStore[T entities.Document](resource string) *DocumentStore[T] {
	return &DocumentStore[T]{
		resource: resource,
		items:    make(map[string]map[string]types.AttributeValue),
	}
}

// Calls returns the read counters
func (s *DocumentStore[T]) Calls() Calls {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

// List returns every document in id order
func (s *DocumentStore[T]) List(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls.List++
	docs := make([]T, 0, len(s.ids))
	for _, id := range s.ids {
		doc, err := s.decode(s.items[id])
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Get reads one document
func (s *DocumentStore[T]) Get(ctx context.Context, id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls.Get++
	item, ok := s.items[id]
	if !ok {
		var zero T
		return zero, errors.NewNotFoundError(s.resource)
	}
	return s.decode(item)
}

// FindBy returns documents whose top-level string attribute equals value
func (s *DocumentStore[T]) FindBy(ctx context.Context, field, value string) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls.Find++
	docs := []T{}
	for _, id := range s.ids {
		item := s.items[id]
		attr, ok := item[field].(*types.AttributeValueMemberS)
		if !ok || attr.Value != value {
			continue
		}
		doc, err := s.decode(item)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Create inserts doc unless its id exists
func (s *DocumentStore[T]) Create(ctx context.Context, doc T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[doc.GetID()]; exists {
		return errors.NewConflictError(fmt.Sprintf("%s already exists", s.resource))
	}
	return s.put(doc)
}

// Update overwrites doc when its id exists
func (s *DocumentStore[T]) Update(ctx context.Context, doc T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[doc.GetID()]; !exists {
		return errors.NewNotFoundError(s.resource)
	}
	return s.put(doc)
}

// Put writes doc unconditionally
func (s *DocumentStore[T]) Put(ctx context.Context, doc T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.put(doc)
}

// Delete removes a document and returns it
func (s *DocumentStore[T]) Delete(ctx context.Context, id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		var zero T
		return zero, errors.NewNotFoundError(s.resource)
	}
	delete(s.items, id)
	i := sort.SearchStrings(s.ids, id)
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
	return s.decode(item)
}

func (s *DocumentStore[T]) put(doc T) error {
	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", s.resource, err)
	}
	id := doc.GetID()
	if _, exists := s.items[id]; !exists {
		i := sort.SearchStrings(s.ids, id)
		s.ids = append(s.ids, "")
		copy(s.ids[i+1:], s.ids[i:])
		s.ids[i] = id
	}
	s.items[id] = item
	return nil
}

func (s *DocumentStore[T]) decode(item map[string]types.AttributeValue) (T, error) {
	var doc T
	if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
		return doc, fmt.Errorf("failed to unmarshal %s: %w", s.resource, err)
	}
	return doc, nil
}

// NewStores creates an empty in-memory store for every collection
func NewStores() ports.Stores {
	return ports.Stores{
		Brands:        NewDocumentStore[entities.Brand]("brand"),
		Categories:    NewDocumentStore[entities.Category]("category"),
		Products:      NewDocumentStore[entities.Product]("product"),
		Users:         NewDocumentStore[entities.User]("user"),
		Coupons:       NewDocumentStore[entities.Coupon]("coupon"),
		Orders:        NewDocumentStore[entities.Order]("order"),
		Reviews:       NewDocumentStore[entities.Review]("review"),
		Carts:         NewDocumentStore[entities.Cart]("cart"),
		Wishlists:     NewDocumentStore[entities.Wishlist]("wishlist"),
		Notifications: NewDocumentStore[entities.OrderNotification]("notification"),
		RefreshTokens: NewDocumentStore[entities.RefreshToken]("refresh token"),
		Chats:         NewDocumentStore[entities.Chat]("chat"),
		Messages:      NewDocumentStore[entities.Message]("message"),
	}
}
