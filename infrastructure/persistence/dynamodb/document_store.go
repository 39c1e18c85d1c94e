// Package dynamodb implements the Primary Store on a single DynamoDB table.
// Every collection is one partition: PK is the collection name and SK the
// document id. Ids are time-ordered, so a partition Query returns documents
// in creation order.
package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"storefront-backend/application/ports"
	"storefront-backend/domain/core/entities"
	pkgerrors "storefront-backend/pkg/errors"
)

// Client is the subset of the DynamoDB API used by this package
type Client interface {
	dynamodb.QueryAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DocumentStore stores one collection
type DocumentStore[T entities.Document] struct {
	client     Client
	tableName  string
	collection string
	resource   string
	logger     *zap.Logger
}

var _ ports.DocumentStore[entities.Brand] = (*DocumentStore[entities.Brand])(nil)

// NewDocumentStore creates a store for collection. resource names the
// document in NOT_FOUND messages.
func NewDocumentStore[T entities.Document](client Client, tableName, collection, resource string, logger *zap.Logger) *DocumentStore[T] {
	return &DocumentStore[T]{
		client:     client,
		tableName:  tableName,
		collection: collection,
		resource:   resource,
		logger:     logger.With(zap.String("collection", collection)),
	}
}

func itemID(item map[string]types.AttributeValue) string {
	if sk, ok := item["SK"].(*types.AttributeValueMemberS); ok {
		return sk.Value
	}
	return ""
}

func (s *DocumentStore[T]) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: s.collection},
		"SK": &types.AttributeValueMemberS{Value: id},
	}
}

func (s *DocumentStore[T]) item(doc T) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", s.resource, err)
	}
	for k, v := range s.key(doc.GetID()) {
		av[k] = v
	}
	return av, nil
}

// List returns the whole partition in SK order
func (s *DocumentStore[T]) List(ctx context.Context) ([]T, error) {
	return s.query(ctx, nil)
}

// FindBy filters the partition on a top-level string attribute
func (s *DocumentStore[T]) FindBy(ctx context.Context, field, value string) ([]T, error) {
	filter := expression.Name(field).Equal(expression.Value(value))
	return s.query(ctx, &filter)
}

func (s *DocumentStore[T]) query(ctx context.Context, filter *expression.ConditionBuilder) ([]T, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("PK").Equal(expression.Value(s.collection)))
	if filter != nil {
		builder = builder.WithFilter(*filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	docs := []T{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query "+s.collection, err)
		}
		for _, item := range page.Items {
			var doc T
			if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
				s.logger.Error("undecodable item", zap.String("id", itemID(item)), zap.Error(err))
				return nil, pkgerrors.NewDatabaseError("decode "+s.collection, err)
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Get reads one document
func (s *DocumentStore[T]) Get(ctx context.Context, id string) (T, error) {
	var doc T
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(id),
	})
	if err != nil {
		return doc, pkgerrors.NewDatabaseError("get "+s.collection, err)
	}
	if len(out.Item) == 0 {
		return doc, pkgerrors.NewNotFoundError(s.resource)
	}
	if err := attributevalue.UnmarshalMap(out.Item, &doc); err != nil {
		return doc, fmt.Errorf("failed to unmarshal %s: %w", s.resource, err)
	}
	return doc, nil
}

// Create inserts doc unless its id exists
func (s *DocumentStore[T]) Create(ctx context.Context, doc T) error {
	err := s.put(ctx, doc, "attribute_not_exists(PK)")
	if isConditionFailed(err) {
		return pkgerrors.NewConflictError(fmt.Sprintf("%s already exists", s.resource))
	}
	return err
}

// Update overwrites doc when its id exists
func (s *DocumentStore[T]) Update(ctx context.Context, doc T) error {
	err := s.put(ctx, doc, "attribute_exists(PK)")
	if isConditionFailed(err) {
		return pkgerrors.NewNotFoundError(s.resource)
	}
	return err
}

// Put writes doc unconditionally
func (s *DocumentStore[T]) Put(ctx context.Context, doc T) error {
	return s.put(ctx, doc, "")
}

func (s *DocumentStore[T]) put(ctx context.Context, doc T, condition string) error {
	item, err := s.item(doc)
	if err != nil {
		return err
	}
	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}
	if condition != "" {
		input.ConditionExpression = aws.String(condition)
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		if isConditionFailed(err) {
			return err
		}
		return pkgerrors.NewDatabaseError("put "+s.collection, err)
	}
	s.logger.Debug("document saved", zap.String("id", doc.GetID()))
	return nil
}

// Delete removes a document and returns it
func (s *DocumentStore[T]) Delete(ctx context.Context, id string) (T, error) {
	var doc T
	out, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.tableName),
		Key:          s.key(id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return doc, pkgerrors.NewDatabaseError("delete "+s.collection, err)
	}
	if len(out.Attributes) == 0 {
		return doc, pkgerrors.NewNotFoundError(s.resource)
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &doc); err != nil {
		return doc, fmt.Errorf("failed to unmarshal %s: %w", s.resource, err)
	}
	return doc, nil
}

func isConditionFailed(err error) bool {
	var conditionalCheckFailed *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &conditionalCheckFailed)
}

// NewStores creates a store for every collection in tableName
func NewStores(client Client, tableName string, logger *zap.Logger) ports.Stores {
	return ports.Stores{
		Brands:        NewDocumentStore[entities.Brand](client, tableName, entities.CollectionBrands, "brand", logger),
		Categories:    NewDocumentStore[entities.Category](client, tableName, entities.CollectionCategories, "category", logger),
		Products:      NewDocumentStore[entities.Product](client, tableName, entities.CollectionProducts, "product", logger),
		Users:         NewDocumentStore[entities.User](client, tableName, entities.CollectionUsers, "user", logger),
		Coupons:       NewDocumentStore[entities.Coupon](client, tableName, entities.CollectionCoupons, "coupon", logger),
		Orders:        NewDocumentStore[entities.Order](client, tableName, entities.CollectionOrders, "order", logger),
		Reviews:       NewDocumentStore[entities.Review](client, tableName, entities.CollectionReviews, "review", logger),
		Carts:         NewDocumentStore[entities.Cart](client, tableName, entities.CollectionCarts, "cart", logger),
		Wishlists:     NewDocumentStore[entities.Wishlist](client, tableName, entities.CollectionWishlists, "wishlist", logger),
		Notifications: NewDocumentStore[entities.OrderNotification](client, tableName, entities.CollectionNotifications, "notification", logger),
		RefreshTokens: NewDocumentStore[entities.RefreshToken](client, tableName, entities.CollectionRefreshTokens, "refresh token", logger),
		Chats:         NewDocumentStore[entities.Chat](client, tableName, entities.CollectionChats, "chat", logger),
		Messages:      NewDocumentStore[entities.Message](client, tableName, entities.CollectionMessages, "message", logger),
	}
}
