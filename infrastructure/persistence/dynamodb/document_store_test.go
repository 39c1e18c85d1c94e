package dynamodb

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront-backend/domain/core/entities"
	pkgerrors "storefront-backend/pkg/errors"
)

// fakeClient keeps items in memory and understands the handful of
// condition expressions this package issues.
type fakeClient struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]map[string]types.AttributeValue)}
}

func s(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	}
	return ""
}

func itemKey(item map[string]types.AttributeValue) string {
	return s(item["PK"]) + "|" + s(item["SK"])
}

func (f *fakeClient) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[itemKey(in.Key)]}, nil
}

func (f *fakeClient) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := itemKey(in.Item)
	existing, exists := f.items[key]
	cond := ""
	if in.ConditionExpression != nil {
		cond = *in.ConditionExpression
	}

	failed := false
	switch cond {
	case "attribute_not_exists(PK)":
		failed = exists
	case "attribute_exists(PK)":
		failed = !exists
	case "attribute_not_exists(PK) OR ExpiresAt < :now":
		if exists {
			expires, _ := strconv.ParseInt(s(existing["ExpiresAt"]), 10, 64)
			now, _ := strconv.ParseInt(s(in.ExpressionAttributeValues[":now"]), 10, 64)
			failed = expires >= now
		}
	}
	if failed {
		return nil, &types.ConditionalCheckFailedException{}
	}
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := itemKey(in.Key)
	existing, exists := f.items[key]
	if in.ConditionExpression != nil {
		if !exists || s(existing["LockID"]) != s(in.ExpressionAttributeValues[":lockId"]) {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	delete(f.items, key)
	return &dynamodb.DeleteItemOutput{Attributes: existing}, nil
}

func (f *fakeClient) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var pk string
	for _, v := range in.ExpressionAttributeValues {
		pk = s(v)
		break
	}
	var out []map[string]types.AttributeValue
	for _, item := range f.items {
		if s(item["PK"]) == pk {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s(out[i]["SK"]) < s(out[j]["SK"]) })
	return &dynamodb.QueryOutput{Items: out}, nil
}

func TestDocumentStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore[entities.Brand](newFakeClient(), "storefront", entities.CollectionBrands, "brand", zap.NewNop())

	for _, b := range []entities.Brand{{ID: "01", Name: "Acme"}, {ID: "02", Name: "Bolt"}} {
		require.NoError(t, store.Create(ctx, b))
	}

	t.Run("duplicate create conflicts", func(t *testing.T) {
		err := store.Create(ctx, entities.Brand{ID: "01", Name: "Again"})
		assert.True(t, pkgerrors.IsConflict(err))
	})

	t.Run("list in id order", func(t *testing.T) {
		brands, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, brands, 2)
		assert.Equal(t, "Acme", brands[0].Name)
		assert.Equal(t, "Bolt", brands[1].Name)
	})

	t.Run("update existing and missing", func(t *testing.T) {
		require.NoError(t, store.Update(ctx, entities.Brand{ID: "02", Name: "Bolt Co"}))
		got, err := store.Get(ctx, "02")
		require.NoError(t, err)
		assert.Equal(t, "Bolt Co", got.Name)

		err = store.Update(ctx, entities.Brand{ID: "99", Name: "Ghost"})
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("delete returns old document", func(t *testing.T) {
		old, err := store.Delete(ctx, "01")
		require.NoError(t, err)
		assert.Equal(t, "Acme", old.Name)

		_, err = store.Get(ctx, "01")
		assert.True(t, pkgerrors.IsNotFound(err))

		_, err = store.Delete(ctx, "01")
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestDocumentStore_ListFailsOnUndecodableItem(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	store := NewDocumentStore[entities.Brand](client, "storefront", entities.CollectionBrands, "brand", zap.NewNop())
	require.NoError(t, store.Create(ctx, entities.Brand{ID: "01", Name: "Acme"}))

	client.items[entities.CollectionBrands+"|02"] = map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: entities.CollectionBrands},
		"SK":         &types.AttributeValueMemberS{Value: "02"},
		"id":         &types.AttributeValueMemberS{Value: "02"},
		"isFeatured": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{}},
	}

	brands, err := store.List(ctx)
	require.Error(t, err)
	assert.Nil(t, brands)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
}

func TestDistributedLock(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	lock := NewDistributedLock(client, "storefront", time.Second, 150*time.Millisecond, zap.NewNop())

	release, err := lock.Acquire(ctx, "hydrate:brands")
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, "hydrate:brands")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCacheUnavailable(err))

	require.NoError(t, release(ctx))
	release, err = lock.Acquire(ctx, "hydrate:brands")
	require.NoError(t, err)

	t.Run("expired lease can be taken over", func(t *testing.T) {
		other := NewDistributedLock(client, "storefront", time.Second, 150*time.Millisecond, zap.NewNop())
		other.now = func() time.Time { return time.Now().Add(2 * time.Second) }

		takeover, err := other.Acquire(ctx, "hydrate:brands")
		require.NoError(t, err)

		// The stale holder's release must not remove the new lock
		require.NoError(t, release(ctx))
		assert.Len(t, client.items, 1)
		require.NoError(t, takeover(ctx))
		assert.Empty(t, client.items)
	})
}
