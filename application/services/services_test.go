package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront-backend/application/listcache"
	"storefront-backend/application/ports"
	"storefront-backend/domain/core/entities"
	"storefront-backend/infrastructure/cache/memory"
	messaging "storefront-backend/infrastructure/messaging/memory"
	persistence "storefront-backend/infrastructure/persistence/memory"
)

var testNow = time.Date(2026, time.March, 14, 15, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// testEnv wires services to in-memory adapters
type testEnv struct {
	ctx    context.Context
	stores ports.Stores
	cache  *memory.Cache
	lists  *Collections
	bus    *messaging.Bus
	logger *zap.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cache := memory.NewCache(0)
	t.Cleanup(func() { _ = cache.Close() })

	stores := persistence.NewStores()
	logger := zap.NewNop()
	lists := NewCollections(listcache.Backend{
		Lists:  cache,
		Points: cache,
		Locker: cache,
		Logger: logger,
	}, stores)

	return &testEnv{
		ctx:    context.Background(),
		stores: stores,
		cache:  cache,
		lists:  lists,
		bus:    messaging.NewBus(logger),
		logger: logger,
	}
}

func (e *testEnv) user(t *testing.T, id, name, role string) entities.User {
	t.Helper()
	u := entities.User{ID: id, Method: entities.MethodCustom, Name: name, Email: id + "@example.com", Role: role}
	u.Touch(testNow)
	require.NoError(t, e.stores.Users.Create(e.ctx, u))
	return u
}

func (e *testEnv) product(t *testing.T, p entities.Product) entities.Product {
	t.Helper()
	if p.CreatedAt.IsZero() {
		p.Touch(testNow)
	}
	require.NoError(t, e.stores.Products.Create(e.ctx, p))
	return p
}

func (e *testEnv) order(t *testing.T, o entities.Order) entities.Order {
	t.Helper()
	if o.CreatedAt.IsZero() {
		o.Touch(testNow)
	}
	require.NoError(t, e.stores.Orders.Create(e.ctx, o))
	return o
}

func item(id, name string, price float64, qty int) entities.OrderItem {
	return entities.OrderItem{
		Product:  entities.ProductSnapshot{ID: id, Name: name, RegularPrice: price},
		Quantity: qty,
	}
}

func ptr[T any](v T) *T { return &v }
