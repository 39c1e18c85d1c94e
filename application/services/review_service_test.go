package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/domain/core/entities"
	"storefront-backend/domain/events"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"
)

func TestReviewService_Add(t *testing.T) {
	env := newTestEnv(t)
	svc := NewReviewService(env.stores, env.lists, env.bus, env.logger, testClock)
	env.user(t, "u1", "Ada", entities.RoleUser)
	env.user(t, "u2", "Bob", entities.RoleUser)
	env.product(t, entities.Product{ID: "p1", Name: "Kettle"})
	env.order(t, entities.Order{ID: "o1", UserID: "u1", Status: entities.OrderDelivered, Items: []entities.OrderItem{item("p1", "Kettle", 20, 1)}})
	env.order(t, entities.Order{ID: "o2", UserID: "u2", Status: entities.OrderPending, Items: []entities.OrderItem{item("p1", "Kettle", 20, 1)}})

	// Hydrate the lists the review touches
	_, err := env.lists.Reviews.All(env.ctx)
	require.NoError(t, err)
	_, err = env.lists.Products.All(env.ctx)
	require.NoError(t, err)

	tests := []struct {
		name  string
		user  string
		in    ReviewInput
		check func(error) bool
	}{
		{"rating out of range", "u1", ReviewInput{ProductID: "p1", Rating: 6, Text: "great"}, errors.IsValidation},
		{"missing text", "u1", ReviewInput{ProductID: "p1", Rating: 4}, errors.IsValidation},
		{"undelivered order", "u2", ReviewInput{ProductID: "p1", Rating: 4, Text: "great"}, func(err error) bool { return errors.IsType(err, errors.ErrorTypeForbidden) }},
		{"never purchased", "u1", ReviewInput{ProductID: "p9", Rating: 4, Text: "great"}, func(err error) bool { return errors.IsType(err, errors.ErrorTypeForbidden) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(env.ctx, tt.user, tt.in)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}

	t.Run("second review replaces the first", func(t *testing.T) {
		first, err := svc.Add(env.ctx, "u1", ReviewInput{ProductID: "p1", Rating: 3, Text: "fine"})
		require.NoError(t, err)
		assert.Equal(t, "Kettle", first.Product.Name)
		assert.Equal(t, "Ada", first.ReviewAuthor.Name)

		second, err := svc.Add(env.ctx, "u1", ReviewInput{ProductID: "p1", Rating: 5, Text: "grew on me"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		reviews, err := env.lists.Reviews.All(env.ctx)
		require.NoError(t, err)
		require.Len(t, reviews, 1)
		assert.Equal(t, 5, reviews[0].Rating)

		product, err := env.lists.Products.Get(env.ctx, "p1")
		require.NoError(t, err)
		require.Len(t, product.Reviews, 1)
		assert.Equal(t, "grew on me", product.Reviews[0].Text)

		doc, err := env.stores.Products.Get(env.ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, []string{first.ID}, doc.ReviewIDs)

		assert.Len(t, env.bus.OfType(events.TypeReviewPosted), 2)
	})
}

func TestReviewService_ListAndDelete(t *testing.T) {
	env := newTestEnv(t)
	svc := NewReviewService(env.stores, env.lists, env.bus, env.logger, testClock)
	env.user(t, "u1", "Ada", entities.RoleUser)
	env.product(t, entities.Product{ID: "p1", Name: "Kettle", ReviewIDs: []string{"r1"}})
	env.product(t, entities.Product{ID: "p2", Name: "Toaster", ReviewIDs: []string{"r2"}})
	require.NoError(t, env.stores.Reviews.Create(env.ctx, entities.Review{ID: "r1", Text: "hot", Rating: 4, AuthorID: "u1", ProductID: "p1"}))
	require.NoError(t, env.stores.Reviews.Create(env.ctx, entities.Review{ID: "r2", Text: "crisp", Rating: 5, AuthorID: "u1", ProductID: "p2"}))

	page, err := svc.List(env.ctx, common.ListQuery{Window: common.ComputeWindow(1), Search: "toast"})
	require.NoError(t, err)
	require.Len(t, page.Values, 1)
	assert.Equal(t, "r2", page.Values[0].ID)
	assert.Equal(t, 2, page.TotalCount)

	_, err = env.lists.Products.All(env.ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(env.ctx, "r2"))

	page, err = svc.List(env.ctx, common.ListQuery{Window: common.ComputeWindow(1)})
	require.NoError(t, err)
	require.Len(t, page.Values, 1)
	assert.Equal(t, "r1", page.Values[0].ID)

	product, err := env.lists.Products.Get(env.ctx, "p2")
	require.NoError(t, err)
	assert.Empty(t, product.Reviews)

	err = svc.Delete(env.ctx, "r2")
	assert.True(t, errors.IsNotFound(err))
}
