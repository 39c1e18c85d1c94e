package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/domain/core/entities"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"
)

func TestUserService(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.stores, env.lists, env.logger, testClock)
	env.user(t, "u1", "Ada", entities.RoleUser)
	env.user(t, "u2", "Bob", entities.RoleUser)
	env.order(t, entities.Order{ID: "o1", UserID: "u1", Status: entities.OrderPending})
	env.order(t, entities.Order{ID: "o2", UserID: "u1", Status: entities.OrderDelivered})

	t.Run("list counts orders per user", func(t *testing.T) {
		page, err := svc.List(env.ctx, common.ListQuery{Window: common.ComputeWindow(1)})
		require.NoError(t, err)
		assert.Equal(t, 2, page.TotalCount)
		assert.Equal(t, map[string]int{"u1": 2, "u2": 0}, page.NoOfOrders)
	})

	t.Run("role must be admin or user", func(t *testing.T) {
		_, err := svc.SetRole(env.ctx, "u2", "owner")
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("role change is mirrored", func(t *testing.T) {
		updated, err := svc.SetRole(env.ctx, "u2", entities.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, entities.RoleAdmin, updated.Role)

		page, err := svc.List(env.ctx, common.ListQuery{Window: common.ComputeWindow(1), Search: "bob"})
		require.NoError(t, err)
		require.Len(t, page.Users, 1)
		assert.Equal(t, entities.RoleAdmin, page.Users[0].Role)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(env.ctx, "u2"))
		page, err := svc.List(env.ctx, common.ListQuery{Window: common.ComputeWindow(1)})
		require.NoError(t, err)
		assert.Equal(t, 1, page.TotalCount)

		assert.True(t, errors.IsNotFound(svc.Delete(env.ctx, "u2")))
	})
}
