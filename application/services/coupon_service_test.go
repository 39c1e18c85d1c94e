package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"
)

func TestCouponService(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCouponService(env.stores, env.lists, env.logger, testClock)

	spring := CouponInput{
		Name:               "Spring",
		BannerURL:          "https://cdn.example.com/spring.png",
		CouponCode:         "SPRING",
		Validity:           testNow.Add(48 * time.Hour),
		DiscountPercentage: 10,
		MinimumAmount:      50,
	}
	created, err := svc.Create(env.ctx, spring)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*CouponInput)
	}{
		{"duplicate name", func(in *CouponInput) { in.CouponCode = "OTHER" }},
		{"duplicate code", func(in *CouponInput) { in.Name = "Other" }},
		{"discount over 100", func(in *CouponInput) { in.Name, in.CouponCode, in.DiscountPercentage = "Big", "BIG", 120 }},
		{"missing validity", func(in *CouponInput) { in.Name, in.CouponCode, in.Validity = "Soon", "SOON", time.Time{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := spring
			tt.mutate(&in)
			_, err := svc.Create(env.ctx, in)
			assert.True(t, errors.IsValidation(err))
		})
	}

	t.Run("update and read back", func(t *testing.T) {
		page, err := svc.List(env.ctx, common.ListQuery{Window: common.ComputeWindow(1)})
		require.NoError(t, err)
		require.Len(t, page.Values, 1)

		updated, err := svc.Update(env.ctx, created.ID, CouponPatch{DiscountPercentage: ptr(15.0)})
		require.NoError(t, err)
		assert.Equal(t, 15.0, updated.DiscountPercentage)

		got, err := svc.Get(env.ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 15.0, got.DiscountPercentage)

		page, err = svc.List(env.ctx, common.ListQuery{Window: common.ComputeWindow(1), Search: "spr"})
		require.NoError(t, err)
		require.Len(t, page.Values, 1)
		assert.Equal(t, 15.0, page.Values[0].DiscountPercentage)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(env.ctx, created.ID))
		_, err := svc.Get(env.ctx, created.ID)
		assert.True(t, errors.IsNotFound(err))
	})
}
