package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/domain"
)

func TestMemoryShopCache_GetSet(t *testing.T) {
	c := NewMemoryShopCache(zap.NewNop())
	ctx := context.Background()

	shop, err := c.Get(ctx, "shop-1")
	require.NoError(t, err)
	assert.Nil(t, shop)

	require.NoError(t, c.Set(ctx, &domain.Shop{ID: "shop-1", SalesChannel: "1"}, time.Minute))

	shop, err = c.Get(ctx, "shop-1")
	require.NoError(t, err)
	require.NotNil(t, shop)
	assert.Equal(t, "1", shop.SalesChannel)

	// returned value is a copy
	shop.SalesChannel = "changed"
	again, _ := c.Get(ctx, "shop-1")
	assert.Equal(t, "1", again.SalesChannel)
}

func TestMemoryShopCache_Expiry(t *testing.T) {
	c := NewMemoryShopCache(zap.NewNop())
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &domain.Shop{ID: "shop-1"}, 5*time.Minute))

	now = now.Add(4 * time.Minute)
	shop, _ := c.Get(ctx, "shop-1")
	assert.NotNil(t, shop)

	now = now.Add(2 * time.Minute)
	shop, _ = c.Get(ctx, "shop-1")
	assert.Nil(t, shop)
}

func TestMemoryShopCache_IgnoresNilAndZeroTTL(t *testing.T) {
	c := NewMemoryShopCache(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, nil, time.Minute))
	require.NoError(t, c.Set(ctx, &domain.Shop{ID: "shop-1"}, 0))

	shop, _ := c.Get(ctx, "shop-1")
	assert.Nil(t, shop)
}

func TestMemoryShopCache_Delete(t *testing.T) {
	c := NewMemoryShopCache(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &domain.Shop{ID: "shop-1"}, time.Minute))
	require.NoError(t, c.Delete(ctx, "shop-1"))

	shop, _ := c.Get(ctx, "shop-1")
	assert.Nil(t, shop)
}
