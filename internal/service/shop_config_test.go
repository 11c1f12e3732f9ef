package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/cache"
	"github.com/jafarshop/ttsbridge/internal/domain"
	apperrors "github.com/jafarshop/ttsbridge/pkg/errors"
)

type countingShops struct {
	shops map[string]*domain.Shop
	calls int
}

func (c *countingShops) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	c.calls++
	if s, ok := c.shops[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, &apperrors.ErrNotFound{Resource: "shop", ID: id}
}

func (c *countingShops) GetByWebhookToken(ctx context.Context, token string) (*domain.Shop, error) {
	c.calls++
	for _, s := range c.shops {
		if s.WebhookToken == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, &apperrors.ErrNotFound{Resource: "shop", ID: token}
}

func (c *countingShops) Create(ctx context.Context, shop *domain.Shop) error {
	c.shops[shop.ID] = shop
	return nil
}

func TestShopConfigResolver_Resolve(t *testing.T) {
	repo := &countingShops{shops: map[string]*domain.Shop{"shop-1": testShop()}}
	r := NewShopConfigResolver(repo, cache.NewMemoryShopCache(zap.NewNop()), time.Minute, "https://bridge.example.com/", zap.NewNop())

	shop, err := r.Resolve(context.Background(), "shop-1")
	require.NoError(t, err)
	require.NotNil(t, shop.MarketplaceServicesEndpoint)
	assert.Equal(t, "https://bridge.example.com/webhooks/vtex/tok-123", *shop.MarketplaceServicesEndpoint)

	_, err = r.Resolve(context.Background(), "shop-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
}

func TestShopConfigResolver_ConfiguredEndpointWins(t *testing.T) {
	s := testShop()
	s.MarketplaceServicesEndpoint = strPtr("https://custom.example.com/hooks")
	repo := &countingShops{shops: map[string]*domain.Shop{"shop-1": s}}
	r := NewShopConfigResolver(repo, cache.NewMemoryShopCache(zap.NewNop()), time.Minute, "https://bridge.example.com", zap.NewNop())

	shop, err := r.Resolve(context.Background(), "shop-1")

	require.NoError(t, err)
	assert.Equal(t, "https://custom.example.com/hooks", *shop.MarketplaceServicesEndpoint)
}

func TestShopConfigResolver_InactiveShop(t *testing.T) {
	s := testShop()
	s.IsActive = false
	repo := &countingShops{shops: map[string]*domain.Shop{"shop-1": s}}
	r := NewShopConfigResolver(repo, cache.NewMemoryShopCache(zap.NewNop()), time.Minute, "https://bridge.example.com", zap.NewNop())

	_, err := r.Resolve(context.Background(), "shop-1")

	assert.ErrorIs(t, err, ErrShopInactive)
}

func TestShopConfigResolver_ResolveByWebhookToken(t *testing.T) {
	repo := &countingShops{shops: map[string]*domain.Shop{"shop-1": testShop()}}
	r := NewShopConfigResolver(repo, cache.NewMemoryShopCache(zap.NewNop()), time.Minute, "https://bridge.example.com", zap.NewNop())

	shop, err := r.ResolveByWebhookToken(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "shop-1", shop.ID)

	_, err = r.ResolveByWebhookToken(context.Background(), "nope")
	assert.True(t, apperrors.IsNotFound(err))
}
