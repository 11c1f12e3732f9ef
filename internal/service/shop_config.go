package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/cache"
	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/internal/repository"
)

type shopConfigResolver struct {
	repo          repository.ShopRepository
	cache         cache.ShopCache
	ttl           time.Duration
	publicBaseURL string
	logger        *zap.Logger
}

// NewShopConfigResolver creates a resolver that reads shops through a TTL cache
func NewShopConfigResolver(repo repository.ShopRepository, shopCache cache.ShopCache, ttl time.Duration, publicBaseURL string, logger *zap.Logger) *shopConfigResolver {
	return &shopConfigResolver{
		repo:          repo,
		cache:         shopCache,
		ttl:           ttl,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}
}

// Resolve returns the active shop with its services endpoint filled in
func (r *shopConfigResolver) Resolve(ctx context.Context, shopID string) (*domain.Shop, error) {
	cached, err := r.cache.Get(ctx, shopID)
	if err != nil {
		r.logger.Warn("Shop cache read failed, falling back to database", zap.String("shop_id", shopID), zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	shop, err := r.repo.GetByID(ctx, shopID)
	if err != nil {
		return nil, err
	}

	return r.prepare(ctx, shop)
}

// ResolveByWebhookToken authenticates a VTEX callback by its per-shop token
func (r *shopConfigResolver) ResolveByWebhookToken(ctx context.Context, token string) (*domain.Shop, error) {
	shop, err := r.repo.GetByWebhookToken(ctx, token)
	if err != nil {
		return nil, err
	}

	return r.prepare(ctx, shop)
}

func (r *shopConfigResolver) prepare(ctx context.Context, shop *domain.Shop) (*domain.Shop, error) {
	if !shop.IsActive {
		return nil, fmt.Errorf("shop %s: %w", shop.ID, ErrShopInactive)
	}

	endpoint := shop.ServicesEndpoint(r.publicBaseURL)
	shop.MarketplaceServicesEndpoint = &endpoint

	if err := r.cache.Set(ctx, shop, r.ttl); err != nil {
		r.logger.Warn("Failed to cache shop", zap.String("shop_id", shop.ID), zap.Error(err))
	}

	return shop, nil
}
