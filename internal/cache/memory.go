package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/domain"
)

type entry struct {
	shop      domain.Shop
	expiresAt time.Time
}

// MemoryShopCache is a process-local ShopCache
type MemoryShopCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
	logger  *zap.Logger
}

// NewMemoryShopCache creates an empty in-memory shop cache
func NewMemoryShopCache(logger *zap.Logger) *MemoryShopCache {
	return &MemoryShopCache{
		entries: make(map[string]entry),
		now:     time.Now,
		logger:  logger,
	}
}

func (c *MemoryShopCache) Get(ctx context.Context, shopID string) (*domain.Shop, error) {
	key := shopKey(shopID)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		c.logger.Debug("Shop cache entry expired", zap.String("shop_id", shopID))
		return nil, nil
	}

	// copy so callers cannot mutate the cached value
	shop := e.shop
	return &shop, nil
}

func (c *MemoryShopCache) Set(ctx context.Context, shop *domain.Shop, ttl time.Duration) error {
	if shop == nil || ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	c.entries[shopKey(shop.ID)] = entry{shop: *shop, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()

	return nil
}

func (c *MemoryShopCache) Delete(ctx context.Context, shopID string) error {
	c.mu.Lock()
	delete(c.entries, shopKey(shopID))
	c.mu.Unlock()
	return nil
}
