package cache

import (
	"context"
	"time"

	"github.com/jafarshop/ttsbridge/internal/domain"
)

// ShopCache holds resolved tenant configuration for a short time.
// Get returns (nil, nil) on a miss.
type ShopCache interface {
	Get(ctx context.Context, shopID string) (*domain.Shop, error)
	Set(ctx context.Context, shop *domain.Shop, ttl time.Duration) error
	Delete(ctx context.Context, shopID string) error
}

func shopKey(shopID string) string {
	return "ttsbridge:shop:" + shopID
}
