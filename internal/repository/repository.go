package repository

import (
	"context"
	"errors"

	"github.com/jafarshop/ttsbridge/internal/domain"
)

// ErrDuplicate is returned when a unique key is already taken
var ErrDuplicate = errors.New("duplicate")

// ShopRepository reads and writes tenant shop configuration
type ShopRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Shop, error)
	GetByWebhookToken(ctx context.Context, token string) (*domain.Shop, error)
	Create(ctx context.Context, shop *domain.Shop) error
}

// OrderMappingRepository persists the TikTok -> VTEX order correlation
type OrderMappingRepository interface {
	GetByTTSOrderID(ctx context.Context, ttsOrderID string) (*domain.OrderMapping, error)
	GetByVTEXOrderID(ctx context.Context, shopID, vtexOrderID string) (*domain.OrderMapping, error)
	Upsert(ctx context.Context, mapping *domain.OrderMapping) error
	UpdateStatus(ctx context.Context, ttsOrderID string, status domain.MappingStatus, lastError *string) error
	UpdateLabelURL(ctx context.Context, ttsOrderID, labelURL string) error
}

// IdempotencyRepository stores processed-event markers
type IdempotencyRepository interface {
	Exists(ctx context.Context, key string) (bool, error)
	// Create returns ErrDuplicate when the key was already recorded
	Create(ctx context.Context, record *domain.IdempotencyRecord) error
}

// ProductMappingRepository reads catalog mappings owned by the catalog subsystem
type ProductMappingRepository interface {
	GetByTTSSkuID(ctx context.Context, shopID, ttsSkuID string) (*domain.ProductMapping, error)
	ListByTTSProductID(ctx context.Context, shopID, ttsProductID string) ([]*domain.ProductMapping, error)
	// CreateAutoMapped inserts the mapping unless the VTEX SKU is already mapped
	CreateAutoMapped(ctx context.Context, mapping *domain.ProductMapping) error
}

// OrderEventRepository appends audit events
type OrderEventRepository interface {
	Create(ctx context.Context, event *domain.OrderEvent) error
}

// Repositories groups all repositories
type Repositories struct {
	Shop           ShopRepository
	OrderMapping   OrderMappingRepository
	Idempotency    IdempotencyRepository
	ProductMapping ProductMappingRepository
	OrderEvent     OrderEventRepository
}
