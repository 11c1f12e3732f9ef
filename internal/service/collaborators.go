package service

import (
	"context"

	"github.com/jafarshop/ttsbridge/internal/builder"
	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/internal/tiktok"
	"github.com/jafarshop/ttsbridge/internal/vtex"
)

// MarketplaceOrders reads TikTok orders
type MarketplaceOrders interface {
	GetOrderDetail(ctx context.Context, shop *domain.Shop, orderID string) (tiktok.OrderDetail, error)
}

// MarketplaceLogistics reads and creates TikTok shipping documents
type MarketplaceLogistics interface {
	GetOrCreateShippingDocument(ctx context.Context, shop *domain.Shop, orderID string) (*tiktok.ShippingDocument, error)
	GetShippingDocument(ctx context.Context, shop *domain.Shop, orderID string) (*tiktok.ShippingDocument, error)
	GetTracking(ctx context.Context, shop *domain.Shop, orderID string) (*tiktok.Tracking, error)
}

// CommercePlatform places and updates VTEX orders
type CommercePlatform interface {
	CreateOrder(ctx context.Context, shop *domain.Shop, payload *vtex.OrderPayload) (*vtex.CreatedOrder, error)
	AuthorizeDispatch(ctx context.Context, shop *domain.Shop, orderID, marketplaceOrderID string) error
	SendInvoice(ctx context.Context, shop *domain.Shop, orderID string, invoice vtex.Invoice) error
	GetOrder(ctx context.Context, shop *domain.Shop, orderID string) (*vtex.Order, error)
}

// PayloadBuilder builds VTEX order payloads from TikTok orders
type PayloadBuilder interface {
	Build(ctx context.Context, shop *domain.Shop, order tiktok.OrderDetail, mode domain.PricingMode) (*builder.Result, error)
	Diagnose(ctx context.Context, shop *domain.Shop, order tiktok.OrderDetail) (map[string][]string, error)
}

// ShopResolver resolves tenant configuration
type ShopResolver interface {
	Resolve(ctx context.Context, shopID string) (*domain.Shop, error)
	ResolveByWebhookToken(ctx context.Context, token string) (*domain.Shop, error)
}

// IdempotencyLedger runs a handler at most once per key
type IdempotencyLedger interface {
	Register(ctx context.Context, key string, payload []byte, handler func(ctx context.Context) error) (Outcome, error)
}

// LabelGenerator generates shipping labels for imported orders
type LabelGenerator interface {
	GenerateLabel(ctx context.Context, shopID, orderID string, orderValue *int64, invoice *InvoiceMeta) (*LabelResult, error)
}

// Dispatcher runs tasks outside the request that submitted them
type Dispatcher interface {
	Submit(name string, task Task) error
}
