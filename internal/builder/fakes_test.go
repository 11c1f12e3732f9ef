package builder

import (
	"context"

	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/internal/vtex"
	pkgerrors "github.com/jafarshop/ttsbridge/pkg/errors"
)

type fakeMappings struct {
	bySku     map[string]*domain.ProductMapping
	byProduct map[string][]*domain.ProductMapping
	created   []*domain.ProductMapping
}

func newFakeMappings() *fakeMappings {
	return &fakeMappings{
		bySku:     make(map[string]*domain.ProductMapping),
		byProduct: make(map[string][]*domain.ProductMapping),
	}
}

func (f *fakeMappings) add(vtexSku, ttsSku, ttsProduct string) {
	m := &domain.ProductMapping{VTEXSkuID: vtexSku, TTSSkuID: ttsSku, TTSProductID: ttsProduct, Status: domain.ProductMappingStatusActive}
	if ttsSku != "" {
		f.bySku[ttsSku] = m
	}
	if ttsProduct != "" {
		f.byProduct[ttsProduct] = append(f.byProduct[ttsProduct], m)
	}
}

func (f *fakeMappings) GetByTTSSkuID(ctx context.Context, shopID, ttsSkuID string) (*domain.ProductMapping, error) {
	if m, ok := f.bySku[ttsSkuID]; ok {
		return m, nil
	}
	return nil, &pkgerrors.ErrNotFound{Resource: "product mapping", ID: ttsSkuID}
}

func (f *fakeMappings) ListByTTSProductID(ctx context.Context, shopID, ttsProductID string) ([]*domain.ProductMapping, error) {
	return f.byProduct[ttsProductID], nil
}

func (f *fakeMappings) CreateAutoMapped(ctx context.Context, mapping *domain.ProductMapping) error {
	mapping.Status = domain.ProductMappingStatusAutoMapped
	f.created = append(f.created, mapping)
	return nil
}

type fakeSimulator struct {
	resp     *vtex.SimulationResponse
	err      error
	requests []vtex.SimulationRequest
}

func (f *fakeSimulator) Simulate(ctx context.Context, shop *domain.Shop, req vtex.SimulationRequest) (*vtex.SimulationResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

// standardSimulation prices every requested SKU at price with one free STANDARD delivery SLA
func standardSimulation(price int64, skus ...string) *vtex.SimulationResponse {
	resp := &vtex.SimulationResponse{}
	for i, sku := range skus {
		resp.Items = append(resp.Items, vtex.SimulatedItem{ID: sku, RequestIndex: i, Quantity: 1, Seller: "1", Price: price})
		resp.LogisticsInfo = append(resp.LogisticsInfo, vtex.LogisticsInfo{
			ItemIndex: i,
			SLAs: []vtex.SLA{{ID: "STANDARD", Name: "STANDARD", DeliveryChannel: "delivery", Price: 0, ShippingEstimate: "5bd"}},
		})
	}
	return resp
}

func testShop() *domain.Shop {
	name := "TikTok Pay"
	return &domain.Shop{
		ID:                "shop-1",
		SalesChannel:      "1",
		AffiliateID:       "TTS",
		SellerID:          "1",
		PaymentSystemID:   "201",
		PaymentSystemName: &name,
		WebhookToken:      "tok-123",
		IsActive:          true,
	}
}

func testOrder() map[string]any {
	return map[string]any{
		"id":          "order-001",
		"status":      "AWAITING_SHIPMENT",
		"buyer_email": "buyer@example.com",
		"shipping_address": map[string]any{
			"name":          "Maria da Silva",
			"phone_number":  "(11) 98765-4321",
			"postal_code":   "01001-000",
			"address_line1": "Praca da Se",
			"number":        "100",
			"city":          "Sao Paulo",
			"state":         "SP",
			"region_code":   "BR",
		},
		"line_items": []any{
			map[string]any{"sku_id": "sku-001", "product_id": "prod-1", "sale_price": "10.00"},
		},
	}
}
