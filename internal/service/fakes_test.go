package service

import (
	"context"
	"sync"

	"github.com/jafarshop/ttsbridge/internal/builder"
	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/internal/repository"
	"github.com/jafarshop/ttsbridge/internal/tiktok"
	"github.com/jafarshop/ttsbridge/internal/vtex"
	apperrors "github.com/jafarshop/ttsbridge/pkg/errors"
)

type memIdempotency struct {
	mu      sync.Mutex
	records map[string]*domain.IdempotencyRecord
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{records: make(map[string]*domain.IdempotencyRecord)}
}

func (m *memIdempotency) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[key]
	return ok, nil
}

func (m *memIdempotency) Create(ctx context.Context, record *domain.IdempotencyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[record.Key]; ok {
		return repository.ErrDuplicate
	}
	m.records[record.Key] = record
	return nil
}

type memMappings struct {
	mu    sync.Mutex
	byTTS map[string]*domain.OrderMapping
}

func newMemMappings() *memMappings {
	return &memMappings{byTTS: make(map[string]*domain.OrderMapping)}
}

func (m *memMappings) get(id string) *domain.OrderMapping {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mapping, ok := m.byTTS[id]; ok {
		cp := *mapping
		return &cp
	}
	return nil
}

func (m *memMappings) GetByTTSOrderID(ctx context.Context, ttsOrderID string) (*domain.OrderMapping, error) {
	if mapping := m.get(ttsOrderID); mapping != nil {
		return mapping, nil
	}
	return nil, &apperrors.ErrNotFound{Resource: "order_mapping", ID: ttsOrderID}
}

func (m *memMappings) GetByVTEXOrderID(ctx context.Context, shopID, vtexOrderID string) (*domain.OrderMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mapping := range m.byTTS {
		if mapping.ShopID == shopID && mapping.VTEXOrderID != nil && *mapping.VTEXOrderID == vtexOrderID {
			cp := *mapping
			return &cp, nil
		}
	}
	return nil, &apperrors.ErrNotFound{Resource: "order_mapping", ID: vtexOrderID}
}

func (m *memMappings) Upsert(ctx context.Context, mapping *domain.OrderMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *mapping
	if existing, ok := m.byTTS[mapping.TTSOrderID]; ok {
		if cp.VTEXOrderID == nil {
			cp.VTEXOrderID = existing.VTEXOrderID
		}
		cp.LabelURL = existing.LabelURL
	}
	m.byTTS[mapping.TTSOrderID] = &cp
	return nil
}

func (m *memMappings) UpdateStatus(ctx context.Context, ttsOrderID string, status domain.MappingStatus, lastError *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mapping, ok := m.byTTS[ttsOrderID]
	if !ok {
		return &apperrors.ErrNotFound{Resource: "order_mapping", ID: ttsOrderID}
	}
	mapping.Status = status
	mapping.LastError = lastError
	return nil
}

func (m *memMappings) UpdateLabelURL(ctx context.Context, ttsOrderID, labelURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mapping, ok := m.byTTS[ttsOrderID]
	if !ok {
		return &apperrors.ErrNotFound{Resource: "order_mapping", ID: ttsOrderID}
	}
	mapping.LabelURL = &labelURL
	return nil
}

type memEvents struct {
	mu     sync.Mutex
	events []*domain.OrderEvent
}

func (m *memEvents) Create(ctx context.Context, event *domain.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memEvents) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.EventType)
	}
	return out
}

type memProductMappings struct {
	bySku map[string]*domain.ProductMapping
}

func (m *memProductMappings) GetByTTSSkuID(ctx context.Context, shopID, ttsSkuID string) (*domain.ProductMapping, error) {
	if mapping, ok := m.bySku[ttsSkuID]; ok {
		return mapping, nil
	}
	return nil, &apperrors.ErrNotFound{Resource: "product mapping", ID: ttsSkuID}
}

func (m *memProductMappings) ListByTTSProductID(ctx context.Context, shopID, ttsProductID string) ([]*domain.ProductMapping, error) {
	var out []*domain.ProductMapping
	for _, mapping := range m.bySku {
		if mapping.TTSProductID == ttsProductID {
			out = append(out, mapping)
		}
	}
	return out, nil
}

func (m *memProductMappings) CreateAutoMapped(ctx context.Context, mapping *domain.ProductMapping) error {
	return nil
}

type stubSimulator struct {
	resp *vtex.SimulationResponse
}

func (s *stubSimulator) Simulate(ctx context.Context, shop *domain.Shop, req vtex.SimulationRequest) (*vtex.SimulationResponse, error) {
	return s.resp, nil
}

type fakeShops struct {
	shop *domain.Shop
	err  error
}

func (f *fakeShops) Resolve(ctx context.Context, shopID string) (*domain.Shop, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.shop, nil
}

func (f *fakeShops) ResolveByWebhookToken(ctx context.Context, token string) (*domain.Shop, error) {
	if f.err != nil {
		return nil, f.err
	}
	if token != f.shop.WebhookToken {
		return nil, &apperrors.ErrNotFound{Resource: "shop", ID: token}
	}
	return f.shop, nil
}

type fakeOrders struct {
	orders map[string]tiktok.OrderDetail
	calls  int
}

func (f *fakeOrders) GetOrderDetail(ctx context.Context, shop *domain.Shop, orderID string) (tiktok.OrderDetail, error) {
	f.calls++
	if o, ok := f.orders[orderID]; ok {
		return o, nil
	}
	return nil, &apperrors.ErrNotFound{Resource: "tiktok order", ID: orderID}
}

type fakeBuilder struct {
	result    *builder.Result
	err       error
	modes     []domain.PricingMode
	diagnosed int
}

func (f *fakeBuilder) Build(ctx context.Context, shop *domain.Shop, order tiktok.OrderDetail, mode domain.PricingMode) (*builder.Result, error) {
	f.modes = append(f.modes, mode)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeBuilder) Diagnose(ctx context.Context, shop *domain.Shop, order tiktok.OrderDetail) (map[string][]string, error) {
	f.diagnosed++
	return map[string][]string{"sku-001": nil}, nil
}

type fakePlatform struct {
	mu         sync.Mutex
	createErrs []error
	created    []*vtex.OrderPayload
	authorized []string
	invoices   []vtex.Invoice
	order      *vtex.Order
	getErr     error
	getCalls   int
}

func (f *fakePlatform) CreateOrder(ctx context.Context, shop *domain.Shop, payload *vtex.OrderPayload) (*vtex.CreatedOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := len(f.created)
	f.created = append(f.created, payload)
	if idx < len(f.createErrs) && f.createErrs[idx] != nil {
		return nil, f.createErrs[idx]
	}
	return &vtex.CreatedOrder{OrderID: "vtex-001", MarketplaceOrderID: payload.MarketplaceOrderID}, nil
}

func (f *fakePlatform) AuthorizeDispatch(ctx context.Context, shop *domain.Shop, orderID, marketplaceOrderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authorized = append(f.authorized, orderID)
	return nil
}

func (f *fakePlatform) SendInvoice(ctx context.Context, shop *domain.Shop, orderID string, invoice vtex.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoices = append(f.invoices, invoice)
	return nil
}

func (f *fakePlatform) GetOrder(ctx context.Context, shop *domain.Shop, orderID string) (*vtex.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.order, nil
}

type fakeLogistics struct {
	doc         *tiktok.ShippingDocument
	err         error
	tracking    *tiktok.Tracking
	createCalls int
	getCalls    int
}

func (f *fakeLogistics) GetOrCreateShippingDocument(ctx context.Context, shop *domain.Shop, orderID string) (*tiktok.ShippingDocument, error) {
	f.createCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

func (f *fakeLogistics) GetShippingDocument(ctx context.Context, shop *domain.Shop, orderID string) (*tiktok.ShippingDocument, error) {
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

func (f *fakeLogistics) GetTracking(ctx context.Context, shop *domain.Shop, orderID string) (*tiktok.Tracking, error) {
	if f.tracking == nil {
		return &tiktok.Tracking{}, nil
	}
	return f.tracking, nil
}

type labelCall struct {
	shopID     string
	orderID    string
	orderValue *int64
	invoice    *InvoiceMeta
}

type fakeLabels struct {
	calls []labelCall
	err   error
}

func (f *fakeLabels) GenerateLabel(ctx context.Context, shopID, orderID string, orderValue *int64, invoice *InvoiceMeta) (*LabelResult, error) {
	f.calls = append(f.calls, labelCall{shopID: shopID, orderID: orderID, orderValue: orderValue, invoice: invoice})
	if f.err != nil {
		return nil, f.err
	}
	return &LabelResult{OrderID: orderID, LabelURL: "https://labels.example.com/" + orderID}, nil
}

// inlineDispatcher runs tasks synchronously
type inlineDispatcher struct {
	errs []error
}

func (d *inlineDispatcher) Submit(name string, task Task) error {
	if err := task(context.Background()); err != nil {
		d.errs = append(d.errs, err)
	}
	return nil
}

func testShop() *domain.Shop {
	return &domain.Shop{
		ID:              "shop-1",
		VTEXAccount:     "store",
		SalesChannel:    "1",
		AffiliateID:     "TTS",
		SellerID:        "1",
		PaymentSystemID: "201",
		WebhookToken:    "tok-123",
		IsActive:        true,
	}
}

func testOrder() tiktok.OrderDetail {
	return tiktok.OrderDetail{
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

func standardSimulation() *vtex.SimulationResponse {
	return &vtex.SimulationResponse{
		Items: []vtex.SimulatedItem{{ID: "sku-001", RequestIndex: 0, Quantity: 1, Seller: "1", Price: 1000}},
		LogisticsInfo: []vtex.LogisticsInfo{{
			ItemIndex: 0,
			SLAs:      []vtex.SLA{{ID: "STANDARD", Name: "STANDARD", DeliveryChannel: "delivery", ShippingEstimate: "5bd"}},
		}},
	}
}

func testResult() *builder.Result {
	return &builder.Result{
		Payload:    &vtex.OrderPayload{MarketplaceOrderID: "order-001"},
		PostalCode: "01001000",
		Total:      1000,
	}
}

func orderWebhook(orderID string) []byte {
	return []byte(`{"type":1,"shop_id":"shop-1","timestamp":1700000000,"data":{"order_id":"` + orderID + `","order_status":"AWAITING_SHIPMENT","update_time":1700000000}}`)
}

func strPtr(s string) *string {
	return &s
}
