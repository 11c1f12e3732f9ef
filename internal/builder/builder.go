package builder

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jafarshop/ttsbridge/internal/domain"
	"github.com/jafarshop/ttsbridge/internal/repository"
	"github.com/jafarshop/ttsbridge/internal/tiktok"
	"github.com/jafarshop/ttsbridge/internal/vtex"
)

// Simulator prices a basket and lists shipping options
type Simulator interface {
	Simulate(ctx context.Context, shop *domain.Shop, req vtex.SimulationRequest) (*vtex.SimulationResponse, error)
}

type Options struct {
	DefaultPostalCode      string
	DefaultPhone           string
	AllowSyntheticDocument bool
	PublicBaseURL          string
}

// Builder turns a TikTok order into a VTEX marketplace order payload
type Builder struct {
	mappings  repository.ProductMappingRepository
	simulator Simulator
	opts      Options
	logger    *zap.Logger
}

// Result is a submittable payload plus what was decided while building it
type Result struct {
	Payload             *vtex.OrderPayload
	Lines               []Line
	PostalCode          string
	PostalCodeDefaulted bool
	AddressSource       string
	Document            Document
	ShippingTotal       int64
	Total               int64
}

// NewBuilder creates a new order payload builder
func NewBuilder(mappings repository.ProductMappingRepository, simulator Simulator, opts Options, logger *zap.Logger) *Builder {
	return &Builder{
		mappings:  mappings,
		simulator: simulator,
		opts:      opts,
		logger:    logger,
	}
}

// Build maps, simulates and prices the order under the given pricing mode
func (b *Builder) Build(ctx context.Context, shop *domain.Shop, order tiktok.OrderDetail, mode domain.PricingMode) (*Result, error) {
	orderID := order.ID()

	// Map line items
	lines, err := b.MapLineItems(ctx, shop, order)
	if err != nil {
		return nil, fmt.Errorf("failed to map line items: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyBasket
	}

	// Resolve destination
	addr, _ := ResolveAddress(order)
	postalCode, ok := ExtractPostalCode(addr.Fields, order)
	defaulted := false
	if !ok {
		postalCode = b.opts.DefaultPostalCode
		defaulted = true
		b.logger.Warn("Using default postal code for order payload",
			zap.String("order_id", orderID),
			zap.String("address_source", addr.Source),
		)
	}
	country := NormalizeCountry(firstString(countryAliases, addr.Fields, order))

	// Resolve buyer document
	doc, ok := ResolveDocument(order, addr.Fields)
	if !ok {
		if !b.opts.AllowSyntheticDocument {
			return nil, ErrInvalidDocument
		}
		email := firstString(emailAliases, order, object(order, "buyer"))
		doc = Document{Type: "cpf", Value: SyntheticCPF(email + orderID), Synthetic: true}
		b.logger.Warn("No valid CPF/CNPJ on order, using synthetic CPF", zap.String("order_id", orderID))
	}

	// Simulate basket
	items := make([]vtex.SimulationItem, len(lines))
	for i, l := range lines {
		items[i] = vtex.SimulationItem{ID: l.VTEXSkuID, Quantity: l.Quantity, Seller: seller(shop)}
	}
	sim, err := b.simulator.Simulate(ctx, shop, vtex.SimulationRequest{
		Items:      items,
		PostalCode: postalCode,
		Country:    country,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to simulate order: %w", err)
	}

	preferred := ""
	if shop.PreferredSLAID != nil {
		preferred = *shop.PreferredSLAID
	}
	selections, shippingTotal, err := selectShipping(items, sim, preferred, postalCode)
	if err != nil {
		return nil, err
	}

	// Price lines
	orderItems := make([]vtex.OrderItem, len(lines))
	var total int64
	for i, l := range lines {
		price := l.UnitPrice
		if simItem, ok := simulatedItem(sim, i, l.VTEXSkuID); ok {
			price = UnitPrice(simItem, mode)
		} else {
			b.logger.Warn("Simulation returned no price for SKU, using TikTok price",
				zap.String("order_id", orderID),
				zap.String("vtex_sku_id", l.VTEXSkuID),
			)
		}
		orderItems[i] = vtex.OrderItem{
			ID:       l.VTEXSkuID,
			Quantity: l.Quantity,
			Seller:   seller(shop),
			Price:    price,
		}
		total += price * int64(l.Quantity)
	}
	total += shippingTotal

	receiver := firstString(nameAliases, addr.Fields, object(order, "buyer"))
	if receiver == "" {
		receiver = firstString([]string{"buyer_name", "recipient_name"}, order)
	}
	profile := b.clientProfile(order, addr.Fields, receiver, doc)
	receiverName := strings.Join(strings.Fields(receiver), " ")
	if receiverName == "" {
		receiverName = profile.FirstName + " " + profile.LastName
	}

	payload := &vtex.OrderPayload{
		MarketplaceOrderID:          orderID,
		MarketplaceServicesEndpoint: shop.ServicesEndpoint(b.opts.PublicBaseURL),
		MarketplacePaymentValue:     total,
		Items:                       orderItems,
		ClientProfileData:           profile,
		ShippingData: vtex.ShippingData{
			Address:       buildAddress(addr, order, postalCode, receiverName),
			LogisticsInfo: selections,
		},
		PaymentData: vtex.PaymentData{
			Payments: []vtex.Payment{payment(shop, total)},
		},
	}

	return &Result{
		Payload:             payload,
		Lines:               lines,
		PostalCode:          postalCode,
		PostalCodeDefaulted: defaulted,
		AddressSource:       addr.Source,
		Document:            doc,
		ShippingTotal:       shippingTotal,
		Total:               total,
	}, nil
}

// Diagnose re-runs the simulation for an order and reports SLA availability per SKU
func (b *Builder) Diagnose(ctx context.Context, shop *domain.Shop, order tiktok.OrderDetail) (map[string][]string, error) {
	lines, err := b.MapLineItems(ctx, shop, order)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyBasket
	}

	addr, _ := ResolveAddress(order)
	postalCode, ok := ExtractPostalCode(addr.Fields, order)
	if !ok {
		postalCode = b.opts.DefaultPostalCode
	}

	items := make([]vtex.SimulationItem, len(lines))
	for i, l := range lines {
		items[i] = vtex.SimulationItem{ID: l.VTEXSkuID, Quantity: l.Quantity, Seller: seller(shop)}
	}
	sim, err := b.simulator.Simulate(ctx, shop, vtex.SimulationRequest{
		Items:      items,
		PostalCode: postalCode,
		Country:    NormalizeCountry(firstString(countryAliases, addr.Fields, order)),
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(items))
	for _, li := range sim.LogisticsInfo {
		if li.ItemIndex < 0 || li.ItemIndex >= len(items) {
			continue
		}
		sku := items[li.ItemIndex].ID
		for _, s := range DeliverySLAs(li.SLAs) {
			out[sku] = append(out[sku], s.ID)
		}
	}
	for _, it := range items {
		if _, ok := out[it.ID]; !ok {
			out[it.ID] = nil
		}
	}
	return out, nil
}

func (b *Builder) clientProfile(order map[string]any, addr map[string]any, name string, doc Document) vtex.ClientProfile {
	first, last := splitName(name)

	email := firstString(emailAliases, order, object(order, "buyer"))
	if email == "" {
		email = fmt.Sprintf("tts-%s@marketplace.invalid", tiktok.String(order["id"]))
	}

	profile := vtex.ClientProfile{
		Email:        email,
		FirstName:    first,
		LastName:     last,
		DocumentType: doc.Type,
		Document:     doc.Value,
		Phone:        normalizePhone(firstString(phoneAliases, addr, order, object(order, "buyer")), b.opts.DefaultPhone),
	}
	if doc.IsCorporate() {
		profile.IsCorporate = true
		profile.CorporateName = strings.TrimSpace(first + " " + last)
		profile.CorporateDocument = doc.Value
	}
	return profile
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "Cliente", "TikTok"
	case 1:
		return parts[0], parts[0]
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// normalizePhone returns +55 followed by a 10 or 11 digit national number
func normalizePhone(raw, fallback string) string {
	d := onlyDigits(raw)
	if strings.HasPrefix(d, "55") && (len(d) == 12 || len(d) == 13) {
		d = d[2:]
	}
	if len(d) != 10 && len(d) != 11 {
		d = onlyDigits(fallback)
	}
	return "+55" + d
}

func seller(shop *domain.Shop) string {
	if shop.SellerID == "" {
		return "1"
	}
	return shop.SellerID
}

func payment(shop *domain.Shop, total int64) vtex.Payment {
	p := vtex.Payment{
		PaymentSystem:  shop.PaymentSystemID,
		Installments:   1,
		Value:          total,
		ReferenceValue: total,
	}
	if shop.PaymentSystemName != nil {
		p.PaymentSystemName = *shop.PaymentSystemName
	}
	if shop.PaymentGroup != nil {
		p.Group = *shop.PaymentGroup
	}
	if shop.PaymentMerchant != nil {
		p.Merchant = *shop.PaymentMerchant
	}
	return p
}
