package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Shop represents a tenant: one TikTok shop linked to one VTEX account
type Shop struct {
	ID                          string
	Name                        string
	VTEXAccount                 string
	VTEXEnvironment             string
	VTEXAppKey                  string
	VTEXAppToken                string
	SalesChannel                string
	AffiliateID                 string
	SellerID                    string
	PaymentSystemID             string
	PaymentSystemName           *string
	PaymentGroup                *string
	PaymentMerchant             *string
	WebhookToken                string
	MarketplaceServicesEndpoint *string
	PreferredSLAID              *string
	DeferLabelUntilInvoice      bool
	TikTokAccessToken           string
	TikTokShopCipher            string
	IsActive                    bool
	CreatedAt                   time.Time
	UpdatedAt                   time.Time
}

// ServicesEndpoint returns the marketplace services endpoint VTEX calls back,
// derived from the public base URL and webhook token when not configured
func (s *Shop) ServicesEndpoint(publicBaseURL string) string {
	if s.MarketplaceServicesEndpoint != nil && *s.MarketplaceServicesEndpoint != "" {
		return *s.MarketplaceServicesEndpoint
	}
	return strings.TrimSuffix(publicBaseURL, "/") + "/webhooks/vtex/" + s.WebhookToken
}

// OrderMapping correlates a TikTok order to the VTEX order created from it
type OrderMapping struct {
	TTSOrderID  string
	VTEXOrderID *string
	ShopID      string
	Status      MappingStatus
	LastError   *string
	LabelURL    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasLabel reports whether a shipping label was already stored for the order
func (m *OrderMapping) HasLabel() bool {
	return m.LabelURL != nil && *m.LabelURL != ""
}

// IdempotencyRecord marks a business event as successfully processed
type IdempotencyRecord struct {
	Key         string
	PayloadHash string
	ProcessedAt time.Time
}

// ProductMapping maps a VTEX SKU to a TikTok product/SKU
type ProductMapping struct {
	VTEXSkuID    string
	ShopID       string
	TTSProductID string
	TTSSkuID     string
	Status       ProductMappingStatus
	LastError    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OrderEvent represents an audit event for an order mapping
type OrderEvent struct {
	ID         uuid.UUID
	TTSOrderID string
	EventType  string
	EventData  map[string]interface{} // JSONB
	CreatedAt  time.Time
}
