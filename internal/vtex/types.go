package vtex

// SimulationItem is one basket line sent to the checkout simulation
type SimulationItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	Seller   string `json:"seller"`
}

type SimulationRequest struct {
	Items      []SimulationItem `json:"items"`
	PostalCode string           `json:"postalCode"`
	Country    string           `json:"country"`
}

type SimulationResponse struct {
	Items              []SimulatedItem     `json:"items"`
	LogisticsInfo      []LogisticsInfo     `json:"logisticsInfo"`
	PurchaseConditions *PurchaseConditions `json:"purchaseConditions,omitempty"`
	PostalCode         string              `json:"postalCode"`
	Country            string              `json:"country"`
}

// SimulatedItem carries the authoritative price of a basket line, in cents
type SimulatedItem struct {
	ID           string     `json:"id"`
	RequestIndex int        `json:"requestIndex"`
	Quantity     int        `json:"quantity"`
	Seller       string     `json:"seller"`
	Price        int64      `json:"price"`
	ListPrice    int64      `json:"listPrice"`
	SellingPrice int64      `json:"sellingPrice"`
	PriceTags    []PriceTag `json:"priceTags"`
}

type PriceTag struct {
	Name       string  `json:"name"`
	Value      int64   `json:"value"`
	RawValue   float64 `json:"rawValue"`
	IsPercent  bool    `json:"isPercentual"`
	Identifier string  `json:"identifier,omitempty"`
}

type LogisticsInfo struct {
	ItemIndex int      `json:"itemIndex"`
	SLAs      []SLA    `json:"slas"`
	ShipsTo   []string `json:"shipsTo"`
}

// SLA is a shipping service level offered for one item
type SLA struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	DeliveryChannel  string `json:"deliveryChannel"`
	Price            int64  `json:"price"`
	ShippingEstimate string `json:"shippingEstimate"`
	LockTTL          string `json:"lockTTL,omitempty"`
}

type PurchaseConditions struct {
	ItemPurchaseConditions []ItemPurchaseCondition `json:"itemPurchaseConditions"`
}

type ItemPurchaseCondition struct {
	ID          string   `json:"id"`
	Seller      string   `json:"seller"`
	SellerChain []string `json:"sellerChain"`
	SLAs        []SLA    `json:"slas"`
	Price       int64    `json:"price"`
	ListPrice   int64    `json:"listPrice"`
}

// OrderPayload is the marketplace order placed through the fulfillment API
type OrderPayload struct {
	MarketplaceOrderID          string        `json:"marketplaceOrderId"`
	MarketplaceServicesEndpoint string        `json:"marketplaceServicesEndpoint"`
	MarketplacePaymentValue     int64         `json:"marketplacePaymentValue"`
	Items                       []OrderItem   `json:"items"`
	ClientProfileData           ClientProfile `json:"clientProfileData"`
	ShippingData                ShippingData  `json:"shippingData"`
	PaymentData                 PaymentData   `json:"paymentData"`
}

type OrderItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	Seller   string `json:"seller"`
	Price    int64  `json:"price"`
}

type ClientProfile struct {
	Email             string `json:"email"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	DocumentType      string `json:"documentType"`
	Document          string `json:"document"`
	Phone             string `json:"phone"`
	IsCorporate       bool   `json:"isCorporate"`
	CorporateName     string `json:"corporateName,omitempty"`
	CorporateDocument string `json:"corporateDocument,omitempty"`
}

type ShippingData struct {
	Address       Address              `json:"address"`
	LogisticsInfo []LogisticsSelection `json:"logisticsInfo"`
}

type Address struct {
	AddressType  string `json:"addressType"`
	ReceiverName string `json:"receiverName"`
	PostalCode   string `json:"postalCode"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	Complement   string `json:"complement"`
}

// LogisticsSelection is the SLA chosen for one order item
type LogisticsSelection struct {
	ItemIndex        int    `json:"itemIndex"`
	SelectedSLA      string `json:"selectedSla"`
	Price            int64  `json:"price"`
	ShippingEstimate string `json:"shippingEstimate"`
	LockTTL          string `json:"lockTTL"`
	DeliveryChannel  string `json:"deliveryChannel"`
}

type PaymentData struct {
	Payments []Payment `json:"payments"`
}

type Payment struct {
	PaymentSystem     string `json:"paymentSystem"`
	PaymentSystemName string `json:"paymentSystemName,omitempty"`
	Group             string `json:"group,omitempty"`
	Merchant          string `json:"merchantName,omitempty"`
	Installments      int    `json:"installments"`
	Value             int64  `json:"value"`
	ReferenceValue    int64  `json:"referenceValue"`
}

// CreatedOrder is one entry of the fulfillment API response
type CreatedOrder struct {
	OrderID            string `json:"orderId"`
	MarketplaceOrderID string `json:"marketplaceOrderId"`
}

// Invoice is the invoice/tracking notification sent to OMS
type Invoice struct {
	Type           string        `json:"type"`
	InvoiceNumber  string        `json:"invoiceNumber"`
	InvoiceKey     string        `json:"invoiceKey,omitempty"`
	InvoiceValue   int64         `json:"invoiceValue"`
	IssuanceDate   string        `json:"issuanceDate"`
	TrackingNumber string        `json:"trackingNumber,omitempty"`
	TrackingURL    string        `json:"trackingUrl,omitempty"`
	Courier        string        `json:"courier,omitempty"`
	Items          []InvoiceItem `json:"items,omitempty"`
}

type InvoiceItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// Order is the subset of the OMS order read by the notification flow
type Order struct {
	OrderID            string            `json:"orderId"`
	MarketplaceOrderID string            `json:"marketplaceOrderId"`
	Status             string            `json:"status"`
	Value              int64             `json:"value"`
	Totals             []Total           `json:"totals"`
	Items              []InvoiceItem     `json:"items"`
	PackageAttachment  PackageAttachment `json:"packageAttachment"`
}

type Total struct {
	ID    string `json:"id"`
	Value int64  `json:"value"`
}

type PackageAttachment struct {
	Packages []Package `json:"packages"`
}

// Package is an invoice registered on the order
type Package struct {
	InvoiceNumber  string `json:"invoiceNumber"`
	InvoiceKey     string `json:"invoiceKey"`
	InvoiceValue   int64  `json:"invoiceValue"`
	IssuanceDate   string `json:"issuanceDate"`
	TrackingNumber string `json:"trackingNumber"`
	Courier        string `json:"courier"`
	Type           string `json:"type"`
}

// LatestInvoice returns the last output invoice attached to the order, or nil
func (o *Order) LatestInvoice() *Package {
	for i := len(o.PackageAttachment.Packages) - 1; i >= 0; i-- {
		p := o.PackageAttachment.Packages[i]
		if p.Type != "" && p.Type != "Output" {
			continue
		}
		if p.InvoiceNumber != "" || p.InvoiceKey != "" {
			return &p
		}
	}
	return nil
}

// TotalValue returns the order value, falling back to the sum of totals
func (o *Order) TotalValue() int64 {
	if o.Value > 0 {
		return o.Value
	}
	var sum int64
	for _, t := range o.Totals {
		sum += t.Value
	}
	return sum
}
