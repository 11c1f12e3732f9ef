package service

// WebhookStatus is the outcome reported to the webhook sender
type WebhookStatus string

const (
	WebhookProcessed WebhookStatus = "processed"
	WebhookSkipped   WebhookStatus = "skipped"
	WebhookIgnored   WebhookStatus = "ignored"
)

type WebhookResult struct {
	Status WebhookStatus `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

// InvoiceMeta is the invoice data forwarded with a label request
type InvoiceMeta struct {
	Number       string `json:"invoice_number"`
	Key          string `json:"invoice_key,omitempty"`
	Value        int64  `json:"invoice_value"`
	IssuanceDate string `json:"issuance_date,omitempty"`
}

// LabelResult carries either a label URL or the raw shipping document
type LabelResult struct {
	OrderID  string         `json:"order_id"`
	LabelURL string         `json:"label_url,omitempty"`
	Document map[string]any `json:"document,omitempty"`
}

// LabelRequest is the optional body of a manual label trigger
type LabelRequest struct {
	OrderValue *int64       `json:"order_value,omitempty"`
	Invoice    *InvoiceMeta `json:"invoice,omitempty"`
}

// NotificationEvent is a VTEX notification reduced to what the label flow needs
type NotificationEvent struct {
	Status      string
	VTEXOrderID string
	TTSOrderID  string
	Invoice     *InvoiceMeta
}
