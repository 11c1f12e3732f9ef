package tiktok

import (
	"encoding/json"
	"strconv"
	"strings"
)

// OrderDetail is a TikTok order as decoded from the API. Numbers are json.Number.
type OrderDetail map[string]any

// Order statuses that are never imported
var cancelledStatuses = map[string]bool{
	"CANCELLED":        true,
	"CANCEL":           true,
	"CANCEL_REQUESTED": true,
	"IN_CANCEL":        true,
}

func (o OrderDetail) ID() string {
	return String(o["id"])
}

func (o OrderDetail) Status() string {
	return String(o["status"])
}

// IsCancelled reports a terminal cancelled or cancel-requested status
func (o OrderDetail) IsCancelled() bool {
	return cancelledStatuses[strings.ToUpper(o.Status())]
}

// LineItems returns the line_items array, skipping malformed entries
func (o OrderDetail) LineItems() []map[string]any {
	return Objects(o["line_items"])
}

// PackageID returns the first package id, falling back to the line items
func (o OrderDetail) PackageID() string {
	for _, p := range Objects(o["packages"]) {
		if id := String(p["id"]); id != "" {
			return id
		}
	}
	for _, li := range o.LineItems() {
		if id := String(li["package_id"]); id != "" {
			return id
		}
	}
	return ""
}

// Tracking returns the first tracking number found on the order or its lines
func (o OrderDetail) Tracking() Tracking {
	t := Tracking{
		TrackingNumber: String(o["tracking_number"]),
		Provider:       String(o["shipping_provider"]),
	}
	for _, li := range o.LineItems() {
		if t.TrackingNumber == "" {
			t.TrackingNumber = String(li["tracking_number"])
		}
		if t.Provider == "" {
			t.Provider = String(li["shipping_provider_name"])
		}
	}
	return t
}

// ShippingDocument is the label of one package
type ShippingDocument struct {
	OrderID   string         `json:"order_id"`
	PackageID string         `json:"package_id"`
	LabelURL  string         `json:"label_url"`
	Document  map[string]any `json:"document"`
}

type Tracking struct {
	TrackingNumber string
	Provider       string
}

// Webhook is the envelope TikTok pushes for order events
type Webhook struct {
	Type      json.Number `json:"type"`
	ShopID    string      `json:"shop_id"`
	Timestamp int64       `json:"timestamp"`
	Data      struct {
		OrderID     string `json:"order_id"`
		OrderStatus string `json:"order_status"`
		UpdateTime  int64  `json:"update_time"`
	} `json:"data"`
}

// String renders scalar JSON values as a trimmed string
func String(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Objects returns the object elements of a JSON array value
func Objects(v any) []map[string]any {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(arr))
	for _, e := range arr {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
