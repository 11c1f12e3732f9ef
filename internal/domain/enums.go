package domain

// MappingStatus represents the status of an order mapping
type MappingStatus string

const (
	MappingStatusImported        MappingStatus = "imported"
	MappingStatusAwaitingInvoice MappingStatus = "awaiting_invoice"
	MappingStatusInvoiced        MappingStatus = "invoiced"
	MappingStatusError           MappingStatus = "error"
)

// IsValid checks if the mapping status is valid
func (s MappingStatus) IsValid() bool {
	switch s {
	case MappingStatusImported,
		MappingStatusAwaitingInvoice,
		MappingStatusInvoiced,
		MappingStatusError:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a status transition is valid
func (s MappingStatus) CanTransitionTo(newStatus MappingStatus) bool {
	switch s {
	case MappingStatusImported:
		return newStatus == MappingStatusAwaitingInvoice ||
			newStatus == MappingStatusInvoiced ||
			newStatus == MappingStatusError
	case MappingStatusAwaitingInvoice:
		return newStatus == MappingStatusInvoiced ||
			newStatus == MappingStatusError
	case MappingStatusInvoiced:
		return newStatus == MappingStatusError
	case MappingStatusError:
		// A different webhook for the same order may re-import it
		return newStatus == MappingStatusImported ||
			newStatus == MappingStatusAwaitingInvoice ||
			newStatus == MappingStatusInvoiced
	default:
		return false
	}
}

// ProductMappingStatus represents how a product mapping came to exist
type ProductMappingStatus string

const (
	ProductMappingStatusActive     ProductMappingStatus = "active"
	ProductMappingStatusAutoMapped ProductMappingStatus = "auto_mapped"
	ProductMappingStatusError      ProductMappingStatus = "error"
)

// PricingMode selects how a line's final unit price is computed from the simulation
type PricingMode string

const (
	// PricingModeSelling adds price tags to the base price (first attempt)
	PricingModeSelling PricingMode = "selling"
	// PricingModePrice ignores price tags (retry after a pricing rejection)
	PricingModePrice PricingMode = "price"
)

// Order event types
const (
	EventOrderSubmitted = "order_submitted"
	EventStatusChange   = "status_change"
	EventLabelGenerated = "label_generated"
	EventOrderFailed    = "order_failed"
)
