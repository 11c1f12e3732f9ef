package builder

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBasket means no line item could be mapped to a VTEX SKU
	ErrEmptyBasket = errors.New("no order line could be mapped to a VTEX SKU")
	// ErrInvalidPostalCode means no 8-digit postal code was found on the order
	ErrInvalidPostalCode = errors.New("order has no valid postal code")
	// ErrInvalidDocument means no valid CPF/CNPJ was found and synthetic documents are disabled
	ErrInvalidDocument = errors.New("order has no valid CPF/CNPJ")
)

// NoDeliverySLAError means an item has no purchasable delivery SLA for the destination
type NoDeliverySLAError struct {
	SKU        string
	PostalCode string
}

func (e *NoDeliverySLAError) Error() string {
	return fmt.Sprintf("no delivery SLA available for SKU %s to postal code %s", e.SKU, e.PostalCode)
}

// IsPrecondition reports errors caused by incomplete upstream order data
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrEmptyBasket) ||
		errors.Is(err, ErrInvalidPostalCode) ||
		errors.Is(err, ErrInvalidDocument)
}
