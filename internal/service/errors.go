package service

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecondition marks deliveries that cannot be processed yet with the data at hand.
	// The ledger is not written, so a redelivery runs again.
	ErrPrecondition = errors.New("precondition not met")
	// ErrShopInactive is returned when the tenant shop is disabled
	ErrShopInactive = errors.New("shop is inactive")
	// ErrInvalidPayload is returned for webhook bodies that cannot be decoded
	ErrInvalidPayload = errors.New("invalid webhook payload")
	// ErrQueueFull is returned when the dispatcher cannot take more tasks
	ErrQueueFull = errors.New("dispatch queue is full")
	// ErrDispatcherClosed is returned for tasks submitted after shutdown started
	ErrDispatcherClosed = errors.New("dispatcher is closed")
)

// UnprocessableError means VTEX cannot fulfil the order as is. The mapping already holds the reason.
type UnprocessableError struct {
	OrderID string
	Reason  string
}

func (e *UnprocessableError) Error() string {
	return fmt.Sprintf("order %s is unprocessable: %s", e.OrderID, e.Reason)
}

func precondition(err error) error {
	return fmt.Errorf("%w: %w", ErrPrecondition, err)
}
