package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrProductNotFound   = errors.New("product not found")
	ErrInventoryNotFound = errors.New("inventory not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")

	// ErrInsufficientInventory is the match target for
	// InsufficientInventoryError via errors.Is.
	ErrInsufficientInventory = errors.New("insufficient inventory")
)

// InsufficientInventoryError names the product that could not be fulfilled so
// callers can offer a cart adjustment.
type InsufficientInventoryError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for %s (need %d, have %d)", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientInventoryError) Is(target error) bool {
	return target == ErrInsufficientInventory
}

// PostChargePersistenceError reports the severe partial-failure class: the
// provider captured funds but the local order/inventory commit failed. The
// transaction id is carried so operators can reconcile or refund manually.
type PostChargePersistenceError struct {
	Gateway       string
	TransactionID string
	Err           error
}

func (e *PostChargePersistenceError) Error() string {
	return fmt.Sprintf("payment captured on %s (transaction %s) but order persistence failed: %v", e.Gateway, e.TransactionID, e.Err)
}

func (e *PostChargePersistenceError) Unwrap() error { return e.Err }
