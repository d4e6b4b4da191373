package shop

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidState    = errors.New("invalid order state")
	ErrConflict        = errors.New("concurrent modification, retry")
)

// InsufficientStockError names the first product that could not be reserved.
type InsufficientStockError struct {
	ProductID string
	Required  int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: required %d, available %d",
		e.ProductID, e.Required, e.Available)
}

func IsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var ise *InsufficientStockError
	if errors.As(err, &ise) {
		return ise, true
	}
	return nil, false
}
