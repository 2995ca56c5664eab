package orders

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyOrder        = errors.New("order has no items")
	ErrNotFound          = errors.New("order not found")
	ErrForbidden         = errors.New("not the order owner")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for product %s", e.Quantity, e.ProductID)
}
