package store

import (
	"fmt"

	"github.com/mjyuu/vocaloidshop/internal/models"
)

// InsufficientStockError names the product whose stock could not cover the
// requested quantity.
type InsufficientStockError struct {
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %s", e.ProductName)
}

// InvalidTransitionError carries the rejected status pair.
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot revert order status to a previous stage (%s -> %s)", e.From, e.To)
}
