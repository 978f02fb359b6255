// Package order implements the checkout engine and the immutable order
// history.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrCartEmpty is returned when checkout finds no cart or an empty one.
var ErrCartEmpty = errors.New("your cart is empty")

// Item is a line item snapshot captured at checkout time. Price and
// subtotal are frozen; later catalog changes do not affect past orders.
type Item struct {
	ProductID string
	Name      string
	Quantity  int
	Price     decimal.Decimal
	Subtotal  decimal.Decimal
}

// Order is an immutable record of a completed checkout. Orders are
// append-only history per user.
type Order struct {
	ID           string
	UserEmail    string
	Items        []Item
	Total        decimal.Decimal
	DiscountCode string
	FinalTotal   decimal.Decimal
	CreatedAt    time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists a new order and fills in its assigned ID.
	Create(ctx context.Context, o *Order) error
	// ListByUser returns all orders for the user, most recent first.
	ListByUser(ctx context.Context, userEmail string) ([]Order, error)
}
