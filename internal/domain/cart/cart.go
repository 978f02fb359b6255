// Package cart implements the per-user cart aggregate: line items plus an
// optional applied coupon.
package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for cart operations.
var (
	// ErrNotFound is returned when the user has no cart document.
	ErrNotFound = errors.New("cart not found")
	// ErrEmpty is returned when the cart is absent or has no line items.
	ErrEmpty = errors.New("cart is empty")
	// ErrProductNotInCart is returned when an update or remove targets a
	// product that is not a current line item.
	ErrProductNotInCart = errors.New("product not in cart")
	// ErrInvalidQuantity is returned when adding with a quantity below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrNegativeQuantity is returned when updating to a negative quantity.
	ErrNegativeQuantity = errors.New("quantity cannot be negative")
)

// LineItem is one product reference with a quantity inside a cart.
// Quantity is always >= 1 in stored state; a zero-quantity update removes
// the line instead.
type LineItem struct {
	ProductID string
	Quantity  int
}

// Cart is the stored per-user cart state. One cart per user, keyed by
// email. Items keep insertion order and hold no duplicate product IDs.
type Cart struct {
	UserEmail     string
	Items         []LineItem
	AppliedCoupon string
}

// ViewItem is a stored line enriched with current catalog data.
type ViewItem struct {
	ProductID   string
	Name        string
	Price       decimal.Decimal
	Image       string
	Description string
	Quantity    int
	Subtotal    decimal.Decimal
}

// View is the enriched cart presented to the client. Lines whose product no
// longer resolves in the catalog are dropped from the view, not from stored
// state.
type View struct {
	Items         []ViewItem
	Coupon        string
	DiscountTotal decimal.Decimal
	FinalTotal    decimal.Decimal
}

// Repository defines cart persistence.
//
// Item mutations are read-modify-write: the service reads the full cart,
// mutates the in-memory item list, and ReplaceItems writes the whole list
// back as one atomic document update. Two concurrent mutations for the same
// user can race and the later write wins, losing the earlier one. This
// last-writer-wins behaviour is deliberate; there is no optimistic
// concurrency token.
type Repository interface {
	// Get returns the cart for the user, or ErrNotFound.
	Get(ctx context.Context, userEmail string) (*Cart, error)
	// Create inserts a new cart document.
	Create(ctx context.Context, c *Cart) error
	// ReplaceItems overwrites the stored item list in a single write.
	ReplaceItems(ctx context.Context, userEmail string, items []LineItem) error
	// SetCoupon stores code as the applied coupon. Matching no document is
	// not an error; applying a coupon to an absent cart is a silent no-op.
	SetCoupon(ctx context.Context, userEmail, code string) error
	// Delete removes the cart document entirely, including any applied
	// coupon. Deleting an absent cart is not an error.
	Delete(ctx context.Context, userEmail string) error
}
