// Package product defines the catalog entity and its repository contract.
package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrInvalidID is returned when a product ID is not a valid document
	// identifier and can never resolve.
	ErrInvalidID = errors.New("invalid product ID")
)

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Image       string
	Description string
}

// Validate checks the store-boundary invariants: a product must have a name
// and a non-negative price.
func (p *Product) Validate() error {
	if p.Name == "" {
		return errors.New("product name required")
	}
	if p.Price.IsNegative() {
		return errors.New("product price must not be negative")
	}
	return nil
}

// Repository defines catalog persistence. Reads are all the cart and
// checkout flows need; Create serves the admin catalog endpoint.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	// GetByID returns the product or ErrNotFound. A malformed ID yields
	// ErrInvalidID.
	GetByID(ctx context.Context, id string) (*Product, error)
	// GetByIDs batch-fetches products in a single query. IDs that are
	// malformed or unknown are simply absent from the result; enrichment
	// silently drops them.
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	// Create persists a new product and returns its assigned ID.
	Create(ctx context.Context, p *Product) (string, error)
}
