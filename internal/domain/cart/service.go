package cart

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/shopcart/internal/domain/coupon"
	"github.com/xenking/shopcart/internal/domain/product"
)

// Service encapsulates cart business logic: mutation of the per-user line
// item list, coupon application, and building enriched views.
type Service struct {
	carts    Repository
	products product.Repository
	coupons  *coupon.Table
}

// NewService creates a cart Service with the required dependencies.
func NewService(carts Repository, products product.Repository, coupons *coupon.Table) *Service {
	return &Service{
		carts:    carts,
		products: products,
		coupons:  coupons,
	}
}

// View loads and enriches the cart for the user. An absent cart is an empty
// view, not an error. Lines whose product no longer resolves are excluded
// from the view and from the totals.
func (s *Service) View(ctx context.Context, userEmail string) (*View, error) {
	c, err := s.carts.Get(ctx, userEmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return emptyView(), nil
		}
		return nil, errors.Wrap(err, "load cart")
	}
	if len(c.Items) == 0 {
		return emptyView(), nil
	}

	items, total, err := s.enrich(ctx, c.Items)
	if err != nil {
		return nil, err
	}

	rate := s.coupons.RateOrZero(c.AppliedCoupon)
	discount := total.Mul(rate)

	return &View{
		Items:         items,
		Coupon:        c.AppliedCoupon,
		DiscountTotal: discount.Round(2),
		FinalTotal:    total.Sub(discount).Round(2),
	}, nil
}

// Add puts quantity units of the product into the cart. If a line for the
// product already exists its quantity is incremented; otherwise a new line
// is appended, keeping insertion order. The first add creates the cart.
func (s *Service) Add(ctx context.Context, userEmail, productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	c, err := s.carts.Get(ctx, userEmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return s.carts.Create(ctx, &Cart{
				UserEmail: userEmail,
				Items:     []LineItem{{ProductID: productID, Quantity: quantity}},
			})
		}
		return errors.Wrap(err, "load cart")
	}

	items := c.Items
	found := false
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		items = append(items, LineItem{ProductID: productID, Quantity: quantity})
	}

	return s.carts.ReplaceItems(ctx, userEmail, items)
}

// Update sets the exact quantity of an existing line. Quantity zero removes
// the line. The line must already exist.
func (s *Service) Update(ctx context.Context, userEmail, productID string, quantity int) error {
	if quantity < 0 {
		return ErrNegativeQuantity
	}

	c, err := s.carts.Get(ctx, userEmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "load cart")
	}

	updated := make([]LineItem, 0, len(c.Items))
	found := false
	for _, item := range c.Items {
		if item.ProductID == productID {
			found = true
			if quantity > 0 {
				updated = append(updated, LineItem{ProductID: productID, Quantity: quantity})
			}
			continue
		}
		updated = append(updated, item)
	}
	if !found {
		return ErrProductNotInCart
	}

	return s.carts.ReplaceItems(ctx, userEmail, updated)
}

// Remove deletes the line for the product. The cart must exist and be
// non-empty, and the product must be a current line item.
func (s *Service) Remove(ctx context.Context, userEmail, productID string) error {
	c, err := s.carts.Get(ctx, userEmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrEmpty
		}
		return errors.Wrap(err, "load cart")
	}
	if len(c.Items) == 0 {
		return ErrEmpty
	}

	remaining := make([]LineItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.ProductID != productID {
			remaining = append(remaining, item)
		}
	}
	if len(remaining) == len(c.Items) {
		return ErrProductNotInCart
	}

	return s.carts.ReplaceItems(ctx, userEmail, remaining)
}

// ApplyCoupon normalizes the code to upper case, validates it against the
// coupon table, and stores it as the cart's applied coupon, replacing any
// prior one. Returns the normalized code and its discount rate.
func (s *Service) ApplyCoupon(ctx context.Context, userEmail, code string) (string, decimal.Decimal, error) {
	normalized := strings.ToUpper(code)
	rate, ok := s.coupons.Rate(normalized)
	if !ok {
		return "", decimal.Zero, coupon.ErrInvalidCoupon
	}

	if err := s.carts.SetCoupon(ctx, userEmail, normalized); err != nil {
		return "", decimal.Zero, errors.Wrap(err, "store coupon")
	}
	return normalized, rate, nil
}

// enrich joins stored lines against the catalog in one batch query.
// Unresolvable product references are skipped.
func (s *Service) enrich(ctx context.Context, items []LineItem) ([]ViewItem, decimal.Decimal, error) {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, errors.Wrap(err, "get products")
	}

	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	enriched := make([]ViewItem, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		enriched = append(enriched, ViewItem{
			ProductID:   p.ID,
			Name:        p.Name,
			Price:       p.Price,
			Image:       p.Image,
			Description: p.Description,
			Quantity:    item.Quantity,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}
	return enriched, total, nil
}

func emptyView() *View {
	return &View{
		Items:         []ViewItem{},
		DiscountTotal: decimal.Zero,
		FinalTotal:    decimal.Zero,
	}
}
