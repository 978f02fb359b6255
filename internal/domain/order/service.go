package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/shopcart/internal/domain/cart"
	"github.com/xenking/shopcart/internal/domain/coupon"
	"github.com/xenking/shopcart/internal/domain/product"
)

// Service converts carts into orders and serves order history.
type Service struct {
	carts    cart.Repository
	products product.Repository
	coupons  *coupon.Table
	orders   Repository
	now      func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	carts cart.Repository,
	products product.Repository,
	coupons *coupon.Table,
	orders Repository,
) *Service {
	return &Service{
		carts:    carts,
		products: products,
		coupons:  coupons,
		orders:   orders,
		now:      time.Now,
	}
}

// Checkout converts the user's cart into an immutable order: line items are
// enriched in a single batch query (unresolvable products are silently
// excluded, mirroring the cart view), the applied coupon's rate is applied
// to the total, the order is persisted, and the cart document is deleted.
//
// The read-insert-delete sequence is not wrapped in a multi-document
// transaction; a crash between order insertion and cart deletion can leave
// both an order and a stale cart.
func (s *Service) Checkout(ctx context.Context, userEmail string) (*Order, error) {
	c, err := s.carts.Get(ctx, userEmail)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return nil, ErrCartEmpty
		}
		return nil, errors.Wrap(err, "load cart")
	}
	if len(c.Items) == 0 {
		return nil, ErrCartEmpty
	}

	ids := make([]string, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.ProductID
	}
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	items := make([]Item, 0, len(c.Items))
	total := decimal.Zero
	for _, line := range c.Items {
		p, ok := byID[line.ProductID]
		if !ok {
			continue
		}
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, Item{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  line.Quantity,
			Price:     p.Price,
			Subtotal:  subtotal,
		})
		total = total.Add(subtotal)
	}

	rate := s.coupons.RateOrZero(c.AppliedCoupon)
	discount := total.Mul(rate)

	o := &Order{
		UserEmail:    userEmail,
		Items:        items,
		Total:        total.Round(2),
		DiscountCode: c.AppliedCoupon,
		FinalTotal:   total.Sub(discount).Round(2),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if err := s.carts.Delete(ctx, userEmail); err != nil {
		return nil, errors.Wrap(err, "delete cart")
	}

	return o, nil
}

// History returns all past orders for the user, most recent first. Reading
// has no side effects and can be repeated freely.
func (s *Service) History(ctx context.Context, userEmail string) ([]Order, error) {
	orders, err := s.orders.ListByUser(ctx, userEmail)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}
