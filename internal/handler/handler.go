// Package handler exposes the domain services over HTTP, owning routing,
// request decoding, and the error → status mapping.
package handler

import (
	"github.com/go-chi/chi/v5"

	"github.com/xenking/shopcart/internal/domain/auth"
	"github.com/xenking/shopcart/internal/domain/cart"
	"github.com/xenking/shopcart/internal/domain/order"
	"github.com/xenking/shopcart/internal/domain/product"
)

// Handler wires the HTTP surface to the domain services.
type Handler struct {
	auth     *auth.Service
	carts    *cart.Service
	orders   *order.Service
	products product.Repository
	apikeys  auth.APIKeyRepository
	pepper   []byte
}

// NewHandler constructs a Handler with the required domain dependencies.
// pepper is the HMAC key for admin API key hashing.
func NewHandler(
	authSvc *auth.Service,
	carts *cart.Service,
	orders *order.Service,
	products product.Repository,
	apikeys auth.APIKeyRepository,
	pepper []byte,
) *Handler {
	return &Handler{
		auth:     authSvc,
		carts:    carts,
		orders:   orders,
		products: products,
		apikeys:  apikeys,
		pepper:   pepper,
	}
}

// Routes builds the chi router: public auth and catalog reads, an
// admin-key-protected catalog write, and the bearer-protected cart and
// checkout surface.
func (h *Handler) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)

	r.Get("/products", h.ListProducts)
	r.Get("/products/{productID}", h.GetProduct)
	r.With(h.RequireAPIKey).Post("/products", h.CreateProduct)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)

		r.Get("/cart", h.GetCart)
		r.Post("/cart/add", h.AddToCart)
		r.Put("/cart/update", h.UpdateCartItem)
		r.Delete("/cart/remove", h.RemoveFromCart)
		r.Post("/cart/coupon", h.ApplyCoupon)

		r.Post("/checkout", h.Checkout)
		r.Get("/orders", h.ListOrders)
	})

	return r
}
