package handler

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/shopcart/internal/domain/cart"
	"github.com/xenking/shopcart/internal/domain/coupon"
)

type addToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type removeFromCartRequest struct {
	ProductID string `json:"product_id"`
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

type cartViewResponse struct {
	Items         []cartItemResponse `json:"items"`
	Coupon        *string            `json:"coupon"`
	DiscountTotal float64            `json:"discount_total"`
	FinalTotal    float64            `json:"final_total"`
}

type cartItemResponse struct {
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Subtotal    float64 `json:"subtotal"`
}

// GetCart returns the enriched cart view. An absent cart is the empty view.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	view, err := h.carts.View(r.Context(), id.Email)
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	resp := cartViewResponse{
		Items:         make([]cartItemResponse, len(view.Items)),
		DiscountTotal: view.DiscountTotal.InexactFloat64(),
		FinalTotal:    view.FinalTotal.InexactFloat64(),
	}
	if view.Coupon != "" {
		resp.Coupon = &view.Coupon
	}
	for i, item := range view.Items {
		resp.Items[i] = cartItemResponse{
			ProductID:   item.ProductID,
			Name:        item.Name,
			Price:       item.Price.InexactFloat64(),
			Image:       item.Image,
			Description: item.Description,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal.InexactFloat64(),
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// AddToCart adds quantity units of a product, creating the cart on first
// use and incrementing an existing line.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.carts.Add(r.Context(), id.Email, req.ProductID, req.Quantity); err != nil {
		if errors.Is(err, cart.ErrInvalidQuantity) {
			respondError(w, http.StatusBadRequest, "quantity must be at least 1")
			return
		}
		respondInternal(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "item added to cart"})
}

// UpdateCartItem sets the exact quantity of an existing line; zero removes
// it.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req updateCartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.carts.Update(r.Context(), id.Email, req.ProductID, req.Quantity); err != nil {
		switch {
		case errors.Is(err, cart.ErrNegativeQuantity):
			respondError(w, http.StatusBadRequest, "quantity cannot be negative")
		case errors.Is(err, cart.ErrNotFound):
			respondError(w, http.StatusNotFound, "cart not found")
		case errors.Is(err, cart.ErrProductNotInCart):
			respondError(w, http.StatusNotFound, "product not in cart")
		default:
			respondInternal(w, r, err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "cart item updated"})
}

// RemoveFromCart deletes a line item.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req removeFromCartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.carts.Remove(r.Context(), id.Email, req.ProductID); err != nil {
		switch {
		case errors.Is(err, cart.ErrEmpty):
			respondError(w, http.StatusNotFound, "cart is empty")
		case errors.Is(err, cart.ErrProductNotInCart):
			respondError(w, http.StatusNotFound, "product not found in cart")
		default:
			respondInternal(w, r, err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "item removed from cart"})
}

// ApplyCoupon validates and stores a coupon code on the cart.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var req applyCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code, rate, err := h.carts.ApplyCoupon(r.Context(), id.Email, req.Code)
	if err != nil {
		if errors.Is(err, coupon.ErrInvalidCoupon) {
			respondError(w, http.StatusBadRequest, "invalid or expired coupon")
			return
		}
		respondInternal(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":       fmt.Sprintf("coupon %q applied", code),
		"discount_rate": rate.InexactFloat64(),
	})
}
