package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/shopcart/internal/domain/order"
)

type orderResponse struct {
	ID           string              `json:"id"`
	UserEmail    string              `json:"user_email"`
	Items        []orderItemResponse `json:"items"`
	Total        float64             `json:"total"`
	DiscountCode *string             `json:"discount_code"`
	FinalTotal   float64             `json:"final_total"`
	CreatedAt    time.Time           `json:"created_at"`
}

type orderItemResponse struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Subtotal  float64 `json:"subtotal"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:         o.ID,
		UserEmail:  o.UserEmail,
		Items:      make([]orderItemResponse, len(o.Items)),
		Total:      o.Total.InexactFloat64(),
		FinalTotal: o.FinalTotal.InexactFloat64(),
		CreatedAt:  o.CreatedAt,
	}
	if o.DiscountCode != "" {
		resp.DiscountCode = &o.DiscountCode
	}
	for i, item := range o.Items {
		resp.Items[i] = orderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price.InexactFloat64(),
			Subtotal:  item.Subtotal.InexactFloat64(),
		}
	}
	return resp
}

// Checkout converts the caller's cart into an order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	o, err := h.orders.Checkout(r.Context(), id.Email)
	if err != nil {
		if errors.Is(err, order.ErrCartEmpty) {
			respondError(w, http.StatusBadRequest, "your cart is empty")
			return
		}
		respondInternal(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":       "order placed",
		"order_summary": toOrderResponse(o),
	})
}

// ListOrders returns the caller's order history, most recent first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	history, err := h.orders.History(r.Context(), id.Email)
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	out := make([]orderResponse, len(history))
	for i := range history {
		out[i] = toOrderResponse(&history[i])
	}
	respondJSON(w, http.StatusOK, map[string]any{"orders": out})
}
