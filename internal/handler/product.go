package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/shopcart/internal/domain/product"
)

type productResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
}

type createProductRequest struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
}

func toProductResponse(p product.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price.InexactFloat64(),
		Image:       p.Image,
		Description: p.Description,
	}
}

// ListProducts returns every product in the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	respondJSON(w, http.StatusOK, map[string]any{"products": out})
}

// GetProduct returns a single product by its ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, product.ErrInvalidID):
			respondError(w, http.StatusBadRequest, "invalid product ID")
		case errors.Is(err, product.ErrNotFound):
			respondError(w, http.StatusNotFound, "product not found")
		default:
			respondInternal(w, r, err)
		}
		return
	}

	respondJSON(w, http.StatusOK, toProductResponse(*p))
}

// CreateProduct inserts a new catalog item. Requires an admin API key.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := &product.Product{
		Name:        req.Name,
		Price:       decimal.NewFromFloat(req.Price),
		Image:       req.Image,
		Description: req.Description,
	}
	if err := p.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.products.Create(r.Context(), p)
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message":    "product added",
		"product_id": id,
	})
}
