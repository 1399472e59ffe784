package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/storekit/checkout/internal/domain/cart"
	"github.com/storekit/checkout/internal/domain/product"
	"github.com/storekit/checkout/pkg/httpmiddleware"
)

type cartItemDTO struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type cartResponse struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	Items      []cartItemDTO `json:"items"`
	TotalPrice float64       `json:"total_price"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart returns the caller's cart, empty when nothing has been added yet.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpmiddleware.UserID(r.Context())

	c, err := h.carts.Get(r.Context(), userID)
	if err != nil {
		h.respondCartError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toCartResponse(c))
}

// AddCartItem adds a product line, merging quantities for repeated products.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpmiddleware.UserID(r.Context())

	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.carts.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		h.respondCartError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toCartResponse(c))
}

// UpdateCartItem sets the quantity of an existing line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpmiddleware.UserID(r.Context())
	productID := chi.URLParam(r, "productID")

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.carts.UpdateQuantity(r.Context(), userID, productID, req.Quantity)
	if err != nil {
		h.respondCartError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toCartResponse(c))
}

// RemoveCartItem deletes a line from the cart.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpmiddleware.UserID(r.Context())
	productID := chi.URLParam(r, "productID")

	c, err := h.carts.RemoveItem(r.Context(), userID, productID)
	if err != nil {
		h.respondCartError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toCartResponse(c))
}

// ClearCart empties the caller's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpmiddleware.UserID(r.Context())

	if err := h.carts.Clear(r.Context(), userID); err != nil {
		h.respondCartError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondCartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, r, http.StatusBadRequest, "quantity must be greater than 0")
	case errors.Is(err, cart.ErrItemNotFound):
		respondError(w, r, http.StatusNotFound, "cart item not found")
	case errors.Is(err, product.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "product not found")
	default:
		respondError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func toCartResponse(c *cart.Cart) cartResponse {
	items := make([]cartItemDTO, len(c.Items))
	for i, it := range c.Items {
		items[i] = cartItemDTO{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.InexactFloat64(),
		}
	}
	return cartResponse{
		ID:         c.ID,
		UserID:     c.UserID,
		Items:      items,
		TotalPrice: c.TotalPrice.InexactFloat64(),
		UpdatedAt:  c.UpdatedAt,
	}
}
