package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/storekit/checkout/internal/domain/inventory"
)

type adjustRequest struct {
	Delta int `json:"delta"`
}

type inventoryRecordDTO struct {
	ProductID         string    `json:"product_id"`
	Quantity          int       `json:"quantity"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	WarehouseLocation string    `json:"warehouse_location,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// AdjustInventory applies a stock delta and returns the resulting record.
func (h *Handler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.inventory.AdjustStock(r.Context(), productID, req.Delta)
	if err != nil {
		if errors.Is(err, inventory.ErrInvalidProduct) {
			respondError(w, r, http.StatusBadRequest, "product id required")
			return
		}
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, r, http.StatusOK, toInventoryDTO(*rec))
}

// LowStock lists records at or below their threshold; ?threshold=N overrides
// the per-record thresholds.
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	var threshold *int
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, r, http.StatusBadRequest, "threshold must be a non-negative integer")
			return
		}
		threshold = &n
	}

	recs, err := h.inventory.GetLowStockItems(r.Context(), threshold)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]inventoryRecordDTO, len(recs))
	for i, rec := range recs {
		out[i] = toInventoryDTO(rec)
	}
	respondJSON(w, r, http.StatusOK, out)
}

func toInventoryDTO(rec inventory.Record) inventoryRecordDTO {
	return inventoryRecordDTO{
		ProductID:         rec.ProductID,
		Quantity:          rec.Quantity,
		LowStockThreshold: rec.LowStockThreshold,
		WarehouseLocation: rec.WarehouseLocation,
		UpdatedAt:         rec.UpdatedAt,
	}
}
