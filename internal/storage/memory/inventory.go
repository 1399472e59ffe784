package memory

import (
	"context"
	"sync"
	"time"

	"github.com/storekit/checkout/internal/domain/inventory"
)

var _ inventory.Ledger = (*InventoryRepository)(nil)

// InventoryRepository is an in-memory inventory.Ledger. A single mutex
// serializes all adjustments, giving the same no-lost-updates guarantee the
// postgres implementation gets from atomic upserts.
type InventoryRepository struct {
	mu               sync.Mutex
	records          map[string]*inventory.Record
	defaultThreshold int
}

// NewInventoryRepository creates an empty ledger with the given default
// low-stock threshold for lazily created records.
func NewInventoryRepository(defaultThreshold int) *InventoryRepository {
	return &InventoryRepository{
		records:          make(map[string]*inventory.Record),
		defaultThreshold: defaultThreshold,
	}
}

// Adjust applies delta atomically, creating the record from a zero baseline
// on first write and flooring the quantity at 0.
func (r *InventoryRepository) Adjust(_ context.Context, productID string, delta int) (*inventory.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[productID]
	if !ok {
		rec = &inventory.Record{ProductID: productID, LowStockThreshold: r.defaultThreshold}
		r.records[productID] = rec
	}
	rec.Quantity += delta
	if rec.Quantity < 0 {
		rec.Quantity = 0
	}
	rec.UpdatedAt = time.Now().UTC()
	return clone(rec), nil
}

// List returns copies of every record.
func (r *InventoryRepository) List(_ context.Context) ([]inventory.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	return out, nil
}

// LowStock filters records at or below the threshold.
func (r *InventoryRepository) LowStock(_ context.Context, threshold *int) ([]inventory.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.Record
	for _, rec := range r.records {
		limit := rec.LowStockThreshold
		if threshold != nil {
			limit = *threshold
		}
		if rec.Quantity <= limit {
			out = append(out, *rec)
		}
	}
	return out, nil
}
