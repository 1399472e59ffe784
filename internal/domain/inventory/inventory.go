package inventory

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrInvalidProduct is returned for adjustments without a product ID.
var ErrInvalidProduct = errors.New("product id required")

// Record is the per-product stock entry. Records are created lazily on the
// first adjustment with a quantity floor of 0.
type Record struct {
	ProductID         string
	Quantity          int
	LowStockThreshold int
	WarehouseLocation string
	UpdatedAt         time.Time
}

// LowStock reports whether the record is at or below its threshold.
func (r Record) LowStock() bool {
	return r.Quantity <= r.LowStockThreshold
}

// Ledger is the storage contract for stock records. Adjust must be atomic
// per product: concurrent adjustments must not lose updates, and the
// quantity never drops below zero.
type Ledger interface {
	// Adjust applies delta (negative = sale, positive = restock/restore) and
	// returns the post-adjustment record. A missing record is created from a
	// zero-quantity baseline.
	Adjust(ctx context.Context, productID string, delta int) (*Record, error)

	List(ctx context.Context) ([]Record, error)

	// LowStock queries the dedicated low-stock view. When threshold is nil
	// each record's own threshold applies.
	LowStock(ctx context.Context, threshold *int) ([]Record, error)
}
