package inventory

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ItemAdjustment is one (product, quantity) pair of an order fan-out.
type ItemAdjustment struct {
	ProductID string
	Quantity  int
}

// AdjustmentFailure records a single failed adjustment in a fan-out.
type AdjustmentFailure struct {
	ProductID string
	Delta     int
	Err       error
}

// Service exposes the inventory ledger operations consumed by the order
// workflow and the admin stock endpoints.
type Service struct {
	ledger Ledger
	// fanout bounds the number of concurrent per-product adjustments.
	fanout int
}

// NewService creates an inventory Service.
func NewService(ledger Ledger) *Service {
	return &Service{ledger: ledger, fanout: 4}
}

// AdjustStock atomically applies delta to a product's stock and returns the
// post-adjustment record.
func (s *Service) AdjustStock(ctx context.Context, productID string, delta int) (*Record, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	rec, err := s.ledger.Adjust(ctx, productID, delta)
	if err != nil {
		return nil, errors.Wrapf(err, "adjust stock for %s", productID)
	}
	return rec, nil
}

// DecrementForOrder reserves stock for every order item. Each adjustment is
// independent and best-effort: partial failure is reported, not rolled
// back. This trades strict consistency for checkout availability.
func (s *Service) DecrementForOrder(ctx context.Context, items []ItemAdjustment) []AdjustmentFailure {
	return s.fanOut(ctx, items, -1)
}

// RestoreForOrder returns stock for every item of a cancelled order, under
// the same best-effort policy as DecrementForOrder.
func (s *Service) RestoreForOrder(ctx context.Context, items []ItemAdjustment) []AdjustmentFailure {
	return s.fanOut(ctx, items, +1)
}

func (s *Service) fanOut(ctx context.Context, items []ItemAdjustment, sign int) []AdjustmentFailure {
	var (
		mu       sync.Mutex
		failures []AdjustmentFailure
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	for _, it := range items {
		delta := sign * it.Quantity
		productID := it.ProductID
		g.Go(func() error {
			if _, err := s.ledger.Adjust(ctx, productID, delta); err != nil {
				mu.Lock()
				failures = append(failures, AdjustmentFailure{ProductID: productID, Delta: delta, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failures
}

// GetLowStockItems returns records at or below their threshold (or the
// override when given). The dedicated low-stock query is the primary path;
// on failure it degrades to scanning all records and filtering here, so the
// feature still answers, just less efficiently.
func (s *Service) GetLowStockItems(ctx context.Context, threshold *int) ([]Record, error) {
	recs, err := s.ledger.LowStock(ctx, threshold)
	if err == nil {
		return recs, nil
	}
	zctx.From(ctx).Warn("low-stock query failed, falling back to full scan", zap.Error(err))

	all, scanErr := s.ledger.List(ctx)
	if scanErr != nil {
		return nil, errors.Wrap(scanErr, "low stock fallback scan")
	}
	out := make([]Record, 0, len(all))
	for _, r := range all {
		if threshold != nil {
			if r.Quantity <= *threshold {
				out = append(out, r)
			}
			continue
		}
		if r.LowStock() {
			out = append(out, r)
		}
	}
	return out, nil
}
