package memory

import (
	"context"
	"sync"
	"time"

	"github.com/storekit/checkout/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository is an in-memory order.Repository. Conditional status
// updates run under the same lock as reads, mirroring the row-level
// serialization the postgres implementation gets from single statements.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
}

// NewOrderRepository creates an empty OrderRepository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*order.Order)}
}

// Create stores a copy of the order.
func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *o
	c.Items = append([]order.Item(nil), o.Items...)
	r.orders[o.ID] = &c
	return nil
}

// GetByID returns a copy of the order, or order.ErrNotFound.
func (r *OrderRepository) GetByID(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	c := *o
	c.Items = append([]order.Item(nil), o.Items...)
	return &c, nil
}

// SetPaymentStatus applies the transition when allowed; same-status writes
// are no-ops with changed=false.
func (r *OrderRepository) SetPaymentStatus(_ context.Context, id string, status order.PaymentStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return false, order.ErrNotFound
	}
	if o.PaymentStatus == status || !order.CanTransitionPayment(o.PaymentStatus, status) {
		return false, nil
	}
	o.PaymentStatus = status
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

// SetPaymentRef records the gateway reference.
func (r *OrderRepository) SetPaymentRef(_ context.Context, id, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.PaymentRef = ref
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkCancelled cancels the order if still cancellable.
func (r *OrderRepository) MarkCancelled(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return false, order.ErrNotFound
	}
	if !order.Cancellable(o.Status) {
		return false, nil
	}
	o.Status = order.StatusCancelled
	if o.PaymentStatus == order.PaymentPending {
		o.PaymentStatus = order.PaymentFailed
	}
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}
