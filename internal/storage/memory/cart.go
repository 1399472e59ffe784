package memory

import (
	"context"
	"sync"

	"github.com/storekit/checkout/internal/domain/cart"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository is an in-memory cart.Repository keyed by user.
type CartRepository struct {
	mu    sync.RWMutex
	carts map[string]*cart.Cart
}

// NewCartRepository creates an empty CartRepository.
func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string]*cart.Cart)}
}

// Get returns a copy of the user's cart, or nil when none exists.
func (r *CartRepository) Get(_ context.Context, userID string) (*cart.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carts[userID]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Items = append([]cart.Item(nil), c.Items...)
	return &cp, nil
}

// Save stores a copy of the cart.
func (r *CartRepository) Save(_ context.Context, c *cart.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	cp.Items = append([]cart.Item(nil), c.Items...)
	r.carts[c.UserID] = &cp
	return nil
}

// Clear removes the user's cart; absent carts are an ack.
func (r *CartRepository) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)
	return nil
}
