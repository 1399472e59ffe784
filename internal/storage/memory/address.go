package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/storekit/checkout/internal/domain/order"
)

var _ order.AddressBook = (*AddressBook)(nil)

// AddressBook stores order addresses in memory.
type AddressBook struct {
	mu        sync.Mutex
	addresses map[string]order.Address
}

// NewAddressBook creates an empty AddressBook.
func NewAddressBook() *AddressBook {
	return &AddressBook{addresses: make(map[string]order.Address)}
}

// Save stores the address and returns its generated ID.
func (b *AddressBook) Save(_ context.Context, a order.Address) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := uuid.NewString()
	b.addresses[id] = a
	return id, nil
}

// Get returns a stored address by ID.
func (b *AddressBook) Get(id string) (order.Address, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.addresses[id]
	return a, ok
}
