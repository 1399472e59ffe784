package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/storekit/checkout/internal/domain/product"
)

// Service mutates carts, resolving prices from the product catalog and
// maintaining the total price invariant on every change.
type Service struct {
	carts    Repository
	products product.Repository
	now      func() time.Time
}

// NewService creates a cart Service.
func NewService(carts Repository, products product.Repository) *Service {
	return &Service{carts: carts, products: products, now: time.Now}
}

// Get returns the user's cart, or a fresh empty cart when none exists yet.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	if c == nil {
		c = &Cart{ID: uuid.New().String(), UserID: userID, UpdatedAt: s.now().UTC()}
	}
	return c, nil
}

// AddItem adds a product to the cart, merging into an existing line for the
// same product. The unit price is snapshotted from the catalog.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve product")
	}

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity, UnitPrice: p.Price})
	}
	return s.save(ctx, c)
}

// UpdateQuantity sets the quantity of an existing line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return s.save(ctx, c)
		}
	}
	return nil, ErrItemNotFound
}

// RemoveItem deletes a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*Cart, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return s.save(ctx, c)
		}
	}
	return nil, ErrItemNotFound
}

// Clear empties the user's cart. Clearing an absent cart is an ack.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.carts.Clear(ctx, userID)
}

func (s *Service) save(ctx context.Context, c *Cart) (*Cart, error) {
	c.Recalculate()
	c.UpdatedAt = s.now().UTC()
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}
