package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for cart operations.
var (
	ErrItemNotFound    = errors.New("cart item not found")
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// Item is a single cart line. UnitPrice is snapshotted from the catalog
// when the item is added.
type Item struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Cart is the per-user collection of items pending checkout. It has a
// single writer: the owning user session.
//
// Invariant: TotalPrice == Σ(UnitPrice × Quantity).
type Cart struct {
	ID         string
	UserID     string
	Items      []Item
	TotalPrice decimal.Decimal
	UpdatedAt  time.Time
}

// Recalculate restores the total price invariant after any mutation.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	c.TotalPrice = total.Round(2)
}

// Repository defines persistence for carts, keyed by user.
// Get returns nil when the user has no cart yet; Clear on a missing cart
// is an ack.
type Repository interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, userID string) error
}
