package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storekit/checkout/internal/domain/cart"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. One row
// per user; the cart has a single writer (the owning session) so a plain
// upsert suffices.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Get returns the user's cart, or nil when none exists.
func (r *CartRepository) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	var (
		c         cart.Cart
		itemsJSON []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, items, total_price, updated_at FROM carts WHERE user_id = $1`,
		userID,
	).Scan(&c.ID, &c.UserID, &itemsJSON, &c.TotalPrice, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "get cart for %q", userID)
	}
	if err := json.Unmarshal(itemsJSON, &c.Items); err != nil {
		return nil, errors.Wrap(err, "unmarshal cart items")
	}
	return &c, nil
}

// Save upserts the user's cart.
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	itemsJSON, err := json.Marshal(c.Items)
	if err != nil {
		return errors.Wrap(err, "marshal cart items")
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO carts (user_id, id, items, total_price, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
			items = EXCLUDED.items,
			total_price = EXCLUDED.total_price,
			updated_at = EXCLUDED.updated_at`,
		c.UserID, c.ID, itemsJSON, c.TotalPrice, c.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "save cart for %q", c.UserID)
	}
	return nil
}

// Clear removes the user's cart. Clearing an absent cart is an ack.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return errors.Wrapf(err, "clear cart for %q", userID)
	}
	return nil
}
