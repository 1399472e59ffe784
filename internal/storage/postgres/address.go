package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storekit/checkout/internal/domain/order"
)

var _ order.AddressBook = (*AddressRepository)(nil)

// AddressRepository implements order.AddressBook backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// Save persists the address and returns its generated ID.
func (r *AddressRepository) Save(ctx context.Context, a order.Address) (string, error) {
	id := uuid.New().String()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO addresses (id, user_id, line1, line2, city, state, postal_code, country)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		id, a.UserID, a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country,
	)
	if err != nil {
		return "", errors.Wrap(err, "save address")
	}
	return id, nil
}
