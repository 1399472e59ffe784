package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storekit/checkout/internal/domain/promo"
)

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository implements promo.Repository backed by PostgreSQL.
type PromoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRepository returns a PromoRepository that uses the given pool.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// FindByCode returns the rule for code, or promo.ErrInvalidCode.
func (r *PromoRepository) FindByCode(ctx context.Context, code string) (*promo.Rule, error) {
	var (
		rule promo.Rule
		typ  string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT code, discount_type, value, min_items, description FROM promos WHERE code = $1`,
		code,
	).Scan(&rule.Code, &typ, &rule.Value, &rule.MinItems, &rule.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrInvalidCode
		}
		return nil, errors.Wrapf(err, "find promo %q", code)
	}
	rule.DiscountType = promo.DiscountType(typ)
	return &rule, nil
}

// ListCodes returns every known promo code.
func (r *PromoRepository) ListCodes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT code FROM promos`)
	if err != nil {
		return nil, errors.Wrap(err, "list promo codes")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, errors.Wrap(err, "scan promo code")
		}
		out = append(out, code)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate promo codes")
	}
	return out, nil
}
