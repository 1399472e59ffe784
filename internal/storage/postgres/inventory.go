package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storekit/checkout/internal/domain/inventory"
)

var _ inventory.Ledger = (*InventoryRepository)(nil)

// InventoryRepository implements inventory.Ledger backed by PostgreSQL.
// Atomicity of Adjust rests on a single upsert statement: the database
// serializes concurrent writers on the row, so read-modify-write races
// cannot lose updates.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

// NewInventoryRepository returns an InventoryRepository using the pool.
func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

const adjustSQL = `INSERT INTO inventory (product_id, quantity, updated_at)
	VALUES ($1, GREATEST($2, 0), now())
	ON CONFLICT (product_id) DO UPDATE SET
		quantity = GREATEST(inventory.quantity + $2, 0),
		updated_at = now()
	RETURNING product_id, quantity, low_stock_threshold, warehouse_location, updated_at`

// Adjust atomically applies delta to the product's stock, creating the
// record from a zero baseline on first write and flooring quantity at 0.
func (r *InventoryRepository) Adjust(ctx context.Context, productID string, delta int) (*inventory.Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx, adjustSQL, productID, delta))
	if err != nil {
		return nil, errors.Wrapf(err, "adjust inventory for %q", productID)
	}
	return rec, nil
}

// List returns every inventory record.
func (r *InventoryRepository) List(ctx context.Context) ([]inventory.Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, quantity, low_stock_threshold, warehouse_location, updated_at
		 FROM inventory ORDER BY product_id`)
	if err != nil {
		return nil, errors.Wrap(err, "list inventory")
	}
	defer rows.Close()
	return collectRecords(rows)
}

// LowStock queries the dedicated low-stock view.
func (r *InventoryRepository) LowStock(ctx context.Context, threshold *int) ([]inventory.Record, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if threshold != nil {
		rows, err = r.pool.Query(ctx,
			`SELECT product_id, quantity, low_stock_threshold, warehouse_location, updated_at
			 FROM inventory WHERE quantity <= $1 ORDER BY quantity`, *threshold)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT product_id, quantity, low_stock_threshold, warehouse_location, updated_at
			 FROM inventory WHERE quantity <= low_stock_threshold ORDER BY quantity`)
	}
	if err != nil {
		return nil, errors.Wrap(err, "query low stock")
	}
	defer rows.Close()
	return collectRecords(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*inventory.Record, error) {
	var rec inventory.Record
	err := row.Scan(&rec.ProductID, &rec.Quantity, &rec.LowStockThreshold, &rec.WarehouseLocation, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func collectRecords(rows pgx.Rows) ([]inventory.Record, error) {
	var out []inventory.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan inventory record")
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate inventory records")
	}
	return out, nil
}
