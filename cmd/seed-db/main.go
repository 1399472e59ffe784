// Binary seed-db loads catalog, inventory and promo fixtures into the
// checkout database. Fixture files are JSON, optionally gzip-compressed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/storekit/checkout/internal/storage/postgres"
)

type fixture struct {
	Products []productJSON `json:"products"`
	Promos   []promoJSON   `json:"promos"`
}

type productJSON struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	Category          string          `json:"category"`
	Stock             int             `json:"stock"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	WarehouseLocation string          `json:"warehouse_location"`
}

type promoJSON struct {
	Code         string          `json:"code"`
	DiscountType string          `json:"discount_type"`
	Value        decimal.Decimal `json:"value"`
	MinItems     int             `json:"min_items"`
	Description  string          `json:"description"`
}

func main() {
	var (
		databaseURL string
		fixtureFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&fixtureFile, "fixture-file", "db/seed/fixtures.json", "path to fixture JSON file (.gz supported)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, fixtureFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, fixtureFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	fx, err := readFixture(fixtureFile)
	if err != nil {
		return errors.Wrap(err, "read fixture")
	}

	if err := seedProducts(ctx, pool, fx.Products); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedPromos(ctx, pool, fx.Promos); err != nil {
		return errors.Wrap(err, "seed promos")
	}
	return nil
}

func readFixture(path string) (*fixture, error) {
	slog.Info("reading fixture file", slog.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open fixture file")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer gz.Close()
		r = gz
	}

	var fx fixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return nil, errors.Wrap(err, "parse fixture JSON")
	}
	return &fx, nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, products []productJSON) error {
	for _, p := range products {
		if _, err := pool.Exec(ctx,
			`INSERT INTO products (id, name, price, category)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (id) DO UPDATE SET name = $2, price = $3, category = $4`,
			p.ID, p.Name, p.Price, p.Category,
		); err != nil {
			return errors.Wrapf(err, "insert product %q", p.ID)
		}

		threshold := p.LowStockThreshold
		if threshold <= 0 {
			threshold = 5
		}
		if _, err := pool.Exec(ctx,
			`INSERT INTO inventory (product_id, quantity, low_stock_threshold, warehouse_location)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (product_id) DO UPDATE SET
				quantity = $2, low_stock_threshold = $3, warehouse_location = $4, updated_at = now()`,
			p.ID, p.Stock, threshold, p.WarehouseLocation,
		); err != nil {
			return errors.Wrapf(err, "insert inventory for %q", p.ID)
		}
	}

	slog.Info("seeded products", slog.Int("count", len(products)))
	return nil
}

func seedPromos(ctx context.Context, pool *pgxpool.Pool, promos []promoJSON) error {
	for _, p := range promos {
		if _, err := pool.Exec(ctx,
			`INSERT INTO promos (code, discount_type, value, min_items, description)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (code) DO UPDATE SET
				discount_type = $2, value = $3, min_items = $4, description = $5`,
			p.Code, p.DiscountType, p.Value, p.MinItems, p.Description,
		); err != nil {
			return errors.Wrapf(err, "insert promo %q", p.Code)
		}
	}

	slog.Info("seeded promos", slog.Int("count", len(promos)))
	return nil
}
