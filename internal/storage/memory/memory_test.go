package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storekit/checkout/internal/domain/cart"
	"github.com/storekit/checkout/internal/domain/order"
	"github.com/storekit/checkout/internal/domain/product"
)

func TestInventory_ConcurrentAdjustConservation(t *testing.T) {
	repo := NewInventoryRepository(5)
	ctx := context.Background()

	const initial, workers = 1000, 100
	_, err := repo.Adjust(ctx, "p1", initial)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Adjust(ctx, "p1", -1)
		}()
	}
	wg.Wait()

	rec, err := repo.Adjust(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Equal(t, initial-workers, rec.Quantity, "no adjustment may be lost")
}

func TestInventory_FloorsAtZero(t *testing.T) {
	repo := NewInventoryRepository(5)
	ctx := context.Background()

	_, err := repo.Adjust(ctx, "p1", 3)
	require.NoError(t, err)
	rec, err := repo.Adjust(ctx, "p1", -10)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Quantity)
}

func TestInventory_LowStock(t *testing.T) {
	repo := NewInventoryRepository(5)
	ctx := context.Background()

	_, err := repo.Adjust(ctx, "low", 3)
	require.NoError(t, err)
	_, err = repo.Adjust(ctx, "high", 50)
	require.NoError(t, err)

	recs, err := repo.LowStock(ctx, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "low", recs[0].ProductID)

	threshold := 100
	recs, err = repo.LowStock(ctx, &threshold)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestOrders_PaymentStatusMonotonic(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	o := &order.Order{ID: "o1", Status: order.StatusPending, PaymentStatus: order.PaymentPending}
	require.NoError(t, repo.Create(ctx, o))

	changed, err := repo.SetPaymentStatus(ctx, "o1", order.PaymentPaid)
	require.NoError(t, err)
	assert.True(t, changed)

	// Confirming again is a no-op, and PAID cannot regress.
	changed, err = repo.SetPaymentStatus(ctx, "o1", order.PaymentPaid)
	require.NoError(t, err)
	assert.False(t, changed)
	changed, err = repo.SetPaymentStatus(ctx, "o1", order.PaymentFailed)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := repo.GetByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPaid, got.PaymentStatus)
}

func TestOrders_MarkCancelled(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	o := &order.Order{ID: "o1", Status: order.StatusPending, PaymentStatus: order.PaymentPending}
	require.NoError(t, repo.Create(ctx, o))

	changed, err := repo.MarkCancelled(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := repo.GetByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, got.Status)
	assert.Equal(t, order.PaymentFailed, got.PaymentStatus)

	changed, err = repo.MarkCancelled(ctx, "o1")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestOrders_MarkCancelledShipped(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &order.Order{ID: "o1", Status: order.StatusShipped, PaymentStatus: order.PaymentPaid}))

	changed, err := repo.MarkCancelled(ctx, "o1")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestOrders_GetByIDCopies(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &order.Order{
		ID:    "o1",
		Items: []order.Item{{ProductID: "p1", Quantity: 1, UnitPrice: decimal.NewFromInt(10)}},
	}))

	a, err := repo.GetByID(ctx, "o1")
	require.NoError(t, err)
	a.Items[0].Quantity = 99

	b, err := repo.GetByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Items[0].Quantity)
}

func TestOrders_NotFound(t *testing.T) {
	repo := NewOrderRepository()

	_, err := repo.GetByID(context.Background(), "ghost")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestCarts_RoundTrip(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	c := &cart.Cart{ID: "c1", UserID: "u1", Items: []cart.Item{{ProductID: "p1", Quantity: 2}}}
	require.NoError(t, repo.Save(ctx, c))

	got, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "c1", got.ID)

	require.NoError(t, repo.Clear(ctx, "u1"))
	got, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Clearing again is an ack.
	require.NoError(t, repo.Clear(ctx, "u1"))
}

func TestProducts_Lookup(t *testing.T) {
	repo := NewProductRepository(
		product.Product{ID: "b", Name: "B", Price: decimal.NewFromInt(2)},
		product.Product{ID: "a", Name: "A", Price: decimal.NewFromInt(1)},
	)
	ctx := context.Background()

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)

	_, err = repo.GetByID(ctx, "ghost")
	require.ErrorIs(t, err, product.ErrNotFound)

	some, err := repo.GetByIDs(ctx, []string{"a", "ghost"})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, "a", some[0].ID)
}
