package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLedger struct {
	mu      sync.Mutex
	records map[string]*Record
	// failing products always error on Adjust.
	failing map[string]bool
	listErr error
	lowErr  error
}

func newLedger() *mockLedger {
	return &mockLedger{
		records: make(map[string]*Record),
		failing: make(map[string]bool),
	}
}

func (m *mockLedger) Adjust(_ context.Context, productID string, delta int) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing[productID] {
		return nil, errors.New("ledger unavailable")
	}
	rec, ok := m.records[productID]
	if !ok {
		rec = &Record{ProductID: productID, LowStockThreshold: 5}
		m.records[productID] = rec
	}
	rec.Quantity += delta
	if rec.Quantity < 0 {
		rec.Quantity = 0
	}
	c := *rec
	return &c, nil
}

func (m *mockLedger) List(_ context.Context) ([]Record, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, rec := range m.records {
		out = append(out, *rec)
	}
	return out, nil
}

func (m *mockLedger) LowStock(_ context.Context, threshold *int) ([]Record, error) {
	if m.lowErr != nil {
		return nil, m.lowErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, rec := range m.records {
		limit := rec.LowStockThreshold
		if threshold != nil {
			limit = *threshold
		}
		if rec.Quantity <= limit {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func TestAdjustStock(t *testing.T) {
	svc := NewService(newLedger())

	rec, err := svc.AdjustStock(context.Background(), "p1", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, rec.Quantity)

	rec, err = svc.AdjustStock(context.Background(), "p1", -4)
	require.NoError(t, err)
	assert.Equal(t, 6, rec.Quantity)
}

func TestAdjustStock_MissingProductID(t *testing.T) {
	svc := NewService(newLedger())

	_, err := svc.AdjustStock(context.Background(), "", 1)
	require.ErrorIs(t, err, ErrInvalidProduct)
}

func TestAdjustStock_FloorsAtZero(t *testing.T) {
	ledger := newLedger()
	svc := NewService(ledger)

	_, err := svc.AdjustStock(context.Background(), "p1", 3)
	require.NoError(t, err)
	rec, err := svc.AdjustStock(context.Background(), "p1", -10)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Quantity)
}

func TestDecrementForOrder(t *testing.T) {
	ledger := newLedger()
	svc := NewService(ledger)

	_, err := svc.AdjustStock(context.Background(), "p1", 10)
	require.NoError(t, err)
	_, err = svc.AdjustStock(context.Background(), "p2", 10)
	require.NoError(t, err)

	failures := svc.DecrementForOrder(context.Background(), []ItemAdjustment{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 5},
	})
	assert.Empty(t, failures)
	assert.Equal(t, 8, ledger.records["p1"].Quantity)
	assert.Equal(t, 5, ledger.records["p2"].Quantity)
}

func TestDecrementForOrder_PartialFailure(t *testing.T) {
	ledger := newLedger()
	ledger.failing["p2"] = true
	svc := NewService(ledger)

	_, err := svc.AdjustStock(context.Background(), "p1", 10)
	require.NoError(t, err)

	failures := svc.DecrementForOrder(context.Background(), []ItemAdjustment{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 5},
	})

	// The healthy product is still adjusted; the failure is reported.
	require.Len(t, failures, 1)
	assert.Equal(t, "p2", failures[0].ProductID)
	assert.Equal(t, -5, failures[0].Delta)
	assert.Equal(t, 8, ledger.records["p1"].Quantity)
}

func TestRestoreForOrder(t *testing.T) {
	ledger := newLedger()
	svc := NewService(ledger)

	failures := svc.RestoreForOrder(context.Background(), []ItemAdjustment{
		{ProductID: "p1", Quantity: 3},
	})
	assert.Empty(t, failures)
	assert.Equal(t, 3, ledger.records["p1"].Quantity)
}

func TestGetLowStockItems(t *testing.T) {
	ledger := newLedger()
	svc := NewService(ledger)

	_, err := svc.AdjustStock(context.Background(), "low", 2)
	require.NoError(t, err)
	_, err = svc.AdjustStock(context.Background(), "high", 100)
	require.NoError(t, err)

	recs, err := svc.GetLowStockItems(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "low", recs[0].ProductID)
}

func TestGetLowStockItems_ThresholdOverride(t *testing.T) {
	ledger := newLedger()
	svc := NewService(ledger)

	_, err := svc.AdjustStock(context.Background(), "p1", 50)
	require.NoError(t, err)

	threshold := 60
	recs, err := svc.GetLowStockItems(context.Background(), &threshold)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestGetLowStockItems_FallbackScan(t *testing.T) {
	ledger := newLedger()
	ledger.lowErr = errors.New("index offline")
	svc := NewService(ledger)

	_, err := svc.AdjustStock(context.Background(), "low", 2)
	require.NoError(t, err)
	_, err = svc.AdjustStock(context.Background(), "high", 100)
	require.NoError(t, err)

	recs, err := svc.GetLowStockItems(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "low", recs[0].ProductID)
}
