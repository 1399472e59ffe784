package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storekit/checkout/internal/domain/cart"
	"github.com/storekit/checkout/internal/domain/inventory"
	"github.com/storekit/checkout/internal/domain/product"
	"github.com/storekit/checkout/internal/domain/promo"
	"github.com/storekit/checkout/internal/events"
	"github.com/storekit/checkout/internal/gateway"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	orders    map[string]*Order
	createErr error
	// createFails makes the first N Create calls fail before succeeding.
	createFails int
	creates     int
}

func newOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	if m.createFails > 0 {
		m.createFails--
		return errors.New("transient")
	}
	c := *o
	m.orders[o.ID] = &c
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *o
	return &c, nil
}

func (m *mockOrderRepo) SetPaymentStatus(_ context.Context, id string, status PaymentStatus) (bool, error) {
	o, ok := m.orders[id]
	if !ok {
		return false, ErrNotFound
	}
	if o.PaymentStatus == status || !CanTransitionPayment(o.PaymentStatus, status) {
		return false, nil
	}
	o.PaymentStatus = status
	return true, nil
}

func (m *mockOrderRepo) SetPaymentRef(_ context.Context, id, ref string) error {
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.PaymentRef = ref
	return nil
}

func (m *mockOrderRepo) MarkCancelled(_ context.Context, id string) (bool, error) {
	o, ok := m.orders[id]
	if !ok {
		return false, ErrNotFound
	}
	if !Cancellable(o.Status) {
		return false, nil
	}
	o.Status = StatusCancelled
	if o.PaymentStatus == PaymentPending {
		o.PaymentStatus = PaymentFailed
	}
	return true, nil
}

type mockAddressBook struct {
	saved []Address
}

func (m *mockAddressBook) Save(_ context.Context, a Address) (string, error) {
	m.saved = append(m.saved, a)
	return "addr-1", nil
}

type mockCartStore struct {
	carts   map[string]*cart.Cart
	cleared []string
}

func newCartStore() *mockCartStore {
	return &mockCartStore{carts: make(map[string]*cart.Cart)}
}

func (m *mockCartStore) Get(_ context.Context, userID string) (*cart.Cart, error) {
	return m.carts[userID], nil
}

func (m *mockCartStore) Clear(_ context.Context, userID string) error {
	m.cleared = append(m.cleared, userID)
	delete(m.carts, userID)
	return nil
}

type mockProductRepo struct {
	byID map[string]product.Product
}

func newProductRepo(products ...product.Product) *mockProductRepo {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockProductRepo{byID: byID}
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) { return nil, nil }

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type adjustment struct {
	productID string
	quantity  int
}

type mockInventory struct {
	decremented []adjustment
	restored    []adjustment
	failures    []inventory.AdjustmentFailure
}

func (m *mockInventory) DecrementForOrder(_ context.Context, items []inventory.ItemAdjustment) []inventory.AdjustmentFailure {
	for _, it := range items {
		m.decremented = append(m.decremented, adjustment{it.ProductID, it.Quantity})
	}
	return m.failures
}

func (m *mockInventory) RestoreForOrder(_ context.Context, items []inventory.ItemAdjustment) []inventory.AdjustmentFailure {
	for _, it := range items {
		m.restored = append(m.restored, adjustment{it.ProductID, it.Quantity})
	}
	return m.failures
}

type mockGateway struct {
	sessions int
	err      error
}

func (m *mockGateway) CreateSession(_ context.Context, req gateway.SessionRequest) (*gateway.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.sessions++
	return &gateway.Session{ID: "sess_test", RedirectURL: "https://pay.example/" + req.OrderID}, nil
}

func (m *mockGateway) CreateIntent(_ context.Context, _ gateway.IntentRequest) (*gateway.Intent, error) {
	return &gateway.Intent{ID: "pi_test", ClientSecret: "secret"}, nil
}

type mockIdempotency struct {
	entries map[string]string
}

func newIdempotency() *mockIdempotency {
	return &mockIdempotency{entries: make(map[string]string)}
}

func (m *mockIdempotency) Remember(_ context.Context, key, orderID string) error {
	m.entries[key] = orderID
	return nil
}

func (m *mockIdempotency) Recall(_ context.Context, key string) (string, bool, error) {
	id, ok := m.entries[key]
	return id, ok, nil
}

type mockPublisher struct {
	published []events.Event
}

func (m *mockPublisher) Publish(_ context.Context, ev events.Event) error {
	m.published = append(m.published, ev)
	return nil
}

func (m *mockPublisher) types() []string {
	out := make([]string, len(m.published))
	for i, ev := range m.published {
		out[i] = ev.Type
	}
	return out
}

type mockPromoValidator struct {
	discount *promo.Discount
	err      error
}

func (m *mockPromoValidator) Validate(_ context.Context, _ string, _ []promo.Item) (*promo.Discount, error) {
	return m.discount, m.err
}

// --- Helpers ---

type fixture struct {
	svc       *Service
	orders    *mockOrderRepo
	carts     *mockCartStore
	inventory *mockInventory
	gateway   *mockGateway
	idemp     *mockIdempotency
	events    *mockPublisher
	addresses *mockAddressBook
	promos    *mockPromoValidator
}

func newFixture(products ...product.Product) *fixture {
	f := &fixture{
		orders:    newOrderRepo(),
		carts:     newCartStore(),
		inventory: &mockInventory{},
		gateway:   &mockGateway{},
		idemp:     newIdempotency(),
		events:    &mockPublisher{},
		addresses: &mockAddressBook{},
		promos:    &mockPromoValidator{},
	}
	f.svc = NewService(Deps{
		Orders:      f.orders,
		Addresses:   f.addresses,
		Carts:       f.carts,
		Products:    newProductRepo(products...),
		Inventory:   f.inventory,
		Gateway:     f.gateway,
		Promos:      f.promos,
		Idempotency: f.idemp,
		Events:      f.events,
	}, Pricing{
		TaxRate:             decimal.RequireFromString("0.18"),
		ShippingRates:       map[string]decimal.Decimal{"standard": decimal.NewFromInt(99)},
		DefaultShippingCost: decimal.NewFromInt(99),
		Currency:            "INR",
	}, RetryPolicy{Attempts: 3, Delay: 1})
	return f
}

func testProduct(id string, price string) product.Product {
	return product.Product{ID: id, Name: "Product " + id, Price: decimal.RequireFromString(price)}
}

func (f *fixture) withCart(userID string, items ...cart.Item) {
	c := &cart.Cart{ID: "cart-" + userID, UserID: userID, Items: items}
	c.Recalculate()
	f.carts.carts[userID] = c
}

// --- Tests ---

func TestSubmitOrder_EmptyCart(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:        "u1",
		PaymentMethod: MethodCard,
	})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestSubmitOrder_UnknownPaymentMethod(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:        "u1",
		PaymentMethod: "crypto",
	})
	require.ErrorIs(t, err, ErrUnknownPaymentMethod)
}

func TestSubmitOrder_CardTotalsAndRedirect(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.withCart("u1", cart.Item{ProductID: "10", Quantity: 2, UnitPrice: decimal.NewFromInt(500)})

	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:         "u1",
		PaymentMethod:  MethodCard,
		ShippingMethod: "standard",
	})
	require.NoError(t, err)

	o := res.Order
	assert.True(t, decimal.NewFromInt(1000).Equal(o.Subtotal), "subtotal %s", o.Subtotal)
	assert.True(t, decimal.NewFromInt(180).Equal(o.Tax), "tax %s", o.Tax)
	assert.True(t, decimal.NewFromInt(99).Equal(o.ShippingCost), "shipping %s", o.ShippingCost)
	assert.True(t, decimal.NewFromInt(1279).Equal(o.Total), "total %s", o.Total)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, "https://pay.example/"+o.ID, res.RedirectURL)
	assert.Equal(t, "sess_test", o.PaymentRef)

	// Stock is reserved immediately, but the cart survives until payment.
	assert.Equal(t, []adjustment{{"10", 2}}, f.inventory.decremented)
	assert.Empty(t, f.carts.cleared)
	assert.Equal(t, []string{events.TypeOrderCreated}, f.events.types())
}

func TestSubmitOrder_TotalInvariant(t *testing.T) {
	f := newFixture(testProduct("10", "500"), testProduct("11", "149.50"))
	f.withCart("u1",
		cart.Item{ProductID: "10", Quantity: 2, UnitPrice: decimal.NewFromInt(500)},
		cart.Item{ProductID: "11", Quantity: 3, UnitPrice: decimal.RequireFromString("149.50")},
	)

	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:        "u1",
		PaymentMethod: MethodCard,
	})
	require.NoError(t, err)

	o := res.Order
	want := o.Subtotal.Add(o.Tax).Add(o.ShippingCost).Sub(o.Discount)
	assert.True(t, want.Equal(o.Total), "total %s != %s", o.Total, want)
}

func TestSubmitOrder_SynchronousSettlement(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.withCart("u1", cart.Item{ProductID: "10", Quantity: 1, UnitPrice: decimal.NewFromInt(500)})

	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:        "u1",
		PaymentMethod: MethodCashOnDelivery,
	})
	require.NoError(t, err)

	assert.Equal(t, PaymentPaid, res.Order.PaymentStatus)
	assert.Empty(t, res.RedirectURL)
	assert.Equal(t, []string{"u1"}, f.carts.cleared)
	assert.Equal(t, []string{events.TypeOrderCreated, events.TypeOrderPaid}, f.events.types())
	assert.Zero(t, f.gateway.sessions)
}

func TestSubmitOrder_DropsInvalidLines(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.withCart("u1",
		cart.Item{ProductID: "10", Quantity: 1, UnitPrice: decimal.NewFromInt(500)},
		cart.Item{ProductID: "ghost", Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
		cart.Item{ProductID: "10", Quantity: 0, UnitPrice: decimal.NewFromInt(500)},
	)

	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:        "u1",
		PaymentMethod: MethodCashOnDelivery,
	})
	require.NoError(t, err)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, "10", res.Order.Items[0].ProductID)
}

func TestSubmitOrder_PriceFallsBackToCatalog(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.withCart("u1", cart.Item{ProductID: "10", Quantity: 2})

	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:        "u1",
		PaymentMethod: MethodCashOnDelivery,
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(res.Order.Subtotal))
}

func TestSubmitOrder_PromoDiscount(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.promos.discount = &promo.Discount{Amount: decimal.NewFromInt(100), Description: "welcome"}
	f.withCart("u1", cart.Item{ProductID: "10", Quantity: 2, UnitPrice: decimal.NewFromInt(500)})

	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:        "u1",
		PaymentMethod: MethodCashOnDelivery,
		PromoCode:     "WELCOME10",
	})
	require.NoError(t, err)

	o := res.Order
	assert.True(t, decimal.NewFromInt(100).Equal(o.Discount))
	// 1000 + 180 + 99 - 100
	assert.True(t, decimal.NewFromInt(1179).Equal(o.Total), "total %s", o.Total)
}

func TestSubmitOrder_InvalidPromo(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.promos.err = promo.ErrInvalidCode
	f.withCart("u1", cart.Item{ProductID: "10", Quantity: 1, UnitPrice: decimal.NewFromInt(500)})

	_, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:        "u1",
		PaymentMethod: MethodCard,
		PromoCode:     "NOPE",
	})
	require.ErrorIs(t, err, promo.ErrInvalidCode)
	assert.Zero(t, f.orders.creates)
}

func TestSubmitOrder_SavesAddresses(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.withCart("u1", cart.Item{ProductID: "10", Quantity: 1, UnitPrice: decimal.NewFromInt(500)})

	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:          "u1",
		PaymentMethod:   MethodCashOnDelivery,
		BillingAddress:  &Address{Line1: "1 Main St", City: "Pune", Country: "IN"},
		ShippingAddress: &Address{Line1: "2 Side St", City: "Pune", Country: "IN"},
	})
	require.NoError(t, err)

	require.Len(t, f.addresses.saved, 2)
	assert.Equal(t, "u1", f.addresses.saved[0].UserID)
	assert.NotEmpty(t, res.Order.BillingAddressID)
	assert.NotEmpty(t, res.Order.ShippingAddressID)
}

func TestSubmitOrder_RetriesPersistence(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.orders.createFails = 2
	f.withCart("u1", cart.Item{ProductID: "10", Quantity: 1, UnitPrice: decimal.NewFromInt(500)})

	_, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:        "u1",
		PaymentMethod: MethodCashOnDelivery,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, f.orders.creates)
}

func TestSubmitOrder_PersistenceExhausted(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.orders.createErr = errors.New("db down")
	f.withCart("u1", cart.Item{ProductID: "10", Quantity: 1, UnitPrice: decimal.NewFromInt(500)})

	_, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:        "u1",
		PaymentMethod: MethodCashOnDelivery,
	})
	require.Error(t, err)
	assert.Equal(t, 3, f.orders.creates)
	assert.Empty(t, f.inventory.decremented)
}

func TestSubmitOrder_IdempotentReplay(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.withCart("u1", cart.Item{ProductID: "10", Quantity: 2, UnitPrice: decimal.NewFromInt(500)})

	first, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:         "u1",
		PaymentMethod:  MethodCard,
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)

	second, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:         "u1",
		PaymentMethod:  MethodCard,
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.ID, second.Order.ID)
	// The unpaid card order gets a fresh session on replay.
	assert.NotEmpty(t, second.RedirectURL)
	assert.Equal(t, 2, f.gateway.sessions)
	// No second decrement and no second created event.
	assert.Equal(t, []adjustment{{"10", 2}}, f.inventory.decremented)
	assert.Equal(t, []string{events.TypeOrderCreated}, f.events.types())
}

func TestSubmitOrder_ReplayOfPaidOrderSkipsSession(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.withCart("u1", cart.Item{ProductID: "10", Quantity: 1, UnitPrice: decimal.NewFromInt(500)})

	first, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:         "u1",
		PaymentMethod:  MethodCard,
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)

	_, err = f.svc.ReconcilePaymentStatus(context.Background(), first.Order.ID, FlagSuccess)
	require.NoError(t, err)

	second, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:         "u1",
		PaymentMethod:  MethodCard,
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Empty(t, second.RedirectURL)
	assert.Equal(t, 1, f.gateway.sessions)
}

func TestSubmitOrder_GatewayFailureKeepsOrder(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.gateway.err = errors.New("gateway down")
	f.withCart("u1", cart.Item{ProductID: "10", Quantity: 1, UnitPrice: decimal.NewFromInt(500)})

	_, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:         "u1",
		PaymentMethod:  MethodCard,
		IdempotencyKey: "key-1",
	})
	require.Error(t, err)

	// The order exists and a retry with the same key replays it.
	require.Len(t, f.orders.orders, 1)
	f.gateway.err = nil
	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:         "u1",
		PaymentMethod:  MethodCard,
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.NotEmpty(t, res.RedirectURL)
}

func TestReconcile_Success(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.withCart("u1", cart.Item{ProductID: "10", Quantity: 2, UnitPrice: decimal.NewFromInt(500)})

	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:        "u1",
		PaymentMethod: MethodCard,
	})
	require.NoError(t, err)

	o, err := f.svc.ReconcilePaymentStatus(context.Background(), res.Order.ID, FlagSuccess)
	require.NoError(t, err)

	assert.Equal(t, PaymentPaid, o.PaymentStatus)
	assert.Equal(t, []string{"u1"}, f.carts.cleared)
	assert.Equal(t, []string{events.TypeOrderCreated, events.TypeOrderPaid}, f.events.types())
}

func TestReconcile_SuccessIsIdempotent(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.withCart("u1", cart.Item{ProductID: "10", Quantity: 2, UnitPrice: decimal.NewFromInt(500)})

	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:        "u1",
		PaymentMethod: MethodCard,
	})
	require.NoError(t, err)

	_, err = f.svc.ReconcilePaymentStatus(context.Background(), res.Order.ID, FlagSuccess)
	require.NoError(t, err)
	o, err := f.svc.ReconcilePaymentStatus(context.Background(), res.Order.ID, FlagSuccess)
	require.NoError(t, err)

	assert.Equal(t, PaymentPaid, o.PaymentStatus)
	// Only one paid event despite two confirmations.
	assert.Equal(t, []string{events.TypeOrderCreated, events.TypeOrderPaid}, f.events.types())
}

func TestReconcile_CancelLeavesOrderUnpaid(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.withCart("u1", cart.Item{ProductID: "10", Quantity: 2, UnitPrice: decimal.NewFromInt(500)})

	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:        "u1",
		PaymentMethod: MethodCard,
	})
	require.NoError(t, err)

	o, err := f.svc.ReconcilePaymentStatus(context.Background(), res.Order.ID, FlagCancel)
	require.NoError(t, err)

	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, StatusPending, o.Status)
	// The cart survives and stock stays reserved for a payment retry.
	assert.Empty(t, f.carts.cleared)
	assert.Empty(t, f.inventory.restored)
}

func TestReconcile_UnknownFlag(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ReconcilePaymentStatus(context.Background(), "any", ReconcileFlag("maybe"))
	require.ErrorIs(t, err, ErrUnknownReconcileFlag)
}

func TestReconcile_UnknownOrder(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ReconcilePaymentStatus(context.Background(), "missing", FlagSuccess)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCancelOrder_RestoresInventory(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.withCart("u1", cart.Item{ProductID: "10", Quantity: 2, UnitPrice: decimal.NewFromInt(500)})

	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:        "u1",
		PaymentMethod: MethodCard,
	})
	require.NoError(t, err)

	o, err := f.svc.CancelOrder(context.Background(), res.Order.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, o.Status)
	assert.Equal(t, PaymentFailed, o.PaymentStatus)
	assert.Equal(t, []adjustment{{"10", 2}}, f.inventory.restored)
	assert.Equal(t, []string{events.TypeOrderCreated, events.TypeOrderCancelled}, f.events.types())
}

func TestCancelOrder_NotCancellable(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.withCart("u1", cart.Item{ProductID: "10", Quantity: 1, UnitPrice: decimal.NewFromInt(500)})

	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:        "u1",
		PaymentMethod: MethodCard,
	})
	require.NoError(t, err)

	f.orders.orders[res.Order.ID].Status = StatusShipped

	_, err = f.svc.CancelOrder(context.Background(), res.Order.ID)
	require.ErrorIs(t, err, ErrNotCancellable)
	assert.Empty(t, f.inventory.restored)
}

func TestCancelOrder_Twice(t *testing.T) {
	f := newFixture(testProduct("10", "500"))
	f.withCart("u1", cart.Item{ProductID: "10", Quantity: 1, UnitPrice: decimal.NewFromInt(500)})

	res, err := f.svc.SubmitOrder(context.Background(), SubmitRequest{
		UserID:        "u1",
		PaymentMethod: MethodCard,
	})
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(context.Background(), res.Order.ID)
	require.NoError(t, err)
	_, err = f.svc.CancelOrder(context.Background(), res.Order.ID)
	require.ErrorIs(t, err, ErrNotCancellable)
	// Stock was restored exactly once.
	assert.Equal(t, []adjustment{{"10", 1}}, f.inventory.restored)
}
