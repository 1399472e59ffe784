package order

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/storekit/checkout/internal/domain/cart"
	"github.com/storekit/checkout/internal/domain/inventory"
	"github.com/storekit/checkout/internal/domain/product"
	"github.com/storekit/checkout/internal/domain/promo"
	"github.com/storekit/checkout/internal/events"
	"github.com/storekit/checkout/internal/gateway"
)

// Sentinel errors surfaced to callers before any side effect.
var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrNotFound             = errors.New("order not found")
	ErrNotCancellable       = errors.New("order is not cancellable")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrUnknownReconcileFlag = errors.New("unknown payment status flag")
)

// CartStore is the slice of the cart collaborator the workflow consumes:
// read the cart at submission, clear it after successful payment.
type CartStore interface {
	Get(ctx context.Context, userID string) (*cart.Cart, error)
	Clear(ctx context.Context, userID string) error
}

// InventoryAdjuster applies best-effort stock adjustments for an order.
// Failures are reported, never returned as errors: inventory trouble must
// not block checkout or cancellation.
type InventoryAdjuster interface {
	DecrementForOrder(ctx context.Context, items []inventory.ItemAdjustment) []inventory.AdjustmentFailure
	RestoreForOrder(ctx context.Context, items []inventory.ItemAdjustment) []inventory.AdjustmentFailure
}

// IdempotencyStore maps client-supplied submission keys to order IDs so a
// retried submit returns the original order instead of creating a second one.
type IdempotencyStore interface {
	Remember(ctx context.Context, key, orderID string) error
	Recall(ctx context.Context, key string) (orderID string, ok bool, err error)
}

// EventPublisher emits order lifecycle events. Publishing is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev events.Event) error
}

// Pricing holds the tax and shipping parameters applied at submission.
type Pricing struct {
	TaxRate       decimal.Decimal
	ShippingRates map[string]decimal.Decimal
	// DefaultShippingCost applies when the shipping method has no entry in
	// ShippingRates.
	DefaultShippingCost decimal.Decimal
	Currency            string
	// SuccessURL and CancelURL are the redirect targets handed to the
	// payment gateway for the hosted checkout flow.
	SuccessURL string
	CancelURL  string
}

// RetryPolicy bounds the retry loop around order persistence.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// Deps collects the collaborators of the workflow service. Promos,
// Idempotency, Events and Tracer are optional.
type Deps struct {
	Orders      Repository
	Addresses   AddressBook
	Carts       CartStore
	Products    product.Repository
	Inventory   InventoryAdjuster
	Gateway     gateway.Gateway
	Promos      promo.Validator
	Idempotency IdempotencyStore
	Events      EventPublisher
	Tracer      trace.Tracer
}

// Service is the order workflow engine. It owns every order status
// transition and coordinates the cart, inventory ledger and payment gateway
// around order placement, payment reconciliation and cancellation.
type Service struct {
	orders      Repository
	addresses   AddressBook
	carts       CartStore
	products    product.Repository
	inventory   InventoryAdjuster
	gateway     gateway.Gateway
	promos      promo.Validator
	idempotency IdempotencyStore
	events      EventPublisher
	tracer      trace.Tracer

	pricing Pricing
	retry   RetryPolicy
	now     func() time.Time
}

// NewService creates the workflow engine.
func NewService(deps Deps, pricing Pricing, retry RetryPolicy) *Service {
	if deps.Tracer == nil {
		deps.Tracer = noop.NewTracerProvider().Tracer("")
	}
	if retry.Attempts <= 0 {
		retry.Attempts = 3
	}
	if retry.Delay <= 0 {
		retry.Delay = 500 * time.Millisecond
	}
	return &Service{
		orders:      deps.Orders,
		addresses:   deps.Addresses,
		carts:       deps.Carts,
		products:    deps.Products,
		inventory:   deps.Inventory,
		gateway:     deps.Gateway,
		promos:      deps.Promos,
		idempotency: deps.Idempotency,
		events:      deps.Events,
		tracer:      deps.Tracer,
		pricing:     pricing,
		retry:       retry,
		now:         time.Now,
	}
}

// SubmitRequest holds the input for placing an order.
type SubmitRequest struct {
	UserID         string
	PaymentMethod  PaymentMethod
	ShippingMethod string
	PromoCode      string
	IdempotencyKey string

	// BillingAddress and ShippingAddress are persisted when non-nil and
	// their IDs recorded on the order.
	BillingAddress  *Address
	ShippingAddress *Address
}

// SubmitResult is the outcome of a submission. RedirectURL is set for card
// payments; Replayed indicates the idempotency key matched a prior order.
type SubmitResult struct {
	Order       *Order
	RedirectURL string
	Replayed    bool
}

// SubmitOrder turns the user's cart into an order.
//
// The order is the primary write: it is created first and retried a bounded
// number of times. Inventory decrement is best-effort and never rolls the
// order back. For card payments a gateway session is issued and the order
// stays awaiting the asynchronous confirmation; other methods settle
// synchronously and clear the cart.
func (s *Service) SubmitOrder(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	ctx, span := s.tracer.Start(ctx, "order.SubmitOrder")
	defer span.End()
	lg := zctx.From(ctx)

	switch req.PaymentMethod {
	case MethodCard, MethodCashOnDelivery, MethodBankTransfer:
	default:
		return nil, ErrUnknownPaymentMethod
	}

	// Duplicate submission: hand back the original order. The payment
	// reference is superseded so an unpaid card order gets a fresh redirect.
	if req.IdempotencyKey != "" && s.idempotency != nil {
		if existing, ok, err := s.idempotency.Recall(ctx, req.IdempotencyKey); err != nil {
			lg.Warn("idempotency recall failed", zap.Error(err))
		} else if ok {
			return s.replay(ctx, existing)
		}
	}

	crt, err := s.carts.Get(ctx, req.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	if crt == nil || len(crt.Items) == 0 {
		return nil, ErrEmptyCart
	}

	items, err := s.normalizeItems(ctx, crt.Items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	o, err := s.price(ctx, req, items)
	if err != nil {
		return nil, err
	}

	if req.BillingAddress != nil {
		a := *req.BillingAddress
		a.UserID = req.UserID
		if o.BillingAddressID, err = s.addresses.Save(ctx, a); err != nil {
			return nil, errors.Wrap(err, "save billing address")
		}
	}
	if req.ShippingAddress != nil {
		a := *req.ShippingAddress
		a.UserID = req.UserID
		if o.ShippingAddressID, err = s.addresses.Save(ctx, a); err != nil {
			return nil, errors.Wrap(err, "save shipping address")
		}
	}

	if err := s.createWithRetry(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.Remember(ctx, req.IdempotencyKey, o.ID); err != nil {
			lg.Warn("idempotency remember failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	}

	// Best-effort stock reservation: failures are logged and surfaced
	// asynchronously, never block the order.
	s.logAdjustFailures(lg, "decrement", s.inventory.DecrementForOrder(ctx, toAdjustments(o.Items)))

	s.publish(ctx, events.TypeOrderCreated, o)

	if req.PaymentMethod != MethodCard {
		return s.settleSynchronously(ctx, o)
	}

	redirect, err := s.issueSession(ctx, o)
	if err != nil {
		// The order exists and stays PENDING; the client retries with the
		// same idempotency key to get a new session.
		return nil, errors.Wrap(err, "create payment session")
	}
	return &SubmitResult{Order: o, RedirectURL: redirect}, nil
}

// replay returns the order previously created for the same idempotency key.
// An unpaid card order gets a fresh gateway session: the new payment intent
// supersedes the old one.
func (s *Service) replay(ctx context.Context, orderID string) (*SubmitResult, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "load replayed order")
	}
	res := &SubmitResult{Order: o, Replayed: true}
	if o.PaymentMethod == MethodCard && o.PaymentStatus == PaymentPending && o.Status == StatusPending {
		redirect, err := s.issueSession(ctx, o)
		if err != nil {
			return nil, errors.Wrap(err, "recreate payment session")
		}
		res.RedirectURL = redirect
	}
	return res, nil
}

// normalizeItems drops lines that cannot form a valid order instead of
// failing the whole submission: unresolvable products, non-positive
// quantities or prices. Prices are taken from the cart snapshot when valid,
// falling back to the current catalog price.
func (s *Service) normalizeItems(ctx context.Context, lines []cart.Item) ([]Item, error) {
	ids := make([]string, 0, len(lines))
	for _, ln := range lines {
		if ln.ProductID != "" {
			ids = append(ids, ln.ProductID)
		}
	}
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	lg := zctx.From(ctx)
	items := make([]Item, 0, len(lines))
	for _, ln := range lines {
		p, ok := byID[ln.ProductID]
		if !ok || ln.Quantity <= 0 {
			lg.Warn("dropping invalid cart line",
				zap.String("product_id", ln.ProductID),
				zap.Int("quantity", ln.Quantity))
			continue
		}
		price := ln.UnitPrice
		if !price.IsPositive() {
			price = p.Price
		}
		if !price.IsPositive() {
			lg.Warn("dropping cart line without a positive price",
				zap.String("product_id", ln.ProductID))
			continue
		}
		items = append(items, Item{ProductID: ln.ProductID, Quantity: ln.Quantity, UnitPrice: price})
	}
	return items, nil
}

// price builds the order record and computes its totals.
// Total = subtotal + tax + shipping - discount, floored at zero.
func (s *Service) price(ctx context.Context, req SubmitRequest, items []Item) (*Order, error) {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(s.pricing.TaxRate).Round(2)

	shipping := s.pricing.DefaultShippingCost
	if rate, ok := s.pricing.ShippingRates[req.ShippingMethod]; ok {
		shipping = rate
	}

	discount := decimal.Zero
	if req.PromoCode != "" && s.promos != nil {
		promoItems := make([]promo.Item, len(items))
		for i, it := range items {
			promoItems[i] = promo.Item{ProductID: it.ProductID, Price: it.UnitPrice, Quantity: it.Quantity}
		}
		d, err := s.promos.Validate(ctx, req.PromoCode, promoItems)
		if err != nil {
			return nil, errors.Wrap(err, "validate promo code")
		}
		discount = d.Amount.Round(2)
	}

	total := subtotal.Add(tax).Add(shipping).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	now := s.now().UTC()
	return &Order{
		ID:             uuid.New().String(),
		UserID:         req.UserID,
		Items:          items,
		Subtotal:       subtotal,
		Tax:            tax,
		ShippingCost:   shipping,
		Discount:       discount,
		Total:          total.Round(2),
		Status:         StatusPending,
		PaymentStatus:  PaymentPending,
		PaymentMethod:  req.PaymentMethod,
		ShippingMethod: req.ShippingMethod,
		PromoCode:      req.PromoCode,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// createWithRetry persists the order, retrying transient failures a bounded
// number of times with a fixed delay.
func (s *Service) createWithRetry(ctx context.Context, o *Order) error {
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retry.Delay), uint64(s.retry.Attempts-1)),
		ctx,
	)
	return backoff.Retry(func() error {
		return s.orders.Create(ctx, o)
	}, bo)
}

// settleSynchronously completes a non-card order: payment is considered
// collected on delivery or out of band, so the order goes straight to PAID
// and the cart is cleared.
func (s *Service) settleSynchronously(ctx context.Context, o *Order) (*SubmitResult, error) {
	if _, err := s.orders.SetPaymentStatus(ctx, o.ID, PaymentPaid); err != nil {
		return nil, errors.Wrap(err, "mark paid")
	}
	o.PaymentStatus = PaymentPaid
	if err := s.carts.Clear(ctx, o.UserID); err != nil {
		zctx.From(ctx).Warn("clear cart after synchronous payment",
			zap.String("order_id", o.ID), zap.Error(err))
	}
	s.publish(ctx, events.TypeOrderPaid, o)
	return &SubmitResult{Order: o}, nil
}

// issueSession creates a gateway checkout session for the order and records
// its reference.
func (s *Service) issueSession(ctx context.Context, o *Order) (string, error) {
	sess, err := s.gateway.CreateSession(ctx, gateway.SessionRequest{
		OrderID:    o.ID,
		Amount:     o.Total,
		Currency:   s.pricing.Currency,
		SuccessURL: s.pricing.SuccessURL,
		CancelURL:  s.pricing.CancelURL,
	})
	if err != nil {
		return "", err
	}
	if err := s.orders.SetPaymentRef(ctx, o.ID, sess.ID); err != nil {
		return "", errors.Wrap(err, "record payment reference")
	}
	o.PaymentRef = sess.ID
	return sess.RedirectURL, nil
}

// ReconcileFlag is the status carried back from the gateway redirect.
type ReconcileFlag string

const (
	FlagSuccess ReconcileFlag = "success"
	FlagCancel  ReconcileFlag = "cancel"
)

// ReconcilePaymentStatus resolves an order's payment state after the user
// returns from the gateway redirect. It is idempotent: confirming an
// already-PAID order is a no-op success, and clearing an empty cart is an
// ack. A cancel flag leaves the order unpaid; stock stays reserved so the
// customer can retry payment (explicit CancelOrder releases it).
func (s *Service) ReconcilePaymentStatus(ctx context.Context, orderID string, flag ReconcileFlag) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.ReconcilePaymentStatus")
	defer span.End()

	switch flag {
	case FlagSuccess, FlagCancel:
	default:
		return nil, ErrUnknownReconcileFlag
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if flag == FlagCancel {
		return o, nil
	}

	changed, err := s.orders.SetPaymentStatus(ctx, orderID, PaymentPaid)
	if err != nil {
		return nil, errors.Wrap(err, "set payment status")
	}
	o.PaymentStatus = PaymentPaid

	if err := s.carts.Clear(ctx, o.UserID); err != nil {
		zctx.From(ctx).Warn("clear cart after payment confirmation",
			zap.String("order_id", orderID), zap.Error(err))
	}
	if changed {
		s.publish(ctx, events.TypeOrderPaid, o)
	}
	return o, nil
}

// CancelOrder cancels a still-cancellable order and releases its stock.
// Restoration is best-effort: a failed restore is logged and does not
// revert the cancellation.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.CancelOrder")
	defer span.End()
	lg := zctx.From(ctx)

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	changed, err := s.orders.MarkCancelled(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "mark cancelled")
	}
	if !changed {
		return nil, ErrNotCancellable
	}

	o.Status = StatusCancelled
	if o.PaymentStatus == PaymentPending {
		o.PaymentStatus = PaymentFailed
	}

	s.logAdjustFailures(lg, "restore", s.inventory.RestoreForOrder(ctx, toAdjustments(o.Items)))
	s.publish(ctx, events.TypeOrderCancelled, o)
	return o, nil
}

// GetOrder fetches a single order.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

func (s *Service) publish(ctx context.Context, typ string, o *Order) {
	if s.events == nil {
		return
	}
	ev := events.Event{
		ID:         uuid.New().String(),
		Type:       typ,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Total:      o.Total,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		zctx.From(ctx).Warn("publish order event",
			zap.String("type", typ), zap.String("order_id", o.ID), zap.Error(err))
	}
}

func (s *Service) logAdjustFailures(lg *zap.Logger, op string, failures []inventory.AdjustmentFailure) {
	for _, f := range failures {
		lg.Warn("inventory adjustment failed",
			zap.String("op", op),
			zap.String("product_id", f.ProductID),
			zap.Int("delta", f.Delta),
			zap.Error(f.Err))
	}
}

func toAdjustments(items []Item) []inventory.ItemAdjustment {
	out := make([]inventory.ItemAdjustment, len(items))
	for i, it := range items {
		out[i] = inventory.ItemAdjustment{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out
}
