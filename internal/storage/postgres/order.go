package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storekit/checkout/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Status
// updates are conditional single statements so that concurrent workflow
// calls serialize on the row without explicit locking.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const createOrderSQL = `INSERT INTO orders (
	id, user_id, items, subtotal, tax, shipping_cost, discount, order_total,
	order_status, payment_status, payment_method, shipping_method,
	payment_ref, promo_code, idempotency_key,
	billing_address_id, shipping_address_id, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`

// Create persists a new order. Items are serialized to the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, itemsJSON, o.Subtotal, o.Tax, o.ShippingCost, o.Discount, o.Total,
		string(o.Status), string(o.PaymentStatus), string(o.PaymentMethod), o.ShippingMethod,
		o.PaymentRef, o.PromoCode, o.IdempotencyKey,
		o.BillingAddressID, o.ShippingAddressID, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}
	return nil
}

const getOrderSQL = `SELECT
	id, user_id, items, subtotal, tax, shipping_cost, discount, order_total,
	order_status, payment_status, payment_method, shipping_method,
	payment_ref, promo_code, idempotency_key,
	billing_address_id, shipping_address_id, created_at, updated_at
FROM orders WHERE id = $1`

// GetByID fetches a single order, returning order.ErrNotFound when missing.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
		status    string
		payStatus string
		method    string
	)
	err := r.pool.QueryRow(ctx, getOrderSQL, id).Scan(
		&o.ID, &o.UserID, &itemsJSON, &o.Subtotal, &o.Tax, &o.ShippingCost, &o.Discount, &o.Total,
		&status, &payStatus, &method, &o.ShippingMethod,
		&o.PaymentRef, &o.PromoCode, &o.IdempotencyKey,
		&o.BillingAddressID, &o.ShippingAddressID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, errors.Wrap(err, "unmarshal order items")
	}
	o.Status = order.Status(status)
	o.PaymentStatus = order.PaymentStatus(payStatus)
	o.PaymentMethod = order.PaymentMethod(method)
	return &o, nil
}

// SetPaymentStatus moves the payment leg to status when the transition is
// allowed. A write matching no row (already there, or transition forbidden)
// reports changed=false.
func (r *OrderRepository) SetPaymentStatus(ctx context.Context, id string, status order.PaymentStatus) (bool, error) {
	froms := allowedPaymentFroms(status)
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment_status = $2, updated_at = now()
		 WHERE id = $1 AND payment_status = ANY($3)`,
		id, string(status), froms,
	)
	if err != nil {
		return false, errors.Wrapf(err, "set payment status for %q", id)
	}
	return tag.RowsAffected() > 0, nil
}

// SetPaymentRef records the gateway reference for the current attempt.
func (r *OrderRepository) SetPaymentRef(ctx context.Context, id, ref string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment_ref = $2, updated_at = now() WHERE id = $1`,
		id, ref,
	)
	if err != nil {
		return errors.Wrapf(err, "set payment ref for %q", id)
	}
	return nil
}

// MarkCancelled cancels the order when it is still in a cancellable status,
// failing a pending payment leg in the same statement.
func (r *OrderRepository) MarkCancelled(ctx context.Context, id string) (bool, error) {
	cancellable := make([]string, 0, 4)
	for _, s := range []order.Status{
		order.StatusPending, order.StatusProcessing, order.StatusConfirmed,
		order.StatusShipped, order.StatusDelivered, order.StatusReturned,
	} {
		if order.Cancellable(s) {
			cancellable = append(cancellable, string(s))
		}
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET
			order_status = $2,
			payment_status = CASE WHEN payment_status = $3 THEN $4 ELSE payment_status END,
			updated_at = now()
		 WHERE id = $1 AND order_status = ANY($5)`,
		id, string(order.StatusCancelled),
		string(order.PaymentPending), string(order.PaymentFailed),
		cancellable,
	)
	if err != nil {
		return false, errors.Wrapf(err, "cancel order %q", id)
	}
	return tag.RowsAffected() > 0, nil
}

// allowedPaymentFroms lists the statuses the payment leg may move to target
// from, excluding the target itself so repeated writes are no-ops.
func allowedPaymentFroms(target order.PaymentStatus) []string {
	all := []order.PaymentStatus{order.PaymentPending, order.PaymentPaid, order.PaymentFailed}
	froms := make([]string, 0, len(all))
	for _, from := range all {
		if from != target && order.CanTransitionPayment(from, target) {
			froms = append(froms, string(from))
		}
	}
	return froms
}
