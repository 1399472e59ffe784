// Package events publishes order lifecycle notifications. Publishing is a
// best-effort supplement to the polling reconciliation path, never a
// replacement for it.
package events

import (
	"context"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Event types emitted by the order workflow.
const (
	TypeOrderCreated   = "order.created"
	TypeOrderPaid      = "order.paid"
	TypeOrderCancelled = "order.cancelled"
)

// Event is a single order lifecycle notification.
type Event struct {
	ID         string
	Type       string
	OrderID    string
	UserID     string
	Total      decimal.Decimal
	OccurredAt time.Time
}

// Encode renders the event envelope as JSON.
func (ev Event) Encode() []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("event_id")
	e.Str(ev.ID)
	e.FieldStart("event_type")
	e.Str(ev.Type)
	e.FieldStart("order_id")
	e.Str(ev.OrderID)
	e.FieldStart("user_id")
	e.Str(ev.UserID)
	e.FieldStart("order_total")
	e.Str(ev.Total.StringFixed(2))
	e.FieldStart("occurred_at")
	e.Str(ev.OccurredAt.UTC().Format(time.RFC3339Nano))
	e.ObjEnd()
	return e.Bytes()
}

// Publisher emits events to an external bus.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

var _ Publisher = Noop{}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

// Publish discards the event.
func (Noop) Publish(context.Context, Event) error { return nil }
