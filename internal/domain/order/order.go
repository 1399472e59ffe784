package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates the order lifecycle states. Only the workflow service
// transitions between them; shipping states advance via admin actions.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	StatusReturned   Status = "RETURNED"
	StatusRefunded   Status = "REFUNDED"
)

// PaymentStatus tracks the payment leg of an order independently of the
// shipping leg. PAID is terminal: there is no transition back to PENDING.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// PaymentMethod identifies how the customer pays. Card goes through the
// hosted gateway redirect; everything else settles synchronously.
type PaymentMethod string

const (
	MethodCard           PaymentMethod = "card"
	MethodCashOnDelivery PaymentMethod = "cod"
	MethodBankTransfer   PaymentMethod = "bank_transfer"
)

// Item is a single order line. UnitPrice is captured at submission time so
// later catalog price changes do not affect placed orders.
type Item struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Order is the persistent record produced by checkout.
//
// Invariant: Total == Subtotal + Tax + ShippingCost - Discount.
type Order struct {
	ID                string
	UserID            string
	Items             []Item
	Subtotal          decimal.Decimal
	Tax               decimal.Decimal
	ShippingCost      decimal.Decimal
	Discount          decimal.Decimal
	Total             decimal.Decimal
	Status            Status
	PaymentStatus     PaymentStatus
	PaymentMethod     PaymentMethod
	ShippingMethod    string
	PaymentRef        string
	PromoCode         string
	IdempotencyKey    string
	BillingAddressID  string
	ShippingAddressID string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Address is a billing or shipping address persisted on request during
// checkout.
type Address struct {
	ID         string
	UserID     string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// Repository defines persistence operations for orders. Status updates are
// conditional writes so that concurrent reconciliation calls interleave
// safely: a write that matches no row reports changed=false instead of
// failing.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)

	// SetPaymentStatus idempotently moves the payment leg to the given
	// status. Setting PAID when already PAID is a no-op with changed=false.
	SetPaymentStatus(ctx context.Context, id string, status PaymentStatus) (changed bool, err error)

	// SetPaymentRef records the gateway reference for the current payment
	// attempt, superseding any previous one.
	SetPaymentRef(ctx context.Context, id, ref string) error

	// MarkCancelled cancels the order if it is still cancellable, failing
	// the payment leg when it was pending. changed=false means the order
	// was not in a cancellable state.
	MarkCancelled(ctx context.Context, id string) (changed bool, err error)
}

// AddressBook persists customer addresses.
type AddressBook interface {
	Save(ctx context.Context, a Address) (id string, err error)
}
