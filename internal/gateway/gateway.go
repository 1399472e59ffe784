// Package gateway defines the payment gateway boundary. The gateway is an
// opaque external system: every call can fail or time out, and confirmation
// is never synchronous. It arrives out of band via the browser redirect
// consumed by the order workflow's reconcile operation.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// SessionRequest describes a hosted checkout session to create.
type SessionRequest struct {
	OrderID    string
	Amount     decimal.Decimal
	Currency   string
	SuccessURL string
	CancelURL  string
}

// Session is a hosted checkout session: the customer is sent to RedirectURL
// and returns through the success/cancel URLs with a status flag.
type Session struct {
	ID          string
	RedirectURL string
}

// IntentRequest describes a payment intent for the embedded-form flow.
type IntentRequest struct {
	OrderID  string
	Amount   decimal.Decimal
	Currency string
}

// Intent is an embedded-form payment attempt; ClientSecret is handed to the
// browser-side form.
type Intent struct {
	ID           string
	ClientSecret string
}

// Gateway is the provider-agnostic payment contract.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
}
