package promo

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported promo discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
)

// ErrInvalidCode is returned when a promo code is not found or the cart
// does not satisfy the code's minimum item requirement.
var ErrInvalidCode = errors.New("invalid promo code")

// Rule defines a promo code's discount behaviour and eligibility.
type Rule struct {
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	MinItems     int
	Description  string
}

// Discount holds the computed discount amount and a human-readable
// description carried onto the order.
type Discount struct {
	Amount      decimal.Decimal
	Description string
}

// Item is a cart line for discount calculation purposes.
type Item struct {
	ProductID string
	Price     decimal.Decimal
	Quantity  int
}

// Repository provides lookup of promo rules by code.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
	// ListCodes returns all known codes, used to warm the validator's
	// negative-lookup filter.
	ListCodes(ctx context.Context) ([]string, error)
}
