package promo

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Apply calculates the discount for the given rule and cart items.
// It returns ErrInvalidCode when the cart does not satisfy the rule's
// minimum item count requirement.
func Apply(rule *Rule, items []Item) (Discount, error) {
	if rule.MinItems > 0 && totalQuantity(items) < rule.MinItems {
		return Discount{}, ErrInvalidCode
	}

	subtotal := calcSubtotal(items)

	switch rule.DiscountType {
	case DiscountPercentage:
		amount := subtotal.Mul(rule.Value).Div(hundred)
		return Discount{Amount: floorAtZero(amount).Round(2), Description: rule.Description}, nil
	case DiscountFixed:
		amount := decimal.Min(rule.Value, subtotal)
		return Discount{Amount: floorAtZero(amount).Round(2), Description: rule.Description}, nil
	default:
		return Discount{}, errors.Errorf("unsupported discount type: %q", rule.DiscountType)
	}
}

func calcSubtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

func totalQuantity(items []Item) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
