package memory

import (
	"context"
	"sync"

	"github.com/storekit/checkout/internal/domain/promo"
)

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository is an in-memory promo.Repository.
type PromoRepository struct {
	mu    sync.RWMutex
	rules map[string]promo.Rule
}

// NewPromoRepository creates a repository pre-loaded with the given rules.
func NewPromoRepository(rules ...promo.Rule) *PromoRepository {
	r := &PromoRepository{rules: make(map[string]promo.Rule, len(rules))}
	for _, rule := range rules {
		r.rules[rule.Code] = rule
	}
	return r
}

// FindByCode returns the rule for code, or promo.ErrInvalidCode.
func (r *PromoRepository) FindByCode(_ context.Context, code string) (*promo.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[code]
	if !ok {
		return nil, promo.ErrInvalidCode
	}
	return &rule, nil
}

// ListCodes returns every known promo code.
func (r *PromoRepository) ListCodes(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.rules))
	for code := range r.rules {
		out = append(out, code)
	}
	return out, nil
}
