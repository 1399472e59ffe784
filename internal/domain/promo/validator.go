package promo

import (
	"context"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
)

// Validator validates a promo code against a set of cart items and returns
// the computed discount.
type Validator interface {
	Validate(ctx context.Context, code string, items []Item) (*Discount, error)
}

// RepoValidator implements Validator backed by a Repository, with an
// optional bloom filter rejecting definitely-unknown codes without a
// repository round trip. False positives fall through to the lookup, so
// the filter never changes results, only cost.
type RepoValidator struct {
	repo   Repository
	filter *bloom.BloomFilter
}

// NewRepoValidator creates a RepoValidator without a code filter.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo}
}

// WarmFilter loads all known codes into a fresh bloom filter. Codes added
// to the repository afterwards miss the filter and are rejected until the
// next warm-up; call it from a startup or periodic refresh path.
func (v *RepoValidator) WarmFilter(ctx context.Context) error {
	codes, err := v.repo.ListCodes(ctx)
	if err != nil {
		return errors.Wrap(err, "list promo codes")
	}
	n := uint(len(codes))
	if n < 1024 {
		n = 1024
	}
	f := bloom.NewWithEstimates(n, 0.001)
	for _, c := range codes {
		f.AddString(c)
	}
	v.filter = f
	return nil
}

// Validate looks up the rule for code and applies it to the items.
// It returns ErrInvalidCode when the code is unknown or the cart does not
// meet the rule's requirements.
func (v *RepoValidator) Validate(ctx context.Context, code string, items []Item) (*Discount, error) {
	if v.filter != nil && !v.filter.TestString(code) {
		return nil, ErrInvalidCode
	}

	rule, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return nil, ErrInvalidCode
		}
		return nil, errors.Wrap(err, "lookup promo code")
	}

	d, err := Apply(rule, items)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
