package order

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
)

// ErrNotYetConsistent is returned by the poller when the order did not reach
// the expected state within the attempt bound. The last observed order is
// returned alongside so callers can surface it.
var ErrNotYetConsistent = errors.New("order state not yet consistent")

// PollPolicy bounds the reconciliation read loop.
type PollPolicy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

// DefaultPollPolicy matches the checkout frontend contract: ~1s base delay
// doubling up to ~10s, at most 5 attempts.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		MaxAttempts: 5,
	}
}

// Poller re-reads an order until it is complete, because order detail can
// lag payment confirmation: read-your-writes is not guaranteed across
// services. It is caller-cancellable through the context; abandoning the
// loop leaves no server-side state, a later call starts a fresh cycle.
type Poller struct {
	orders Repository
	policy PollPolicy
}

// NewPoller creates a Poller over the given repository.
func NewPoller(orders Repository, policy PollPolicy) *Poller {
	if policy.MaxAttempts <= 0 {
		policy = DefaultPollPolicy()
	}
	return &Poller{orders: orders, policy: policy}
}

// LoadOrderWithRetries fetches the order, retrying with exponential backoff
// while the record looks incomplete: items missing, or payment still PENDING
// when the caller knows payment succeeded (expectPaid). Exhausting the
// attempt bound returns the last observed order together with
// ErrNotYetConsistent; a missing order is a permanent failure.
func (p *Poller) LoadOrderWithRetries(ctx context.Context, orderID string, expectPaid bool) (*Order, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.policy.BaseDelay
	exp.MaxInterval = p.policy.MaxDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0

	bo := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.policy.MaxAttempts-1)), ctx)

	var last *Order
	err := backoff.Retry(func() error {
		o, err := p.orders.GetByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}
		last = o
		if incomplete(o, expectPaid) {
			return ErrNotYetConsistent
		}
		return nil
	}, bo)
	if err != nil {
		if errors.Is(err, ErrNotYetConsistent) {
			return last, ErrNotYetConsistent
		}
		return nil, err
	}
	return last, nil
}

func incomplete(o *Order, expectPaid bool) bool {
	if len(o.Items) == 0 {
		return true
	}
	return expectPaid && o.PaymentStatus == PaymentPending
}
