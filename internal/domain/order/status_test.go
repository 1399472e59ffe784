package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusProcessing))
	assert.True(t, CanTransition(StatusPending, StatusCancelled))
	assert.True(t, CanTransition(StatusShipped, StatusDelivered))
	assert.True(t, CanTransition(StatusShipped, StatusReturned))
	assert.True(t, CanTransition(StatusReturned, StatusRefunded))

	assert.False(t, CanTransition(StatusShipped, StatusCancelled))
	assert.False(t, CanTransition(StatusDelivered, StatusPending))
	assert.False(t, CanTransition(StatusCancelled, StatusProcessing))
	assert.False(t, CanTransition(StatusRefunded, StatusPending))
}

func TestCancellable(t *testing.T) {
	assert.True(t, Cancellable(StatusPending))
	assert.True(t, Cancellable(StatusProcessing))
	assert.True(t, Cancellable(StatusConfirmed))

	assert.False(t, Cancellable(StatusShipped))
	assert.False(t, Cancellable(StatusDelivered))
	assert.False(t, Cancellable(StatusCancelled))
}

func TestCanTransitionPayment(t *testing.T) {
	assert.True(t, CanTransitionPayment(PaymentPending, PaymentPaid))
	assert.True(t, CanTransitionPayment(PaymentPending, PaymentFailed))
	assert.True(t, CanTransitionPayment(PaymentFailed, PaymentPaid))

	// PAID is terminal.
	assert.False(t, CanTransitionPayment(PaymentPaid, PaymentPending))
	assert.False(t, CanTransitionPayment(PaymentPaid, PaymentFailed))

	// Same-status writes are harmless no-ops.
	assert.True(t, CanTransitionPayment(PaymentPaid, PaymentPaid))
}
