package order

// validNext encodes the allowed order status transitions. Shipping states
// advance linearly; cancellation is only possible before shipment.
var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusProcessing: true, StatusConfirmed: true, StatusCancelled: true},
	StatusProcessing: {StatusConfirmed: true, StatusShipped: true, StatusCancelled: true},
	StatusConfirmed:  {StatusShipped: true, StatusCancelled: true},
	StatusShipped:    {StatusDelivered: true, StatusReturned: true},
	StatusDelivered:  {StatusReturned: true},
	StatusReturned:   {StatusRefunded: true},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Cancellable reports whether an order in the given status may still be
// cancelled.
func Cancellable(s Status) bool {
	return CanTransition(s, StatusCancelled)
}

// paymentNext encodes the payment leg transitions. PAID is terminal; a
// FAILED payment may be retried and still succeed.
var paymentNext = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending: {PaymentPaid: true, PaymentFailed: true},
	PaymentFailed:  {PaymentPaid: true},
	PaymentPaid:    {},
}

// CanTransitionPayment reports whether the payment leg may move from one
// status to another. Same-status writes are allowed as idempotent no-ops.
func CanTransitionPayment(from, to PaymentStatus) bool {
	if from == to {
		return true
	}
	return paymentNext[from][to]
}
