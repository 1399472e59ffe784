// Package idempotency maps client-generated submission keys to order IDs so
// duplicate checkout requests replay the original order instead of creating
// a second one.
package idempotency

import "context"

// Store persists key → value mappings with an expiry.
type Store interface {
	Remember(ctx context.Context, key, value string) error
	Recall(ctx context.Context, key string) (value string, ok bool, err error)
}
