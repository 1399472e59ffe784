// Package memory implements the storage contracts in process memory.
// It backs unit tests and the storage=memory development mode. Every store
// clones on read and write so callers never share mutable state.
package memory

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
