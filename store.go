package persist

import "context"

// Store is the backing store contract: one opaque record per cache name.
//
// Get reports false with a nil error when no record exists for name. Set
// replaces the whole record; records for different names are independent.
type Store interface {
	Driver() Driver
	Get(ctx context.Context, name string) ([]byte, bool, error)
	Set(ctx context.Context, name string, body []byte) error
}

func cloneBytes(value []byte) []byte {
	if value == nil {
		return nil
	}
	clone := make([]byte, len(value))
	copy(clone, value)
	return clone
}
