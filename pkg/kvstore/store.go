package kvstore

import "context"

// UpdateFunc mutates the current value of a key. current is nil when the key
// does not exist. Returning ErrAbortUpdate leaves the key untouched.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is the key-value interface backing account and credential records.
// Implementations must provide per-key write atomicity: SetIfAbsent and
// Update observe and modify a key under a single critical section.
type Store interface {
	// Get returns the value for key, or found=false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set writes the value for key unconditionally.
	Set(ctx context.Context, key string, value []byte) error
	// SetIfAbsent writes the value only when the key does not exist yet.
	// Returns ErrKeyExists otherwise.
	SetIfAbsent(ctx context.Context, key string, value []byte) error
	// Update applies fn to the current value of key atomically.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}
