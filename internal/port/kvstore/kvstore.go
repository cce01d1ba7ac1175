// Package kvstore defines the port interface for the named persistence slots
// that hold the task list.
package kvstore

import "context"

// Store is a durable key-value slot store. Values are opaque bytes; the
// task list lives under a single key and is overwritten as a whole.
type Store interface {
	// Get returns the value stored under key. ok is false when the key has
	// never been written or was deleted.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Closer is implemented by stores that hold connections or file handles.
type Closer interface {
	Close() error
}

// FreshGetter is implemented by stores that keep a process-local copy of
// values. GetFresh reads past that copy so writes made by other processes
// are seen.
type FreshGetter interface {
	GetFresh(ctx context.Context, key string) (value []byte, ok bool, err error)
}

// Get reads key from s.
func Get(ctx context.Context, s Store, key string) ([]byte, bool, error) {
	return s.Get(ctx, key)
}

// GetFresh reads key from s, bypassing any process-local copy.
func GetFresh(ctx context.Context, s Store, key string) ([]byte, bool, error) {
	if f, ok := s.(FreshGetter); ok {
		return f.GetFresh(ctx, key)
	}
	return s.Get(ctx, key)
}
