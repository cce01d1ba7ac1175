// Package natskv implements the kvstore port on a NATS JetStream KV bucket.
package natskv

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// Store wraps a NATS JetStream KeyValue bucket.
type Store struct {
	kv jetstream.KeyValue
}

// New creates a NATS KV-backed store.
func New(kv jetstream.KeyValue) *Store {
	return &Store{kv: kv}
}

// Get returns the latest revision of key. Deleted keys read as missing.
func (s *Store) Get(ctx context.Context, key string) (value []byte, ok bool, err error) {
	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("natskv get %s: %w", key, err)
	}
	return entry.Value(), true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.kv.Put(ctx, key, value); err != nil {
		return fmt.Errorf("natskv put %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("natskv delete %s: %w", key, err)
	}
	return nil
}
