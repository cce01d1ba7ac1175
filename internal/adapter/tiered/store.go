// Package tiered implements a two-level kvstore: a volatile L1 in front of
// a durable L2.
package tiered

import (
	"context"
	"log/slog"

	"github.com/Strob0t/TaskFlow/internal/port/kvstore"
)

// Store combines an L1 (in-process) and L2 (durable) store.
// Get checks L1 first, then L2 (backfilling L1 on an L2 hit).
// Writes go to L2 first so L1 never holds a value L2 refused.
type Store struct {
	l1 kvstore.Store
	l2 kvstore.Store
}

// New creates a tiered store with the given L1 and L2 backends.
func New(l1, l2 kvstore.Store) *Store {
	return &Store{l1: l1, l2: l2}
}

// Get checks L1, then L2. L1 errors degrade to an L2 read.
func (s *Store) Get(ctx context.Context, key string) (value []byte, ok bool, err error) {
	val, found, err := s.l1.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "tiered l1 get failed", "key", key, "error", err)
	} else if found {
		return val, true, nil
	}

	val, found, err = s.l2.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}

	if err := s.l1.Set(ctx, key, val); err != nil {
		slog.WarnContext(ctx, "tiered l1 backfill failed", "key", key, "error", err)
	}
	return val, true, nil
}

// GetFresh reads L2 and resyncs L1 with what it found, so a value written
// by another process replaces a stale L1 entry.
func (s *Store) GetFresh(ctx context.Context, key string) (value []byte, ok bool, err error) {
	val, found, err := s.l2.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		_ = s.l1.Delete(ctx, key)
		return nil, false, nil
	}
	if err := s.l1.Set(ctx, key, val); err != nil {
		slog.WarnContext(ctx, "tiered l1 resync failed", "key", key, "error", err)
	}
	return val, true, nil
}

// Set writes L2, then L1. If L2 fails the L1 entry is dropped so a later
// Get cannot observe the unsaved value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.l2.Set(ctx, key, value); err != nil {
		_ = s.l1.Delete(ctx, key)
		return err
	}
	if err := s.l1.Set(ctx, key, value); err != nil {
		slog.WarnContext(ctx, "tiered l1 set failed", "key", key, "error", err)
		_ = s.l1.Delete(ctx, key)
	}
	return nil
}

// Delete removes from both levels.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.l1.Delete(ctx, key); err != nil {
		return err
	}
	return s.l2.Delete(ctx, key)
}

// Close closes whichever levels hold resources.
func (s *Store) Close() error {
	var firstErr error
	for _, lvl := range []kvstore.Store{s.l1, s.l2} {
		if c, ok := lvl.(kvstore.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
