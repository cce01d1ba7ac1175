// Package ristretto implements the kvstore port on top of dgraph-io/ristretto.
// It serves both as the volatile "memory" backend and as the L1 of the
// tiered store.
package ristretto

import (
	"context"
	"errors"
	"slices"

	"github.com/dgraph-io/ristretto/v2"
)

// ErrRejected is returned when the admission policy refuses a value,
// typically because it is larger than the configured budget.
var ErrRejected = errors.New("ristretto: value rejected by admission policy")

// Store wraps a ristretto cache as an in-process kvstore.
type Store struct {
	c *ristretto.Cache[string, []byte]
}

// New creates a ristretto-backed store. maxCostBytes is the maximum total
// size of stored values in bytes.
func New(maxCostBytes int64) (*Store, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: max(maxCostBytes/100*10, 1000), // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Store{c: c}, nil
}

// NewMB is New with the budget given in megabytes.
func NewMB(maxMB int64) (*Store, error) {
	return New(maxMB << 20)
}

func (s *Store) Get(_ context.Context, key string) (value []byte, ok bool, err error) {
	val, found := s.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return slices.Clone(val), true, nil
}

// Set stores value and waits for the write buffer to drain so the value is
// visible to the next Get.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	v := slices.Clone(value)
	if v == nil {
		v = []byte{}
	}
	if !s.c.Set(key, v, int64(len(v))) {
		return ErrRejected
	}
	s.c.Wait()
	if _, ok := s.c.Get(key); !ok {
		return ErrRejected
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.c.Del(key)
	return nil
}

// Close shuts down the cache and releases resources.
func (s *Store) Close() error {
	s.c.Close()
	return nil
}
