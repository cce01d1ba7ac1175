package ristretto_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Strob0t/TaskFlow/internal/adapter/ristretto"
	"github.com/Strob0t/TaskFlow/internal/port/kvstore/kvstoretest"
)

func TestStoreCompliance(t *testing.T) {
	s, err := ristretto.NewMB(1)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()

	kvstoretest.Run(t, s)
}

func TestStoreReturnsCopies(t *testing.T) {
	s, err := ristretto.NewMB(1)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	in := []byte("abc")
	if err := s.Set(ctx, "k", in); err != nil {
		t.Fatal(err)
	}
	in[0] = 'X'

	got, _, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller slice: %q", got)
	}
}

func TestStoreRejectsOversizedValue(t *testing.T) {
	s, err := ristretto.New(64)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()

	err = s.Set(context.Background(), "big", []byte(strings.Repeat("x", 1024)))
	if !errors.Is(err, ristretto.ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}
