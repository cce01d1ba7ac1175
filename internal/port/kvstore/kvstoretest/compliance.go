// Package kvstoretest provides a compliance suite shared by kvstore adapters.
package kvstoretest

import (
	"context"
	"testing"

	"github.com/Strob0t/TaskFlow/internal/port/kvstore"
)

// Run runs the standard compliance test suite against any kvstore.Store.
func Run(t *testing.T, s kvstore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		if err := s.Set(ctx, "compliance-key", []byte(`[{"id":"a"}]`)); err != nil {
			t.Fatal(err)
		}
		val, found, err := s.Get(ctx, "compliance-key")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after Set")
		}
		if string(val) != `[{"id":"a"}]` {
			t.Fatalf("unexpected value %s", val)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		_, found, err := s.Get(ctx, "nonexistent-key")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss for nonexistent key")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = s.Set(ctx, "del-key", []byte("del-val"))
		if err := s.Delete(ctx, "del-key"); err != nil {
			t.Fatal(err)
		}
		_, found, err := s.Get(ctx, "del-key")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss after Delete")
		}
	})

	t.Run("DeleteNonexistent", func(t *testing.T) {
		if err := s.Delete(ctx, "never-existed"); err != nil {
			t.Fatal("Delete of nonexistent key should not error")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		_ = s.Set(ctx, "ow-key", []byte("v1"))
		_ = s.Set(ctx, "ow-key", []byte("v2"))
		val, found, err := s.Get(ctx, "ow-key")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after overwrite")
		}
		if string(val) != "v2" {
			t.Fatalf("expected v2 after overwrite, got %s", val)
		}
	})

	t.Run("EmptyValue", func(t *testing.T) {
		if err := s.Set(ctx, "empty-key", []byte("[]")); err != nil {
			t.Fatal(err)
		}
		val, found, err := s.Get(ctx, "empty-key")
		if err != nil {
			t.Fatal(err)
		}
		if !found || string(val) != "[]" {
			t.Fatalf("expected [], got %q (found=%v)", val, found)
		}
	})
}
