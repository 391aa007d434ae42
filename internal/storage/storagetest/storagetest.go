// Package storagetest holds behaviour checks shared by every storage backend.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"wallet/internal/storage"
)

// Run exercises the Store contract against a fresh store from newStore.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Get(ctx, storage.KeyExpenses); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		if err := s.Set(ctx, storage.KeyBudget, "10000"); err != nil {
			t.Fatalf("set: %v", err)
		}
		got, err := s.Get(ctx, storage.KeyBudget)
		if err != nil || got != "10000" {
			t.Fatalf("get: %q err=%v", got, err)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		s := newStore(t)
		_ = s.Set(ctx, storage.KeyExpenses, "[]")
		if err := s.Set(ctx, storage.KeyExpenses, `[{"id":1}]`); err != nil {
			t.Fatalf("set: %v", err)
		}
		got, _ := s.Get(ctx, storage.KeyExpenses)
		if got != `[{"id":1}]` {
			t.Fatalf("expected overwritten value, got %q", got)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		_ = s.Set(ctx, storage.KeyBudget, "1")
		if err := s.Delete(ctx, storage.KeyBudget); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.Get(ctx, storage.KeyBudget); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := s.Delete(ctx, "never-written"); err != nil {
			t.Fatalf("delete of absent key: %v", err)
		}
	})
}
