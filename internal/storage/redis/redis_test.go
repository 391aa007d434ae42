package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"wallet/internal/storage"
	"wallet/internal/storage/storagetest"
)

func newTestStore(t *testing.T, prefix string) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := New(context.Background(), Options{Addr: mr.Addr(), Prefix: prefix})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, _ := newTestStore(t, "wallet:")
		return s
	})
}

func TestKeysArePrefixed(t *testing.T) {
	s, mr := newTestStore(t, "wallet:")
	if err := s.Set(context.Background(), storage.KeyBudget, "42"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := mr.Get("wallet:monthlyBudget")
	if err != nil || got != "42" {
		t.Fatalf("expected prefixed key, got %q err=%v", got, err)
	}
}

func TestNewRequiresAddress(t *testing.T) {
	if _, err := New(context.Background(), Options{}); err == nil {
		t.Fatal("expected error for empty address")
	}
}

func TestLockIsExclusiveAndReleased(t *testing.T) {
	a, mr := newTestStore(t, "wallet:")
	b, err := New(context.Background(), Options{Addr: mr.Addr(), Prefix: "wallet:"})
	if err != nil {
		t.Fatalf("second client: %v", err)
	}
	defer b.Close()

	unlock, err := a.Lock(context.Background())
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	if !mr.Exists("wallet:lock") {
		t.Fatal("expected lock key to be set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := b.Lock(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("lock b while a holds it = %v, want deadline exceeded", err)
	}

	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if mr.Exists("wallet:lock") {
		t.Fatal("expected lock key to be removed")
	}
	unlock, err = b.Lock(context.Background())
	if err != nil {
		t.Fatalf("lock b after release: %v", err)
	}
	unlock()
}
