// Package storage defines the persistent key-value contract the ledger is
// mirrored to. Backends live in the subpackages.
package storage

import (
	"context"
	"errors"
)

// Keys under which the ledger is persisted.
const (
	KeyExpenses = "expenses"
	KeyBudget   = "monthlyBudget"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// Ports for storage backends.
type (
	// Store is a string-keyed, string-valued persistent map.
	Store interface {
		// Get returns the stored value or ErrNotFound.
		Get(ctx context.Context, key string) (string, error)
		// Set replaces the value stored under key.
		Set(ctx context.Context, key, value string) error
		// Delete removes key. Deleting an absent key is not an error.
		Delete(ctx context.Context, key string) error
		Close() error
	}

	// Pinger is implemented by backends that can report readiness.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Locker is implemented by backends that several processes may share.
	// Lock blocks until the caller holds the store exclusively or ctx is
	// done. The ledger holds it across every read-modify-write.
	Locker interface {
		Lock(ctx context.Context) (unlock func() error, err error)
	}
)
