package memory

import (
	"context"
	"sync"

	"wallet/internal/storage"
)

// Store keeps values in process memory. Contents are lost on exit.
type Store struct {
	mu    sync.Mutex
	items map[string]string
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{items: make(map[string]string)}
}

// NewWith returns a store pre-populated with a copy of seed.
func NewWith(seed map[string]string) *Store {
	s := New()
	for k, v := range seed {
		s.items[k] = v
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

func (s *Store) Close() error { return nil }
