// Package file persists the key-value map as a single JSON document on disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"wallet/internal/storage"
)

// Store reads the document from disk on every call, so writes made by
// other processes are seen immediately. Writes go through a temp file and
// a rename so a crash never leaves a half-written document behind.
type Store struct {
	mu   sync.Mutex
	path string
}

var (
	_ storage.Store  = (*Store)(nil)
	_ storage.Locker = (*Store)(nil)
)

// Open prepares path, creating its directory if needed. A missing file is
// an empty store. A file that is not a JSON object is treated as empty and
// replaced on the next write.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := &Store{path: path}
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	items, err := s.read()
	if err != nil {
		return "", err
	}
	v, ok := items[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.read()
	if err != nil {
		return err
	}
	items[key] = value
	return s.flush(items)
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return s.flush(items)
}

// Lock takes an advisory lock on a sibling ".lock" file. The data file
// itself is replaced on every write and cannot carry the lock.
func (s *Store) Lock(ctx context.Context) (func() error, error) {
	return storage.LockFile(ctx, s.path+".lock")
}

// Path returns the location of the backing document.
func (s *Store) Path() string { return s.path }

func (s *Store) Close() error { return nil }

func (s *Store) read() (map[string]string, error) {
	items := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return items, nil
		}
		return nil, fmt.Errorf("read data file: %w", err)
	}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		slog.Warn("Data file is not a valid document, treating it as empty", "path", s.path, "error", err)
		return make(map[string]string), nil
	}
	return items, nil
}

func (s *Store) flush(items map[string]string) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".wallet-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}
