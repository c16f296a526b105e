package memory

import (
	"context"
	"sync"

	"github.com/wikinews-agent/internal/storage"
)

// Store keeps encoded values in a map. Values are copied in and out as JSON
// so callers never share state with the store.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get decodes the value stored under key into dest
func (s *Store) Get(ctx context.Context, key string, dest any) (bool, error) {
	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := storage.Decode(key, data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a JSON copy of value under key
func (s *Store) Set(ctx context.Context, key string, value any) error {
	data, err := storage.Encode(key, value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data[key] = data
	s.mu.Unlock()
	return nil
}

// Close is a no-op for the in-memory store
func (s *Store) Close() error { return nil }

// Migrate is a no-op; there is no schema
func (s *Store) Migrate() error { return nil }
