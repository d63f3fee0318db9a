package settings

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by a Store when a key was never written
var ErrNotFound = errors.New("settings key not found")

// Store is a flat string key-value store for persisted settings
type Store interface {
	// Get returns the value for key or ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// Put writes all entries. Backends that support it apply them atomically.
	Put(ctx context.Context, entries map[string]string) error

	// Close releases the underlying resources
	Close() error
}

// MemoryStore keeps settings in process memory
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	puts   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Put(ctx context.Context, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range entries {
		s.values[k] = v
	}
	s.puts++
	return nil
}

// Writes reports how many Put calls reached the store
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

func (s *MemoryStore) Close() error {
	return nil
}
