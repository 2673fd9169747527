package storage

import (
	"errors"
	"sync"

	"github.com/arbdesk/arbdesk/ports"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// This is primarily intended for testing purposes.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string

	// Fail makes every operation return an error, simulating disabled
	// storage.
	Fail bool
}

// NewMemoryStorage creates a new in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		data: make(map[string]string),
	}
}

var errStorageDisabled = errors.New("storage disabled")

// Get retrieves a value by key.
func (s *MemoryStorage) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Fail {
		return "", false, errStorageDisabled
	}
	v, ok := s.data[key]
	return v, ok, nil
}

// Set stores a key with a value.
func (s *MemoryStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return errStorageDisabled
	}
	s.data[key] = value
	return nil
}

// Delete removes a key.
func (s *MemoryStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return errStorageDisabled
	}
	delete(s.data, key)
	return nil
}

var _ ports.Storage = (*MemoryStorage)(nil)
