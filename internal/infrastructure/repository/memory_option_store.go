package repository

import (
	"context"
	"strings"
	"sync"

	"supachat-woocommerce-layer/internal/ports"
)

// MemoryOptionStore is an in-memory OptionStore for tests and single-process
// deployments without Redis.
type MemoryOptionStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryOptionStore creates an empty in-memory option store.
func NewMemoryOptionStore() *MemoryOptionStore {
	return &MemoryOptionStore{
		values: make(map[string]string),
	}
}

func (s *MemoryOptionStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok, nil
}

func (s *MemoryOptionStore) Put(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryOptionStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *MemoryOptionStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

var _ ports.OptionStore = (*MemoryOptionStore)(nil)
