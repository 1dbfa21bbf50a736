package kvstore

import (
	"context"
	"errors"
	"sync"
)

// MemoryStore is an in-memory Store implementation. All data is lost when the
// process stops; intended for development and tests.
type MemoryStore struct {
	records map[string][]byte
	mutex   sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]byte),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, found := s.records[key]
	if !found {
		return nil, false, nil
	}
	// Copy so callers cannot mutate stored bytes.
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.records[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) SetIfAbsent(ctx context.Context, key string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, found := s.records[key]; found {
		return ErrKeyExists
	}
	s.records[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var current []byte
	if stored, found := s.records[key]; found {
		current = append([]byte(nil), stored...)
	}

	next, err := fn(current)
	if err != nil {
		if errors.Is(err, ErrAbortUpdate) {
			return nil
		}
		return err
	}

	s.records[key] = next
	return nil
}
