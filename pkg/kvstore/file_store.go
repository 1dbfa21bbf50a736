package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore is a Store implementation persisted as a single JSON file. Writes
// go to a temp file first and are renamed into place, so a crash mid-write
// never leaves a torn file behind.
type FileStore struct {
	dataDir string
	records map[string][]byte
	mutex   sync.RWMutex
}

// NewFileStore creates a file-backed store under dataDir, loading any
// existing records.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", errors.Join(ErrUnavailable, err))
	}

	store := &FileStore{
		dataDir: dataDir,
		records: make(map[string][]byte),
	}

	if err := store.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return store, nil
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, found := s.records[key]
	if !found {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	previous, had := s.records[key]
	s.records[key] = append([]byte(nil), value...)

	if err := s.save(); err != nil {
		// Rollback
		if had {
			s.records[key] = previous
		} else {
			delete(s.records, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) SetIfAbsent(ctx context.Context, key string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, found := s.records[key]; found {
		return ErrKeyExists
	}
	s.records[key] = append([]byte(nil), value...)

	if err := s.save(); err != nil {
		delete(s.records, key)
		return err
	}
	return nil
}

func (s *FileStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var current []byte
	previous, had := s.records[key]
	if had {
		current = append([]byte(nil), previous...)
	}

	next, err := fn(current)
	if err != nil {
		if errors.Is(err, ErrAbortUpdate) {
			return nil
		}
		return err
	}

	s.records[key] = next
	if err := s.save(); err != nil {
		if had {
			s.records[key] = previous
		} else {
			delete(s.records, key)
		}
		return err
	}
	return nil
}

// load reads records from file
func (s *FileStore) load() error {
	filePath := filepath.Join(s.dataDir, "records.json")

	// If file doesn't exist, start with empty map
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", errors.Join(ErrUnavailable, err))
	}

	if len(data) == 0 {
		return nil
	}

	var records map[string][]byte
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	s.records = records
	if s.records == nil {
		s.records = make(map[string][]byte)
	}
	return nil
}

// save writes records to file atomically
func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Write to temp file first
	tempFile := filepath.Join(s.dataDir, "records.json.tmp")
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", errors.Join(ErrUnavailable, err))
	}

	// Atomic rename
	finalFile := filepath.Join(s.dataDir, "records.json")
	if err := os.Rename(tempFile, finalFile); err != nil {
		return fmt.Errorf("failed to rename file: %w", errors.Join(ErrUnavailable, err))
	}

	return nil
}
