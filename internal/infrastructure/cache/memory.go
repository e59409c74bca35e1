package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopsmart/backend/internal/domain"
)

// MemoryStore is a thread-safe in-memory key-value store. Entries never expire.
type MemoryStore struct {
	data     map[string][]byte
	mutex    sync.RWMutex
	notifier *notifier
}

var _ domain.KeyValueStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string][]byte),
		notifier: newNotifier(),
	}
}

// Get returns the entries for the keys that are present
func (s *MemoryStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if value, exists := s.data[key]; exists {
			result[key] = cloneBytes(value)
		}
	}
	return result, nil
}

// Set replaces every given entry and notifies subscribers of the keys that changed
func (s *MemoryStore) Set(ctx context.Context, entries map[string][]byte) error {
	// Values must be valid JSON, as they would be in a persistent store
	for key, value := range entries {
		if !json.Valid(value) {
			return fmt.Errorf("value for %q is not valid JSON", key)
		}
	}

	changes := make([]domain.StoreChange, 0, len(entries))

	s.mutex.Lock()
	for key, value := range entries {
		old, existed := s.data[key]
		stored := cloneBytes(value)
		s.data[key] = stored
		if existed && bytes.Equal(old, stored) {
			continue
		}
		change := domain.StoreChange{Key: key, New: cloneBytes(stored)}
		if existed {
			change.Old = old
		}
		changes = append(changes, change)
	}
	s.mutex.Unlock()

	for _, change := range changes {
		s.notifier.publish(change)
	}
	return nil
}

// Delete removes a value from the store
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mutex.Lock()
	old, existed := s.data[key]
	delete(s.data, key)
	s.mutex.Unlock()

	if existed {
		s.notifier.publish(domain.StoreChange{Key: key, Old: old})
	}
	return nil
}

// Subscribe returns a feed of changes to key
func (s *MemoryStore) Subscribe(key string) (<-chan domain.StoreChange, func()) {
	return s.notifier.subscribe(key)
}

// Close ends every subscription
func (s *MemoryStore) Close() error {
	s.notifier.closeAll()
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
