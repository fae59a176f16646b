package cache

import (
	"encoding/json"
	"sync"
)

// MemoryStore implements Store with a mutex-guarded map. Entries live until
// deleted, cleared, or the process exits; there is no capacity bound.
type MemoryStore struct {
	mu      sync.RWMutex
	clock   Clock
	entries map[string]Entry
}

// StoreOption configures a MemoryStore
type StoreOption func(*MemoryStore)

// WithClock overrides the clock used to stamp entries
func WithClock(c Clock) StoreOption {
	return func(s *MemoryStore) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewMemoryStore creates an empty store
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		clock:   SystemClock,
		entries: make(map[string]Entry),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get implements Reader
func (s *MemoryStore) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	return e, ok
}

// Set implements Writer
func (s *MemoryStore) Set(key string, value json.RawMessage) {
	// Copy so a caller reusing its buffer cannot mutate a stored entry
	v := make(json.RawMessage, len(value))
	copy(v, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = Entry{Value: v, StoredAt: s.clock.Now()}
}

// Delete implements Writer
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Clear implements Writer
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
}

// Len returns the number of stored entries
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
