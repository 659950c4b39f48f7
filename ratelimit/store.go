package ratelimit

import (
	"sync"
	"time"
)

// Entry is one client's attempt counter within the current window.
type Entry struct {
	Count         int
	WindowResetAt time.Time
}

// Store holds per-client rate-limit entries. Implementations must be safe
// for concurrent use; the Limiter serializes its read-modify-write cycle, so
// a store only needs per-call safety. Swapping in a shared backend (e.g. a
// Redis hash) makes the limiter consistent across replicas.
type Store interface {
	Get(clientID string) (Entry, bool)
	Put(clientID string, entry Entry)
	Delete(clientID string)
	// Sweep discards entries whose window ended before now.
	Sweep(now time.Time)
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a process-local Store backed by a mutex-guarded map.
// It gives no cross-instance guarantee: when the service is scaled
// horizontally each replica counts attempts independently.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
	}
}

func (s *MemoryStore) Get(clientID string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[clientID]
	return entry, ok
}

func (s *MemoryStore) Put(clientID string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[clientID] = entry
}

func (s *MemoryStore) Delete(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, clientID)
}

func (s *MemoryStore) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for clientID, entry := range s.entries {
		if now.After(entry.WindowResetAt) {
			delete(s.entries, clientID)
		}
	}
}

// Len reports the number of live entries, for tests and diagnostics.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
