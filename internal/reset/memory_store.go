package reset

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	rec      Record
	expireAt time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore builds an in-memory token store for tests and local runs.
// Expiry is checked on access rather than swept in the background.
func NewMemoryStore() TokenStore {
	return &memoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *memoryStore) Put(_ context.Context, token string, rec Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memoryEntry{rec: rec, expireAt: s.now().Add(ttl)}
	return nil
}

func (s *memoryStore) Claim(_ context.Context, token string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[token]
	if !ok {
		return Record{}, false, nil
	}
	delete(s.entries, token)
	if s.now().After(entry.expireAt) {
		return Record{}, false, nil
	}
	return entry.rec, true, nil
}
