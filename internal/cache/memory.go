package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in a map. Used by tests and single-process
// runs where cache persistence across restarts is not needed.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if e.Expired(s.now()) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return e.Payload, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, e Entry) error {
	if e.CachedAt.IsZero() {
		e.CachedAt = s.now()
	}
	s.mu.Lock()
	s.entries[e.Key] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, provider string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if provider == "" || e.Provider == provider {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}
