package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps attempts in process memory. Entries older than ttl are
// dropped by Sweep, standing in for session expiry.
type MemoryStore struct {
	mu   sync.Mutex
	last map[string]time.Time
	ttl  time.Duration
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{last: make(map[string]time.Time), ttl: ttl}
}

func (s *MemoryStore) Admit(ctx context.Context, key string, now time.Time, cooldown time.Duration) (bool, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.last[key]; ok {
		if age := now.Sub(prev); age < cooldown {
			return false, cooldown - age, nil
		}
	}
	s.last[key] = now
	return true, 0, nil
}

// Sweep removes entries at least ttl old and returns how many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, ts := range s.last {
		if now.Sub(ts) >= s.ttl {
			delete(s.last, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.last)
}

var _ Store = (*MemoryStore)(nil)
