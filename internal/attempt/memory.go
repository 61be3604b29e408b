package attempt

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type counter struct {
	count     int
	expiresAt time.Time
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// MemoryStore is the in-process store. Counters use fixed windows that start
// at the first attempt, like the redis store.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]counter
	tokens   map[uuid.UUID]cachedToken
	now      func() time.Time
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]counter),
		tokens:   make(map[uuid.UUID]cachedToken),
		now:      time.Now,
	}
}

// SetClock replaces time.Now, for tests
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) CheckAndIncrement(_ context.Context, key string, max int, window time.Duration) (bool, error) {
	if max <= 0 {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, ok := s.counters[key]
	if !ok || !now.Before(c.expiresAt) {
		c = counter{expiresAt: now.Add(window)}
	}
	if c.count >= max {
		return false, nil
	}
	c.count++
	s.counters[key] = c
	return true, nil
}

func (s *MemoryStore) CacheResetToken(_ context.Context, userID uuid.UUID, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = cachedToken{token: token, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) GetResetToken(_ context.Context, userID uuid.UUID) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[userID]
	if !ok {
		return "", false, nil
	}
	if !s.now().Before(t.expiresAt) {
		delete(s.tokens, userID)
		return "", false, nil
	}
	return t.token, true, nil
}

func (s *MemoryStore) InvalidateResetToken(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userID)
	return nil
}

// Prune drops expired counters and tokens and returns how many entries were removed
func (s *MemoryStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, c := range s.counters {
		if !now.Before(c.expiresAt) {
			delete(s.counters, k)
			removed++
		}
	}
	for k, t := range s.tokens {
		if !now.Before(t.expiresAt) {
			delete(s.tokens, k)
			removed++
		}
	}
	return removed
}
