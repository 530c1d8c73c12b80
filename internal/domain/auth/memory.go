package auth

import (
	"context"
	"sync"
	"time"

	"github.com/xenking/food-kart/internal/pkg/clock"
)

var _ SessionStore = (*MemorySessions)(nil)

// MemorySessions keeps session tokens in process memory.
type MemorySessions struct {
	clock clock.Clock

	mu      sync.Mutex
	expires map[string]time.Time
}

// NewMemorySessions returns an empty in-memory session store.
func NewMemorySessions(c clock.Clock) *MemorySessions {
	return &MemorySessions{clock: c, expires: map[string]time.Time{}}
}

func (s *MemorySessions) Create(_ context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expires[token] = s.clock.Now().Add(ttl)
	return nil
}

func (s *MemorySessions) Valid(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.expires[token]
	if !ok {
		return false, nil
	}
	if !s.clock.Now().Before(exp) {
		delete(s.expires, token)
		return false, nil
	}
	return true, nil
}

func (s *MemorySessions) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expires, token)
	return nil
}
