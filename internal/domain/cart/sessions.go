package cart

import (
	"context"
	"sync"
	"time"

	"github.com/xenking/food-kart/internal/pkg/clock"
)

// Sessions keeps one cart per browsing session and drops carts that have
// been idle longer than the configured TTL.
type Sessions struct {
	products Products
	clock    clock.Clock
	ttl      time.Duration

	mu    sync.Mutex
	carts map[string]*session
}

type session struct {
	cart     *Cart
	lastSeen time.Time
}

// NewSessions returns an empty session registry.
func NewSessions(p Products, c clock.Clock, ttl time.Duration) *Sessions {
	return &Sessions{
		products: p,
		clock:    c,
		ttl:      ttl,
		carts:    map[string]*session{},
	}
}

// Get returns the cart for id, creating it on first use.
func (s *Sessions) Get(id string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	sess, ok := s.carts[id]
	if !ok {
		sess = &session{cart: New(s.products, s.clock)}
		s.carts[id] = sess
	}
	sess.lastSeen = now
	return sess.cart
}

// Len reports the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

// Sweep removes idle sessions and returns how many were dropped.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock.Now().Add(-s.ttl)
	n := 0
	for id, sess := range s.carts {
		if sess.lastSeen.Before(cutoff) {
			delete(s.carts, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
