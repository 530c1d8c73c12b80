package httpmiddleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/jx"
)

// RateLimitConfig configures the per-client request limiter.
type RateLimitConfig struct {
	// Max requests per Window.
	Max    int
	Window time.Duration
	// KeyFunc identifies the client. Defaults to ClientIP.
	KeyFunc func(*http.Request) string
	// Skip exempts requests from counting, e.g. probes and event streams.
	Skip func(*http.Request) bool
}

// counter holds the current and previous window of one client. The previous
// window is weighted by how much of it still overlaps the sliding window.
type counter struct {
	start time.Time
	curr  float64
	prev  float64
}

type limiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu      sync.Mutex
	clients map[string]*counter
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	return &limiter{cfg: cfg, now: time.Now, clients: make(map[string]*counter)}
}

// take counts one request for key and reports the remaining budget, the end
// of the current window and whether the request may proceed.
func (l *limiter) take(key string) (remaining int, reset time.Time, ok bool) {
	now := l.now()
	window := l.cfg.Window

	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.clients[key]
	if c == nil {
		c = &counter{start: now.Truncate(window)}
		l.clients[key] = c
	}
	switch elapsed := now.Sub(c.start); {
	case elapsed >= 2*window:
		c.start, c.prev, c.curr = now.Truncate(window), 0, 0
	case elapsed >= window:
		c.start, c.prev, c.curr = c.start.Add(window), c.curr, 0
	}

	overlap := 1 - now.Sub(c.start).Seconds()/window.Seconds()
	used := c.prev*max(overlap, 0) + c.curr
	reset = c.start.Add(window)
	if used >= float64(l.cfg.Max) {
		return 0, reset, false
	}
	c.curr++
	return max(int(float64(l.cfg.Max)-used-1), 0), reset, true
}

// evict drops clients idle for two full windows.
func (l *limiter) evict() {
	cutoff := l.now().Add(-2 * l.cfg.Window)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, c := range l.clients {
		if c.start.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

func (l *limiter) middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.cfg.Skip != nil && l.cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			remaining, reset, ok := l.take(l.cfg.KeyFunc(r))
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if !ok {
				wait := max(reset.Sub(l.now()), 0)
				h.Set("Retry-After", strconv.Itoa(int((wait+time.Second-1)/time.Second)))
				writeProblem(w, http.StatusTooManyRequests, "Too many requests, please slow down.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit limits each client to cfg.Max requests per sliding window and
// answers 429 with Retry-After beyond that. Every counted response carries
// the X-RateLimit-* headers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newLimiter(cfg).middleware()
}

// RateLimitWithCleanup is RateLimit plus a goroutine evicting idle clients
// until ctx is done.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	go func() {
		ticker := time.NewTicker(2 * cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.evict()
			}
		}
	}()
	return l.middleware()
}

// ClientIP keys requests by the first X-Forwarded-For hop, X-Real-IP or the
// peer address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SessionOrIP keys requests by the named cookie so customers sharing a kiosk
// network are limited per cart, falling back to ClientIP.
func SessionOrIP(cookie string) func(*http.Request) string {
	return func(r *http.Request) string {
		if c, err := r.Cookie(cookie); err == nil && c.Value != "" {
			return "session:" + c.Value
		}
		return ClientIP(r)
	}
}

// writeProblem writes the API error body {"code":..,"message":..}.
func writeProblem(w http.ResponseWriter, status int, message string) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(status) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
