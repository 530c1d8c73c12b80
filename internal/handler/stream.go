package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/food-kart/internal/domain/monitor"
)

const keepAliveInterval = 15 * time.Second

// streams tracks open event streams per admin session so logout can end
// them.
type streams struct {
	mu     sync.Mutex
	open   map[string]map[chan struct{}]struct{}
	closed bool
}

func newStreams() *streams {
	return &streams{open: map[string]map[chan struct{}]struct{}{}}
}

// add registers a stream for token. The returned channel is closed when the
// stream must end.
func (s *streams) add(token string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	done := make(chan struct{})
	if s.closed {
		close(done)
		return done
	}
	if s.open[token] == nil {
		s.open[token] = map[chan struct{}]struct{}{}
	}
	s.open[token][done] = struct{}{}
	return done
}

func (s *streams) remove(token string, done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.open[token]
	if !ok {
		return
	}
	if _, ok := set[done]; !ok {
		return
	}
	delete(set, done)
	close(done)
	if len(set) == 0 {
		delete(s.open, token)
	}
}

// end closes every stream opened with token.
func (s *streams) end(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for done := range s.open[token] {
		close(done)
	}
	delete(s.open, token)
}

func (s *streams) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, set := range s.open {
		for done := range set {
			close(done)
		}
	}
	s.open = map[string]map[chan struct{}]struct{}{}
	s.closed = true
}

func (s *streams) count(token string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open[token])
}

// OrderStream pushes the admin board as Server-Sent Events, one event per
// order snapshot.
func (h *Handler) OrderStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lg := zctx.From(ctx)
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		lg.Debug("Event stream keeps server write timeout", zap.Error(err))
	}

	boards, stop := h.Monitor.Listen()
	defer stop()
	token := tokenFrom(ctx)
	done := h.streams.add(token)
	defer h.streams.remove(token, done)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(b monitor.Board) bool {
		data, err := json.Marshal(boardView(b))
		if err != nil {
			lg.Error("Failed to encode board", zap.Error(err))
			return false
		}
		if _, err := w.Write([]byte("event: board\ndata: ")); err != nil {
			return false
		}
		if _, err := w.Write(data); err != nil {
			return false
		}
		if _, err := w.Write([]byte("\n\n")); err != nil {
			return false
		}
		return rc.Flush() == nil
	}

	if !send(h.Monitor.Board()) {
		return
	}
	ping := time.NewTicker(keepAliveInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case b := <-boards:
			if !send(b) {
				return
			}
		case <-ping.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
