package docstore

import (
	"context"
	"sync"
)

// Loader reads the current ordered state of a collection.
type Loader func(ctx context.Context) ([]Document, error)

// Subscription turns change signals into full snapshots. Signals that arrive
// while a snapshot is loading collapse into one reload, so the last snapshot
// delivered always reflects the latest state. Callbacks run on the
// subscription goroutine, one at a time.
type Subscription struct {
	load       Loader
	onSnapshot func([]Document)
	onError    func(error)

	signal chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewSubscription starts a subscription and schedules the initial snapshot.
func NewSubscription(load Loader, onSnapshot func([]Document), onError func(error)) *Subscription {
	if onError == nil {
		onError = func(error) {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Subscription{
		load:       load,
		onSnapshot: onSnapshot,
		onError:    onError,
		signal:     make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	s.Notify()
	go s.run()
	return s
}

// Notify requests a fresh snapshot.
func (s *Subscription) Notify() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Fail reports a feed error without stopping the subscription.
func (s *Subscription) Fail(err error) {
	select {
	case <-s.ctx.Done():
	default:
		s.onError(err)
	}
}

// Close stops the subscription. No callback starts after Close returns,
// though one already running may finish.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// Context is cancelled when the subscription is closed.
func (s *Subscription) Context() context.Context { return s.ctx }

// Done is closed once the subscription goroutine has exited.
func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) run() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.signal:
		}
		docs, err := s.load(s.ctx)
		if s.ctx.Err() != nil {
			return
		}
		if err != nil {
			s.onError(err)
			continue
		}
		s.onSnapshot(docs)
	}
}
