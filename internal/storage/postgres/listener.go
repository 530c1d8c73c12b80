package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xenking/food-kart/internal/docstore"
)

// notifyChannel matches the trigger in the documents migration.
const notifyChannel = "docstore_changes"

// listener holds one connection in LISTEN mode for the whole store and
// wakes the subscriptions of the collection named in each notification.
type listener struct {
	pool    *pgxpool.Pool
	lg      *zap.Logger
	backoff time.Duration

	mu   sync.Mutex
	subs map[string]map[*docstore.Subscription]struct{}

	startOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

func newListener(pool *pgxpool.Pool, lg *zap.Logger) *listener {
	ctx, cancel := context.WithCancel(context.Background())
	return &listener{
		pool:    pool,
		lg:      lg,
		backoff: time.Second,
		subs:    map[string]map[*docstore.Subscription]struct{}{},
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

func (l *listener) add(collection string, s *docstore.Subscription) {
	l.mu.Lock()
	set, ok := l.subs[collection]
	if !ok {
		set = map[*docstore.Subscription]struct{}{}
		l.subs[collection] = set
	}
	set[s] = struct{}{}
	l.mu.Unlock()

	l.startOnce.Do(func() { go l.run() })
}

func (l *listener) remove(collection string, s *docstore.Subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.subs[collection], s)
}

// stop ends the LISTEN loop and closes every subscription.
func (l *listener) stop() {
	l.cancel()
	started := true
	l.startOnce.Do(func() { started = false })
	if started {
		<-l.done
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, set := range l.subs {
		for s := range set {
			s.Close()
		}
	}
	l.subs = map[string]map[*docstore.Subscription]struct{}{}
}

func (l *listener) run() {
	defer close(l.done)
	for {
		err := l.listen(l.ctx)
		if l.ctx.Err() != nil {
			return
		}
		l.lg.Warn("Change feed connection lost, reconnecting", zap.Error(err), zap.Duration("backoff", l.backoff))
		l.fail(docstore.Fail("listen", notifyChannel, err))

		select {
		case <-l.ctx.Done():
			return
		case <-time.After(l.backoff):
		}
	}
}

func (l *listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		unlistenCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, _ = conn.Exec(unlistenCtx, "UNLISTEN *")
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}
	// Changes made while disconnected were never announced.
	l.notifyAll()

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.notify(n.Payload)
	}
}

func (l *listener) notify(collection string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for s := range l.subs[collection] {
		s.Notify()
	}
}

func (l *listener) notifyAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, set := range l.subs {
		for s := range set {
			s.Notify()
		}
	}
}

// fail runs error callbacks outside the lock so they may unsubscribe.
func (l *listener) fail(err error) {
	l.mu.Lock()
	var subs []*docstore.Subscription
	for _, set := range l.subs {
		for s := range set {
			subs = append(subs, s)
		}
	}
	l.mu.Unlock()

	for _, s := range subs {
		s.Fail(err)
	}
}
