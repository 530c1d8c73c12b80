package docstore

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerConfig controls the circuit breaker placed in front of a backend.
type BreakerConfig struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	Failures    uint32
}

var _ Collection = (*Breaker)(nil)

// Breaker fails fast while the wrapped collection keeps failing. Missing
// documents do not count as failures. Nothing is retried.
type Breaker struct {
	next Collection
	name string
	cb   *gobreaker.CircuitBreaker[any]
}

// NewBreaker wraps next with a circuit breaker named after the collection.
func NewBreaker(next Collection, name string, cfg BreakerConfig, lg *zap.Logger) *Breaker {
	failures := cfg.Failures
	if failures == 0 {
		failures = 5
	}
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			lg.Warn("Store circuit breaker state changed",
				zap.String("collection", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
	}
	return &Breaker{next: next, name: name, cb: gobreaker.NewCircuitBreaker[any](st)}
}

func (b *Breaker) Add(ctx context.Context, data []byte) (string, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.Add(ctx, data)
	})
	if err != nil {
		return "", Fail("add", b.name, err)
	}
	return v.(string), nil
}

func (b *Breaker) Get(ctx context.Context) ([]Document, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.Get(ctx)
	})
	if err != nil {
		return nil, Fail("get", b.name, err)
	}
	return v.([]Document), nil
}

func (b *Breaker) Update(ctx context.Context, id string, patch []byte) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Update(ctx, id, patch)
	})
	return Fail("update", b.name, err)
}

func (b *Breaker) Delete(ctx context.Context, id string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Delete(ctx, id)
	})
	return Fail("delete", b.name, err)
}

// Feed is not guarded: subscriptions report their own errors.
func (b *Breaker) Feed(q Query) ChangeFeed {
	return b.next.Feed(q)
}

// State reports the breaker state for health checks.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
