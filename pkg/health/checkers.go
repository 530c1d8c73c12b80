package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
	"github.com/sony/gobreaker/v2"
)

// GoroutineCountCheck fails when more than threshold goroutines are alive,
// which usually means leaked event streams or feed subscriptions.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// SignalCheck fails until ready is closed.
func SignalCheck(ready <-chan struct{}, pending string) CheckFunc {
	return func(context.Context) error {
		select {
		case <-ready:
			return nil
		default:
			return errors.New(pending)
		}
	}
}

// BreakerCheck fails while the circuit breaker is open.
func BreakerCheck(state func() gobreaker.State) CheckFunc {
	return func(context.Context) error {
		if s := state(); s == gobreaker.StateOpen {
			return errors.Errorf("circuit breaker %s", s)
		}
		return nil
	}
}
