// Package clock abstracts the current time and delayed callbacks so that
// order timestamps, daily stats and delayed cart clearing are testable.
package clock

import (
	"sync"
	"time"
)

// Clock is a source of time.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the call stopped it.
	Stop() bool
}

// RealClock uses the system clock in the local time zone.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// FakeClock is a controllable clock for tests. Callbacks scheduled with
// AfterFunc fire synchronously from Advance or Set once due.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

// NewFake creates a FakeClock set to t.
func NewFake(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *FakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{at: f.now.Add(d), fn: fn, clock: f}
	f.timers = append(f.timers, t)
	return t
}

// Set moves the clock to t and fires due callbacks.
func (f *FakeClock) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	due := f.takeDue()
	f.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// Advance moves the clock forward by d and fires due callbacks.
func (f *FakeClock) Advance(d time.Duration) {
	f.Set(f.Now().Add(d))
}

// Pending reports how many callbacks are still scheduled.
func (f *FakeClock) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

func (f *FakeClock) takeDue() []*fakeTimer {
	var due, rest []*fakeTimer
	for _, t := range f.timers {
		if !t.at.After(f.now) {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	f.timers = rest
	return due
}

type fakeTimer struct {
	at    time.Time
	fn    func()
	clock *FakeClock
}

func (t *fakeTimer) Stop() bool {
	f := t.clock
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, other := range f.timers {
		if other == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return true
		}
	}
	return false
}
