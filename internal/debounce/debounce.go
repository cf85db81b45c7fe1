package debounce

import (
	"sync"
	"time"

	"github.com/garnizeh/fieldops/internal/clock"
)

// DefaultDelay is the search debounce used by list containers.
const DefaultDelay = 500 * time.Millisecond

// Debouncer delivers the latest triggered value once it has been stable
// for the delay. Each Trigger cancels the pending timer.
type Debouncer[T any] struct {
	mu      sync.Mutex
	clock   clock.Clock
	delay   time.Duration
	fn      func(T)
	timer   clock.Timer
	gen     uint64
	stopped bool
}

func New[T any](c clock.Clock, delay time.Duration, fn func(T)) *Debouncer[T] {
	if c == nil {
		c = clock.Real()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{clock: c, delay: delay, fn: fn}
}

// Trigger schedules fn(v) after the delay, replacing any pending value.
// It is a no-op after Stop.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// a timer that lost the race with Stop or a newer Trigger is stale
		if d.stopped || gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		d.fn(v)
	})
}

// Pending reports whether a call is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels the pending call and disables further triggers.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
