package clock_test

import (
	"testing"
	"time"

	"github.com/garnizeh/fieldops/internal/clock"
)

func TestFake_AfterFuncFiresInOrder(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	var order []int
	c.AfterFunc(2*time.Second, func() { order = append(order, 2) })
	c.AfterFunc(1*time.Second, func() { order = append(order, 1) })
	stopped := c.AfterFunc(1500*time.Millisecond, func() { order = append(order, 99) })

	if !stopped.Stop() {
		t.Fatalf("expected Stop to cancel pending timer")
	}
	if stopped.Stop() {
		t.Fatalf("second Stop must report false")
	}

	c.Advance(1 * time.Second)
	if len(order) != 1 || order[0] != 1 {
		t.Fatalf("unexpected order after 1s: %v", order)
	}
	c.Advance(5 * time.Second)
	if len(order) != 2 || order[1] != 2 {
		t.Fatalf("unexpected order after 6s: %v", order)
	}
	if c.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", c.Pending())
	}
	if got := c.Now(); !got.Equal(time.Unix(6, 0)) {
		t.Fatalf("unexpected now: %v", got)
	}
}

func TestFake_TickerDropsWhenFull(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	tk := c.NewTicker(time.Second)
	defer tk.Stop()

	c.Advance(3 * time.Second)
	select {
	case <-tk.C:
	default:
		t.Fatalf("expected a tick")
	}
	select {
	case <-tk.C:
		t.Fatalf("expected extra ticks to be dropped")
	default:
	}

	tk.Stop()
	c.Advance(time.Second)
	select {
	case <-tk.C:
		t.Fatalf("stopped ticker must not tick")
	default:
	}
}
