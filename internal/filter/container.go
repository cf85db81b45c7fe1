package filter

import (
	"slices"
	"sync"
	"time"

	"github.com/garnizeh/fieldops/internal/clock"
	"github.com/garnizeh/fieldops/internal/debounce"
)

// Container keeps a filtered view of a collection current. Search input
// is recorded immediately as the raw term but only applied after the
// debounce delay; every other change recomputes right away.
type Container[T any] struct {
	mu       sync.Mutex
	fields   Fields[T]
	source   []T
	criteria Criteria
	raw      string
	view     []T
	onChange func([]T)
	search   *debounce.Debouncer[string]
}

// Option configures a Container.
type Option[T any] func(*Container[T])

// WithOnChange registers a callback invoked with every recomputed view.
func WithOnChange[T any](fn func([]T)) Option[T] {
	return func(c *Container[T]) { c.onChange = fn }
}

func NewContainer[T any](fields Fields[T], clk clock.Clock, delay time.Duration, opts ...Option[T]) *Container[T] {
	c := &Container[T]{fields: fields, view: []T{}}
	for _, o := range opts {
		o(c)
	}
	c.search = debounce.New(clk, delay, c.applySearch)
	return c
}

// SetSource replaces the collection. The container keeps its own copy.
func (c *Container[T]) SetSource(items []T) {
	c.mu.Lock()
	c.source = slices.Clone(items)
	c.recomputeLocked()
}

// SetSearch records the raw term and schedules it for filtering.
func (c *Container[T]) SetSearch(term string) {
	c.mu.Lock()
	c.raw = term
	c.mu.Unlock()
	c.search.Trigger(term)
}

func (c *Container[T]) applySearch(term string) {
	c.mu.Lock()
	c.criteria.Search = term
	c.recomputeLocked()
}

func (c *Container[T]) SetStatus(v string) {
	c.mu.Lock()
	c.criteria.Status = v
	c.recomputeLocked()
}

func (c *Container[T]) SetPriority(v string) {
	c.mu.Lock()
	c.criteria.Priority = v
	c.recomputeLocked()
}

func (c *Container[T]) SetPincode(v string) {
	c.mu.Lock()
	c.criteria.Pincode = v
	c.recomputeLocked()
}

// RawSearch is the term as typed, before debouncing.
func (c *Container[T]) RawSearch() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raw
}

// Criteria returns the criteria currently applied.
func (c *Container[T]) Criteria() Criteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.criteria
}

// View returns a copy of the current filtered subset.
func (c *Container[T]) View() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.view)
}

// Close cancels any pending debounced search.
func (c *Container[T]) Close() {
	c.search.Stop()
}

// recomputeLocked must be called with mu held; it releases mu before
// notifying.
func (c *Container[T]) recomputeLocked() {
	c.view = Apply(c.source, c.fields, c.criteria)
	fn := c.onChange
	view := slices.Clone(c.view)
	c.mu.Unlock()
	if fn != nil {
		fn(view)
	}
}
