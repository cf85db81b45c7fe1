// Package store holds the client-side state slices. Each slice owns its
// collections plus Loading/Error flags and reconciles backend responses
// through a uniform pending/fulfilled/rejected contract.
package store

import (
	"errors"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/garnizeh/fieldops/pkg/client"
	"github.com/garnizeh/fieldops/pkg/models"
)

// package-level logger used by the slices; can be set via SetLogger from caller
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger installs a logger for the store package. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Status is the request state shared by every slice.
type Status struct {
	Loading bool
	// Error is the last failure message; empty when the last request succeeded.
	Error string
}

// base tracks in-flight requests and per-collection sequence numbers.
// All slice state is guarded by mu.
type base struct {
	mu       sync.RWMutex
	status   Status
	inflight int
	seq      map[string]uint64
}

func (b *base) pending(key string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inflight++
	b.status.Loading = true
	b.status.Error = ""
	if key == "" {
		return 0
	}
	if b.seq == nil {
		b.seq = make(map[string]uint64)
	}
	b.seq[key]++
	return b.seq[key]
}

// current reports whether token is the newest request issued for key.
// Callers hold mu.
func (b *base) current(key string, token uint64) bool {
	return key == "" || b.seq[key] == token
}

func (b *base) settle() {
	b.inflight--
	b.status.Loading = b.inflight > 0
}

// run executes call under the three-phase contract. apply runs with mu
// held and only if no newer request for key was issued meanwhile; key ""
// marks mutations, which always apply.
func run[T any](b *base, key, fallback string, call func() (T, error), apply func(T)) (T, error) {
	token := b.pending(key)
	v, err := call()

	b.mu.Lock()
	defer b.mu.Unlock()
	defer b.settle()

	if !b.current(key, token) {
		logger.Debug("store: dropping stale response", slog.String("collection", key))
		return v, err
	}
	if err != nil {
		b.status.Error = message(err, fallback)
		logger.Warn("store: request failed", slog.String("op", fallback), slog.Any("err", err))
		return v, err
	}
	if apply != nil {
		apply(v)
	}
	return v, nil
}

// message prefers the backend's message over the fallback.
func message(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, client.ErrUnauthorized) {
		return "Session expired, please log in again"
	}
	return fallback
}

func (b *base) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

func cloneTasks(in []models.Task) []models.Task {
	if in == nil {
		return nil
	}
	out := make([]models.Task, len(in))
	for i, t := range in {
		if t.EngineerEmail != nil {
			e := *t.EngineerEmail
			t.EngineerEmail = &e
		}
		out[i] = t
	}
	return out
}

func cloneEngineers(in []models.Engineer) []models.Engineer {
	if in == nil {
		return nil
	}
	out := make([]models.Engineer, len(in))
	for i, e := range in {
		e.Availability = slices.Clone(e.Availability)
		out[i] = e
	}
	return out
}

func cloneProfile(p *models.Profile) *models.Profile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Availability = slices.Clone(p.Availability)
	return &cp
}

func indexTask(tasks []models.Task, id string) int {
	return slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == id })
}
