// Package jobs runs the periodic background work of the client: the
// notification poller and cron-scheduled refreshes.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

// Handler is one unit of scheduled work.
type Handler func(ctx context.Context) error

var (
	ErrAlreadyStarted = errors.New("jobs: already started")
	ErrUnknownHandler = errors.New("jobs: unknown handler")
)

// package-level logger used when callers pass nil; can be set via SetLogger
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger sets the default logger of the jobs package. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}
