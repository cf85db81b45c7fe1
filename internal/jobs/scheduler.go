package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler runs named handlers on cron specs such as "@every 30s" or
// "*/5 * * * *".
type Scheduler struct {
	cron     *cron.Cron
	handlers map[string]Handler
	logger   *slog.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewScheduler(handlers map[string]Handler, l *slog.Logger) *Scheduler {
	if l == nil {
		l = logger
	}
	cl := cronLogger{l}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		handlers: handlers,
		logger:   l,
		entries:  make(map[string]cron.EntryID),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Schedule registers the handler called name on spec, replacing any
// earlier schedule for it.
func (s *Scheduler) Schedule(name, spec string) error {
	if _, ok := s.handlers[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandler, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
	id, err := s.cron.AddFunc(spec, func() {
		if err := s.RunNow(s.ctx, name); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("error scheduling job %s: %w", name, err)
	}
	s.entries[name] = id
	s.logger.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

// RunNow runs the handler called name synchronously.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	h, ok := s.handlers[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandler, name)
	}
	return h(ctx)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels the context passed to running handlers and waits for them
// to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
