package jobs

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garnizeh/fieldops/internal/clock"
	"github.com/garnizeh/fieldops/pkg/models"
)

// DefaultPollInterval is how often notifications are refreshed.
const DefaultPollInterval = 5 * time.Second

// NotificationSource is implemented by store.NotificationSlice.
type NotificationSource interface {
	Fetch(ctx context.Context, email string) ([]models.Notification, error)
}

// NotificationPoller fetches an account's notifications on Start and then
// once per interval until Stop.
type NotificationPoller struct {
	src      NotificationSource
	email    string
	clk      clock.Clock
	interval time.Duration
	logger   *slog.Logger
	onUpdate func([]models.Notification)

	started atomic.Bool
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

type PollerOption func(*NotificationPoller)

// WithOnUpdate registers fn to receive every successful fetch.
func WithOnUpdate(fn func([]models.Notification)) PollerOption {
	return func(p *NotificationPoller) { p.onUpdate = fn }
}

func WithLogger(l *slog.Logger) PollerOption {
	return func(p *NotificationPoller) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewNotificationPoller(src NotificationSource, email string, clk clock.Clock, interval time.Duration, opts ...PollerOption) *NotificationPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if clk == nil {
		clk = clock.Real()
	}
	p := &NotificationPoller{
		src:      src,
		email:    email,
		clk:      clk,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start launches the polling goroutine. The ticker is created before
// Start returns so no tick is missed.
func (p *NotificationPoller) Start(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	t := p.clk.NewTicker(p.interval)
	p.wg.Add(1)
	go p.run(ctx, t)
	return nil
}

// Stop halts polling and waits for the goroutine. Safe to call more than
// once and before Start.
func (p *NotificationPoller) Stop() {
	p.once.Do(func() { close(p.stop) })
	p.wg.Wait()
}

func (p *NotificationPoller) run(ctx context.Context, t *clock.Ticker) {
	defer p.wg.Done()
	defer t.Stop()

	p.poll(ctx)
	for {
		select {
		case <-p.stop:
			p.logger.Info("notification poller stopping", "email", p.email)
			return
		case <-ctx.Done():
			p.logger.Info("context canceled, notification poller exiting", "email", p.email)
			return
		case <-t.C:
			p.poll(ctx)
		}
	}
}

func (p *NotificationPoller) poll(ctx context.Context) {
	ns, err := p.src.Fetch(ctx, p.email)
	if err != nil {
		p.logger.Error("fetch notifications", "email", p.email, "err", err)
		return
	}
	if p.onUpdate != nil {
		p.onUpdate(ns)
	}
}
