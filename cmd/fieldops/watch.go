package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/garnizeh/fieldops/internal/filter"
	"github.com/garnizeh/fieldops/internal/jobs"
	"github.com/garnizeh/fieldops/pkg/models"
)

// lockedWriter serializes output from the scheduler, poller and search
// goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

const refreshJob = "refresh"

func runWatch(ctx context.Context, a *app, args []string) error {
	fs := a.flags("watch")
	crit := criteriaFlags(fs, "also list tasks with this status")
	schedule := fs.String("schedule", a.cfg.RefreshSchedule, "dashboard refresh schedule (cron syntax)")
	interval := fs.Duration("poll", a.cfg.PollInterval, "notification poll interval")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	id, err := a.identity()
	if err != nil {
		return err
	}
	out := &lockedWriter{w: a.out}

	// The task list is only printed when a criterion is set and the first
	// refresh has loaded tasks. The search term settles after the debounce
	// delay.
	listing := !crit.IsZero()
	var loaded atomic.Bool
	tasks := filter.NewContainer(filter.TaskFields, a.clk, a.cfg.SearchDebounce,
		filter.WithOnChange(func(view []models.Task) {
			if listing && loaded.Load() {
				printTasks(out, view)
			}
		}))
	defer tasks.Close()
	tasks.SetStatus(crit.Status)
	tasks.SetPriority(crit.Priority)
	tasks.SetPincode(crit.Pincode)
	tasks.SetSearch(crit.Search)

	src := a.sources()
	sched := jobs.NewScheduler(map[string]jobs.Handler{
		refreshJob: func(ctx context.Context) error {
			if err := renderDashboard(ctx, out, id, src); err != nil {
				return err
			}
			loaded.Store(true)
			switch id.Role {
			case models.RoleAdmin:
				tasks.SetSource(a.admin.Snapshot().Tasks)
			case models.RoleEngineer:
				tasks.SetSource(a.engineer.Snapshot().Tasks)
			case models.RoleUser:
				tasks.SetSource(a.user.Snapshot().Tasks)
			}
			return nil
		},
	}, a.logger)
	if err := sched.RunNow(ctx, refreshJob); err != nil {
		return err
	}
	if err := sched.Schedule(refreshJob, *schedule); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	last := -1
	poller := jobs.NewNotificationPoller(a.notes, id.Email, a.clk, *interval,
		jobs.WithLogger(a.logger),
		jobs.WithOnUpdate(func([]models.Notification) {
			n := a.notes.UnreadCount()
			if n != last {
				last = n
				fmt.Fprintf(out, "%d unread notifications\n", n)
			}
		}))
	if err := poller.Start(ctx); err != nil {
		return err
	}
	defer poller.Stop()

	fmt.Fprintf(out, "Watching as %s, press Ctrl-C to stop\n", id.Email)
	<-ctx.Done()
	return nil
}
