package dashboard

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/garnizeh/fieldops/internal/store"
	"github.com/garnizeh/fieldops/pkg/models"
)

var ErrMissingSource = errors.New("dashboard: missing state slice")

// Sources are the slices a dashboard reads from. Only those needed by the
// requested role must be set.
type Sources struct {
	Admin         *store.AdminSlice
	Engineer      *store.EngineerSlice
	User          *store.UserSlice
	Notifications *store.NotificationSlice
}

// Collect fetches every collection the role's dashboard shows, in
// parallel. The first failure cancels the remaining requests.
func Collect(ctx context.Context, role models.Role, email string, src Sources) (Data, error) {
	var d Data
	g, ctx := errgroup.WithContext(ctx)

	switch role {
	case models.RoleAdmin:
		a := src.Admin
		if a == nil {
			return d, fmt.Errorf("%w: admin", ErrMissingSource)
		}
		g.Go(func() (err error) { d.Tasks, err = a.FetchTasks(ctx); return })
		g.Go(func() (err error) { d.Engineers, err = a.FetchEngineers(ctx); return })
		g.Go(func() (err error) { d.ApprovedEngineers, err = a.FetchApprovedEngineers(ctx); return })
		g.Go(func() (err error) { d.Users, err = a.FetchUsers(ctx); return })
		g.Go(func() (err error) { d.Hazards, err = a.FetchHazards(ctx); return })
	case models.RoleEngineer:
		e := src.Engineer
		if e == nil {
			return d, fmt.Errorf("%w: engineer", ErrMissingSource)
		}
		g.Go(func() (err error) { d.Tasks, err = e.FetchTasks(ctx, email); return })
		g.Go(func() (err error) { d.Hazards, err = e.FetchHazards(ctx); return })
	case models.RoleUser:
		u, n := src.User, src.Notifications
		if u == nil || n == nil {
			return d, fmt.Errorf("%w: user", ErrMissingSource)
		}
		g.Go(func() (err error) { d.Tasks, err = u.FetchTasks(ctx, email); return })
		g.Go(func() (err error) { d.Notifications, err = n.Fetch(ctx, email); return })
	default:
		return d, fmt.Errorf("no dashboard for role %q", role)
	}

	if err := g.Wait(); err != nil {
		return Data{}, fmt.Errorf("collect dashboard: %w", err)
	}
	return d, nil
}
