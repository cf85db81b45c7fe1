package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/garnizeh/fieldops/pkg/client"
	"github.com/garnizeh/fieldops/pkg/models"
)

// AdminState is a snapshot of the admin slice.
type AdminState struct {
	Status
	Tasks             []models.Task
	Users             []models.User
	Engineers         []models.Engineer
	ApprovedEngineers []models.Engineer
	EligibleEngineers []models.Engineer
	Hazards           []models.Hazard
}

// AdminSlice holds everything the admin screens show.
type AdminSlice struct {
	base
	api *client.AdminAPI
	hz  hazardState

	tasks     []models.Task
	users     []models.User
	engineers []models.Engineer
	approved  []models.Engineer
	eligible  []models.Engineer
}

func NewAdminSlice(api *client.API) *AdminSlice {
	s := &AdminSlice{api: api.Admin}
	s.hz = hazardState{b: &s.base, api: api.Hazards}
	return s
}

// Snapshot returns a deep copy of the slice state.
func (s *AdminSlice) Snapshot() AdminState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return AdminState{
		Status:            s.status,
		Tasks:             cloneTasks(s.tasks),
		Users:             slices.Clone(s.users),
		Engineers:         cloneEngineers(s.engineers),
		ApprovedEngineers: cloneEngineers(s.approved),
		EligibleEngineers: cloneEngineers(s.eligible),
		Hazards:           slices.Clone(s.hz.hazards),
	}
}

func (s *AdminSlice) FetchTasks(ctx context.Context) ([]models.Task, error) {
	return run(&s.base, "tasks", "Failed to fetch tasks", func() ([]models.Task, error) {
		return s.api.Tasks(ctx)
	}, func(v []models.Task) {
		s.tasks = cloneTasks(v)
	})
}

func (s *AdminSlice) FetchUsers(ctx context.Context) ([]models.User, error) {
	return run(&s.base, "users", "Failed to fetch users", func() ([]models.User, error) {
		return s.api.Users(ctx)
	}, func(v []models.User) {
		s.users = slices.Clone(v)
	})
}

// FetchEngineers loads every engineer, pending and approved.
func (s *AdminSlice) FetchEngineers(ctx context.Context) ([]models.Engineer, error) {
	return run(&s.base, "engineers", "Failed to fetch engineers", func() ([]models.Engineer, error) {
		return s.api.Engineers(ctx)
	}, func(v []models.Engineer) {
		s.engineers = cloneEngineers(v)
	})
}

func (s *AdminSlice) FetchApprovedEngineers(ctx context.Context) ([]models.Engineer, error) {
	return run(&s.base, "approved", "Failed to fetch approved engineers", func() ([]models.Engineer, error) {
		return s.api.ApprovedEngineers(ctx)
	}, func(v []models.Engineer) {
		s.approved = cloneEngineers(v)
	})
}

// ApproveEngineer flips the approval flag. The engineer is updated in
// place in the full list; approval inserts into the approved list once
// per email and disapproval removes it there.
func (s *AdminSlice) ApproveEngineer(ctx context.Context, email string, approve bool) (models.Engineer, error) {
	return run(&s.base, "", "Failed to update engineer approval", func() (models.Engineer, error) {
		return s.api.ApproveEngineer(ctx, email, approve)
	}, func(e models.Engineer) {
		if e.Email == "" {
			e.Email = email
		}
		e.IsEngineer = approve
		e.Availability = slices.Clone(e.Availability)

		same := func(x models.Engineer) bool { return strings.EqualFold(x.Email, e.Email) }
		if i := slices.IndexFunc(s.engineers, same); i >= 0 {
			s.engineers[i] = e
		}

		i := slices.IndexFunc(s.approved, same)
		switch {
		case approve && i < 0:
			s.approved = append(s.approved, e)
		case approve:
			s.approved[i] = e
		case i >= 0:
			s.approved = slices.Delete(slices.Clone(s.approved), i, i+1)
		}
	})
}

// ReassignTask moves a task to another engineer and reloads the task list.
func (s *AdminSlice) ReassignTask(ctx context.Context, taskID, engineerEmail string) (models.Task, error) {
	t, err := run(&s.base, "", "Failed to reassign task", func() (models.Task, error) {
		return s.api.Reassign(ctx, taskID, engineerEmail)
	}, nil)
	if err != nil {
		return t, err
	}
	if _, err := s.FetchTasks(ctx); err != nil {
		return t, fmt.Errorf("refresh tasks: %w", err)
	}
	return t, nil
}

// FetchEligibleEngineers asks the backend which engineers can take a task
// on dayName (e.g. "Monday").
func (s *AdminSlice) FetchEligibleEngineers(ctx context.Context, taskID, dayName string) ([]models.Engineer, error) {
	return run(&s.base, "eligible", "Failed to fetch eligible engineers", func() ([]models.Engineer, error) {
		return s.api.EligibleEngineers(ctx, taskID, dayName)
	}, func(v []models.Engineer) {
		s.eligible = cloneEngineers(v)
	})
}

func (s *AdminSlice) FetchHazards(ctx context.Context) ([]models.Hazard, error) {
	return s.hz.fetch(ctx)
}

func (s *AdminSlice) UpdateHazard(ctx context.Context, id string, in models.HazardInput) (models.Hazard, error) {
	return s.hz.update(ctx, id, in)
}

func (s *AdminSlice) DeleteHazard(ctx context.Context, id string) error {
	return s.hz.remove(ctx, id)
}
