package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/garnizeh/fieldops/internal/validate"
	"github.com/garnizeh/fieldops/pkg/client"
	"github.com/garnizeh/fieldops/pkg/models"
)

// EngineerState is a snapshot of the engineer slice.
type EngineerState struct {
	Status
	Tasks   []models.Task
	Profile *models.Profile
	Hazards []models.Hazard
}

// EngineerSlice holds the signed-in engineer's tasks, profile and the
// shared hazard list.
type EngineerSlice struct {
	base
	api   *client.EngineerAPI
	users *client.UserAPI
	hz    hazardState

	tasks   []models.Task
	profile *models.Profile
}

func NewEngineerSlice(api *client.API) *EngineerSlice {
	s := &EngineerSlice{api: api.Engineer, users: api.User}
	s.hz = hazardState{b: &s.base, api: api.Hazards}
	return s
}

func (s *EngineerSlice) Snapshot() EngineerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return EngineerState{
		Status:  s.status,
		Tasks:   cloneTasks(s.tasks),
		Profile: cloneProfile(s.profile),
		Hazards: slices.Clone(s.hz.hazards),
	}
}

func (s *EngineerSlice) FetchTasks(ctx context.Context, email string) ([]models.Task, error) {
	return run(&s.base, "tasks", "Failed to fetch tasks", func() ([]models.Task, error) {
		return s.api.Tasks(ctx, email)
	}, func(v []models.Task) {
		s.tasks = cloneTasks(v)
	})
}

// AcceptTask replaces the cached task with the one returned by the backend.
func (s *EngineerSlice) AcceptTask(ctx context.Context, taskID, email string) (models.Task, error) {
	return run(&s.base, "", "Failed to accept task", func() (models.Task, error) {
		return s.api.Accept(ctx, taskID, email)
	}, func(t models.Task) {
		if t.ID == "" {
			t.ID = taskID
		}
		if i := indexTask(s.tasks, t.ID); i >= 0 {
			s.tasks = cloneTasks(s.tasks)
			s.tasks[i] = cloneTasks([]models.Task{t})[0]
		}
	})
}

// RejectTask drops the task from the cached list.
func (s *EngineerSlice) RejectTask(ctx context.Context, taskID, email string) error {
	_, err := run(&s.base, "", "Failed to reject task", func() (models.Message, error) {
		return s.api.Reject(ctx, taskID, email)
	}, func(models.Message) {
		s.tasks = slices.DeleteFunc(cloneTasks(s.tasks), func(t models.Task) bool { return t.ID == taskID })
	})
	return err
}

// UpdateTaskStatus patches only the status of the cached task. Deferring
// a task also reloads the engineer's task list, as the backend may hand
// it back to the pool.
func (s *EngineerSlice) UpdateTaskStatus(ctx context.Context, taskID, status, email string) error {
	status = strings.ToLower(strings.TrimSpace(status))
	if !models.ValidStatus(status) {
		return validate.Errors{"status": "must be one of: open in-progress completed failed deferred"}
	}
	_, err := run(&s.base, "", "Failed to update task status", func() (models.Task, error) {
		return s.api.UpdateStatus(ctx, taskID, status)
	}, func(models.Task) {
		if i := indexTask(s.tasks, taskID); i >= 0 {
			s.tasks = cloneTasks(s.tasks)
			s.tasks[i].Status = status
		}
	})
	if err != nil {
		return err
	}
	if status == models.StatusDeferred {
		if _, err := s.FetchTasks(ctx, email); err != nil {
			return fmt.Errorf("refresh tasks: %w", err)
		}
	}
	return nil
}

func (s *EngineerSlice) FetchProfile(ctx context.Context, email string) (models.Profile, error) {
	return fetchProfile(ctx, &s.base, s.users, &s.profile, models.RoleEngineer, email)
}

func (s *EngineerSlice) UpdateProfile(ctx context.Context, email string, p models.Profile) (models.Profile, error) {
	return updateProfile(ctx, &s.base, s.users, &s.profile, models.RoleEngineer, email, p)
}

func (s *EngineerSlice) FetchHazards(ctx context.Context) ([]models.Hazard, error) {
	return s.hz.fetch(ctx)
}

func (s *EngineerSlice) CreateHazard(ctx context.Context, in models.HazardInput) (models.Hazard, error) {
	return s.hz.create(ctx, in)
}

func (s *EngineerSlice) UpdateHazard(ctx context.Context, id string, in models.HazardInput) (models.Hazard, error) {
	return s.hz.update(ctx, id, in)
}

func (s *EngineerSlice) DeleteHazard(ctx context.Context, id string) error {
	return s.hz.remove(ctx, id)
}
