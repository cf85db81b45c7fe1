package store

import (
	"context"
	"fmt"

	"github.com/garnizeh/fieldops/internal/validate"
	"github.com/garnizeh/fieldops/pkg/client"
	"github.com/garnizeh/fieldops/pkg/models"
	"github.com/garnizeh/fieldops/pkg/session"
)

// UserState is a snapshot of the user slice.
type UserState struct {
	Status
	Tasks   []models.Task
	Profile *models.Profile
}

// UserSlice holds the signed-in identity flows and the user's own tickets.
type UserSlice struct {
	base
	api     *client.UserAPI
	session *session.Session

	tasks   []models.Task
	profile *models.Profile
}

func NewUserSlice(api *client.API, s *session.Session) *UserSlice {
	return &UserSlice{api: api.User, session: s}
}

func (s *UserSlice) Snapshot() UserState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return UserState{
		Status:  s.status,
		Tasks:   cloneTasks(s.tasks),
		Profile: cloneProfile(s.profile),
	}
}

// Login checks the credentials and stores the issued identity in the session.
func (s *UserSlice) Login(ctx context.Context, cred models.Credentials) (models.LoginResult, error) {
	if err := validate.Struct(cred); err != nil {
		return models.LoginResult{}, err
	}
	res, err := run(&s.base, "", "Login failed", func() (models.LoginResult, error) {
		return s.api.CheckUser(ctx, cred)
	}, nil)
	if err != nil {
		return res, err
	}

	email, role := res.Email, res.Role
	if email == "" {
		email = cred.Email
	}
	if role == models.RoleUnknown {
		role = cred.Role
	}
	if err := s.session.Login(res.Token, email, role); err != nil {
		return res, fmt.Errorf("store session: %w", err)
	}
	res.Email, res.Role = email, role
	return res, nil
}

// Logout clears the session and the cached user data.
func (s *UserSlice) Logout() error {
	s.mu.Lock()
	s.tasks = nil
	s.profile = nil
	s.status = Status{}
	s.mu.Unlock()
	return s.session.Clear()
}

func (s *UserSlice) Register(ctx context.Context, in models.Signup) (models.Message, error) {
	if err := validate.Struct(in); err != nil {
		return models.Message{}, err
	}
	return run(&s.base, "", "Registration failed", func() (models.Message, error) {
		return s.api.NewUser(ctx, in)
	}, nil)
}

func (s *UserSlice) ResetPassword(ctx context.Context, in models.PasswordReset) (models.Message, error) {
	if err := validate.Struct(in); err != nil {
		return models.Message{}, err
	}
	return run(&s.base, "", "Password reset failed", func() (models.Message, error) {
		return s.api.Reset(ctx, in)
	}, nil)
}

func (s *UserSlice) FetchTasks(ctx context.Context, email string) ([]models.Task, error) {
	return run(&s.base, "tasks", "Failed to fetch tickets", func() ([]models.Task, error) {
		return s.api.Tasks(ctx, email)
	}, func(v []models.Task) {
		s.tasks = cloneTasks(v)
	})
}

// CreateTicket raises a ticket and appends the stored copy.
func (s *UserSlice) CreateTicket(ctx context.Context, in models.TicketInput) (models.Task, error) {
	if err := validate.Struct(in); err != nil {
		return models.Task{}, err
	}
	return run(&s.base, "", "Failed to create ticket", func() (models.Task, error) {
		return s.api.CreateTask(ctx, in)
	}, func(t models.Task) {
		s.tasks = append(cloneTasks(s.tasks), cloneTasks([]models.Task{t})...)
	})
}

func (s *UserSlice) FetchProfile(ctx context.Context, role models.Role, email string) (models.Profile, error) {
	return fetchProfile(ctx, &s.base, s.api, &s.profile, role, email)
}

func (s *UserSlice) UpdateProfile(ctx context.Context, role models.Role, email string, p models.Profile) (models.Profile, error) {
	return updateProfile(ctx, &s.base, s.api, &s.profile, role, email, p)
}

func fetchProfile(ctx context.Context, b *base, api *client.UserAPI, dst **models.Profile, role models.Role, email string) (models.Profile, error) {
	return run(b, "profile", "Failed to fetch profile", func() (models.Profile, error) {
		return api.Profile(ctx, role, email)
	}, func(p models.Profile) {
		*dst = cloneProfile(&p)
	})
}

func updateProfile(ctx context.Context, b *base, api *client.UserAPI, dst **models.Profile, role models.Role, email string, p models.Profile) (models.Profile, error) {
	if err := validate.Struct(p); err != nil {
		return models.Profile{}, err
	}
	return run(b, "", "Failed to update profile", func() (models.Profile, error) {
		return api.UpdateProfile(ctx, role, email, p)
	}, func(updated models.Profile) {
		*dst = cloneProfile(&updated)
	})
}
