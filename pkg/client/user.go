package client

import (
	"context"
	"net/http"

	"github.com/garnizeh/fieldops/pkg/models"
)

// UserAPI covers authentication, profiles, user tickets and notifications.
type UserAPI struct {
	c *Client
}

// CheckUser authenticates with email and password and returns the issued token.
func (a *UserAPI) CheckUser(ctx context.Context, cred models.Credentials) (models.LoginResult, error) {
	var out models.LoginResult
	err := a.c.do(ctx, http.MethodPost, cred, &out, "users", "checkUser")
	return out, err
}

func (a *UserAPI) NewUser(ctx context.Context, s models.Signup) (models.Message, error) {
	var out models.Message
	err := a.c.do(ctx, http.MethodPost, s, &out, "users", "newUser")
	return out, err
}

func (a *UserAPI) Reset(ctx context.Context, r models.PasswordReset) (models.Message, error) {
	var out models.Message
	err := a.c.do(ctx, http.MethodPost, r, &out, "users", "reset")
	return out, err
}

func (a *UserAPI) Profile(ctx context.Context, role models.Role, email string) (models.Profile, error) {
	var out models.Profile
	err := a.c.do(ctx, http.MethodGet, nil, &out, "users", "profile", role.String(), email)
	return out, err
}

func (a *UserAPI) UpdateProfile(ctx context.Context, role models.Role, email string, p models.Profile) (models.Profile, error) {
	var out models.Profile
	err := a.c.do(ctx, http.MethodPatch, p, &out, "users", "updateProfile", role.String(), email)
	return out, err
}

func (a *UserAPI) Tasks(ctx context.Context, email string) ([]models.Task, error) {
	var out []models.Task
	err := a.c.do(ctx, http.MethodGet, nil, &out, "tasks", "user", email)
	return out, err
}

func (a *UserAPI) CreateTask(ctx context.Context, in models.TicketInput) (models.Task, error) {
	var out models.Task
	err := a.c.do(ctx, http.MethodPost, in, &out, "tasks", "createTask")
	return out, err
}

func (a *UserAPI) Notifications(ctx context.Context, email string) ([]models.Notification, error) {
	var out []models.Notification
	err := a.c.do(ctx, http.MethodGet, nil, &out, "notifications", email)
	return out, err
}

func (a *UserAPI) MarkNotificationRead(ctx context.Context, id string) (models.Notification, error) {
	var out models.Notification
	err := a.c.do(ctx, http.MethodPatch, nil, &out, "notifications", id, "read")
	return out, err
}
