package client

import (
	"context"
	"net/http"

	"github.com/garnizeh/fieldops/pkg/models"
)

// EngineerAPI covers task handling by engineers.
type EngineerAPI struct {
	c *Client
}

func (a *EngineerAPI) Tasks(ctx context.Context, email string) ([]models.Task, error) {
	var out []models.Task
	err := a.c.do(ctx, http.MethodGet, nil, &out, "tasks", "engineer", email)
	return out, err
}

// Accept returns the updated task.
func (a *EngineerAPI) Accept(ctx context.Context, taskID, email string) (models.Task, error) {
	var out models.Task
	err := a.c.do(ctx, http.MethodPatch, nil, &out, "tasks", taskID, "accept", email)
	return out, err
}

func (a *EngineerAPI) Reject(ctx context.Context, taskID, email string) (models.Message, error) {
	var out models.Message
	err := a.c.do(ctx, http.MethodPatch, nil, &out, "tasks", taskID, "reject", email)
	return out, err
}

func (a *EngineerAPI) UpdateStatus(ctx context.Context, taskID, status string) (models.Task, error) {
	var out models.Task
	err := a.c.do(ctx, http.MethodPatch, models.StatusUpdate{Status: status}, &out, "tasks", "updateTicketStatus", taskID)
	return out, err
}
