package client

import (
	"context"
	"net/http"

	"github.com/garnizeh/fieldops/pkg/models"
)

// AdminAPI covers the /admin endpoints.
type AdminAPI struct {
	c *Client
}

func (a *AdminAPI) Tasks(ctx context.Context) ([]models.Task, error) {
	var out []models.Task
	err := a.c.do(ctx, http.MethodGet, nil, &out, "admin", "tasks")
	return out, err
}

func (a *AdminAPI) Users(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := a.c.do(ctx, http.MethodGet, nil, &out, "admin", "users")
	return out, err
}

// Engineers returns every engineer, pending and approved.
func (a *AdminAPI) Engineers(ctx context.Context) ([]models.Engineer, error) {
	var out []models.Engineer
	err := a.c.do(ctx, http.MethodGet, nil, &out, "admin", "engineers")
	return out, err
}

// ApprovedEngineers returns only approved engineers.
func (a *AdminAPI) ApprovedEngineers(ctx context.Context) ([]models.Engineer, error) {
	var out []models.Engineer
	err := a.c.do(ctx, http.MethodGet, nil, &out, "admin", "approval", "engineers")
	return out, err
}

// ApproveEngineer sets the approval flag and returns the updated engineer.
func (a *AdminAPI) ApproveEngineer(ctx context.Context, email string, approve bool) (models.Engineer, error) {
	var out models.Engineer
	body := models.ApproveRequest{Email: email, Approve: approve}
	err := a.c.do(ctx, http.MethodPatch, body, &out, "admin", "approve-engineer", email)
	return out, err
}

func (a *AdminAPI) Reassign(ctx context.Context, taskID, engineerEmail string) (models.Task, error) {
	var out models.Task
	err := a.c.do(ctx, http.MethodPatch, nil, &out, "admin", "reassign", taskID, engineerEmail)
	return out, err
}

// EligibleEngineers returns approved engineers matching the task's
// specialization and available on dayName.
func (a *AdminAPI) EligibleEngineers(ctx context.Context, taskID, dayName string) ([]models.Engineer, error) {
	var out []models.Engineer
	err := a.c.do(ctx, http.MethodGet, nil, &out, "admin", "engineers", "eligible", taskID, dayName)
	return out, err
}
