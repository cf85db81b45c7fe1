package client

import (
	"context"
	"net/http"

	"github.com/garnizeh/fieldops/pkg/models"
)

// HazardAPI covers the shared hazard collection used by admins and engineers.
type HazardAPI struct {
	c *Client
}

func (a *HazardAPI) List(ctx context.Context) ([]models.Hazard, error) {
	var out []models.Hazard
	err := a.c.do(ctx, http.MethodGet, nil, &out, "hazards", "getAllHazards")
	return out, err
}

func (a *HazardAPI) Create(ctx context.Context, in models.HazardInput) (models.Hazard, error) {
	var out models.Hazard
	err := a.c.do(ctx, http.MethodPost, in, &out, "hazards", "createHazard")
	return out, err
}

func (a *HazardAPI) Update(ctx context.Context, id string, in models.HazardInput) (models.Hazard, error) {
	var out models.Hazard
	err := a.c.do(ctx, http.MethodPatch, in, &out, "hazards", "updateHazard", id)
	return out, err
}

func (a *HazardAPI) Delete(ctx context.Context, id string) error {
	return a.c.do(ctx, http.MethodDelete, nil, nil, "hazards", "deleteHazard", id)
}
