package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/garnizeh/fieldops/internal/validate"
	"github.com/garnizeh/fieldops/pkg/client"
	"github.com/garnizeh/fieldops/pkg/models"
)

// hazardState is the hazard collection shared by the admin and engineer
// slices. Mutations never merge locally: after the backend confirms, the
// whole collection is fetched again and replaces the cached copy.
type hazardState struct {
	b       *base
	api     *client.HazardAPI
	hazards []models.Hazard
}

const keyHazards = "hazards"

func (h *hazardState) fetch(ctx context.Context) ([]models.Hazard, error) {
	return run(h.b, keyHazards, "Failed to fetch hazards", func() ([]models.Hazard, error) {
		return h.api.List(ctx)
	}, func(v []models.Hazard) {
		h.hazards = slices.Clone(v)
	})
}

func (h *hazardState) create(ctx context.Context, in models.HazardInput) (models.Hazard, error) {
	if err := validate.Struct(in); err != nil {
		return models.Hazard{}, err
	}
	created, err := run(h.b, "", "Failed to report hazard", func() (models.Hazard, error) {
		return h.api.Create(ctx, in)
	}, nil)
	if err != nil {
		return created, err
	}
	if _, err := h.fetch(ctx); err != nil {
		return created, fmt.Errorf("refresh hazards: %w", err)
	}
	return created, nil
}

func (h *hazardState) update(ctx context.Context, id string, in models.HazardInput) (models.Hazard, error) {
	if err := validate.Struct(in); err != nil {
		return models.Hazard{}, err
	}
	updated, err := run(h.b, "", "Failed to update hazard", func() (models.Hazard, error) {
		return h.api.Update(ctx, id, in)
	}, nil)
	if err != nil {
		return updated, err
	}
	if _, err := h.fetch(ctx); err != nil {
		return updated, fmt.Errorf("refresh hazards: %w", err)
	}
	return updated, nil
}

func (h *hazardState) remove(ctx context.Context, id string) error {
	_, err := run(h.b, "", "Failed to delete hazard", func() (struct{}, error) {
		return struct{}{}, h.api.Delete(ctx, id)
	}, nil)
	if err != nil {
		return err
	}
	if _, err := h.fetch(ctx); err != nil {
		return fmt.Errorf("refresh hazards: %w", err)
	}
	return nil
}
