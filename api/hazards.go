package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/garnizeh/fieldops/pkg/models"
)

func (h *Handler) ListHazards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Hazards(), http.StatusOK)
}

func (h *Handler) CreateHazard(w http.ResponseWriter, r *http.Request) {
	var req models.HazardInput
	if !h.decode(w, r, "hazard", &req) {
		return
	}
	writeJSON(w, h.store.CreateHazard(req, callerEmail(r)), http.StatusCreated)
}

func (h *Handler) UpdateHazard(w http.ResponseWriter, r *http.Request) {
	var req models.HazardInput
	if !h.decode(w, r, "hazard", &req) {
		return
	}
	hz, err := h.store.UpdateHazard(mux.Vars(r)["id"], req)
	if err != nil {
		storeError(w, err, "hazard")
		return
	}
	writeJSON(w, hz, http.StatusOK)
}

func (h *Handler) DeleteHazard(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.store.DeleteHazard(id); err != nil {
		storeError(w, err, "hazard")
		return
	}
	writeJSON(w, models.Message{Message: "Hazard " + id + " deleted"}, http.StatusOK)
}
