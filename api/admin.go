package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/garnizeh/fieldops/internal/filter"
	"github.com/garnizeh/fieldops/pkg/models"
)

func (h *Handler) AdminTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Tasks(nil), http.StatusOK)
}

func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Users(), http.StatusOK)
}

func (h *Handler) AdminEngineers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Engineers(false), http.StatusOK)
}

func (h *Handler) ApprovedEngineers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Engineers(true), http.StatusOK)
}

func (h *Handler) ApproveEngineer(w http.ResponseWriter, r *http.Request) {
	var req models.ApproveRequest
	if !h.decode(w, r, "approve", &req) {
		return
	}
	email := mux.Vars(r)["email"]
	if req.Email != "" && !strings.EqualFold(req.Email, email) {
		writeError(w, http.StatusBadRequest, "email does not match path")
		return
	}
	e, err := h.store.Approve(email, req.Approve)
	if err != nil {
		storeError(w, err, "engineer")
		return
	}
	writeJSON(w, e, http.StatusOK)
}

// Reassign hands a task to another approved engineer and resets its
// acceptance.
func (h *Handler) Reassign(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	email := vars["engineerEmail"]

	approved := false
	for _, e := range h.store.Engineers(true) {
		if strings.EqualFold(e.Email, email) {
			approved = true
			break
		}
	}
	if !approved {
		writeError(w, http.StatusBadRequest, "Engineer is not approved")
		return
	}

	t, err := h.store.UpdateTask(vars["taskId"], func(t *models.Task) error {
		t.EngineerEmail = &email
		t.Accepted = false
		t.Status = models.StatusOpen
		return nil
	})
	if err != nil {
		storeError(w, err, "task")
		return
	}
	h.store.Notify(email, "Task reassigned to you: "+t.ServiceType)
	writeJSON(w, t, http.StatusOK)
}

// EligibleEngineers lists approved engineers matching the task's service
// type and available on dayName, excluding the current assignee.
func (h *Handler) EligibleEngineers(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	t, err := h.store.Task(vars["taskId"])
	if err != nil {
		storeError(w, err, "task")
		return
	}
	out := []models.Engineer{}
	for _, e := range filter.Eligible(h.store.Engineers(true), t, vars["dayName"]) {
		if !strings.EqualFold(e.Email, t.AssignedTo()) {
			out = append(out, e)
		}
	}
	writeJSON(w, out, http.StatusOK)
}
