package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/garnizeh/fieldops/internal/filter"
	"github.com/garnizeh/fieldops/pkg/models"
)

var errNotAssigned = errors.New("task is not assigned to this engineer")

func (h *Handler) EngineerTasks(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	writeJSON(w, h.store.Tasks(func(t models.Task) bool {
		return strings.EqualFold(t.AssignedTo(), email)
	}), http.StatusOK)
}

func (h *Handler) UserTasks(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	writeJSON(w, h.store.Tasks(func(t models.Task) bool {
		return strings.EqualFold(t.UserEmail, email)
	}), http.StatusOK)
}

// CreateTask opens a ticket and assigns it to the least busy engineer
// eligible today, if any.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req models.TicketInput
	if !h.decode(w, r, "ticket", &req) {
		return
	}
	if callerRole(r) == models.RoleUser && !strings.EqualFold(req.UserEmail, callerEmail(r)) {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	probe := models.Task{ServiceType: req.ServiceType}
	assignee := ""
	best := -1
	for _, e := range filter.Eligible(h.store.Engineers(true), probe, h.now().Weekday().String()) {
		if best < 0 || e.CurrentTasks < best {
			assignee, best = e.Email, e.CurrentTasks
		}
	}
	writeJSON(w, h.store.CreateTask(req, assignee), http.StatusCreated)
}

func (h *Handler) assigned(w http.ResponseWriter, r *http.Request, fn func(*models.Task)) (models.Task, bool) {
	vars := mux.Vars(r)
	email := vars["email"]
	if !strings.EqualFold(callerEmail(r), email) {
		writeError(w, http.StatusForbidden, "Access denied")
		return models.Task{}, false
	}
	t, err := h.store.UpdateTask(vars["id"], func(t *models.Task) error {
		if !strings.EqualFold(t.AssignedTo(), email) {
			return errNotAssigned
		}
		fn(t)
		return nil
	})
	if errors.Is(err, errNotAssigned) {
		writeError(w, http.StatusConflict, err.Error())
		return t, false
	}
	if err != nil {
		storeError(w, err, "task")
		return t, false
	}
	return t, true
}

func (h *Handler) AcceptTask(w http.ResponseWriter, r *http.Request) {
	t, ok := h.assigned(w, r, func(t *models.Task) {
		t.Accepted = true
		t.Status = models.StatusInProgress
	})
	if !ok {
		return
	}
	h.store.Notify(t.UserEmail, "An engineer accepted your ticket: "+t.ServiceType)
	writeJSON(w, t, http.StatusOK)
}

// RejectTask returns the task to the unassigned pool.
func (h *Handler) RejectTask(w http.ResponseWriter, r *http.Request) {
	t, ok := h.assigned(w, r, func(t *models.Task) {
		t.EngineerEmail = nil
		t.Accepted = false
		t.Status = models.StatusOpen
	})
	if !ok {
		return
	}
	h.store.NotifyRole(models.RoleAdmin, "Task "+t.ID+" was rejected by "+callerEmail(r))
	writeJSON(w, models.Message{Message: "Task " + t.ID + " rejected"}, http.StatusOK)
}

// UpdateTicketStatus sets the status. Deferred tasks go back to the pool.
func (h *Handler) UpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusUpdate
	if !h.decode(w, r, "status", &req) {
		return
	}
	caller, role := callerEmail(r), callerRole(r)
	t, err := h.store.UpdateTask(mux.Vars(r)["id"], func(t *models.Task) error {
		if role != models.RoleAdmin && !strings.EqualFold(t.AssignedTo(), caller) {
			return errNotAssigned
		}
		t.Status = req.Status
		if req.Status == models.StatusDeferred {
			t.EngineerEmail = nil
			t.Accepted = false
		}
		return nil
	})
	if errors.Is(err, errNotAssigned) {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	if err != nil {
		storeError(w, err, "task")
		return
	}
	h.store.Notify(t.UserEmail, "Ticket "+t.ID+" is now "+t.Status)
	writeJSON(w, t, http.StatusOK)
}
