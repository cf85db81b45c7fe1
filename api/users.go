package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/garnizeh/fieldops/pkg/models"
)

// profileTarget resolves the role and email path variables and checks that
// the caller may act on them: admins may read anyone, others only
// themselves.
func profileTarget(w http.ResponseWriter, r *http.Request) (models.Role, string, bool) {
	vars := mux.Vars(r)
	role, err := models.ParseRole(vars["role"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return role, "", false
	}
	email := vars["email"]
	if callerRole(r) != models.RoleAdmin && !strings.EqualFold(callerEmail(r), email) {
		writeError(w, http.StatusForbidden, "Access denied")
		return role, "", false
	}
	return role, email, true
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	role, email, ok := profileTarget(w, r)
	if !ok {
		return
	}
	p, err := h.store.Profile(role, email)
	if err != nil {
		storeError(w, err, "profile")
		return
	}
	writeJSON(w, p, http.StatusOK)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	role, email, ok := profileTarget(w, r)
	if !ok {
		return
	}
	var req models.Profile
	if !h.decode(w, r, "profile", &req) {
		return
	}
	p, err := h.store.UpdateProfile(role, email, req)
	if err != nil {
		storeError(w, err, "profile")
		return
	}
	writeJSON(w, p, http.StatusOK)
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	if !strings.EqualFold(callerEmail(r), email) {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}
	writeJSON(w, h.store.Notifications(email), http.StatusOK)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.MarkRead(callerEmail(r), mux.Vars(r)["id"])
	if err != nil {
		storeError(w, err, "notification")
		return
	}
	writeJSON(w, n, http.StatusOK)
}
