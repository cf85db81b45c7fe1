package api

import (
	"net/http"

	"github.com/garnizeh/fieldops/pkg/models"
)

// SystemHandler serves the unauthenticated health and version probes.
type SystemHandler struct {
	Store *MemStore
}

type healthReport struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Users     int    `json:"users"`
	OpenTasks int    `json:"openTasks"`
	Hazards   int    `json:"hazards"`
}

// HealthHandler reports the size of the in-memory collections so a
// client can tell a seeded backend from an empty one.
func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rep := healthReport{Status: "ok", Service: "fieldops-dev"}
	if h.Store != nil {
		rep.Users = len(h.Store.Users())
		rep.OpenTasks = len(h.Store.Tasks(func(t models.Task) bool { return t.Status == models.StatusOpen }))
		rep.Hazards = len(h.Store.Hazards())
	}
	writeJSON(w, rep, http.StatusOK)
}

func (h *SystemHandler) VersionHandler(version, buildTime string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"version": version, "buildTime": buildTime}, http.StatusOK)
	}
}
