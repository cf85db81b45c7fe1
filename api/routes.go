package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/garnizeh/fieldops/internal/config"
	"github.com/garnizeh/fieldops/pkg/models"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, store *MemStore) (*mux.Router, error) {
	h, err := NewHandler(store, cfg.Dev.JWTSecret, cfg.Dev.TokenDuration)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	systemHandler := &SystemHandler{Store: store}

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/users/checkUser", h.CheckUser).Methods("POST")
	r.HandleFunc("/users/newUser", h.NewUser).Methods("POST")
	r.HandleFunc("/users/reset", h.Reset).Methods("POST")

	// Protected routes
	protected := r.PathPrefix("/").Subrouter()
	protected.Use(JWTAuthMiddlewareWithSecret(cfg.Dev.JWTSecret))

	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(RequireRole(models.RoleAdmin))
	admin.HandleFunc("/tasks", h.AdminTasks).Methods("GET")
	admin.HandleFunc("/users", h.AdminUsers).Methods("GET")
	admin.HandleFunc("/engineers", h.AdminEngineers).Methods("GET")
	admin.HandleFunc("/approval/engineers", h.ApprovedEngineers).Methods("GET")
	admin.HandleFunc("/approve-engineer/{email}", h.ApproveEngineer).Methods("PATCH")
	admin.HandleFunc("/reassign/{taskId}/{engineerEmail}", h.Reassign).Methods("PATCH")
	admin.HandleFunc("/engineers/eligible/{taskId}/{dayName}", h.EligibleEngineers).Methods("GET")

	engineer := RequireRole(models.RoleEngineer)
	protected.Handle("/tasks/engineer/{email}", engineer(http.HandlerFunc(h.EngineerTasks))).Methods("GET")
	protected.HandleFunc("/tasks/user/{email}", h.UserTasks).Methods("GET")
	protected.HandleFunc("/tasks/createTask", h.CreateTask).Methods("POST")
	protected.Handle("/tasks/updateTicketStatus/{id}", RequireRole(models.RoleEngineer, models.RoleAdmin)(http.HandlerFunc(h.UpdateTicketStatus))).Methods("PATCH")
	protected.Handle("/tasks/{id}/accept/{email}", engineer(http.HandlerFunc(h.AcceptTask))).Methods("PATCH")
	protected.Handle("/tasks/{id}/reject/{email}", engineer(http.HandlerFunc(h.RejectTask))).Methods("PATCH")

	protected.HandleFunc("/hazards/getAllHazards", h.ListHazards).Methods("GET")
	protected.HandleFunc("/hazards/createHazard", h.CreateHazard).Methods("POST")
	protected.Handle("/hazards/updateHazard/{id}", RequireRole(models.RoleAdmin, models.RoleEngineer)(http.HandlerFunc(h.UpdateHazard))).Methods("PATCH")
	protected.Handle("/hazards/deleteHazard/{id}", RequireRole(models.RoleAdmin, models.RoleEngineer)(http.HandlerFunc(h.DeleteHazard))).Methods("DELETE")

	protected.HandleFunc("/users/profile/{role}/{email}", h.GetProfile).Methods("GET")
	protected.HandleFunc("/users/updateProfile/{role}/{email}", h.UpdateProfile).Methods("PATCH")

	protected.HandleFunc("/notifications/{email}", h.Notifications).Methods("GET")
	protected.HandleFunc("/notifications/{id}/read", h.MarkNotificationRead).Methods("PATCH")

	return r, nil
}
