package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garnizeh/fieldops/internal/store"
	"github.com/garnizeh/fieldops/internal/validate"
	"github.com/garnizeh/fieldops/pkg/client"
	"github.com/garnizeh/fieldops/pkg/models"
	"github.com/garnizeh/fieldops/pkg/session"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func setup(t *testing.T, mux *http.ServeMux) (*client.API, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	sess := session.New(session.NewMemoryStore())
	if err := sess.Login("tok", "admin@x.com", models.RoleAdmin); err != nil {
		t.Fatalf("Login: %v", err)
	}
	api, err := client.New(client.Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, sess, srv.Client(), nil)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	t.Cleanup(func() { api.Close() })
	return api, sess
}

func TestAdmin_ThreePhaseStates(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/tasks", func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		writeJSON(w, []models.Task{{ID: "1", Status: "open"}})
	})
	mux.HandleFunc("GET /admin/users", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]string{"message": "users unavailable"})
	})
	mux.HandleFunc("GET /admin/engineers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	api, _ := setup(t, mux)
	s := store.NewAdminSlice(api)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := s.FetchTasks(ctx)
		done <- err
	}()
	<-entered
	if st := s.Snapshot(); !st.Loading || st.Error != "" {
		t.Fatalf("pending: unexpected status %+v", st.Status)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("FetchTasks: %v", err)
	}
	st := s.Snapshot()
	if st.Loading || len(st.Tasks) != 1 {
		t.Fatalf("fulfilled: unexpected state %+v", st)
	}

	if _, err := s.FetchUsers(ctx); err == nil {
		t.Fatalf("expected FetchUsers to fail")
	}
	st = s.Snapshot()
	if st.Loading || st.Error != "users unavailable" {
		t.Fatalf("rejected: unexpected status %+v", st.Status)
	}

	if _, err := s.FetchEngineers(ctx); err == nil {
		t.Fatalf("expected FetchEngineers to fail")
	}
	if st := s.Snapshot(); st.Error != "Bad Gateway" {
		t.Fatalf("expected status text message, got %q", st.Error)
	}

}

func TestAdmin_FetchUsersKeepsUnknownRoles(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/users", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"_id":"1","name":"Uma","role":"user"},{"_id":"2","name":"Ivy","role":"auditor"}]`))
	})
	api, _ := setup(t, mux)
	s := store.NewAdminSlice(api)

	users, err := s.FetchUsers(context.Background())
	if err != nil {
		t.Fatalf("FetchUsers: %v", err)
	}
	if len(users) != 2 || users[1].Role != models.RoleUnknown {
		t.Fatalf("users = %+v", users)
	}
	if st := s.Snapshot(); len(st.Users) != 2 || st.Error != "" {
		t.Fatalf("state = %+v", st)
	}
}

func TestAdmin_TransportFailureUsesFallback(t *testing.T) {
	sess := session.New(nil)
	api, err := client.New(client.Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, sess, nil, nil)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	s := store.NewAdminSlice(api)
	if _, err := s.FetchTasks(context.Background()); err == nil {
		t.Fatalf("expected transport error")
	}
	if st := s.Snapshot(); st.Error != "Failed to fetch tasks" || st.Loading {
		t.Fatalf("unexpected status %+v", st.Status)
	}
}

func TestAdmin_ApproveEngineerIdempotent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/engineers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []models.Engineer{
			{Email: "a@x.com", Name: "A", IsEngineer: false},
			{Email: "b@x.com", Name: "B", IsEngineer: true},
		})
	})
	mux.HandleFunc("GET /admin/approval/engineers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []models.Engineer{{Email: "b@x.com", Name: "B", IsEngineer: true}})
	})
	mux.HandleFunc("PATCH /admin/approve-engineer/{email}", func(w http.ResponseWriter, r *http.Request) {
		var req models.ApproveRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, models.Engineer{Email: r.PathValue("email"), Name: "A", IsEngineer: req.Approve})
	})
	api, _ := setup(t, mux)
	s := store.NewAdminSlice(api)
	ctx := context.Background()

	if _, err := s.FetchEngineers(ctx); err != nil {
		t.Fatalf("FetchEngineers: %v", err)
	}
	if _, err := s.FetchApprovedEngineers(ctx); err != nil {
		t.Fatalf("FetchApprovedEngineers: %v", err)
	}

	for range 2 {
		if _, err := s.ApproveEngineer(ctx, "a@x.com", true); err != nil {
			t.Fatalf("ApproveEngineer: %v", err)
		}
	}
	st := s.Snapshot()
	count := 0
	for _, e := range st.ApprovedEngineers {
		if e.Email == "a@x.com" {
			count++
		}
	}
	if count != 1 || len(st.ApprovedEngineers) != 2 {
		t.Fatalf("approved list should hold a@x.com once: %+v", st.ApprovedEngineers)
	}
	if len(st.Engineers) != 2 || !st.Engineers[0].IsEngineer {
		t.Fatalf("engineer not updated in place: %+v", st.Engineers)
	}

	if _, err := s.ApproveEngineer(ctx, "a@x.com", false); err != nil {
		t.Fatalf("disapprove: %v", err)
	}
	st = s.Snapshot()
	if len(st.ApprovedEngineers) != 1 || st.ApprovedEngineers[0].Email != "b@x.com" {
		t.Fatalf("disapproved engineer should leave the approved list: %+v", st.ApprovedEngineers)
	}
	if st.Engineers[0].IsEngineer {
		t.Fatalf("disapproval not reflected in all engineers")
	}
}

func TestAdmin_ReassignRefetchesTasks(t *testing.T) {
	var gets int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/tasks", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&gets, 1)
		email := "e2@x.com"
		writeJSON(w, []models.Task{{ID: "t1", EngineerEmail: &email}})
	})
	mux.HandleFunc("PATCH /admin/reassign/{task}/{email}", func(w http.ResponseWriter, r *http.Request) {
		email := r.PathValue("email")
		writeJSON(w, models.Task{ID: r.PathValue("task"), EngineerEmail: &email})
	})
	api, _ := setup(t, mux)
	s := store.NewAdminSlice(api)

	task, err := s.ReassignTask(context.Background(), "t1", "e2@x.com")
	if err != nil {
		t.Fatalf("ReassignTask: %v", err)
	}
	if task.AssignedTo() != "e2@x.com" {
		t.Fatalf("unexpected task: %+v", task)
	}
	if atomic.LoadInt32(&gets) != 1 {
		t.Fatalf("expected one task refetch, got %d", gets)
	}
	if st := s.Snapshot(); len(st.Tasks) != 1 || st.Tasks[0].AssignedTo() != "e2@x.com" {
		t.Fatalf("unexpected tasks: %+v", st.Tasks)
	}
}

func TestHazardDelete_ReplacesWithRefetch(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /hazards/getAllHazards", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, "GET")
		mu.Unlock()
		writeJSON(w, []models.Hazard{{ID: "2", HazardType: "fresh"}, {ID: "3", HazardType: "server"}})
	})
	mux.HandleFunc("DELETE /hazards/deleteHazard/{id}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, "DELETE "+r.PathValue("id"))
		mu.Unlock()
		writeJSON(w, models.Message{Message: "deleted"})
	})
	api, _ := setup(t, mux)
	s := store.NewEngineerSlice(api)

	if err := s.DeleteHazard(context.Background(), "1"); err != nil {
		t.Fatalf("DeleteHazard: %v", err)
	}
	if len(calls) != 2 || calls[0] != "DELETE 1" || calls[1] != "GET" {
		t.Fatalf("unexpected call sequence: %v", calls)
	}
	st := s.Snapshot()
	if len(st.Hazards) != 2 || st.Hazards[0].ID != "2" || st.Hazards[1].HazardType != "server" {
		t.Fatalf("state must equal refetch response: %+v", st.Hazards)
	}
}

func TestHazardUpdate_ValidationBlocksRequest(t *testing.T) {
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { atomic.AddInt32(&hits, 1) })
	api, _ := setup(t, mux)
	s := store.NewAdminSlice(api)

	_, err := s.UpdateHazard(context.Background(), "1", models.HazardInput{HazardType: "x", RiskLevel: "severe"})
	var verrs validate.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("validation failure must not reach the backend")
	}
	if st := s.Snapshot(); st.Loading || st.Error != "" {
		t.Fatalf("validation must not touch slice status: %+v", st.Status)
	}
}

func engineerMux(t *testing.T, gets *int32) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks/engineer/{email}", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(gets, 1)
		tasks := []models.Task{
			{ID: "1", Status: "open", ServiceType: "Plumbing"},
			{ID: "2", Status: "in-progress", ServiceType: "Electrical"},
		}
		if n > 1 {
			tasks = tasks[1:]
		}
		writeJSON(w, tasks)
	})
	mux.HandleFunc("PATCH /tasks/{id}/accept/{email}", func(w http.ResponseWriter, r *http.Request) {
		email := r.PathValue("email")
		writeJSON(w, models.Task{ID: r.PathValue("id"), Status: "in-progress", Accepted: true, EngineerEmail: &email, ServiceType: "Plumbing"})
	})
	mux.HandleFunc("PATCH /tasks/{id}/reject/{email}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.Message{Message: "rejected"})
	})
	mux.HandleFunc("PATCH /tasks/updateTicketStatus/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body models.StatusUpdate
		_ = json.NewDecoder(r.Body).Decode(&body)
		// the backend echoes more fields than the client keeps
		writeJSON(w, models.Task{ID: r.PathValue("id"), Status: body.Status, Description: "server copy"})
	})
	return mux
}

func TestEngineer_AcceptAndReject(t *testing.T) {
	var gets int32
	api, _ := setup(t, engineerMux(t, &gets))
	s := store.NewEngineerSlice(api)
	ctx := context.Background()

	if _, err := s.FetchTasks(ctx, "e@x.com"); err != nil {
		t.Fatalf("FetchTasks: %v", err)
	}
	if _, err := s.AcceptTask(ctx, "1", "e@x.com"); err != nil {
		t.Fatalf("AcceptTask: %v", err)
	}
	st := s.Snapshot()
	if !st.Tasks[0].Accepted || st.Tasks[0].AssignedTo() != "e@x.com" || st.Tasks[0].Status != "in-progress" {
		t.Fatalf("accepted task not replaced: %+v", st.Tasks[0])
	}

	if err := s.RejectTask(ctx, "2", "e@x.com"); err != nil {
		t.Fatalf("RejectTask: %v", err)
	}
	st = s.Snapshot()
	if len(st.Tasks) != 1 || st.Tasks[0].ID != "1" {
		t.Fatalf("rejected task not removed: %+v", st.Tasks)
	}
}

func TestEngineer_UpdateStatusPatchesOnlyStatus(t *testing.T) {
	var gets int32
	api, _ := setup(t, engineerMux(t, &gets))
	s := store.NewEngineerSlice(api)
	ctx := context.Background()

	if _, err := s.FetchTasks(ctx, "e@x.com"); err != nil {
		t.Fatalf("FetchTasks: %v", err)
	}
	if err := s.UpdateTaskStatus(ctx, "1", models.StatusCompleted, "e@x.com"); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	st := s.Snapshot()
	if st.Tasks[0].Status != "completed" || st.Tasks[0].Description != "" || st.Tasks[0].ServiceType != "Plumbing" {
		t.Fatalf("only status should change: %+v", st.Tasks[0])
	}
	if atomic.LoadInt32(&gets) != 1 {
		t.Fatalf("non-deferred status must not refetch")
	}

	if err := s.UpdateTaskStatus(ctx, "1", "bogus", "e@x.com"); err == nil {
		t.Fatalf("expected invalid status to be rejected")
	}
}

func TestEngineer_DeferRefetchesTasks(t *testing.T) {
	for _, status := range []string{models.StatusDeferred, "Deferred", " DEFERRED "} {
		t.Run(status, func(t *testing.T) {
			var gets int32
			api, _ := setup(t, engineerMux(t, &gets))
			s := store.NewEngineerSlice(api)
			ctx := context.Background()

			if _, err := s.FetchTasks(ctx, "e@x.com"); err != nil {
				t.Fatalf("FetchTasks: %v", err)
			}
			if err := s.UpdateTaskStatus(ctx, "1", status, "e@x.com"); err != nil {
				t.Fatalf("UpdateTaskStatus: %v", err)
			}
			if n := atomic.LoadInt32(&gets); n != 2 {
				t.Fatalf("deferring should refetch tasks, gets=%d", n)
			}
			if st := s.Snapshot(); len(st.Tasks) != 1 || st.Tasks[0].ID != "2" {
				t.Fatalf("state should hold refetched tasks: %+v", st.Tasks)
			}
		})
	}
}

func TestEngineer_UpdateStatusNormalizesCase(t *testing.T) {
	var gets int32
	api, _ := setup(t, engineerMux(t, &gets))
	s := store.NewEngineerSlice(api)
	ctx := context.Background()

	if _, err := s.FetchTasks(ctx, "e@x.com"); err != nil {
		t.Fatalf("FetchTasks: %v", err)
	}
	if err := s.UpdateTaskStatus(ctx, "1", "Completed", "e@x.com"); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	if st := s.Snapshot(); st.Tasks[0].Status != models.StatusCompleted {
		t.Fatalf("cached status = %q, want %q", st.Tasks[0].Status, models.StatusCompleted)
	}
}

func TestFetch_LastIssuedRequestWins(t *testing.T) {
	slow := make(chan struct{})
	var n int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/tasks", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&n, 1) == 1 {
			<-slow
			writeJSON(w, []models.Task{{ID: "old"}})
			return
		}
		writeJSON(w, []models.Task{{ID: "new"}})
	})
	api, _ := setup(t, mux)
	s := store.NewAdminSlice(api)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() {
		_, err := s.FetchTasks(ctx)
		first <- err
	}()
	for atomic.LoadInt32(&n) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := s.FetchTasks(ctx); err != nil {
		t.Fatalf("second FetchTasks: %v", err)
	}
	if st := s.Snapshot(); !st.Loading {
		t.Fatalf("still loading while the first request is in flight")
	}
	close(slow)
	if err := <-first; err != nil {
		t.Fatalf("first FetchTasks: %v", err)
	}

	st := s.Snapshot()
	if len(st.Tasks) != 1 || st.Tasks[0].ID != "new" {
		t.Fatalf("stale response overwrote newer state: %+v", st.Tasks)
	}
	if st.Loading {
		t.Fatalf("loading should be false once all requests settle")
	}
}

func TestNotifications_UnreadAndMarkRead(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /notifications/{email}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []models.Notification{{ID: "1", Message: "a"}, {ID: "2", Message: "b", IsRead: true}, {ID: "3", Message: "c"}})
	})
	mux.HandleFunc("PATCH /notifications/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.Notification{ID: r.PathValue("id"), IsRead: true})
	})
	api, _ := setup(t, mux)
	s := store.NewNotificationSlice(api)
	ctx := context.Background()

	if _, err := s.Fetch(ctx, "u@x.com"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if s.UnreadCount() != 2 {
		t.Fatalf("expected 2 unread, got %d", s.UnreadCount())
	}
	if err := s.MarkRead(ctx, "1"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if st := s.Snapshot(); st.Unread != 1 {
		t.Fatalf("expected 1 unread, got %d", st.Unread)
	}
}

func TestUser_LoginStoresSessionAndLogoutClears(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /users/checkUser", func(w http.ResponseWriter, r *http.Request) {
		var cred models.Credentials
		_ = json.NewDecoder(r.Body).Decode(&cred)
		if cred.Password != "Secret#123" {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, models.Message{Message: "Invalid credentials"})
			return
		}
		writeJSON(w, models.LoginResult{Token: "new-token", Email: cred.Email, Role: cred.Role})
	})
	mux.HandleFunc("GET /tasks/user/{email}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []models.Task{{ID: "u1", UserEmail: r.PathValue("email")}})
	})
	api, sess := setup(t, mux)
	_ = sess.Clear()
	s := store.NewUserSlice(api, sess)
	ctx := context.Background()

	if _, err := s.Login(ctx, models.Credentials{Email: "u@x.com", Password: "wrong", Role: models.RoleUser}); err == nil {
		t.Fatalf("expected bad credentials to fail")
	}
	if st := s.Snapshot(); st.Error != "Invalid credentials" {
		t.Fatalf("unexpected error %q", st.Error)
	}

	if _, err := s.Login(ctx, models.Credentials{Email: "u@x.com", Password: "Secret#123", Role: models.RoleUser}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	id, err := sess.Identity()
	if err != nil || id.Token != "new-token" || id.Email != "u@x.com" || id.Role != models.RoleUser {
		t.Fatalf("unexpected identity %+v err=%v", id, err)
	}

	if _, err := s.FetchTasks(ctx, "u@x.com"); err != nil {
		t.Fatalf("FetchTasks: %v", err)
	}
	if err := s.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if st := s.Snapshot(); st.Tasks != nil {
		t.Fatalf("logout should drop cached tasks")
	}
	if id, _ := sess.Identity(); id.Token != "" {
		t.Fatalf("logout should clear the session")
	}
}
