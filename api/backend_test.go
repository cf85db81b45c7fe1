package api_test

import (
	"context"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garnizeh/fieldops/api"
	"github.com/garnizeh/fieldops/internal/store"
	"github.com/garnizeh/fieldops/pkg/client"
	"github.com/garnizeh/fieldops/pkg/models"
	"github.com/garnizeh/fieldops/pkg/session"
)

// login signs in through the real client stack and returns the slices'
// shared API.
func login(t *testing.T, srv *httptest.Server, email string, role models.Role) (*client.API, *session.Session, *atomic.Int32) {
	t.Helper()
	var navigations atomic.Int32
	sess := session.New(session.NewMemoryStore())
	a, err := client.New(client.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, sess, srv.Client(), func(string) { navigations.Add(1) })
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	users := store.NewUserSlice(a, sess)
	if _, err := users.Login(context.Background(), models.Credentials{Email: email, Password: api.DemoPassword, Role: role}); err != nil {
		t.Fatalf("Login %s: %v", email, err)
	}
	return a, sess, &navigations
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	r, _ := newRouter(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestBackend_AdminApprovalFlow(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	a, _, _ := login(t, srv, api.DemoAdminEmail, models.RoleAdmin)
	admin := store.NewAdminSlice(a)

	if _, err := admin.FetchEngineers(ctx); err != nil {
		t.Fatalf("FetchEngineers: %v", err)
	}
	if _, err := admin.FetchApprovedEngineers(ctx); err != nil {
		t.Fatalf("FetchApprovedEngineers: %v", err)
	}
	before := len(admin.Snapshot().ApprovedEngineers)

	for range 2 {
		if _, err := admin.ApproveEngineer(ctx, "pending@fieldops.dev", true); err != nil {
			t.Fatalf("ApproveEngineer: %v", err)
		}
	}
	st := admin.Snapshot()
	if len(st.ApprovedEngineers) != before+1 {
		t.Fatalf("approved list should grow by one, got %d -> %d", before, len(st.ApprovedEngineers))
	}

	// the refetched server view agrees with the locally reconciled one
	server, err := admin.FetchApprovedEngineers(ctx)
	if err != nil {
		t.Fatalf("FetchApprovedEngineers: %v", err)
	}
	if len(server) != len(st.ApprovedEngineers) {
		t.Fatalf("local %d vs server %d approved engineers", len(st.ApprovedEngineers), len(server))
	}
}

func TestBackend_EngineerTaskLifecycle(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	a, _, _ := login(t, srv, api.DemoEngineerEmail, models.RoleEngineer)
	eng := store.NewEngineerSlice(a)

	tasks, err := eng.FetchTasks(ctx, api.DemoEngineerEmail)
	if err != nil {
		t.Fatalf("FetchTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected the seeded assignment, got %d tasks", len(tasks))
	}
	id := tasks[0].ID

	accepted, err := eng.AcceptTask(ctx, id, api.DemoEngineerEmail)
	if err != nil {
		t.Fatalf("AcceptTask: %v", err)
	}
	if !accepted.Accepted || accepted.Status != models.StatusInProgress {
		t.Fatalf("unexpected accepted task %+v", accepted)
	}

	if err := eng.UpdateTaskStatus(ctx, id, models.StatusDeferred, api.DemoEngineerEmail); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	if st := eng.Snapshot(); len(st.Tasks) != 0 {
		t.Fatalf("deferred task should leave the engineer's refetched list: %+v", st.Tasks)
	}
}

func TestBackend_HazardDeleteRefetches(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	a, _, _ := login(t, srv, api.DemoEngineerEmail, models.RoleEngineer)
	eng := store.NewEngineerSlice(a)

	created, err := eng.CreateHazard(ctx, models.HazardInput{HazardType: "Live wire", Description: "Exposed cable", RiskLevel: "high", Address: "9 Pole St", Pincode: "560009"})
	if err != nil {
		t.Fatalf("CreateHazard: %v", err)
	}
	if created.ReportedBy != api.DemoEngineerEmail {
		t.Fatalf("reporter not recorded: %+v", created)
	}
	n := len(eng.Snapshot().Hazards)

	if err := eng.DeleteHazard(ctx, created.ID); err != nil {
		t.Fatalf("DeleteHazard: %v", err)
	}
	if got := len(eng.Snapshot().Hazards); got != n-1 {
		t.Fatalf("expected %d hazards after delete, got %d", n-1, got)
	}

	if err := eng.DeleteHazard(ctx, created.ID); err == nil {
		t.Fatalf("deleting twice should fail")
	}
	if st := eng.Snapshot(); st.Error != "hazard not found" {
		t.Fatalf("expected server message, got %q", st.Error)
	}
}

func TestBackend_UserTicketsAndNotifications(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	a, _, _ := login(t, srv, api.DemoUserEmail, models.RoleUser)
	users := store.NewUserSlice(a, nil)
	notes := store.NewNotificationSlice(a)

	in := models.TicketInput{ServiceType: "Plumbing", Priority: "medium", Description: "Leaking tap", Address: "4 Main Street", Pincode: "560004", UserEmail: api.DemoUserEmail}
	if _, err := users.CreateTicket(ctx, in); err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	tasks, err := users.FetchTasks(ctx, api.DemoUserEmail)
	if err != nil {
		t.Fatalf("FetchTasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tickets, got %d", len(tasks))
	}

	// a status change by the engineer notifies the ticket owner
	ea, _, _ := login(t, srv, api.DemoEngineerEmail, models.RoleEngineer)
	eng := store.NewEngineerSlice(ea)
	et, err := eng.FetchTasks(ctx, api.DemoEngineerEmail)
	if err != nil || len(et) == 0 {
		t.Fatalf("engineer tasks: %v %d", err, len(et))
	}
	if err := eng.UpdateTaskStatus(ctx, et[0].ID, models.StatusCompleted, api.DemoEngineerEmail); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}

	ns, err := notes.Fetch(ctx, api.DemoUserEmail)
	if err != nil {
		t.Fatalf("Fetch notifications: %v", err)
	}
	if len(ns) == 0 || notes.UnreadCount() != len(ns) {
		t.Fatalf("expected unread notifications, got %d/%d", notes.UnreadCount(), len(ns))
	}
	if err := notes.MarkRead(ctx, ns[0].ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if notes.UnreadCount() != len(ns)-1 {
		t.Fatalf("MarkRead did not reduce unread count")
	}
}

func TestBackend_ExpiredSessionFiresGuardOnce(t *testing.T) {
	srv := newServer(t)
	a, sess, navigations := login(t, srv, api.DemoAdminEmail, models.RoleAdmin)
	if err := sess.Login("not-a-jwt", api.DemoAdminEmail, models.RoleAdmin); err != nil {
		t.Fatalf("overwrite token: %v", err)
	}
	admin := store.NewAdminSlice(a)

	for range 3 {
		if _, err := admin.FetchTasks(context.Background()); err == nil {
			t.Fatalf("expected unauthorized")
		}
	}
	if navigations.Load() != 1 {
		t.Fatalf("expected one redirect, got %d", navigations.Load())
	}
	if id, _ := sess.Identity(); id.Token != "" {
		t.Fatalf("session should be cleared")
	}
	if st := admin.Snapshot(); st.Error != "Session expired, please log in again" {
		t.Fatalf("unexpected error %q", st.Error)
	}
}
