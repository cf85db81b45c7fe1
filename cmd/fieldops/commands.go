package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/garnizeh/fieldops/internal/dashboard"
	"github.com/garnizeh/fieldops/internal/filter"
	"github.com/garnizeh/fieldops/pkg/models"
	"github.com/garnizeh/fieldops/pkg/session"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

func commandTable() []command {
	return []command{
		{"login", "sign in and store the session", runLogin},
		{"logout", "clear the stored session", runLogout},
		{"whoami", "show the stored identity", runWhoami},
		{"signup", "register a new account", runSignup},
		{"reset", "reset an account password", runReset},
		{"profile", "show or update your profile", runProfile},
		{"tasks", "list tasks visible to your role", runTasks},
		{"engineers", "list engineers (admin)", runEngineers},
		{"users", "list users (admin)", runUsers},
		{"hazards", "list reported hazards", runHazards},
		{"approve", "approve or revoke an engineer (admin)", runApprove},
		{"reassign", "move a task to another engineer (admin)", runReassign},
		{"eligible", "list engineers eligible for a task (admin)", runEligible},
		{"accept", "accept an assigned task (engineer)", runAccept},
		{"reject", "reject an assigned task (engineer)", runReject},
		{"status", "update a task status (engineer)", runStatus},
		{"ticket", "raise a service ticket (user)", runTicket},
		{"report-hazard", "report a hazard (engineer)", runReportHazard},
		{"update-hazard", "edit a hazard (admin, engineer)", runUpdateHazard},
		{"delete-hazard", "delete a hazard (admin, engineer)", runDeleteHazard},
		{"notifications", "list and mark notifications", runNotifications},
		{"dashboard", "show the dashboard for your role", runDashboard},
		{"watch", "refresh the dashboard and poll notifications until interrupted", runWatch},
	}
}

func lookup(name string) (command, bool) {
	for _, c := range commandTable() {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// flags builds a subcommand flag set that reports errors instead of
// exiting.
func (a *app) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// parse parses args and reports whether the command should stop because
// help was printed.
func parse(fs *pflag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// positional checks the number of positional arguments left after parsing.
func positional(fs *pflag.FlagSet, names ...string) ([]string, error) {
	args := fs.Args()
	if len(args) != len(names) {
		return nil, fmt.Errorf("%s: expected arguments <%s>", fs.Name(), strings.Join(names, "> <"))
	}
	return args, nil
}

func criteriaFlags(fs *pflag.FlagSet, statusHelp string) *filter.Criteria {
	c := &filter.Criteria{}
	fs.StringVar(&c.Search, "search", "", "case-insensitive search")
	fs.StringVar(&c.Status, "status", "", statusHelp)
	fs.StringVar(&c.Priority, "priority", "", "filter by priority (low, medium, high)")
	fs.StringVar(&c.Pincode, "pincode", "", "filter by pincode")
	return c
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := a.flags("login")
	var cred models.Credentials
	var role string
	fs.StringVar(&cred.Email, "email", "", "account email")
	fs.StringVar(&cred.Password, "password", "", "account password (default $FIELDOPS_PASSWORD)")
	fs.StringVar(&role, "role", "user", "account role: admin, engineer or user")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	if cred.Password == "" {
		cred.Password = os.Getenv("FIELDOPS_PASSWORD")
	}
	r, err := models.ParseRole(role)
	if err != nil {
		return err
	}
	cred.Role = r

	res, err := a.user.Login(ctx, cred)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", res.Email, res.Role)
	if claims, err := session.ClaimsFromToken(res.Token); err == nil && !claims.ExpiresAt.IsZero() {
		fmt.Fprintf(a.out, "Session valid until %s\n", claims.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runLogout(_ context.Context, a *app, args []string) error {
	fs := a.flags("logout")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	if err := a.user.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func runWhoami(_ context.Context, a *app, args []string) error {
	fs := a.flags("whoami")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	id, err := a.identity()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s) session %q\n", id.Email, id.Role, a.cfg.SessionName)
	return nil
}

func runSignup(ctx context.Context, a *app, args []string) error {
	fs := a.flags("signup")
	var in models.Signup
	var role string
	fs.StringVar(&in.Name, "name", "", "full name")
	fs.StringVar(&in.Email, "email", "", "email")
	fs.StringVar(&in.Password, "password", "", "password")
	fs.StringVar(&in.Phone, "phone", "", "10 digit phone number")
	fs.StringVar(&in.Address, "address", "", "address")
	fs.StringVar(&in.Pincode, "pincode", "", "6 digit pincode")
	fs.StringVar(&role, "role", "user", "engineer or user")
	fs.StringVar(&in.Specialization, "specialization", "", "engineer specialization")
	fs.StringSliceVar(&in.Availability, "availability", nil, "engineer working days, e.g. Monday,Tuesday")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	r, err := models.ParseRole(role)
	if err != nil {
		return err
	}
	in.Role = r

	msg, err := a.user.Register(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg.Message)
	return nil
}

func runReset(ctx context.Context, a *app, args []string) error {
	fs := a.flags("reset")
	var in models.PasswordReset
	fs.StringVar(&in.Email, "email", "", "account email")
	fs.StringVar(&in.NewPassword, "password", "", "new password")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	msg, err := a.user.ResetPassword(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg.Message)
	return nil
}

func runProfile(ctx context.Context, a *app, args []string) error {
	fs := a.flags("profile")
	var upd models.Profile
	fs.StringVar(&upd.Name, "name", "", "new name")
	fs.StringVar(&upd.Phone, "phone", "", "new phone")
	fs.StringVar(&upd.Address, "address", "", "new address")
	fs.StringVar(&upd.Pincode, "pincode", "", "new pincode")
	fs.StringVar(&upd.Specialization, "specialization", "", "new specialization (engineer)")
	fs.StringSliceVar(&upd.Availability, "availability", nil, "new working days (engineer)")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	id, err := a.identity()
	if err != nil {
		return err
	}

	fetch := func() (models.Profile, error) { return a.user.FetchProfile(ctx, id.Role, id.Email) }
	update := func(p models.Profile) (models.Profile, error) {
		return a.user.UpdateProfile(ctx, id.Role, id.Email, p)
	}
	if id.Role == models.RoleEngineer {
		fetch = func() (models.Profile, error) { return a.engineer.FetchProfile(ctx, id.Email) }
		update = func(p models.Profile) (models.Profile, error) { return a.engineer.UpdateProfile(ctx, id.Email, p) }
	}

	p, err := fetch()
	if err != nil {
		return err
	}
	if fs.NFlag() > 0 {
		if fs.Changed("name") {
			p.Name = upd.Name
		}
		if fs.Changed("phone") {
			p.Phone = upd.Phone
		}
		if fs.Changed("address") {
			p.Address = upd.Address
		}
		if fs.Changed("pincode") {
			p.Pincode = upd.Pincode
		}
		if fs.Changed("specialization") {
			p.Specialization = upd.Specialization
		}
		if fs.Changed("availability") {
			p.Availability = upd.Availability
		}
		if p, err = update(p); err != nil {
			return err
		}
	}
	printProfile(a.out, p)
	return nil
}

func runTasks(ctx context.Context, a *app, args []string) error {
	fs := a.flags("tasks")
	crit := criteriaFlags(fs, "filter by status (open, in-progress, completed, failed, deferred)")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	id, err := a.identity()
	if err != nil {
		return err
	}

	var tasks []models.Task
	switch id.Role {
	case models.RoleAdmin:
		tasks, err = a.admin.FetchTasks(ctx)
	case models.RoleEngineer:
		tasks, err = a.engineer.FetchTasks(ctx, id.Email)
	case models.RoleUser:
		tasks, err = a.user.FetchTasks(ctx, id.Email)
	default:
		return fmt.Errorf("no task list for role %q", id.Role)
	}
	if err != nil {
		return err
	}
	return printTasks(a.out, filter.Tasks(tasks, *crit))
}

func runEngineers(ctx context.Context, a *app, args []string) error {
	fs := a.flags("engineers")
	crit := criteriaFlags(fs, "filter by specialization")
	approved := fs.Bool("approved", false, "only approved engineers")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	if _, err := a.requireRole(models.RoleAdmin); err != nil {
		return err
	}

	fetch := a.admin.FetchEngineers
	if *approved {
		fetch = a.admin.FetchApprovedEngineers
	}
	engineers, err := fetch(ctx)
	if err != nil {
		return err
	}
	return printEngineers(a.out, filter.Engineers(engineers, *crit))
}

func runUsers(ctx context.Context, a *app, args []string) error {
	fs := a.flags("users")
	crit := criteriaFlags(fs, "unused for users")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	if _, err := a.requireRole(models.RoleAdmin); err != nil {
		return err
	}
	users, err := a.admin.FetchUsers(ctx)
	if err != nil {
		return err
	}
	return printUsers(a.out, filter.Users(users, *crit))
}

func runHazards(ctx context.Context, a *app, args []string) error {
	fs := a.flags("hazards")
	crit := criteriaFlags(fs, "filter by risk level (low, medium, high)")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	id, err := a.requireRole(models.RoleAdmin, models.RoleEngineer)
	if err != nil {
		return err
	}
	fetch := a.engineer.FetchHazards
	if id.Role == models.RoleAdmin {
		fetch = a.admin.FetchHazards
	}
	hazards, err := fetch(ctx)
	if err != nil {
		return err
	}
	return printHazards(a.out, filter.Hazards(hazards, *crit))
}

func runApprove(ctx context.Context, a *app, args []string) error {
	fs := a.flags("approve")
	revoke := fs.Bool("revoke", false, "withdraw approval instead of granting it")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	pos, err := positional(fs, "email")
	if err != nil {
		return err
	}
	if _, err := a.requireRole(models.RoleAdmin); err != nil {
		return err
	}
	e, err := a.admin.ApproveEngineer(ctx, pos[0], !*revoke)
	if err != nil {
		return err
	}
	state := "approved"
	if !e.IsEngineer {
		state = "not approved"
	}
	fmt.Fprintf(a.out, "%s is %s\n", e.Email, state)
	return nil
}

func runReassign(ctx context.Context, a *app, args []string) error {
	fs := a.flags("reassign")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	pos, err := positional(fs, "task-id", "engineer-email")
	if err != nil {
		return err
	}
	if _, err := a.requireRole(models.RoleAdmin); err != nil {
		return err
	}
	if _, err := a.admin.ReassignTask(ctx, pos[0], pos[1]); err != nil {
		return err
	}
	return printTasks(a.out, a.admin.Snapshot().Tasks)
}

func runEligible(ctx context.Context, a *app, args []string) error {
	fs := a.flags("eligible")
	day := fs.String("day", "", "weekday to check (default today)")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	pos, err := positional(fs, "task-id")
	if err != nil {
		return err
	}
	if _, err := a.requireRole(models.RoleAdmin); err != nil {
		return err
	}
	if *day == "" {
		*day = a.clk.Now().Weekday().String()
	}
	engineers, err := a.admin.FetchEligibleEngineers(ctx, pos[0], *day)
	if err != nil {
		return err
	}
	return printEngineers(a.out, engineers)
}

func runAccept(ctx context.Context, a *app, args []string) error {
	fs := a.flags("accept")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	pos, err := positional(fs, "task-id")
	if err != nil {
		return err
	}
	id, err := a.requireRole(models.RoleEngineer)
	if err != nil {
		return err
	}
	t, err := a.engineer.AcceptTask(ctx, pos[0], id.Email)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Accepted task %s\n", t.ID)
	return nil
}

func runReject(ctx context.Context, a *app, args []string) error {
	fs := a.flags("reject")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	pos, err := positional(fs, "task-id")
	if err != nil {
		return err
	}
	id, err := a.requireRole(models.RoleEngineer)
	if err != nil {
		return err
	}
	if err := a.engineer.RejectTask(ctx, pos[0], id.Email); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Rejected task %s\n", pos[0])
	return nil
}

func runStatus(ctx context.Context, a *app, args []string) error {
	fs := a.flags("status")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	pos, err := positional(fs, "task-id", "status")
	if err != nil {
		return err
	}
	id, err := a.requireRole(models.RoleEngineer)
	if err != nil {
		return err
	}
	if _, err := a.engineer.FetchTasks(ctx, id.Email); err != nil {
		return err
	}
	if err := a.engineer.UpdateTaskStatus(ctx, pos[0], pos[1], id.Email); err != nil {
		return err
	}
	return printTasks(a.out, a.engineer.Snapshot().Tasks)
}

func runTicket(ctx context.Context, a *app, args []string) error {
	fs := a.flags("ticket")
	var in models.TicketInput
	fs.StringVar(&in.ServiceType, "service", "", "service type, e.g. Electrical")
	fs.StringVar(&in.Priority, "priority", models.PriorityMedium, "low, medium or high")
	fs.StringVar(&in.Description, "description", "", "what is wrong")
	fs.StringVar(&in.Address, "address", "", "service address")
	fs.StringVar(&in.Pincode, "pincode", "", "service pincode")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	id, err := a.requireRole(models.RoleUser)
	if err != nil {
		return err
	}
	in.UserEmail = id.Email

	t, err := a.user.CreateTicket(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created ticket %s (%s)\n", t.ID, t.Status)
	if t.AssignedTo() != "" {
		fmt.Fprintf(a.out, "Assigned to %s\n", t.AssignedTo())
	}
	return nil
}

func hazardFlags(fs *pflag.FlagSet) *models.HazardInput {
	in := &models.HazardInput{}
	fs.StringVar(&in.HazardType, "type", "", "hazard type, e.g. Gas Leak")
	fs.StringVar(&in.Description, "description", "", "description")
	fs.StringVar(&in.RiskLevel, "risk", "", "risk level: low, medium or high")
	fs.StringVar(&in.Address, "address", "", "address")
	fs.StringVar(&in.Pincode, "pincode", "", "pincode")
	return in
}

func runReportHazard(ctx context.Context, a *app, args []string) error {
	fs := a.flags("report-hazard")
	in := hazardFlags(fs)
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	if _, err := a.requireRole(models.RoleEngineer); err != nil {
		return err
	}
	h, err := a.engineer.CreateHazard(ctx, *in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Reported hazard %s\n", h.ID)
	return nil
}

// hazardOps picks the hazard operations of the caller's slice.
type hazardOps struct {
	fetch  func(context.Context) ([]models.Hazard, error)
	update func(context.Context, string, models.HazardInput) (models.Hazard, error)
	remove func(context.Context, string) error
}

func (a *app) hazardOps() (hazardOps, error) {
	id, err := a.requireRole(models.RoleAdmin, models.RoleEngineer)
	if err != nil {
		return hazardOps{}, err
	}
	if id.Role == models.RoleAdmin {
		return hazardOps{a.admin.FetchHazards, a.admin.UpdateHazard, a.admin.DeleteHazard}, nil
	}
	return hazardOps{a.engineer.FetchHazards, a.engineer.UpdateHazard, a.engineer.DeleteHazard}, nil
}

func runUpdateHazard(ctx context.Context, a *app, args []string) error {
	fs := a.flags("update-hazard")
	upd := hazardFlags(fs)
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	pos, err := positional(fs, "hazard-id")
	if err != nil {
		return err
	}
	ops, err := a.hazardOps()
	if err != nil {
		return err
	}

	hazards, err := ops.fetch(ctx)
	if err != nil {
		return err
	}
	var cur *models.Hazard
	for i := range hazards {
		if hazards[i].ID == pos[0] {
			cur = &hazards[i]
			break
		}
	}
	if cur == nil {
		return fmt.Errorf("hazard %s not found", pos[0])
	}

	in := models.HazardInput{
		HazardType:  cur.HazardType,
		Description: cur.Description,
		RiskLevel:   cur.RiskLevel,
		Address:     cur.Address,
		Pincode:     cur.Pincode,
	}
	if fs.Changed("type") {
		in.HazardType = upd.HazardType
	}
	if fs.Changed("description") {
		in.Description = upd.Description
	}
	if fs.Changed("risk") {
		in.RiskLevel = upd.RiskLevel
	}
	if fs.Changed("address") {
		in.Address = upd.Address
	}
	if fs.Changed("pincode") {
		in.Pincode = upd.Pincode
	}

	h, err := ops.update(ctx, pos[0], in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated hazard %s\n", h.ID)
	return nil
}

func runDeleteHazard(ctx context.Context, a *app, args []string) error {
	fs := a.flags("delete-hazard")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	pos, err := positional(fs, "hazard-id")
	if err != nil {
		return err
	}
	ops, err := a.hazardOps()
	if err != nil {
		return err
	}
	if err := ops.remove(ctx, pos[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted hazard %s\n", pos[0])
	return nil
}

func runNotifications(ctx context.Context, a *app, args []string) error {
	fs := a.flags("notifications")
	unreadOnly := fs.Bool("unread", false, "only unread notifications")
	markRead := fs.StringSlice("read", nil, "mark these notification ids read")
	markAll := fs.Bool("read-all", false, "mark every unread notification read")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	id, err := a.identity()
	if err != nil {
		return err
	}

	ns, err := a.notes.Fetch(ctx, id.Email)
	if err != nil {
		return err
	}
	ids := *markRead
	if *markAll {
		for _, n := range ns {
			if !n.IsRead {
				ids = append(ids, n.ID)
			}
		}
	}
	var errs []error
	for _, nid := range ids {
		if err := a.notes.MarkRead(ctx, nid); err != nil {
			errs = append(errs, fmt.Errorf("mark %s read: %w", nid, err))
		}
	}

	st := a.notes.Snapshot()
	list := st.Notifications
	if *unreadOnly {
		list = list[:0:0]
		for _, n := range st.Notifications {
			if !n.IsRead {
				list = append(list, n)
			}
		}
	}
	if err := printNotifications(a.out, list, st.Unread); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *app) sources() dashboard.Sources {
	return dashboard.Sources{Admin: a.admin, Engineer: a.engineer, User: a.user, Notifications: a.notes}
}

func runDashboard(ctx context.Context, a *app, args []string) error {
	fs := a.flags("dashboard")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}
	id, err := a.identity()
	if err != nil {
		return err
	}
	return renderDashboard(ctx, a.out, id, a.sources())
}

func renderDashboard(ctx context.Context, w io.Writer, id session.Identity, src dashboard.Sources) error {
	data, err := dashboard.Collect(ctx, id.Role, id.Email, src)
	if err != nil {
		return err
	}
	cards, err := dashboard.Cards(id.Role, data)
	if err != nil {
		return err
	}
	return dashboard.Render(w, cards, dashboard.Charts(id.Role, data))
}
