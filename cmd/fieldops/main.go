package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	dbfs "github.com/garnizeh/fieldops/db"
	"github.com/garnizeh/fieldops/internal/clock"
	"github.com/garnizeh/fieldops/internal/config"
	"github.com/garnizeh/fieldops/internal/db"
	"github.com/garnizeh/fieldops/internal/jobs"
	"github.com/garnizeh/fieldops/internal/repository/sqlite"
	"github.com/garnizeh/fieldops/internal/store"
	"github.com/garnizeh/fieldops/pkg/client"
	"github.com/garnizeh/fieldops/pkg/models"
	"github.com/garnizeh/fieldops/pkg/session"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// errNotLoggedIn is returned by commands that need a stored identity.
var errNotLoggedIn = errors.New("not logged in, run fieldops login")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flagSet := pflag.NewFlagSet("fieldops", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	configPath := flagSet.String("config", "", "path to config YAML file")
	sessionName := flagSet.String("session", "", "named session to use (overrides session_name)")
	showVersion := flagSet.Bool("version", false, "print version and exit")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Fprintf(stdout, "fieldops %s (built %s)\n", version, buildTime)
		return nil
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(stderr, flagSet)
		return errors.New("missing command")
	}
	if rest[0] == "help" {
		printUsage(stdout, flagSet)
		return nil
	}
	cmd, ok := lookup(rest[0])
	if !ok {
		return fmt.Errorf("unknown command %q", rest[0])
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *sessionName != "" {
		cfg.SessionName = *sessionName
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	a, err := newApp(ctx, cfg, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	return cmd.run(ctx, a, rest[1:])
}

// app is everything a command needs: the persisted session, the backend
// adapters and one state slice per role.
type app struct {
	cfg    *config.Config
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
	clk    clock.Clock

	conn *db.DB
	sess *session.Session
	api  *client.API

	user     *store.UserSlice
	admin    *store.AdminSlice
	engineer *store.EngineerSlice
	notes    *store.NotificationSlice
}

func newApp(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) (*app, error) {
	logger := cfg.Log.Logger(stderr)
	client.SetLogger(logger)
	store.SetLogger(logger)
	jobs.SetLogger(logger)

	conn, err := db.New(ctx, cfg.SessionDB, logger)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if err := db.Migrate(ctx, conn, dbfs.Migrations); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate session db: %w", err)
	}

	repo := sqlite.New(conn, logger)
	sess := session.New(repo.Session(cfg.SessionName, 0))

	nav := func(route string) {
		fmt.Fprintf(stderr, "session expired, run fieldops login (%s)\n", route)
	}
	api, err := client.New(cfg.Client(), sess, nil, nav)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("build client: %w", err)
	}

	return &app{
		cfg:      cfg,
		out:      stdout,
		errOut:   stderr,
		logger:   logger,
		clk:      clock.Real(),
		conn:     conn,
		sess:     sess,
		api:      api,
		user:     store.NewUserSlice(api, sess),
		admin:    store.NewAdminSlice(api),
		engineer: store.NewEngineerSlice(api),
		notes:    store.NewNotificationSlice(api),
	}, nil
}

func (a *app) Close() error {
	a.api.Close()
	return a.conn.Close()
}

// identity returns the stored identity and warns when the token has
// already expired. A missing token or email is errNotLoggedIn.
func (a *app) identity() (session.Identity, error) {
	id, err := a.sess.Identity()
	if err != nil {
		return id, fmt.Errorf("read session: %w", err)
	}
	if id.Token == "" || id.Email == "" {
		return id, errNotLoggedIn
	}
	if claims, err := session.ClaimsFromToken(id.Token); err == nil && claims.Expired(a.clk.Now()) {
		fmt.Fprintln(a.errOut, "warning: stored token expired at", claims.ExpiresAt.Format(time.RFC3339))
	}
	return id, nil
}

// requireRole is identity restricted to the given roles.
func (a *app) requireRole(roles ...models.Role) (session.Identity, error) {
	id, err := a.identity()
	if err != nil {
		return id, err
	}
	for _, r := range roles {
		if id.Role == r {
			return id, nil
		}
	}
	return id, fmt.Errorf("command not available for role %q", id.Role)
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, "fieldops, command line client for the field operations backend.\n\n")
	fmt.Fprintf(w, "Usage:\n  fieldops [global flags] <command> [flags]\n\nCommands:\n")
	for _, c := range commandTable() {
		fmt.Fprintf(w, "  %-15s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nGlobal flags:\n%s", flagSet.FlagUsages())
}
