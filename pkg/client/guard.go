package client

import (
	"log/slog"
	"sync/atomic"

	"github.com/garnizeh/fieldops/pkg/session"
)

// Navigator moves the caller to a route, e.g. the login screen.
type Navigator func(route string)

// Guard turns the first 401 seen by any adapter sharing it into a forced
// logout. The flag is never reset: later 401s neither clear the session
// nor navigate again.
type Guard struct {
	fired     atomic.Bool
	session   *session.Session
	navigate  Navigator
	loginPath string
}

func NewGuard(s *session.Session, nav Navigator, loginPath string) *Guard {
	if loginPath == "" {
		loginPath = DefaultConfig().LoginPath
	}
	return &Guard{session: s, navigate: nav, loginPath: loginPath}
}

// Fired reports whether the guard already redirected.
func (g *Guard) Fired() bool {
	return g.fired.Load()
}

// Unauthorized clears the session and navigates to the login route once.
// It reports whether this call performed the redirect.
func (g *Guard) Unauthorized() bool {
	if !g.fired.CompareAndSwap(false, true) {
		return false
	}

	if g.session != nil {
		if err := g.session.Clear(); err != nil {
			logger.Error("client: clear session after 401", slog.Any("err", err))
		}
	}
	logger.Warn("client: unauthorized, redirecting", slog.String("route", g.loginPath))
	if g.navigate != nil {
		g.navigate(g.loginPath)
	}
	return true
}
