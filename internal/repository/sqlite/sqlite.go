package sqlite

import (
	"log/slog"
	"os"
	"time"

	"github.com/garnizeh/fieldops/internal/db"
	"github.com/garnizeh/fieldops/pkg/repository"
	"github.com/garnizeh/fieldops/pkg/session"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
	now    func() time.Time
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.SessionRepo = (*SQLiteRepo)(nil)
var _ session.Store = (*SessionStore)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return &SQLiteRepo{conn: conn, logger: logger, now: time.Now}
}
