package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (r *SQLiteRepo) GetValue(ctx context.Context, session, key string) (string, bool, error) {
	var v string
	err := r.conn.QueryRow(ctx, `SELECT value FROM session_values WHERE session = ? AND key = ?`, session, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get session value %s/%s: %w", session, key, err)
	}
	return v, true, nil
}

func (r *SQLiteRepo) SetValue(ctx context.Context, session, key, value string) error {
	_, err := r.conn.Exec(ctx, `INSERT INTO session_values (session, key, value, updated) VALUES (?, ?, ?, ?)
		ON CONFLICT(session, key) DO UPDATE SET value = excluded.value, updated = excluded.updated`,
		session, key, value, r.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("set session value %s/%s: %w", session, key, err)
	}
	return nil
}

func (r *SQLiteRepo) DeleteSession(ctx context.Context, session string) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM session_values WHERE session = ?`, session); err != nil {
		return fmt.Errorf("delete session %s: %w", session, err)
	}
	r.logger.Debug("session deleted", "session", session)
	return nil
}

func (r *SQLiteRepo) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := r.conn.Query(ctx, `SELECT DISTINCT session FROM session_values ORDER BY session`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SessionStore exposes one named session of a SQLiteRepo as a
// session.Store. Each call is bounded by timeout.
type SessionStore struct {
	repo    *SQLiteRepo
	name    string
	timeout time.Duration
}

func (r *SQLiteRepo) Session(name string, timeout time.Duration) *SessionStore {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SessionStore{repo: r, name: name, timeout: timeout}
}

func (s *SessionStore) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.repo.GetValue(ctx, s.name, key)
}

func (s *SessionStore) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.repo.SetValue(ctx, s.name, key, value)
}

func (s *SessionStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.repo.DeleteSession(ctx, s.name)
}
