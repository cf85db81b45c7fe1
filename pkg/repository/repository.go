package repository

import (
	"context"
)

// Repository interfaces for persisted client state. These are the public
// contracts consumers should depend on; concrete implementations live
// under internal/.

// SessionRepo persists session key/values grouped by a session name so a
// single database can hold several profiles (e.g. one per backend).
type SessionRepo interface {
	GetValue(ctx context.Context, session, key string) (string, bool, error)
	SetValue(ctx context.Context, session, key, value string) error
	DeleteSession(ctx context.Context, session string) error
	ListSessions(ctx context.Context) ([]string, error)
}
