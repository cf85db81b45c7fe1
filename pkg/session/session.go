package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/garnizeh/fieldops/pkg/models"
	"github.com/golang-jwt/jwt/v5"
)

// Keys persisted for an authenticated session.
const (
	KeyToken = "token"
	KeyEmail = "email"
	KeyRole  = "role"
)

// Store is a session scoped key/value store. Get reports ok=false when
// the key has no value; that is not an error.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Clear() error
}

// Identity is the caller identity attached to every backend request.
// Zero fields mean the value is not stored.
type Identity struct {
	Token string
	Email string
	Role  models.Role
}

// Session is the explicit session context handed to HTTP adapters and
// slices instead of reading ambient storage.
type Session struct {
	store Store
}

func New(store Store) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Session{store: store}
}

// Identity reads token, email and role. A failing store returns the error
// with whatever was read before the failure.
func (s *Session) Identity() (Identity, error) {
	var id Identity

	token, ok, err := s.store.Get(KeyToken)
	if err != nil {
		return id, fmt.Errorf("read %s: %w", KeyToken, err)
	}
	if ok {
		id.Token = token
	}

	email, ok, err := s.store.Get(KeyEmail)
	if err != nil {
		return id, fmt.Errorf("read %s: %w", KeyEmail, err)
	}
	if ok {
		id.Email = email
	}

	role, ok, err := s.store.Get(KeyRole)
	if err != nil {
		return id, fmt.Errorf("read %s: %w", KeyRole, err)
	}
	if ok {
		// an unparseable stored role is treated as absent
		if r, perr := models.ParseRole(role); perr == nil {
			id.Role = r
		}
	}

	return id, nil
}

// Login stores the identity returned by the backend.
func (s *Session) Login(token, email string, role models.Role) error {
	if token == "" || email == "" {
		return errors.New("token and email are required")
	}
	if err := s.store.Set(KeyToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := s.store.Set(KeyEmail, email); err != nil {
		return fmt.Errorf("store email: %w", err)
	}
	if role != models.RoleUnknown {
		if err := s.store.Set(KeyRole, role.String()); err != nil {
			return fmt.Errorf("store role: %w", err)
		}
	}
	return nil
}

// Clear removes every identity value.
func (s *Session) Clear() error {
	return s.store.Clear()
}

// MemoryStore is an in-process Store, the default for tests and one-shot
// commands.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	return nil
}

// Claims is the subset of backend token claims the client cares about.
type Claims struct {
	Email     string
	Role      models.Role
	ExpiresAt time.Time
}

// Expired reports whether the token expiry is before now. Tokens without
// an exp claim never expire client-side.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ClaimsFromToken decodes a backend issued JWT without verifying its
// signature; the client has no key and only uses it to pre-check expiry.
func ClaimsFromToken(token string) (Claims, error) {
	var out Claims
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return out, fmt.Errorf("decode token: %w", err)
	}

	if v, ok := claims["email"].(string); ok {
		out.Email = v
	}
	if v, ok := claims["role"].(string); ok {
		if r, err := models.ParseRole(v); err == nil {
			out.Role = r
		}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return out, fmt.Errorf("decode exp: %w", err)
	}
	if exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
