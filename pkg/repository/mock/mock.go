package mock

import (
	"sync"
	"sync/atomic"
)

// Store is a session.Store test double with injectable failures and call
// counters.
type Store struct {
	mu     sync.Mutex
	values map[string]string

	GetErr   error
	SetErr   error
	ClearErr error

	Gets   atomic.Int32
	Clears atomic.Int32
}

func NewStore(values map[string]string) *Store {
	s := &Store{values: make(map[string]string, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

func (s *Store) Get(key string) (string, bool, error) {
	s.Gets.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return "", false, s.GetErr
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	s.values[key] = value
	return nil
}

func (s *Store) Clear() error {
	s.Clears.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ClearErr != nil {
		return s.ClearErr
	}
	s.values = make(map[string]string)
	return nil
}

// Len returns the number of stored values.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}
