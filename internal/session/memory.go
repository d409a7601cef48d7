package session

import (
	"context"
	"sync/atomic"
)

// Memory is a Store without durability, for tests and throwaway clients.
type Memory struct {
	current atomic.Pointer[Session]
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(_ context.Context, s Session) error {
	if err := s.validate(); err != nil {
		return err
	}
	m.current.Store(&s)
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.current.Store(nil)
	return nil
}

func (m *Memory) Current() (Session, bool) {
	s := m.current.Load()
	if s == nil {
		return Session{}, false
	}
	return *s, true
}

func (m *Memory) IsLoggedIn() bool    { return m.current.Load() != nil }
func (m *Memory) UserID() int64       { s, _ := m.Current(); return s.UserID }
func (m *Memory) AccessToken() string { s, _ := m.Current(); return s.AccessToken }
func (m *Memory) RefreshToken() string {
	s, _ := m.Current()
	return s.RefreshToken
}
func (m *Memory) Email() string { s, _ := m.Current(); return s.Email }
