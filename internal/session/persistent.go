package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Backend is the durable side of a Persistent store. Commit must apply set and
// del atomically.
type Backend interface {
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)
	Commit(ctx context.Context, set map[string]string, del []string) error
}

// Persistent keeps the current session as an immutable snapshot and mirrors
// every change to a Backend. The snapshot is swapped only after the durable
// commit succeeds, so memory never runs ahead of storage.
type Persistent struct {
	backend Backend
	current atomic.Pointer[Session]
	writeMu sync.Mutex
}

// Open loads the stored session, if any.
func Open(ctx context.Context, backend Backend) (*Persistent, error) {
	values, err := backend.GetMany(ctx, allKeys...)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	p := &Persistent{backend: backend}
	if s, ok := decode(values); ok {
		p.current.Store(&s)
	}
	return p, nil
}

func (p *Persistent) Save(ctx context.Context, s Session) error {
	if err := s.validate(); err != nil {
		return err
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if err := p.backend.Commit(ctx, encode(s), nil); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	p.current.Store(&s)
	return nil
}

func (p *Persistent) Clear(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if err := p.backend.Commit(ctx, map[string]string{KeyLoggedIn: "false"}, allKeys[:4]); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	p.current.Store(nil)
	return nil
}

func (p *Persistent) Current() (Session, bool) {
	s := p.current.Load()
	if s == nil {
		return Session{}, false
	}
	return *s, true
}

func (p *Persistent) IsLoggedIn() bool {
	return p.current.Load() != nil
}

func (p *Persistent) UserID() int64 {
	s, _ := p.Current()
	return s.UserID
}

func (p *Persistent) AccessToken() string {
	s, _ := p.Current()
	return s.AccessToken
}

func (p *Persistent) RefreshToken() string {
	s, _ := p.Current()
	return s.RefreshToken
}

func (p *Persistent) Email() string {
	s, _ := p.Current()
	return s.Email
}
