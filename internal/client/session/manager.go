package session

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/client/services"
	"github.com/dmitrijs2005/turismap/internal/logging"
)

// Manager opens and closes sessions as the auth state changes.
type Manager struct {
	auth services.Authenticator
	deps Deps
	log  logging.Logger

	// OnOpen, if set, runs after a session has been opened and refreshed.
	OnOpen func(*Session)

	mu          sync.Mutex
	ctx         context.Context
	cur         *Session
	unsubscribe func()
}

func NewManager(auth services.Authenticator, deps Deps) *Manager {
	log := deps.Log
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{auth: auth, deps: deps, log: log}
}

// Start follows auth changes until Stop. ctx bounds the remote calls made
// while opening and closing sessions.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()

	unsubscribe := m.auth.OnSessionChange(m.onChange)

	m.mu.Lock()
	m.unsubscribe = unsubscribe
	m.mu.Unlock()
}

func (m *Manager) onChange(p *models.Profile) {
	m.mu.Lock()
	ctx := m.ctx
	old := m.cur
	if old != nil && p != nil && old.Profile.ID == p.ID {
		m.mu.Unlock()
		return
	}
	m.cur = nil
	m.mu.Unlock()

	if old != nil {
		if err := old.Close(ctx); err != nil {
			m.log.Warn(ctx, "session closed with errors", "user", old.Profile.ID, "error", err)
		}
	}
	if p == nil {
		return
	}

	s, err := Open(ctx, m.deps, *p)
	if err != nil {
		m.log.Error(ctx, "session not opened", "user", p.ID, "error", err)
		return
	}
	if err := s.Refresh(ctx); err != nil {
		m.log.Warn(ctx, "working from local data", "user", p.ID, "error", err)
	}

	m.mu.Lock()
	m.cur = s
	m.mu.Unlock()

	if m.OnOpen != nil {
		m.OnOpen(s)
	}
}

// Current returns the open session, or nil when nobody is signed in.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur
}

// Stop detaches from auth and closes the open session.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	cur := m.cur
	m.cur = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cur != nil {
		return cur.Close(ctx)
	}
	return nil
}
