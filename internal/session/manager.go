// Package session keeps the live search controllers of the search service, keyed by id.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/abgdnv/catalogsearch/internal/controller"
	serrors "github.com/abgdnv/catalogsearch/internal/errors"
	"github.com/google/uuid"
)

// Factory builds a new, not yet started controller.
type Factory func() *controller.Controller

type entry struct {
	ctrl     *controller.Controller
	lastSeen time.Time
}

// Manager is a registry of search controllers. It is safe for concurrent use.
type Manager struct {
	factory     Factory
	idleTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
	closed   bool
}

// NewManager creates a Manager. An idleTimeout of zero disables expiry.
func NewManager(factory Factory, idleTimeout time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		factory:     factory,
		idleTimeout: idleTimeout,
		now:         time.Now,
		logger:      logger.With("component", "session"),
		sessions:    make(map[uuid.UUID]*entry),
	}
}

// Create starts a new controller and registers it under a fresh id.
func (m *Manager) Create() (uuid.UUID, *controller.Controller, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return uuid.UUID{}, nil, serrors.ErrSessionClosed
	}
	id := uuid.New()
	ctrl := m.factory()
	m.sessions[id] = &entry{ctrl: ctrl, lastSeen: m.now()}
	m.mu.Unlock()

	ctrl.Start()
	m.logger.Debug("session created", "id", id)
	return id, ctrl, nil
}

// Get returns the controller registered under id and marks the session as used.
func (m *Manager) Get(id uuid.UUID) (*controller.Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, serrors.ErrSessionNotFound
	}
	e.lastSeen = m.now()
	return e.ctrl, nil
}

// Delete closes and removes the session.
func (m *Manager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return serrors.ErrSessionNotFound
	}
	e.ctrl.Close()
	m.logger.Debug("session deleted", "id", id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes the sessions that have not been used for longer than the idle timeout
// and returns how many were closed.
func (m *Manager) Sweep(now time.Time) int {
	if m.idleTimeout <= 0 {
		return 0
	}
	var expired []*controller.Controller
	m.mu.Lock()
	for id, e := range m.sessions {
		if now.Sub(e.lastSeen) > m.idleTimeout {
			expired = append(expired, e.ctrl)
			delete(m.sessions, id)
			m.logger.Debug("session expired", "id", id, "idle", now.Sub(e.lastSeen))
		}
	}
	m.mu.Unlock()

	for _, ctrl := range expired {
		ctrl.Close()
	}
	return len(expired)
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if m.idleTimeout <= 0 || interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			if n := m.Sweep(t); n > 0 {
				m.logger.Info("idle sessions closed", "count", n, "remaining", m.Len())
			}
		}
	}
}

// Close closes every session. Create fails afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*entry)
	m.mu.Unlock()

	for _, e := range sessions {
		e.ctrl.Close()
	}
	m.logger.Info("all sessions closed", "count", len(sessions))
}
