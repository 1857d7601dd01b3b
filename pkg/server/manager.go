package server

import (
	"errors"
	"sync"
)

var (
	// ErrTooManySessions is returned by Add when the session cap is reached.
	ErrTooManySessions = errors.New("server: too many sessions")

	// ErrSessionClosed is returned when writing to a closed session.
	ErrSessionClosed = errors.New("server: session closed")

	// ErrNoConnection is returned when a session has no socket.
	ErrNoConnection = errors.New("server: no connection")
)

// Manager tracks live sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	max      int
}

// NewManager creates a manager capped at max sessions (0 = unlimited).
func NewManager(max int) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		max:      max,
	}
}

// Add registers s.
func (m *Manager) Add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.max > 0 && len(m.sessions) >= m.max {
		return ErrTooManySessions
	}
	m.sessions[s.ID] = s
	return nil
}

// Remove unregisters the session with the given ID.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.Unlock()

	// Close calls Remove, so the lock is not held here.
	for _, s := range all {
		s.Close()
	}
}
