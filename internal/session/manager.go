package session

import (
	"sync"

	"github.com/google/uuid"
)

// Manager tracks the live session of every in-progress attempt on this
// server. Sessions register on start/resume and remove themselves on
// Close (submit, expiry, teardown).
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[uuid.UUID]*Session)}
}

// Get returns the live session for an attempt, if any.
func (m *Manager) Get(attemptID uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[attemptID]
	return s, ok
}

// Put registers a session. An existing session for the same attempt is
// closed first, so one attempt never has two live engines.
func (m *Manager) Put(s *Session) {
	m.mu.Lock()
	old, ok := m.sessions[s.AttemptID()]
	m.sessions[s.AttemptID()] = s
	m.mu.Unlock()

	if ok && old != s {
		old.countdown.Stop()
		old.debouncer.Cancel()
	}
}

// Remove drops a session from the registry. Called via Session.OnClose.
func (m *Manager) Remove(attemptID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, attemptID)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll tears down every live session (server shutdown).
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.countdown.Stop()
		s.debouncer.Cancel()
	}
}
