package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one authenticated dashboard session.
type Session struct {
	ID        string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	ClientIP  string    `json:"client_ip"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager is an in-memory session store. There is no persistence layer behind
// it; sessions live and die with the process.
type Manager struct {
	sessions map[string]*Session
	mu       sync.Mutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) CreateSession(userID, name, clientIP string, duration time.Duration) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		ClientIP:  clientIP,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(duration),
	}
	m.sessions[s.ID] = s
	return s
}

func (m *Manager) GetSession(sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.sessions[sessionID]
	if !exists || time.Now().After(s.ExpiresAt) {
		return nil, false
	}
	return s, true
}

func (m *Manager) DeleteSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
}

// FindByUser returns the live session for a user, if any. One session per
// user: a new login replaces the old one.
func (m *Manager) FindByUser(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sessions {
		if s.UserID == userID && time.Now().Before(s.ExpiresAt) {
			return s, true
		}
	}
	return nil, false
}

// ActiveSessions returns all unexpired sessions.
func (m *Manager) ActiveSessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if time.Now().Before(s.ExpiresAt) {
			out = append(out, s)
		}
	}
	return out
}

func (m *Manager) CleanupExpiredSessions() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if time.Now().After(s.ExpiresAt) {
			delete(m.sessions, id)
		}
	}
}
