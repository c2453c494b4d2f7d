package auth

import (
	"errors"
	"fmt"
	"time"

	"EcomInsights/internal/dashboard"
	"EcomInsights/internal/logger"
	"EcomInsights/internal/session"
)

// AuthService is a config-seeded, in-memory auth layer: users come from
// services.yaml, sessions live in the session manager. One active session per
// user; a login from a new client force-logs-out the old one over SSE.
type AuthService struct {
	users          map[string]User
	sessions       *session.Manager
	sessionTimeout time.Duration
	cleanerPeriod  time.Duration
	stopCh         chan struct{}
}

type User struct {
	UserID   string
	Username string
	Password string
	Name     string
}

var ErrInvalidCredentials = errors.New("invalid username or password")

func NewAuthService(cfg map[string]interface{}) *AuthService {
	svc := &AuthService{
		users:          make(map[string]User),
		sessions:       session.NewManager(),
		sessionTimeout: 30 * time.Minute,
		cleanerPeriod:  60 * time.Second,
		stopCh:         make(chan struct{}),
	}

	toInt := func(v interface{}) int {
		switch t := v.(type) {
		case int:
			return t
		case int64:
			return int(t)
		case float64:
			return int(t)
		case string:
			var parsed int
			if _, err := fmt.Sscanf(t, "%d", &parsed); err == nil {
				return parsed
			}
		}
		return 0
	}

	if cfg != nil {
		if v, ok := cfg["session_timeout_minutes"]; ok && v != nil {
			if m := toInt(v); m > 0 {
				svc.sessionTimeout = time.Duration(m) * time.Minute
			}
		}
		if v, ok := cfg["session_cleaner_period_seconds"]; ok && v != nil {
			if s := toInt(v); s > 0 {
				svc.cleanerPeriod = time.Duration(s) * time.Second
			}
		}
		if raw, ok := cfg["users"].([]interface{}); ok {
			for _, entry := range raw {
				m, ok := entry.(map[string]interface{})
				if !ok {
					continue
				}
				u := User{}
				if v, ok := m["user_id"].(string); ok {
					u.UserID = v
				}
				if v, ok := m["username"].(string); ok {
					u.Username = v
				}
				if v, ok := m["password"].(string); ok {
					u.Password = v
				}
				if v, ok := m["name"].(string); ok {
					u.Name = v
				}
				if u.Username != "" && u.UserID != "" {
					svc.users[u.Username] = u
				}
			}
		}
	}

	return svc
}

func (s *AuthService) Name() string {
	return "auth"
}

func (s *AuthService) Start() error {
	go s.sessionCleaner()
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Auth service started with %d seeded users", len(s.users)))
	}
	return nil
}

func (s *AuthService) Stop() error {
	close(s.stopCh)
	return nil
}

func (s *AuthService) sessionCleaner() {
	ticker := time.NewTicker(s.cleanerPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sessions.CleanupExpiredSessions()
		}
	}
}

// Login validates credentials and creates a session, replacing any existing
// session for the same user.
func (s *AuthService) Login(username, password, clientIP string) (*session.Session, error) {
	user, ok := s.users[username]
	if !ok || user.Password != password {
		return nil, ErrInvalidCredentials
	}

	if existing, ok := s.sessions.FindByUser(user.UserID); ok {
		dashboard.SendForceLogout(user.UserID, "Logged in from another client", clientIP)
		s.sessions.DeleteSession(existing.ID)
	}

	sess := s.sessions.CreateSession(user.UserID, user.Name, clientIP, s.sessionTimeout)
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("User %s logged in from %s", user.UserID, clientIP))
	}
	return sess, nil
}

func (s *AuthService) Logout(sessionID string) error {
	sess, ok := s.sessions.GetSession(sessionID)
	if !ok {
		return errors.New("session not found")
	}
	s.sessions.DeleteSession(sessionID)
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("User %s logged out", sess.UserID))
	}
	return nil
}

func (s *AuthService) GetActiveSessions() []*session.Session {
	return s.sessions.ActiveSessions()
}

// Global reference so handlers can validate sessions without threading the
// service through every constructor.
var globalAuthService *AuthService

func SetGlobalAuthService(s *AuthService) {
	globalAuthService = s
}

// GetActiveSessions returns the active sessions of the global auth service,
// or nil before wiring.
func GetActiveSessions() []*session.Session {
	if globalAuthService == nil {
		return nil
	}
	return globalAuthService.GetActiveSessions()
}
