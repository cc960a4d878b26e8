package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/tfournier/catalyst/internal/models"
)

const sessionIDBytes = 32 // 256 bits of entropy

// Session is a server-side session record. The ID is the only thing the
// browser ever holds; everything else stays in the store.
type Session struct {
	ID                string
	Role              models.Role
	UserID            int64
	CreatedAt         time.Time
	LastActivityAt    time.Time
	LastRegeneratedAt time.Time
	CSRFToken         string
}

// SessionConfig bounds session lifetime and rotation cadence.
type SessionConfig struct {
	IdleTimeout      time.Duration // destroy after this much inactivity
	AbsoluteLifetime time.Duration // destroy this long after creation, active or not
	RotationInterval time.Duration // rotate the session id (and CSRF token) this often
}

// DefaultSessionConfig returns the documented lifetime policy.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		IdleTimeout:      30 * time.Minute,
		AbsoluteLifetime: 1 * time.Hour,
		RotationInterval: 5 * time.Minute,
	}
}

// SessionStore keeps session records in process memory. All mutation
// happens under one mutex, so rotation atomically removes the old id
// before the new one becomes visible and concurrent requests on the same
// session never observe a half-applied update.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	config   SessionConfig
	now      func() time.Time
}

// NewSessionStore creates an empty session store.
func NewSessionStore(config SessionConfig) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		config:   config,
		now:      time.Now,
	}
}

// newSecret returns a hex-encoded high-entropy random value, used for
// both session ids and CSRF tokens.
func newSecret() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Create starts a fresh session for an authenticated identity and returns
// it. The caller is responsible for destroying any session the browser
// presented before logging in again; a new login overwrites, never layers.
func (s *SessionStore) Create(role models.Role, userID int64) (*Session, error) {
	id, err := newSecret()
	if err != nil {
		return nil, err
	}
	csrfToken, err := newSecret()
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &Session{
		ID:                id,
		Role:              role,
		UserID:            userID,
		CreatedAt:         now,
		LastActivityAt:    now,
		LastRegeneratedAt: now,
		CSRFToken:         csrfToken,
	}

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	snapshot := *session
	return &snapshot, nil
}

// Validate returns the live session for an id, or ErrSessionExpired. A
// session past its idle timeout or absolute lifetime is destroyed as a
// side effect of the failed validation (fail closed).
func (s *SessionStore) Validate(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.liveLocked(sessionID)
	if err != nil {
		return nil, err
	}

	snapshot := *session
	return &snapshot, nil
}

// Touch marks activity on a session and rotates its id once the rotation
// interval has elapsed. It returns the session as the caller should now
// see it; after a rotation the returned ID differs from the input and the
// old id is already gone from the store.
func (s *SessionStore) Touch(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.liveLocked(sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session.LastActivityAt = now

	if now.Sub(session.LastRegeneratedAt) > s.config.RotationInterval {
		newID, err := newSecret()
		if err != nil {
			return nil, err
		}
		newCSRF, err := newSecret()
		if err != nil {
			return nil, err
		}

		delete(s.sessions, session.ID)
		session.ID = newID
		session.CSRFToken = newCSRF
		session.LastRegeneratedAt = now
		s.sessions[newID] = session
	}

	snapshot := *session
	return &snapshot, nil
}

// Destroy removes a session. Destroying an unknown id is a no-op, so
// logout stays idempotent.
func (s *SessionStore) Destroy(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// Sweep removes every expired session and returns how many were dropped.
// Validation already destroys expired sessions on access; the sweep bounds
// memory for sessions that are simply abandoned.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if s.expiredLocked(session) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Config returns the lifetime policy the store was built with.
func (s *SessionStore) Config() SessionConfig {
	return s.config
}

// Len reports the number of live and not-yet-swept sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// liveLocked resolves an id to a non-expired session, destroying it if
// expired. Callers must hold s.mu.
func (s *SessionStore) liveLocked(sessionID string) (*Session, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, models.ErrSessionExpired
	}

	if s.expiredLocked(session) {
		delete(s.sessions, sessionID)
		return nil, models.ErrSessionExpired
	}

	return session, nil
}

func (s *SessionStore) expiredLocked(session *Session) bool {
	now := s.now()
	if now.Sub(session.CreatedAt) > s.config.AbsoluteLifetime {
		return true
	}
	if now.Sub(session.LastActivityAt) > s.config.IdleTimeout {
		return true
	}
	return false
}
