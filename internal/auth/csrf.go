package auth

import (
	"crypto/subtle"

	"github.com/tfournier/catalyst/internal/models"
)

// CSRFManager issues and checks the per-session anti-forgery token. The
// token lives inside the session record, is minted on login and re-minted
// whenever the session id rotates, so tokens from two sessions are never
// comparable.
type CSRFManager struct {
	store *SessionStore
}

// NewCSRFManager creates a CSRF manager over a session store.
func NewCSRFManager(store *SessionStore) *CSRFManager {
	return &CSRFManager{store: store}
}

// Issue returns the current token for a live session.
func (m *CSRFManager) Issue(sessionID string) (string, error) {
	session, err := m.store.Validate(sessionID)
	if err != nil {
		return "", err
	}
	return session.CSRFToken, nil
}

// Verify checks a supplied token against the session's stored token in
// constant time. A missing or expired session fails the same way a wrong
// token does.
func (m *CSRFManager) Verify(sessionID, suppliedToken string) error {
	session, err := m.store.Validate(sessionID)
	if err != nil {
		return models.ErrCSRFMismatch
	}

	if suppliedToken == "" {
		return models.ErrCSRFMismatch
	}

	if subtle.ConstantTimeCompare([]byte(session.CSRFToken), []byte(suppliedToken)) != 1 {
		return models.ErrCSRFMismatch
	}

	return nil
}
