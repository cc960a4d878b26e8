package middleware_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfournier/catalyst/internal/auth"
	"github.com/tfournier/catalyst/internal/middleware"
	"github.com/tfournier/catalyst/internal/models"
	pkghttp "github.com/tfournier/catalyst/pkg/http"
	pkglogger "github.com/tfournier/catalyst/pkg/logger"
)

func newCSRFHandler(t *testing.T) (*auth.SessionStore, http.Handler) {
	t.Helper()

	store := auth.NewSessionStore(auth.DefaultSessionConfig())
	csrf := auth.NewCSRFManager(store)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	audit := pkglogger.NewAuditLogger(logger)

	protect := middleware.CSRFProtection(csrf, &pkghttp.IPConfig{}, audit)
	sessionMw := auth.RequireSession(store, auth.CookieConfig{}, auth.DefaultSessionConfig().AbsoluteLifetime)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// CSRF verification sits in front of the session touch, so the
	// request that triggers a rotation still passes with its old token.
	return store, protect(sessionMw(ok))
}

func csrfRequest(t *testing.T, method, sessionID, token string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, "/projects/1/comments", nil)
	req = req.WithContext(context.Background())
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: sessionID})
	if token != "" {
		req.Header.Set(middleware.CSRFHeader, token)
	}
	return req
}

func TestCSRFAllowsMatchingToken(t *testing.T) {
	store, handler := newCSRFHandler(t)

	session, err := store.Create(models.RoleMentor, 1)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, csrfRequest(t, http.MethodPost, session.ID, session.CSRFToken))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFRejectsMissingToken(t *testing.T) {
	store, handler := newCSRFHandler(t)

	session, err := store.Create(models.RoleMentor, 1)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, csrfRequest(t, http.MethodPost, session.ID, ""))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFRejectsForeignToken(t *testing.T) {
	store, handler := newCSRFHandler(t)

	session, err := store.Create(models.RoleMentor, 1)
	require.NoError(t, err)
	other, err := store.Create(models.RoleMentor, 2)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, csrfRequest(t, http.MethodPost, session.ID, other.CSRFToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFExemptsReads(t *testing.T) {
	store, handler := newCSRFHandler(t)

	session, err := store.Create(models.RoleMentor, 1)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, csrfRequest(t, http.MethodGet, session.ID, ""))
	assert.Equal(t, http.StatusOK, rec.Code)
}
