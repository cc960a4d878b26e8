package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfournier/catalyst/internal/auth"
	"github.com/tfournier/catalyst/internal/handlers"
	"github.com/tfournier/catalyst/internal/middleware"
	"github.com/tfournier/catalyst/internal/models"
	"github.com/tfournier/catalyst/internal/services"
	pkghttp "github.com/tfournier/catalyst/pkg/http"
)

// stubAuthService implements handlers.AuthServiceInterface with
// overridable behavior per test
type stubAuthService struct {
	LoginFunc           func(ctx context.Context, req services.LoginRequest) (*services.LoginResult, error)
	LogoutFunc          func(sessionID string)
	IsAuthenticatedFunc func(sessionID string) bool
	VerifyCSRFFunc      func(sessionID, token string) error
}

func (s *stubAuthService) Login(ctx context.Context, req services.LoginRequest) (*services.LoginResult, error) {
	if s.LoginFunc != nil {
		return s.LoginFunc(ctx, req)
	}
	return nil, models.ErrInvalidCredentials
}

func (s *stubAuthService) Logout(sessionID string) {
	if s.LogoutFunc != nil {
		s.LogoutFunc(sessionID)
	}
}

func (s *stubAuthService) IsAuthenticated(sessionID string) bool {
	if s.IsAuthenticatedFunc != nil {
		return s.IsAuthenticatedFunc(sessionID)
	}
	return false
}

func (s *stubAuthService) VerifyCSRF(sessionID, token string) error {
	if s.VerifyCSRFFunc != nil {
		return s.VerifyCSRFFunc(sessionID, token)
	}
	return models.ErrCSRFMismatch
}

func (s *stubAuthService) RetryHint() string { return "60" }

func doLogout(handler *handlers.AuthHandler, sessionID, csrfToken string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: sessionID})
	}
	if csrfToken != "" {
		req.Header.Set(middleware.CSRFHeader, csrfToken)
	}
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)
	return rec
}

func assertSessionCookieCleared(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == auth.SessionCookieName && cookie.MaxAge < 0 {
			return
		}
	}
	t.Fatal("expected the session cookie to be cleared")
}

func TestLogoutWithoutSessionSucceeds(t *testing.T) {
	service := &stubAuthService{
		LogoutFunc: func(string) { t.Fatal("nothing to log out") },
	}
	handler := handlers.NewAuthHandler(service, nil, &pkghttp.IPConfig{}, auth.CookieConfig{})

	rec := doLogout(handler, "", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assertSessionCookieCleared(t, rec)
}

func TestLogoutWithStaleSessionSucceeds(t *testing.T) {
	// The cookie outlived the session. Logging out of nothing is still a
	// successful logout.
	service := &stubAuthService{
		VerifyCSRFFunc:      func(string, string) error { return models.ErrCSRFMismatch },
		IsAuthenticatedFunc: func(string) bool { return false },
		LogoutFunc:          func(string) { t.Fatal("nothing to log out") },
	}
	handler := handlers.NewAuthHandler(service, nil, &pkghttp.IPConfig{}, auth.CookieConfig{})

	rec := doLogout(handler, "expired-session", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assertSessionCookieCleared(t, rec)
}

func TestLogoutLiveSessionRequiresToken(t *testing.T) {
	service := &stubAuthService{
		VerifyCSRFFunc:      func(string, string) error { return models.ErrCSRFMismatch },
		IsAuthenticatedFunc: func(string) bool { return true },
		LogoutFunc:          func(string) { t.Fatal("must not destroy a session without its token") },
	}
	handler := handlers.NewAuthHandler(service, nil, &pkghttp.IPConfig{}, auth.CookieConfig{})

	rec := doLogout(handler, "live-session", "wrong-token")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogoutLiveSessionWithToken(t *testing.T) {
	var loggedOut string
	service := &stubAuthService{
		VerifyCSRFFunc: func(sessionID, token string) error {
			require.Equal(t, "live-session", sessionID)
			require.Equal(t, "good-token", token)
			return nil
		},
		LogoutFunc: func(sessionID string) { loggedOut = sessionID },
	}
	handler := handlers.NewAuthHandler(service, nil, &pkghttp.IPConfig{}, auth.CookieConfig{})

	rec := doLogout(handler, "live-session", "good-token")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "live-session", loggedOut)
	assertSessionCookieCleared(t, rec)
}
