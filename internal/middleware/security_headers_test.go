package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tfournier/catalyst/internal/middleware"
)

func serveWithHeaders(t *testing.T, env string, tweak func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	handler := middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: env})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	if tweak != nil {
		tweak(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSecurityHeadersAlwaysPresent(t *testing.T) {
	rec := serveWithHeaders(t, "development", nil)

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestHSTSOnlyInProductionOverTLS(t *testing.T) {
	rec := serveWithHeaders(t, "development", nil)
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = serveWithHeaders(t, "production", nil)
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = serveWithHeaders(t, "production", func(req *http.Request) {
		req.Header.Set("X-Forwarded-Proto", "https")
	})
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestCORSFailClosed(t *testing.T) {
	config := middleware.DefaultCORSConfig([]string{"https://app.example.com"})
	handler := middleware.CORS(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
