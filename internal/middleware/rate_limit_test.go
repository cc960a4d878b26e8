package middleware_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfournier/catalyst/internal/middleware"
	pkghttp "github.com/tfournier/catalyst/pkg/http"
)

func newRateLimitedHandler(limit int, ipConfig *pkghttp.IPConfig) http.Handler {
	config := middleware.RateLimitConfig{RequestsPerMinute: limit}
	return middleware.RateLimitByIP(config, ipConfig)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
}

func doLimited(handler http.Handler, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/auth/mentor/login", nil)
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitIgnoresForwardingFromUntrustedClients(t *testing.T) {
	handler := newRateLimitedHandler(3, &pkghttp.IPConfig{})

	// Rotating X-Forwarded-For must not open fresh buckets: the key is
	// the connection's own address.
	for i := 0; i < 3; i++ {
		code := doLimited(handler, "203.0.113.7:40000", fmt.Sprintf("198.51.100.%d", i+1))
		require.Equal(t, http.StatusOK, code)
	}

	code := doLimited(handler, "203.0.113.7:40000", "198.51.100.99")
	assert.Equal(t, http.StatusTooManyRequests, code)

	// A genuinely different client is its own bucket
	code = doLimited(handler, "203.0.113.8:40000", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestRateLimitHonorsForwardingFromTrustedProxy(t *testing.T) {
	handler := newRateLimitedHandler(1, &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}})

	// Behind the trusted proxy each forwarded client counts separately
	require.Equal(t, http.StatusOK, doLimited(handler, "10.0.0.5:40000", "198.51.100.1"))
	require.Equal(t, http.StatusOK, doLimited(handler, "10.0.0.5:40000", "198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, doLimited(handler, "10.0.0.5:40000", "198.51.100.1"))
}
