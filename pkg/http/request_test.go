package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	pkghttp "github.com/tfournier/catalyst/pkg/http"
)

func TestExtractClientIP_NoProxyConfig(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/admin/login", nil)
	req.RemoteAddr = "203.0.113.7:54321"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")

	// Without trusted proxies the forwarding header must be ignored
	ip := pkghttp.ExtractClientIP(req, nil)
	assert.Equal(t, "203.0.113.7", ip)
}

func TestExtractClientIP_UntrustedProxyIgnoresHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/admin/login", nil)
	req.RemoteAddr = "203.0.113.7:54321"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")

	config := &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}
	ip := pkghttp.ExtractClientIP(req, config)
	assert.Equal(t, "203.0.113.7", ip)
}

func TestExtractClientIP_TrustedProxyUsesForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/admin/login", nil)
	req.RemoteAddr = "10.1.2.3:443"
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.1.2.3")

	config := &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}
	ip := pkghttp.ExtractClientIP(req, config)
	assert.Equal(t, "198.51.100.1", ip)
}

func TestExtractClientIP_TrustedProxyFallsBackToRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/admin/login", nil)
	req.RemoteAddr = "10.1.2.3:443"
	req.Header.Set("X-Forwarded-For", "not-an-ip")
	req.Header.Set("X-Real-IP", "198.51.100.2")

	config := &pkghttp.IPConfig{TrustedProxies: []string{"10.0.0.0/8"}}
	ip := pkghttp.ExtractClientIP(req, config)
	assert.Equal(t, "198.51.100.2", ip)
}

func TestExtractClientIP_NoPortInRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "203.0.113.7"

	ip := pkghttp.ExtractClientIP(req, nil)
	assert.Equal(t, "203.0.113.7", ip)
}
