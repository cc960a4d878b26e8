package middleware

import (
	"net/http"

	"github.com/tfournier/catalyst/internal/auth"
	pkghttp "github.com/tfournier/catalyst/pkg/http"
	pkglogger "github.com/tfournier/catalyst/pkg/logger"
)

// CSRFHeader is the request header carrying the session's CSRF token
const CSRFHeader = "X-CSRF-Token"

// CSRFProtection validates the CSRF token on state-changing requests.
// The token is bound to the session and re-minted on every session
// rotation, so a leaked token dies with its session.
//
// Mount BEFORE the session middleware: verification must see the
// session as the client knew it when it sent the request, not the
// post-rotation state, or the request that triggers a rotation would
// fail its own CSRF check. Reads are exempt.
func CSRFProtection(csrfManager *auth.CSRFManager, ipConfig *pkghttp.IPConfig, audit *pkglogger.AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			sessionID, err := auth.GetSessionCookie(r)
			if err != nil || sessionID == "" {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			supplied := r.Header.Get(CSRFHeader)
			if err := csrfManager.Verify(sessionID, supplied); err != nil {
				audit.LogCSRFRejection("unknown", r.URL.Path, pkghttp.ExtractClientIP(r, ipConfig))
				pkghttp.WriteForbidden(w, "CSRF token missing or invalid")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isStateChangingMethod checks if the HTTP method modifies state
func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}
