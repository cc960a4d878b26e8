package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/tfournier/catalyst/internal/models"
	pkghttp "github.com/tfournier/catalyst/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// PrincipalContextKey is the key for the authenticated session in context
	PrincipalContextKey contextKey = "principal"
)

// RequireSession validates the session cookie, touches the session (which
// may rotate its id) and injects it into the request context. Requests
// with a missing, expired or unknown session get 401 and a cleared cookie.
func RequireSession(store *SessionStore, cookieConfig CookieConfig, absoluteLifetime time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, err := GetSessionCookie(r)
			if err != nil || sessionID == "" {
				pkghttp.WriteUnauthorized(w, "authentication required")
				return
			}

			session, err := store.Touch(sessionID)
			if err != nil {
				ClearSessionCookie(w, cookieConfig)
				pkghttp.WriteUnauthorized(w, "session expired, please log in again")
				return
			}

			// A rotation invalidated the presented id; hand the browser
			// the replacement before anything else is written.
			if session.ID != sessionID {
				remaining := absoluteLifetime - time.Since(session.CreatedAt)
				if remaining < 0 {
					remaining = 0
				}
				SetSessionCookie(w, session.ID, remaining, cookieConfig)
			}

			ctx := context.WithValue(r.Context(), PrincipalContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole enforces that the session belongs to the given role. Not
// authenticated is 401; authenticated under another role is 403. Neither
// case ever degrades to a lower-privilege view.
func RequireRole(role models.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r)
			if session == nil {
				pkghttp.WriteUnauthorized(w, "authentication required")
				return
			}

			if session.Role != role {
				pkghttp.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext extracts the authenticated session from the request
// context, or nil if the request is unauthenticated.
func SessionFromContext(r *http.Request) *Session {
	session, ok := r.Context().Value(PrincipalContextKey).(*Session)
	if !ok {
		return nil
	}
	return session
}
