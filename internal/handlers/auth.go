package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tfournier/catalyst/internal/auth"
	"github.com/tfournier/catalyst/internal/middleware"
	"github.com/tfournier/catalyst/internal/models"
	"github.com/tfournier/catalyst/internal/services"
	pkghttp "github.com/tfournier/catalyst/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, req services.LoginRequest) (*services.LoginResult, error)
	Logout(sessionID string)
	IsAuthenticated(sessionID string) bool
	VerifyCSRF(sessionID, token string) error
	RetryHint() string
}

// PasswordResetInterface defines the interface for reset link handling
type PasswordResetInterface interface {
	IssueResetLink(ctx context.Context, role models.Role, identityID int64) error
	Confirm(ctx context.Context, token, newPassword string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	resets   PasswordResetInterface
	ipConfig *pkghttp.IPConfig
	cookies  auth.CookieConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, resets PasswordResetInterface, ipConfig *pkghttp.IPConfig, cookies auth.CookieConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		resets:   resets,
		ipConfig: ipConfig,
		cookies:  cookies,
	}
}

// Request DTOs

// LoginRequest represents the request body for login
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,min=1,max=255"`
	Password   string `json:"password" validate:"required"`
}

// ResetConfirmRequest represents the request body for redeeming a reset link
type ResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// IssueResetRequest represents the admin request to send a reset link
type IssueResetRequest struct {
	Role       string `json:"role" validate:"required,oneof=mentor project"`
	IdentityID int64  `json:"identity_id" validate:"required,gte=1"`
}

// LoginResponse is the success payload; the session ID itself only
// travels in the cookie.
type LoginResponse struct {
	Role      string `json:"role"`
	UserID    int64  `json:"user_id"`
	CSRFToken string `json:"csrf_token"`
	ExpiresIn int64  `json:"expires_in"`
}

// Login authenticates one of the three roles. The role comes from the
// URL, so /auth/mentor/login can never mint an admin session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	role, err := models.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		pkghttp.WriteNotFound(w, "Not found")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	priorSession, _ := auth.GetSessionCookie(r)

	result, err := h.service.Login(r.Context(), services.LoginRequest{
		Role:           role,
		Identifier:     req.Identifier,
		Password:       req.Password,
		SourceAddress:  pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent:      r.Header.Get("User-Agent"),
		PriorSessionID: priorSession,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAccountLocked), errors.Is(err, models.ErrRateLimited):
			pkghttp.WriteLocked(w, "Too many failed login attempts. Please try again later.", h.service.RetryHint())
		case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrAccountInactive):
			// one generic answer for bad password, unknown identifier
			// and disabled account, to prevent account enumeration
			pkghttp.WriteUnauthorized(w, "Authentication failed")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetSessionCookie(w, result.SessionID, result.ExpiresIn, h.cookies)
	pkghttp.WriteJSON(w, http.StatusOK, LoginResponse{
		Role:      string(result.Role),
		UserID:    result.UserID,
		CSRFToken: result.CSRFToken,
		ExpiresIn: int64(result.ExpiresIn.Seconds()),
	})
}

// Logout ends the session. Always succeeds: logging out twice, or with
// no session at all, leaves the caller in the same logged-out state. The
// CSRF token is only demanded while a live session exists, because only
// then is there anything a forged request could destroy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID, err := auth.GetSessionCookie(r); err == nil && sessionID != "" {
		if err := h.service.VerifyCSRF(sessionID, r.Header.Get(middleware.CSRFHeader)); err == nil {
			h.service.Logout(sessionID)
		} else if h.service.IsAuthenticated(sessionID) {
			pkghttp.WriteForbidden(w, "CSRF token missing or invalid")
			return
		}
	}

	auth.ClearSessionCookie(w, h.cookies)
	w.WriteHeader(http.StatusNoContent)
}

// Session reports who the current session belongs to
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"role":       string(session.Role),
		"user_id":    session.UserID,
		"csrf_token": session.CSRFToken,
	})
}

// ConfirmReset redeems a password reset link
func (h *AuthHandler) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req ResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.resets.Confirm(r.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid password")
		case errors.Is(err, models.ErrUnauthorized), errors.Is(err, models.ErrAccountInactive):
			pkghttp.WriteUnauthorized(w, "Invalid or expired reset link")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated. You can now log in.",
	})
}

// IssueReset mails a fresh reset link, admin only
func (h *AuthHandler) IssueReset(w http.ResponseWriter, r *http.Request) {
	var req IssueResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Unknown role")
		return
	}

	if err := h.resets.IssueResetLink(r.Context(), role, req.IdentityID); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		case errors.Is(err, models.ErrAccountInactive):
			pkghttp.WriteConflict(w, "Account is inactive")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "This account cannot receive reset links")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "Reset link sent",
	})
}
