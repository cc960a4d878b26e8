package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/tfournier/catalyst/internal/auth"
	"github.com/tfournier/catalyst/internal/models"
	pkgauth "github.com/tfournier/catalyst/pkg/auth"
	pkglogger "github.com/tfournier/catalyst/pkg/logger"
)

// CredentialStore defines the identity lookup operations used by the
// auth flow
type CredentialStore interface {
	Fetch(ctx context.Context, role models.Role, identifier string) (*models.Identity, error)
	FetchByID(ctx context.Context, role models.Role, id int64) (*models.Identity, error)
	Touch(ctx context.Context, role models.Role, id int64, patch models.IdentityPatch) error
}

// LoginRequest carries everything the login flow needs about one attempt
type LoginRequest struct {
	Role           models.Role
	Identifier     string
	Password       string
	SourceAddress  string
	UserAgent      string
	PriorSessionID string
}

// LoginResult is returned on successful authentication
type LoginResult struct {
	Role      models.Role
	UserID    int64
	SessionID string
	CSRFToken string
	ExpiresIn time.Duration
}

// AuthService is the single entry point for authentication. Handlers
// never touch the credential store, the lockout tracker or the session
// store directly; the ordering of the checks below is the contract.
type AuthService struct {
	creds    CredentialStore
	lockout  *LockoutService
	sessions *auth.SessionStore
	csrf     *auth.CSRFManager
	timing   *auth.TimingDelay
	logger   *slog.Logger
	audit    *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(creds CredentialStore, lockout *LockoutService, sessions *auth.SessionStore, csrf *auth.CSRFManager, timing *auth.TimingDelay, logger *slog.Logger, audit *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		creds:    creds,
		lockout:  lockout,
		sessions: sessions,
		csrf:     csrf,
		timing:   timing,
		logger:   logger,
		audit:    audit,
	}
}

// Login runs the full verification sequence for one attempt:
// address rate limit, identity lookup, active flag, identity lockout,
// password verification. A lockout wins over a correct password, so a
// locked account cannot be used to probe whether a guessed password was
// right. Failures are padded to a uniform duration before returning.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	start := time.Now()
	identifier := normalizeIdentifier(req.Identifier)

	if err := s.lockout.CheckAddress(ctx, req.SourceAddress); err != nil {
		if errors.Is(err, models.ErrRateLimited) {
			s.auditFailure(req, identifier, "address rate limited")
		}
		return nil, err
	}

	identity, err := s.creds.Fetch(ctx, req.Role, identifier)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, s.failLogin(ctx, req, identifier, nil, start, "unknown identifier", models.ErrInvalidCredentials)
		}
		s.logger.Error("failed to fetch identity", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !identity.IsActive {
		// Inactive accounts do not advance the failure counter; the
		// attempt is still recorded for the address keyspace.
		return nil, s.failLogin(ctx, req, identifier, nil, start, "account inactive", models.ErrAccountInactive)
	}

	// Lockout is checked before the password so the error does not leak
	// whether the guess was correct.
	if err := s.lockout.CheckIdentity(identity); err != nil {
		s.auditFailure(req, identifier, "account locked")
		return nil, err
	}

	if err := pkgauth.ComparePassword(identity.PasswordHash, req.Password); err != nil {
		return nil, s.failLogin(ctx, req, identifier, &identity.ID, start, "password mismatch", models.ErrInvalidCredentials)
	}

	if err := s.lockout.RecordSuccess(ctx, req.Role, identifier, identity.ID, req.SourceAddress, req.UserAgent); err != nil {
		s.logger.Error("failed to record login success", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Fresh credentials get a fresh session; an inherited ID from before
	// authentication is never kept alive.
	if req.PriorSessionID != "" {
		s.sessions.Destroy(req.PriorSessionID)
	}

	session, err := s.sessions.Create(req.Role, identity.ID)
	if err != nil {
		s.logger.Error("failed to create session", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login",
		Role:          string(req.Role),
		Identifier:    identifier,
		SourceAddress: req.SourceAddress,
		Success:       true,
	})

	return &LoginResult{
		Role:      req.Role,
		UserID:    identity.ID,
		SessionID: session.ID,
		CSRFToken: session.CSRFToken,
		ExpiresIn: s.sessions.Config().AbsoluteLifetime,
	}, nil
}

// Logout destroys the session. Destroying an unknown or already-expired
// session is not an error; the caller always ends up logged out.
func (s *AuthService) Logout(sessionID string) {
	s.sessions.Destroy(sessionID)
}

// IsAuthenticated reports whether the session id maps to a live session.
// Validation is fail closed, so an expired session counts as absent.
func (s *AuthService) IsAuthenticated(sessionID string) bool {
	_, err := s.sessions.Validate(sessionID)
	return err == nil
}

// VerifyCSRF checks a supplied CSRF token against the session's issued
// token
func (s *AuthService) VerifyCSRF(sessionID, token string) error {
	return s.csrf.Verify(sessionID, token)
}

// RetryHint exposes the coarse lockout hint for HTTP responses
func (s *AuthService) RetryHint() string {
	return s.lockout.RetryHint()
}

// failLogin records the failure in the tracker, pads the response time
// and emits the audit event. The returned error is what the caller
// should surface.
func (s *AuthService) failLogin(ctx context.Context, req LoginRequest, identifier string, identityID *int64, start time.Time, reason string, result error) error {
	if err := s.lockout.RecordFailure(ctx, req.Role, identifier, identityID, req.SourceAddress, req.UserAgent, reason); err != nil {
		s.logger.Error("failed to record login failure", slog.Any("error", err))
	}

	s.auditFailure(req, identifier, reason)
	s.timing.WaitFrom(start)
	return result
}

func (s *AuthService) auditFailure(req LoginRequest, identifier, reason string) {
	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login",
		Role:          string(req.Role),
		Identifier:    identifier,
		SourceAddress: req.SourceAddress,
		Success:       false,
		FailureReason: reason,
	})
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
