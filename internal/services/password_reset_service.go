package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tfournier/catalyst/internal/auth"
	"github.com/tfournier/catalyst/internal/models"
	pkgauth "github.com/tfournier/catalyst/pkg/auth"
	pkglogger "github.com/tfournier/catalyst/pkg/logger"
)

// EmailDirectory resolves the mail address behind an identity. Admin
// accounts carry no mail address and cannot receive reset links.
type EmailDirectory interface {
	EmailFor(ctx context.Context, role models.Role, id int64) (string, error)
}

// PasswordResetService issues and redeems tokenized password reset
// links. Plaintext passwords never travel by mail; a link lets the
// holder choose their own password, once, within the token TTL.
type PasswordResetService struct {
	creds     CredentialStore
	tokens    *auth.ResetTokenManager
	directory EmailDirectory
	email     EmailService
	ttl       time.Duration
	logger    *slog.Logger
	audit     *pkglogger.AuditLogger
}

// NewPasswordResetService creates a new PasswordResetService
func NewPasswordResetService(creds CredentialStore, tokens *auth.ResetTokenManager, directory EmailDirectory, email EmailService, ttl time.Duration, logger *slog.Logger, audit *pkglogger.AuditLogger) *PasswordResetService {
	return &PasswordResetService{
		creds:     creds,
		tokens:    tokens,
		directory: directory,
		email:     email,
		ttl:       ttl,
		logger:    logger,
		audit:     audit,
	}
}

// IssueResetLink generates a reset token for the identity and mails it.
// Called by an administrator on behalf of a mentor or project account.
func (s *PasswordResetService) IssueResetLink(ctx context.Context, role models.Role, identityID int64) error {
	identity, err := s.creds.FetchByID(ctx, role, identityID)
	if err != nil {
		return err
	}

	if !identity.IsActive {
		return models.ErrAccountInactive
	}

	address, err := s.directory.EmailFor(ctx, role, identityID)
	if err != nil {
		return err
	}

	token, err := s.tokens.Generate(role, identityID)
	if err != nil {
		s.logger.Error("failed to generate reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.email.SendResetLinkEmail(ctx, address, token, time.Now().Add(s.ttl)); err != nil {
		return models.ErrInternalServer
	}

	s.audit.LogAccountAction("password_reset_issued", string(role), identityID, nil)
	return nil
}

// Confirm redeems a reset token and sets the new password. A token is
// rejected once any password change postdates its issuance, so each
// link works exactly once; redemption also clears any standing lockout,
// since a fresh password restores control of the account to its owner.
func (s *PasswordResetService) Confirm(ctx context.Context, tokenString, newPassword string) error {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		s.logger.Warn("rejected reset token", slog.Any("error", err))
		return models.ErrUnauthorized
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		var validationErr *pkgauth.PasswordValidationError
		if errors.As(err, &validationErr) {
			return models.ErrBadRequest
		}
		return err
	}

	identity, err := s.creds.FetchByID(ctx, claims.Role, claims.IdentityID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUnauthorized
		}
		return err
	}

	if !identity.IsActive {
		return models.ErrAccountInactive
	}

	if identity.PasswordChangedAt != nil && claims.IssuedAt != nil &&
		!claims.IssuedAt.Time.After(*identity.PasswordChangedAt) {
		return models.ErrUnauthorized
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	zero := 0
	patch := models.IdentityPatch{
		PasswordHash:   &hash,
		FailedAttempts: &zero,
		ClearLock:      true,
	}
	if err := s.creds.Touch(ctx, claims.Role, claims.IdentityID, patch); err != nil {
		return err
	}

	s.audit.LogAccountAction("password_reset_confirmed", string(claims.Role), claims.IdentityID, nil)
	return nil
}
