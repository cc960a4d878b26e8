package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tfournier/catalyst/internal/models"
	pkglogger "github.com/tfournier/catalyst/pkg/logger"
)

// AttemptRepository defines the attempt-window store operations
type AttemptRepository interface {
	RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error
	CountAddressFailures(ctx context.Context, sourceAddress string, since time.Time) (int, error)
	LatestAddressFailure(ctx context.Context, sourceAddress string, since time.Time) (*time.Time, error)
}

// FailureRecorder defines the durable per-identity counter operations
type FailureRecorder interface {
	RecordFailure(ctx context.Context, role models.Role, id int64, threshold int, window, lockout time.Duration) (int, *time.Time, error)
	ResetFailures(ctx context.Context, role models.Role, id int64) error
}

// LockoutConfig holds the lockout policy. These are policy numbers, not
// derived constants; the address limits run looser than the identity
// limits so one shared NAT cannot lock out a whole office.
type LockoutConfig struct {
	IdentityMaxAttempts     int
	IdentityLockoutDuration time.Duration
	AddressMaxAttempts      int
	AddressLockoutDuration  time.Duration
	Window                  time.Duration
}

// DefaultLockoutConfig returns the documented policy defaults
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		IdentityMaxAttempts:     5,
		IdentityLockoutDuration: 15 * time.Minute,
		AddressMaxAttempts:      30,
		AddressLockoutDuration:  15 * time.Minute,
		Window:                  15 * time.Minute,
	}
}

// LockoutService tracks login failures across two independent keyspaces:
// (role, identifier) protects one account against many addresses, and
// the source address protects the service against one address hammering
// many accounts. A login is blocked if either keyspace is locked.
//
// Counters live server side. Every failure is one INSERT plus, for known
// identities, one increment-and-compare UPDATE; both are single atomic
// statements, so concurrent failures never under-count and never race
// past the threshold together.
type LockoutService struct {
	attempts AttemptRepository
	recorder FailureRecorder
	config   LockoutConfig
	logger   *slog.Logger
}

// NewLockoutService creates a new LockoutService
func NewLockoutService(attempts AttemptRepository, recorder FailureRecorder, config LockoutConfig, logger *slog.Logger) *LockoutService {
	return &LockoutService{
		attempts: attempts,
		recorder: recorder,
		config:   config,
		logger:   logger,
	}
}

// CheckAddress reports whether a source address is currently rate
// limited. The address is locked while the window holds at least the
// maximum number of failures and the newest of them is younger than the
// lockout duration.
func (s *LockoutService) CheckAddress(ctx context.Context, sourceAddress string) error {
	since := time.Now().Add(-s.config.Window)

	count, err := s.attempts.CountAddressFailures(ctx, sourceAddress, since)
	if err != nil {
		s.logger.Error("failed to check address lockout", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if count < s.config.AddressMaxAttempts {
		return nil
	}

	latest, err := s.attempts.LatestAddressFailure(ctx, sourceAddress, since)
	if err != nil {
		s.logger.Error("failed to read latest address failure", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if latest != nil && time.Now().Before(latest.Add(s.config.AddressLockoutDuration)) {
		s.logger.Warn("address rate limited",
			slog.String("source_address", sourceAddress),
			slog.Int("failed_attempts", count))
		return models.ErrRateLimited
	}

	return nil
}

// CheckIdentity reports whether a specific identity is locked. The
// durable lockout on the identity row is authoritative; it must be
// checked before any password verification.
func (s *LockoutService) CheckIdentity(identity *models.Identity) error {
	if identity.Locked(time.Now()) {
		return models.ErrAccountLocked
	}
	return nil
}

// RecordFailure records one failed attempt in both keyspaces. For a
// resolved identity it also advances the durable counter, locking the
// row when the threshold is reached. identityID is nil when the
// identifier did not resolve; the window entry is still written so the
// address keyspace counts probes of nonexistent accounts.
func (s *LockoutService) RecordFailure(ctx context.Context, role models.Role, identifier string, identityID *int64, sourceAddress, userAgent, reason string) error {
	attempt := &models.LoginAttempt{
		Role:          role,
		Identifier:    identifier,
		SourceAddress: sourceAddress,
		UserAgent:     userAgent,
		Success:       false,
		FailureReason: &reason,
		ExpiresAt:     time.Now().Add(s.config.Window * 2), // retain for 2x window
	}

	if err := s.attempts.RecordAttempt(ctx, attempt); err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}

	if identityID == nil {
		return nil
	}

	failedAttempts, lockedUntil, err := s.recorder.RecordFailure(ctx, role, *identityID,
		s.config.IdentityMaxAttempts, s.config.Window, s.config.IdentityLockoutDuration)
	if err != nil {
		return fmt.Errorf("failed to record identity failure: %w", err)
	}

	if lockedUntil != nil {
		s.logger.Warn("identity locked out",
			slog.String("role", string(role)),
			slog.String("identifier", pkglogger.SanitizedIdentifier(identifier)),
			slog.Int("failed_attempts", failedAttempts),
			slog.Time("locked_until", *lockedUntil))
	}

	return nil
}

// RecordSuccess records a successful attempt and resets the identity's
// failure counter and lockout, regardless of where the lockout clock
// stood.
func (s *LockoutService) RecordSuccess(ctx context.Context, role models.Role, identifier string, identityID int64, sourceAddress, userAgent string) error {
	attempt := &models.LoginAttempt{
		Role:          role,
		Identifier:    identifier,
		SourceAddress: sourceAddress,
		UserAgent:     userAgent,
		Success:       true,
		ExpiresAt:     time.Now().Add(s.config.Window * 2),
	}

	if err := s.attempts.RecordAttempt(ctx, attempt); err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}

	if err := s.recorder.ResetFailures(ctx, role, identityID); err != nil {
		return fmt.Errorf("failed to reset failure counter: %w", err)
	}

	return nil
}

// RetryHint renders a deliberately coarse human hint for lockout
// responses. Precision is rounded away so the response cannot be used to
// clock the exact unlock instant.
func (s *LockoutService) RetryHint() string {
	minutes := int(s.config.IdentityLockoutDuration.Round(5 * time.Minute).Minutes())
	if minutes < 5 {
		minutes = 5
	}
	return fmt.Sprintf("in about %d minutes", minutes)
}
