package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfournier/catalyst/internal/models"
	"github.com/tfournier/catalyst/internal/services"
)

func newLockoutService(attempts services.AttemptRepository, recorder services.FailureRecorder, config services.LockoutConfig) *services.LockoutService {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return services.NewLockoutService(attempts, recorder, config, logger)
}

func TestCheckAddressUnderLimit(t *testing.T) {
	attempts := &services.MockAttemptRepository{
		CountAddressFailuresFunc: func(ctx context.Context, sourceAddress string, since time.Time) (int, error) {
			return 29, nil
		},
	}
	service := newLockoutService(attempts, &services.MockFailureRecorder{}, services.DefaultLockoutConfig())

	assert.NoError(t, service.CheckAddress(context.Background(), "203.0.113.7"))
}

func TestCheckAddressAtLimit(t *testing.T) {
	recent := time.Now().Add(-time.Minute)
	attempts := &services.MockAttemptRepository{
		CountAddressFailuresFunc: func(ctx context.Context, sourceAddress string, since time.Time) (int, error) {
			return 30, nil
		},
		LatestAddressFailureFunc: func(ctx context.Context, sourceAddress string, since time.Time) (*time.Time, error) {
			return &recent, nil
		},
	}
	service := newLockoutService(attempts, &services.MockFailureRecorder{}, services.DefaultLockoutConfig())

	assert.ErrorIs(t, service.CheckAddress(context.Background(), "203.0.113.7"), models.ErrRateLimited)
}

// Once the newest failure is older than the lockout duration the
// address may try again, even if stale failures still sit in the window.
func TestCheckAddressLockExpired(t *testing.T) {
	config := services.DefaultLockoutConfig()
	stale := time.Now().Add(-config.AddressLockoutDuration - time.Minute)
	attempts := &services.MockAttemptRepository{
		CountAddressFailuresFunc: func(ctx context.Context, sourceAddress string, since time.Time) (int, error) {
			return 30, nil
		},
		LatestAddressFailureFunc: func(ctx context.Context, sourceAddress string, since time.Time) (*time.Time, error) {
			return &stale, nil
		},
	}
	service := newLockoutService(attempts, &services.MockFailureRecorder{}, config)

	assert.NoError(t, service.CheckAddress(context.Background(), "203.0.113.7"))
}

func TestCheckIdentityLocked(t *testing.T) {
	service := newLockoutService(&services.MockAttemptRepository{}, &services.MockFailureRecorder{}, services.DefaultLockoutConfig())

	until := time.Now().Add(10 * time.Minute)
	locked := &models.Identity{LockedUntil: &until}
	assert.ErrorIs(t, service.CheckIdentity(locked), models.ErrAccountLocked)

	expired := time.Now().Add(-time.Minute)
	unlocked := &models.Identity{LockedUntil: &expired}
	assert.NoError(t, service.CheckIdentity(unlocked))

	assert.NoError(t, service.CheckIdentity(&models.Identity{}))
}

// An unresolved identifier still writes a window entry, so address
// counting covers probes of accounts that do not exist.
func TestRecordFailureUnknownIdentity(t *testing.T) {
	var recorded *models.LoginAttempt
	attempts := &services.MockAttemptRepository{
		RecordAttemptFunc: func(ctx context.Context, attempt *models.LoginAttempt) error {
			recorded = attempt
			return nil
		},
	}
	recorder := &services.MockFailureRecorder{
		RecordFailureFunc: func(ctx context.Context, role models.Role, id int64, threshold int, window, lockout time.Duration) (int, *time.Time, error) {
			t.Fatal("durable counter must not move for unknown identities")
			return 0, nil, nil
		},
	}
	service := newLockoutService(attempts, recorder, services.DefaultLockoutConfig())

	err := service.RecordFailure(context.Background(), models.RoleAdmin, "ghost", nil, "203.0.113.7", "test", "unknown identifier")
	require.NoError(t, err)
	require.NotNil(t, recorded)
	assert.False(t, recorded.Success)
	assert.Equal(t, "203.0.113.7", recorded.SourceAddress)
}

func TestRecordFailureAdvancesDurableCounter(t *testing.T) {
	config := services.DefaultLockoutConfig()
	var gotThreshold int
	var gotWindow, gotLockout time.Duration
	recorder := &services.MockFailureRecorder{
		RecordFailureFunc: func(ctx context.Context, role models.Role, id int64, threshold int, window, lockout time.Duration) (int, *time.Time, error) {
			gotThreshold = threshold
			gotWindow = window
			gotLockout = lockout
			return 3, nil, nil
		},
	}
	service := newLockoutService(&services.MockAttemptRepository{}, recorder, config)

	identityID := int64(42)
	err := service.RecordFailure(context.Background(), models.RoleMentor, "mentor@example.com", &identityID, "203.0.113.7", "test", "password mismatch")
	require.NoError(t, err)
	assert.Equal(t, config.IdentityMaxAttempts, gotThreshold)
	assert.Equal(t, config.Window, gotWindow)
	assert.Equal(t, config.IdentityLockoutDuration, gotLockout)
}

func TestRecordSuccessResetsCounter(t *testing.T) {
	resetCalled := false
	recorder := &services.MockFailureRecorder{
		ResetFailuresFunc: func(ctx context.Context, role models.Role, id int64) error {
			resetCalled = true
			return nil
		},
	}
	service := newLockoutService(&services.MockAttemptRepository{}, recorder, services.DefaultLockoutConfig())

	err := service.RecordSuccess(context.Background(), models.RoleMentor, "mentor@example.com", 42, "203.0.113.7", "test")
	require.NoError(t, err)
	assert.True(t, resetCalled)
}

// The hint is deliberately coarse so the response cannot be used to
// clock the exact unlock instant.
func TestRetryHintIsCoarse(t *testing.T) {
	config := services.DefaultLockoutConfig()
	config.IdentityLockoutDuration = 14*time.Minute + 59*time.Second
	service := newLockoutService(&services.MockAttemptRepository{}, &services.MockFailureRecorder{}, config)

	assert.Equal(t, "in about 15 minutes", service.RetryHint())

	config.IdentityLockoutDuration = time.Minute
	service = newLockoutService(&services.MockAttemptRepository{}, &services.MockFailureRecorder{}, config)
	assert.Equal(t, "in about 5 minutes", service.RetryHint())
}
