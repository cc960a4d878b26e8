package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfournier/catalyst/internal/auth"
	"github.com/tfournier/catalyst/internal/models"
	"github.com/tfournier/catalyst/internal/services"
	pkgauth "github.com/tfournier/catalyst/pkg/auth"
	pkglogger "github.com/tfournier/catalyst/pkg/logger"
)

const testResetSecret = "unit-test-reset-secret-0123456789"

func newResetFixture(t *testing.T, creds services.CredentialStore, email services.EmailService) (*services.PasswordResetService, *auth.ResetTokenManager) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	audit := pkglogger.NewAuditLogger(logger)
	tokens := auth.NewResetTokenManager(testResetSecret, 15*time.Minute)
	directory := &services.MockEmailDirectory{}
	return services.NewPasswordResetService(creds, tokens, directory, email, 15*time.Minute, logger, audit), tokens
}

func TestIssueResetLinkSendsTokenizedMail(t *testing.T) {
	creds := &services.MockCredentialStore{
		FetchByIDFunc: func(ctx context.Context, role models.Role, id int64) (*models.Identity, error) {
			return &models.Identity{Role: role, ID: id, IsActive: true}, nil
		},
	}

	var sentToken string
	email := &services.MockEmailService{
		SendResetLinkEmailFunc: func(ctx context.Context, address, token string, expiresAt time.Time) error {
			sentToken = token
			return nil
		},
	}

	service, tokens := newResetFixture(t, creds, email)

	require.NoError(t, service.IssueResetLink(context.Background(), models.RoleMentor, 42))
	require.NotEmpty(t, sentToken)

	claims, err := tokens.Validate(sentToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMentor, claims.Role)
	assert.Equal(t, int64(42), claims.IdentityID)
}

func TestIssueResetLinkInactiveAccount(t *testing.T) {
	creds := &services.MockCredentialStore{
		FetchByIDFunc: func(ctx context.Context, role models.Role, id int64) (*models.Identity, error) {
			return &models.Identity{Role: role, ID: id, IsActive: false}, nil
		},
	}

	service, _ := newResetFixture(t, creds, &services.MockEmailService{})
	assert.ErrorIs(t, service.IssueResetLink(context.Background(), models.RoleMentor, 42), models.ErrAccountInactive)
}

func TestConfirmSetsPasswordAndClearsLockout(t *testing.T) {
	until := time.Now().Add(10 * time.Minute)
	var applied models.IdentityPatch
	creds := &services.MockCredentialStore{
		FetchByIDFunc: func(ctx context.Context, role models.Role, id int64) (*models.Identity, error) {
			return &models.Identity{Role: role, ID: id, IsActive: true, FailedAttempts: 5, LockedUntil: &until}, nil
		},
		TouchFunc: func(ctx context.Context, role models.Role, id int64, patch models.IdentityPatch) error {
			applied = patch
			return nil
		},
	}

	service, tokens := newResetFixture(t, creds, &services.MockEmailService{})

	token, err := tokens.Generate(models.RoleProject, 7)
	require.NoError(t, err)

	require.NoError(t, service.Confirm(context.Background(), token, "Fresh-passphrase-9"))
	require.NotNil(t, applied.PasswordHash)
	assert.NoError(t, pkgauth.ComparePassword(*applied.PasswordHash, "Fresh-passphrase-9"))
	require.NotNil(t, applied.FailedAttempts)
	assert.Equal(t, 0, *applied.FailedAttempts)
	assert.True(t, applied.ClearLock)
}

func TestConfirmRejectsGarbageToken(t *testing.T) {
	service, _ := newResetFixture(t, &services.MockCredentialStore{}, &services.MockEmailService{})
	assert.ErrorIs(t, service.Confirm(context.Background(), "not-a-token", "Fresh-passphrase-9"), models.ErrUnauthorized)
}

func TestConfirmRejectsWeakPassword(t *testing.T) {
	service, tokens := newResetFixture(t, &services.MockCredentialStore{}, &services.MockEmailService{})

	token, err := tokens.Generate(models.RoleMentor, 42)
	require.NoError(t, err)

	assert.ErrorIs(t, service.Confirm(context.Background(), token, "short"), models.ErrBadRequest)
}

// A token issued before the last password change is spent: each link
// works exactly once.
func TestConfirmRejectsSpentToken(t *testing.T) {
	changedAt := time.Now().Add(time.Minute)
	creds := &services.MockCredentialStore{
		FetchByIDFunc: func(ctx context.Context, role models.Role, id int64) (*models.Identity, error) {
			return &models.Identity{Role: role, ID: id, IsActive: true, PasswordChangedAt: &changedAt}, nil
		},
	}

	service, tokens := newResetFixture(t, creds, &services.MockEmailService{})

	token, err := tokens.Generate(models.RoleMentor, 42)
	require.NoError(t, err)

	assert.ErrorIs(t, service.Confirm(context.Background(), token, "Fresh-passphrase-9"), models.ErrUnauthorized)
}

func TestConfirmRejectsDeletedIdentity(t *testing.T) {
	service, tokens := newResetFixture(t, &services.MockCredentialStore{}, &services.MockEmailService{})

	token, err := tokens.Generate(models.RoleMentor, 42)
	require.NoError(t, err)

	assert.ErrorIs(t, service.Confirm(context.Background(), token, "Fresh-passphrase-9"), models.ErrUnauthorized)
}

func TestResetTokenExpires(t *testing.T) {
	tokens := auth.NewResetTokenManager(testResetSecret, -time.Minute)

	token, err := tokens.Generate(models.RoleMentor, 42)
	require.NoError(t, err)

	_, err = tokens.Validate(token)
	assert.Error(t, err)
}

func TestResetTokenWrongSecret(t *testing.T) {
	tokens := auth.NewResetTokenManager(testResetSecret, 15*time.Minute)
	other := auth.NewResetTokenManager("a-completely-different-secret-000", 15*time.Minute)

	token, err := tokens.Generate(models.RoleMentor, 42)
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}
