package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tfournier/catalyst/internal/database"
	"github.com/tfournier/catalyst/internal/models"
)

// LoginAttemptRepository persists login attempts. Each attempt is one
// INSERT; window counts are aggregates, so concurrent failures can never
// under-count each other.
type LoginAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewLoginAttemptRepository creates a new LoginAttemptRepository
func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{pool: db.Pool}
}

// RecordAttempt records a single login attempt
func (r *LoginAttemptRepository) RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	query := `
		INSERT INTO login_attempts (role, identifier, source_address, user_agent, success, failure_reason, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		string(attempt.Role),
		attempt.Identifier,
		attempt.SourceAddress,
		attempt.UserAgent,
		attempt.Success,
		attempt.FailureReason,
		attempt.ExpiresAt,
	)

	return database.MapPostgresError(err)
}

// CountAddressFailures counts failed attempts from one source address
// across all roles and identifiers inside the trailing window
func (r *LoginAttemptRepository) CountAddressFailures(ctx context.Context, sourceAddress string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM login_attempts
		WHERE source_address = $1 AND success = false AND attempt_time >= $2
	`

	var count int
	err := r.pool.QueryRow(ctx, query, sourceAddress, since).Scan(&count)
	return count, database.MapPostgresError(err)
}

// LatestAddressFailure returns the timestamp of the newest failure from
// an address within the window, used to place the address lockout clock.
func (r *LoginAttemptRepository) LatestAddressFailure(ctx context.Context, sourceAddress string, since time.Time) (*time.Time, error) {
	query := `
		SELECT attempt_time FROM login_attempts
		WHERE source_address = $1 AND success = false AND attempt_time >= $2
		ORDER BY attempt_time DESC
		LIMIT 1
	`

	var failureTime time.Time
	err := r.pool.QueryRow(ctx, query, sourceAddress, since).Scan(&failureTime)
	if err != nil {
		mapped := database.MapPostgresError(err)
		if mapped == models.ErrNotFound {
			return nil, nil
		}
		return nil, mapped
	}

	return &failureTime, nil
}

// DeleteExpired prunes attempts past their retention horizon. Window
// queries already exclude them; the delete is what bounds table growth.
func (r *LoginAttemptRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM login_attempts WHERE expires_at <= CURRENT_TIMESTAMP`
	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}
