package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tfournier/catalyst/internal/database"
	"github.com/tfournier/catalyst/internal/models"
)

// roleTable maps a role to its backing table and identifier column.
// Admins log in by username, mentors by email, project teams by profile
// name; everything else about the credential columns is uniform, which is
// what lets one repository serve all three without three copies of the
// login flow.
type roleTable struct {
	table         string
	identifierCol string
}

var roleTables = map[models.Role]roleTable{
	models.RoleAdmin:   {table: "admins", identifierCol: "username"},
	models.RoleMentor:  {table: "mentors", identifierCol: "email"},
	models.RoleProject: {table: "projects", identifierCol: "profile_name"},
}

// IdentityRepository is the credential store: it resolves
// (role, identifier) to a stored credential record and applies atomic
// partial updates to it.
type IdentityRepository struct {
	pool *pgxpool.Pool
}

// NewIdentityRepository creates a new IdentityRepository
func NewIdentityRepository(db *database.DB) *IdentityRepository {
	return &IdentityRepository{pool: db.Pool}
}

// rowScanner lets scanIdentityRow work for both QueryRow and Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIdentityRow(role models.Role, scanner rowScanner) (*models.Identity, error) {
	var identity models.Identity
	var lockedUntil, passwordChangedAt *time.Time

	err := scanner.Scan(
		&identity.ID, &identity.Identifier, &identity.PasswordHash,
		&identity.IsActive, &identity.FailedAttempts,
		&lockedUntil, &passwordChangedAt,
		&identity.CreatedAt, &identity.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	identity.Role = role
	identity.LockedUntil = lockedUntil
	identity.PasswordChangedAt = passwordChangedAt

	return &identity, nil
}

// Fetch resolves (role, identifier) to a credential record. A missing
// identifier surfaces as models.ErrNotFound; callers must treat it
// exactly like a password mismatch downstream.
func (r *IdentityRepository) Fetch(ctx context.Context, role models.Role, identifier string) (*models.Identity, error) {
	rt, ok := roleTables[role]
	if !ok {
		return nil, fmt.Errorf("unknown role: %s", role)
	}

	query := fmt.Sprintf(`
		SELECT id, %s, password_hash, is_active, failed_attempts, locked_until, password_changed_at, created_at, updated_at
		FROM %s WHERE %s = $1
	`, rt.identifierCol, rt.table, rt.identifierCol)

	return scanIdentityRow(role, r.pool.QueryRow(ctx, query, identifier))
}

// FetchByID resolves (role, id) to a credential record.
func (r *IdentityRepository) FetchByID(ctx context.Context, role models.Role, id int64) (*models.Identity, error) {
	rt, ok := roleTables[role]
	if !ok {
		return nil, fmt.Errorf("unknown role: %s", role)
	}

	query := fmt.Sprintf(`
		SELECT id, %s, password_hash, is_active, failed_attempts, locked_until, password_changed_at, created_at, updated_at
		FROM %s WHERE id = $1
	`, rt.identifierCol, rt.table)

	return scanIdentityRow(role, r.pool.QueryRow(ctx, query, id))
}

// Touch applies an atomic partial update to a credential record. All
// requested fields change in one UPDATE or none do.
func (r *IdentityRepository) Touch(ctx context.Context, role models.Role, id int64, patch models.IdentityPatch) error {
	rt, ok := roleTables[role]
	if !ok {
		return fmt.Errorf("unknown role: %s", role)
	}

	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []interface{}{}
	arg := 1

	if patch.PasswordHash != nil {
		sets = append(sets, fmt.Sprintf("password_hash = $%d", arg))
		sets = append(sets, "password_changed_at = CURRENT_TIMESTAMP")
		args = append(args, *patch.PasswordHash)
		arg++
	}
	if patch.IsActive != nil {
		sets = append(sets, fmt.Sprintf("is_active = $%d", arg))
		args = append(args, *patch.IsActive)
		arg++
	}
	if patch.FailedAttempts != nil {
		sets = append(sets, fmt.Sprintf("failed_attempts = $%d", arg))
		args = append(args, *patch.FailedAttempts)
		arg++
	}
	if patch.ClearLock {
		sets = append(sets, "locked_until = NULL")
	} else if patch.LockedUntil != nil {
		sets = append(sets, fmt.Sprintf("locked_until = $%d", arg))
		args = append(args, *patch.LockedUntil)
		arg++
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", rt.table, strings.Join(sets, ", "), arg)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// RecordFailure advances the failure counter and, when the new count
// reaches the threshold, sets the lockout in the same statement. The
// count restarts at one when the previous failure fell out of the
// window or when a lockout has expired since, so a short lockout with a
// long window cannot re-lock on the first post-expiry failure. A single
// increment-and-compare UPDATE means two concurrent failures can
// neither lose an increment nor both slip past the threshold.
func (r *IdentityRepository) RecordFailure(ctx context.Context, role models.Role, id int64, threshold int, window, lockout time.Duration) (int, *time.Time, error) {
	rt, ok := roleTables[role]
	if !ok {
		return 0, nil, fmt.Errorf("unknown role: %s", role)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET failed_attempts = CASE
		        WHEN last_failure_at IS NULL OR last_failure_at < CURRENT_TIMESTAMP - $3::interval
		             OR (locked_until IS NOT NULL AND locked_until <= CURRENT_TIMESTAMP) THEN 1
		        ELSE failed_attempts + 1
		    END,
		    locked_until = CASE
		        WHEN (CASE
		            WHEN last_failure_at IS NULL OR last_failure_at < CURRENT_TIMESTAMP - $3::interval
		                 OR (locked_until IS NOT NULL AND locked_until <= CURRENT_TIMESTAMP) THEN 1
		            ELSE failed_attempts + 1
		        END) >= $1 THEN CURRENT_TIMESTAMP + $2::interval
		        WHEN locked_until IS NOT NULL AND locked_until <= CURRENT_TIMESTAMP THEN NULL
		        ELSE locked_until
		    END,
		    last_failure_at = CURRENT_TIMESTAMP,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
		RETURNING failed_attempts, locked_until
	`, rt.table)

	var failedAttempts int
	var lockedUntil *time.Time
	lockInterval := fmt.Sprintf("%d seconds", int(lockout.Seconds()))
	windowInterval := fmt.Sprintf("%d seconds", int(window.Seconds()))
	err := r.pool.QueryRow(ctx, query, threshold, lockInterval, windowInterval, id).Scan(&failedAttempts, &lockedUntil)
	if err != nil {
		return 0, nil, database.MapPostgresError(err)
	}

	return failedAttempts, lockedUntil, nil
}

// CreateAdmin inserts an admin credential record. Only startup bootstrap
// uses this; mentors and project teams are provisioned through their own
// repositories.
func (r *IdentityRepository) CreateAdmin(ctx context.Context, username, passwordHash string) (int64, error) {
	query := `
		INSERT INTO admins (username, password_hash, is_active)
		VALUES ($1, $2, TRUE)
		RETURNING id
	`

	var id int64
	if err := r.pool.QueryRow(ctx, query, username, passwordHash).Scan(&id); err != nil {
		return 0, database.MapPostgresError(err)
	}
	return id, nil
}

// ResetFailures clears the failure counter and any lockout after a
// successful login, regardless of where the lockout clock stood.
func (r *IdentityRepository) ResetFailures(ctx context.Context, role models.Role, id int64) error {
	zero := 0
	return r.Touch(ctx, role, id, models.IdentityPatch{
		FailedAttempts: &zero,
		ClearLock:      true,
	})
}
