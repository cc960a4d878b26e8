package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tfournier/catalyst/internal/database"
	"github.com/tfournier/catalyst/internal/models"
)

// ApplicationRepository handles program application rows
type ApplicationRepository struct {
	pool *pgxpool.Pool
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(db *database.DB) *ApplicationRepository {
	return &ApplicationRepository{pool: db.Pool}
}

func scanApplicationRow(scanner rowScanner) (*models.Application, error) {
	var app models.Application
	var decidedBy *int64
	var decidedAt *time.Time
	var rejectNote *string
	var projectID *int64

	err := scanner.Scan(
		&app.ID, &app.TeamName, &app.Email, &app.Summary, &app.Status,
		&decidedBy, &decidedAt, &rejectNote, &projectID, &app.SubmittedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	app.DecidedBy = decidedBy
	app.DecidedAt = decidedAt
	app.RejectNote = rejectNote
	app.ProjectID = projectID

	return &app, nil
}

// Create inserts a new pending application
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	app.ID = uuid.New().String()

	query := `
		INSERT INTO applications (id, team_name, email, summary, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, team_name, email, summary, status, decided_by, decided_at, reject_note, project_id, submitted_at
	`

	return scanApplicationRow(r.pool.QueryRow(ctx, query,
		app.ID, app.TeamName, app.Email, app.Summary, models.ApplicationPending,
	))
}

// GetByID returns a single application
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	query := `
		SELECT id, team_name, email, summary, status, decided_by, decided_at, reject_note, project_id, submitted_at
		FROM applications WHERE id = $1
	`

	return scanApplicationRow(r.pool.QueryRow(ctx, query, id))
}

// ListByStatus returns applications in a given status, oldest first so
// reviewers work the queue in submission order
func (r *ApplicationRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.Application, error) {
	query := `
		SELECT id, team_name, email, summary, status, decided_by, decided_at, reject_note, project_id, submitted_at
		FROM applications WHERE status = $1 ORDER BY submitted_at ASC LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	apps := make([]*models.Application, 0)
	for rows.Next() {
		app, err := scanApplicationRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return apps, nil
}

// Decide records an admin decision. The status guard makes the decision
// first-writer-wins: a second concurrent decision hits zero rows and
// surfaces as a conflict.
func (r *ApplicationRepository) Decide(ctx context.Context, tx pgx.Tx, id string, status string, adminID int64, rejectNote *string, projectID *int64) error {
	query := `
		UPDATE applications
		SET status = $1, decided_by = $2, decided_at = CURRENT_TIMESTAMP, reject_note = $3, project_id = $4
		WHERE id = $5 AND status = $6
	`

	tag, err := tx.Exec(ctx, query, status, adminID, rejectNote, projectID, id, models.ApplicationPending)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrConflict
	}
	return nil
}
