package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tfournier/catalyst/internal/database"
	"github.com/tfournier/catalyst/internal/models"
)

// ProjectRepository handles project rows and mentor assignments. The
// projects table doubles as the credential table for the project role;
// credential columns are owned by IdentityRepository and never touched
// here.
type ProjectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *database.DB) *ProjectRepository {
	return &ProjectRepository{pool: db.Pool}
}

func scanProjectRow(scanner rowScanner) (*models.Project, error) {
	var project models.Project
	var stage int

	err := scanner.Scan(
		&project.ID, &project.ProfileName, &project.TeamName, &project.Email,
		&project.Summary, &stage, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	project.Stage = models.Stage(stage)
	return &project, nil
}

func scanProjectRows(rows pgx.Rows) ([]*models.Project, error) {
	defer rows.Close()

	projects := make([]*models.Project, 0)

	for rows.Next() {
		project, err := scanProjectRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return projects, nil
}

// Create inserts an approved project with its credential columns. New
// projects start at the ideation stage.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project, passwordHash string) (*models.Project, error) {
	query := `
		INSERT INTO projects (profile_name, team_name, email, summary, stage, password_hash, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING id, profile_name, team_name, email, summary, stage, created_at, updated_at
	`

	return scanProjectRow(r.pool.QueryRow(ctx, query,
		project.ProfileName,
		project.TeamName,
		project.Email,
		project.Summary,
		int(models.StageIdeation),
		passwordHash,
	))
}

// CreateTx is Create running inside a caller-owned transaction, used
// when approving an application must create the project atomically.
func (r *ProjectRepository) CreateTx(ctx context.Context, tx pgx.Tx, project *models.Project, passwordHash string) (*models.Project, error) {
	query := `
		INSERT INTO projects (profile_name, team_name, email, summary, stage, password_hash, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING id, profile_name, team_name, email, summary, stage, created_at, updated_at
	`

	return scanProjectRow(tx.QueryRow(ctx, query,
		project.ProfileName,
		project.TeamName,
		project.Email,
		project.Summary,
		int(models.StageIdeation),
		passwordHash,
	))
}

// GetByID returns a single project
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	query := `
		SELECT id, profile_name, team_name, email, summary, stage, created_at, updated_at
		FROM projects WHERE id = $1
	`

	return scanProjectRow(r.pool.QueryRow(ctx, query, id))
}

// List returns projects ordered by creation time
func (r *ProjectRepository) List(ctx context.Context, limit, offset int) ([]*models.Project, error) {
	query := `
		SELECT id, profile_name, team_name, email, summary, stage, created_at, updated_at
		FROM projects ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}

	return scanProjectRows(rows)
}

// SetStage moves a project to a stage, guarded so concurrent admin
// actions cannot skip: the update only applies when the current stage is
// exactly one step away from the target.
func (r *ProjectRepository) SetStage(ctx context.Context, id int64, target models.Stage) (*models.Project, error) {
	query := `
		UPDATE projects
		SET stage = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND abs(stage - $1) = 1
		RETURNING id, profile_name, team_name, email, summary, stage, created_at, updated_at
	`

	project, err := scanProjectRow(r.pool.QueryRow(ctx, query, int(target), id))
	if err == models.ErrNotFound {
		// either the project is missing or the transition skips a stage
		return nil, models.ErrConflict
	}
	return project, err
}

// AssignMentor attaches a mentor to a project. Re-assigning is a
// conflict, not a silent no-op.
func (r *ProjectRepository) AssignMentor(ctx context.Context, mentorID, projectID int64) error {
	query := `
		INSERT INTO mentor_assignments (mentor_id, project_id)
		VALUES ($1, $2)
	`

	_, err := r.pool.Exec(ctx, query, mentorID, projectID)
	return database.MapPostgresError(err)
}

// UnassignMentor detaches a mentor from a project
func (r *ProjectRepository) UnassignMentor(ctx context.Context, mentorID, projectID int64) error {
	query := `DELETE FROM mentor_assignments WHERE mentor_id = $1 AND project_id = $2`

	tag, err := r.pool.Exec(ctx, query, mentorID, projectID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// IsMentorAssigned reports whether a mentor is attached to a project
func (r *ProjectRepository) IsMentorAssigned(ctx context.Context, mentorID, projectID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM mentor_assignments WHERE mentor_id = $1 AND project_id = $2)`

	var assigned bool
	err := r.pool.QueryRow(ctx, query, mentorID, projectID).Scan(&assigned)
	return assigned, database.MapPostgresError(err)
}

// ListByMentor returns the projects a mentor is attached to
func (r *ProjectRepository) ListByMentor(ctx context.Context, mentorID int64) ([]*models.Project, error) {
	query := `
		SELECT p.id, p.profile_name, p.team_name, p.email, p.summary, p.stage, p.created_at, p.updated_at
		FROM projects p
		JOIN mentor_assignments ma ON ma.project_id = p.id
		WHERE ma.mentor_id = $1
		ORDER BY ma.assigned_at DESC
	`

	rows, err := r.pool.Query(ctx, query, mentorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mentor projects: %w", err)
	}

	return scanProjectRows(rows)
}

// ListMentors returns the mentors attached to a project
func (r *ProjectRepository) ListMentors(ctx context.Context, projectID int64) ([]*models.Mentor, error) {
	query := `
		SELECT m.id, m.email, m.name, m.expertise, m.created_at
		FROM mentors m
		JOIN mentor_assignments ma ON ma.mentor_id = m.id
		WHERE ma.project_id = $1
		ORDER BY ma.assigned_at DESC
	`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query project mentors: %w", err)
	}
	defer rows.Close()

	mentors := make([]*models.Mentor, 0)
	for rows.Next() {
		var mentor models.Mentor
		if err := rows.Scan(&mentor.ID, &mentor.Email, &mentor.Name, &mentor.Expertise, &mentor.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mentor: %w", err)
		}
		mentors = append(mentors, &mentor)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return mentors, nil
}
