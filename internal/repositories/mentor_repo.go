package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tfournier/catalyst/internal/database"
	"github.com/tfournier/catalyst/internal/models"
)

// MentorRepository handles mentor profile rows. Credential columns on
// the mentors table are owned by IdentityRepository.
type MentorRepository struct {
	pool *pgxpool.Pool
}

// NewMentorRepository creates a new MentorRepository
func NewMentorRepository(db *database.DB) *MentorRepository {
	return &MentorRepository{pool: db.Pool}
}

// Create inserts a mentor with their credential columns
func (r *MentorRepository) Create(ctx context.Context, mentor *models.Mentor, passwordHash string) (*models.Mentor, error) {
	query := `
		INSERT INTO mentors (email, name, expertise, password_hash, is_active)
		VALUES ($1, $2, $3, $4, true)
		RETURNING id, email, name, expertise, created_at
	`

	var created models.Mentor
	err := r.pool.QueryRow(ctx, query,
		mentor.Email, mentor.Name, mentor.Expertise, passwordHash,
	).Scan(&created.ID, &created.Email, &created.Name, &created.Expertise, &created.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &created, nil
}

// GetByID returns a single mentor profile
func (r *MentorRepository) GetByID(ctx context.Context, id int64) (*models.Mentor, error) {
	query := `SELECT id, email, name, expertise, created_at FROM mentors WHERE id = $1`

	var mentor models.Mentor
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&mentor.ID, &mentor.Email, &mentor.Name, &mentor.Expertise, &mentor.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &mentor, nil
}

// List returns mentors ordered by creation time
func (r *MentorRepository) List(ctx context.Context, limit, offset int) ([]*models.Mentor, error) {
	query := `
		SELECT id, email, name, expertise, created_at
		FROM mentors ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query mentors: %w", err)
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
