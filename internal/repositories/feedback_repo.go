package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tfournier/catalyst/internal/database"
	"github.com/tfournier/catalyst/internal/models"
)

// FeedbackRepository handles comments and ratings on projects
type FeedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository creates a new FeedbackRepository
func NewFeedbackRepository(db *database.DB) *FeedbackRepository {
	return &FeedbackRepository{pool: db.Pool}
}

// CreateComment inserts a comment on a project
func (r *FeedbackRepository) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	comment.ID = uuid.New().String()

	query := `
		INSERT INTO comments (id, project_id, author_role, author_id, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		comment.ID, comment.ProjectID, string(comment.AuthorRole), comment.AuthorID, comment.Body,
	).Scan(&comment.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return comment, nil
}

// ListComments returns a project's comments, newest first
func (r *FeedbackRepository) ListComments(ctx context.Context, projectID int64, limit, offset int) ([]*models.Comment, error) {
	query := `
		SELECT id, project_id, author_role, author_id, body, created_at
		FROM comments WHERE project_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		var comment models.Comment
		var role string
		if err := rows.Scan(&comment.ID, &comment.ProjectID, &role, &comment.AuthorID, &comment.Body, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comment.AuthorRole = models.Role(role)
		comments = append(comments, &comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return comments, nil
}

// DeleteComment removes a comment (admin moderation)
func (r *FeedbackRepository) DeleteComment(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpsertRating records a mentor's score for a project at a stage. One
// rating per (project, mentor, stage); rating again replaces score and
// note in place.
func (r *FeedbackRepository) UpsertRating(ctx context.Context, rating *models.Rating) (*models.Rating, error) {
	rating.ID = uuid.New().String()

	query := `
		INSERT INTO ratings (id, project_id, mentor_id, stage, score, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (project_id, mentor_id, stage)
		DO UPDATE SET score = EXCLUDED.score, note = EXCLUDED.note, rated_at = CURRENT_TIMESTAMP
		RETURNING id, rated_at
	`

	err := r.pool.QueryRow(ctx, query,
		rating.ID, rating.ProjectID, rating.MentorID, int(rating.Stage), rating.Score, rating.Note,
	).Scan(&rating.ID, &rating.RatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return rating, nil
}

// ListRatings returns a project's ratings, newest first
func (r *FeedbackRepository) ListRatings(ctx context.Context, projectID int64) ([]*models.Rating, error) {
	query := `
		SELECT id, project_id, mentor_id, stage, score, note, rated_at
		FROM ratings WHERE project_id = $1 ORDER BY rated_at DESC
	`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]*models.Rating, 0)
	for rows.Next() {
		var rating models.Rating
		var stage int
		if err := rows.Scan(&rating.ID, &rating.ProjectID, &rating.MentorID, &stage, &rating.Score, &rating.Note, &rating.RatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		rating.Stage = models.Stage(stage)
		ratings = append(ratings, &rating)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return ratings, nil
}
