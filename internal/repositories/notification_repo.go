package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tfournier/catalyst/internal/database"
	"github.com/tfournier/catalyst/internal/models"
)

// NotificationRepository handles per-identity notification rows
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{pool: db.Pool}
}

// Create inserts an unread notification
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	n.ID = uuid.New().String()

	query := `
		INSERT INTO notifications (id, recipient_role, recipient_id, event_type, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		n.ID, string(n.RecipientRole), n.RecipientID, n.EventType, n.Message,
	).Scan(&n.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return n, nil
}

// ListForRecipient returns an identity's notifications, newest first
func (r *NotificationRepository) ListForRecipient(ctx context.Context, role models.Role, recipientID int64, limit, offset int) ([]*models.Notification, error) {
	query := `
		SELECT id, recipient_role, recipient_id, event_type, message, read, created_at
		FROM notifications
		WHERE recipient_role = $1 AND recipient_id = $2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, string(role), recipientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		var recipientRole string
		if err := rows.Scan(&n.ID, &recipientRole, &n.RecipientID, &n.EventType, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.RecipientRole = models.Role(recipientRole)
		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return notifications, nil
}

// MarkRead flags a notification as read. Scoped to the recipient so one
// identity cannot touch another's inbox.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string, role models.Role, recipientID int64) error {
	query := `
		UPDATE notifications SET read = true
		WHERE id = $1 AND recipient_role = $2 AND recipient_id = $3
	`

	tag, err := r.pool.Exec(ctx, query, id, string(role), recipientID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
