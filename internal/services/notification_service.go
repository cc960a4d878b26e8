package services

import (
	"context"
	"log/slog"

	"github.com/tfournier/catalyst/internal/models"
)

// NotificationRepository defines the notification store operations
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
	ListForRecipient(ctx context.Context, role models.Role, recipientID int64, limit, offset int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id string, role models.Role, recipientID int64) error
}

// NotificationService maintains per-identity inboxes. Notify is best
// effort: a failed inbox write is logged, never propagated, because no
// caller should fail a domain action over it.
type NotificationService struct {
	notifications NotificationRepository
	logger        *slog.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notifications NotificationRepository, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		logger:        logger,
	}
}

// Notify appends an event to one recipient's inbox
func (s *NotificationService) Notify(ctx context.Context, role models.Role, recipientID int64, eventType, message string) {
	_, err := s.notifications.Create(ctx, &models.Notification{
		RecipientRole: role,
		RecipientID:   recipientID,
		EventType:     eventType,
		Message:       message,
	})
	if err != nil {
		s.logger.Error("failed to create notification",
			slog.String("event_type", eventType),
			slog.Any("error", err))
	}
}

// List returns a recipient's inbox, newest first
func (s *NotificationService) List(ctx context.Context, role models.Role, recipientID int64, limit, offset int) ([]*models.Notification, error) {
	return s.notifications.ListForRecipient(ctx, role, recipientID, limit, offset)
}

// MarkRead marks one notification as read. The lookup is scoped to the
// recipient so nobody can mark another inbox's rows.
func (s *NotificationService) MarkRead(ctx context.Context, id string, role models.Role, recipientID int64) error {
	return s.notifications.MarkRead(ctx, id, role, recipientID)
}
