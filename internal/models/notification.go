package models

import "time"

// Notification event types.
const (
	NotifyApplicationDecided = "application_decided"
	NotifyStageChanged       = "stage_changed"
	NotifyCommentPosted      = "comment_posted"
	NotifyRatingPosted       = "rating_posted"
	NotifyMentorAssigned     = "mentor_assigned"
)

// Notification is a per-identity inbox row. Creation may also trigger an
// email through the email service.
type Notification struct {
	ID            string
	RecipientRole Role
	RecipientID   int64
	EventType     string
	Message       string
	Read          bool
	CreatedAt     time.Time
}
