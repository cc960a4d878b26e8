package models

import "time"

// Application statuses.
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// Application is a team's request to join the program. Approval creates a
// project identity; either decision emails the applicant.
type Application struct {
	ID          string
	TeamName    string
	Email       string
	Summary     string
	Status      string
	DecidedBy   *int64 // admin id
	DecidedAt   *time.Time
	RejectNote  *string
	ProjectID   *int64 // set on approval
	SubmittedAt time.Time
}
