package models

import "time"

// LoginAttempt is one recorded authentication attempt. Failed attempts
// within the lookback window feed both lockout keyspaces; rows past
// expires_at are pruned by the background cleanup.
type LoginAttempt struct {
	ID            string
	Role          Role
	Identifier    string
	SourceAddress string
	UserAgent     string
	AttemptTime   time.Time
	Success       bool
	FailureReason *string
	ExpiresAt     time.Time
}
