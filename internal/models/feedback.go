package models

import "time"

// Comment is a message on a project, authored by a mentor, the project
// team itself, or an admin.
type Comment struct {
	ID         string
	ProjectID  int64
	AuthorRole Role
	AuthorID   int64
	Body       string
	CreatedAt  time.Time
}

// Rating is a mentor's score for a project at a given stage. One rating
// per (mentor, project, stage); re-rating upserts.
type Rating struct {
	ID        string
	ProjectID int64
	MentorID  int64
	Stage     Stage
	Score     int // 1..5
	Note      *string
	RatedAt   time.Time
}
