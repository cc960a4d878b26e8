package models

import (
	"fmt"
	"time"
)

// Stage is one of the six fixed program stages. Projects advance one
// stage at a time and may be reverted by an admin, never skipped.
type Stage int

const (
	StageIdeation Stage = iota + 1
	StageResearch
	StagePrototype
	StageValidation
	StageLaunch
	StageGrowth
)

var stageNames = map[Stage]string{
	StageIdeation:   "ideation",
	StageResearch:   "research",
	StagePrototype:  "prototype",
	StageValidation: "validation",
	StageLaunch:     "launch",
	StageGrowth:     "growth",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Valid reports whether s is one of the six defined stages.
func (s Stage) Valid() bool {
	return s >= StageIdeation && s <= StageGrowth
}

// Project is an approved team working through the program. The project
// row doubles as its credential record (profile name + password hash),
// surfaced through the credential store as the "project" role.
type Project struct {
	ID          int64
	ProfileName string
	TeamName    string
	Email       string
	Summary     string
	Stage       Stage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Mentor is an admin-created mentor account. Mentors attach themselves to
// projects and exchange comments and ratings with teams.
type Mentor struct {
	ID        int64
	Email     string
	Name      string
	Expertise string
	CreatedAt time.Time
}

// MentorAssignment links a mentor to a project.
type MentorAssignment struct {
	MentorID   int64
	ProjectID  int64
	AssignedAt time.Time
}
