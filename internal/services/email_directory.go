package services

import (
	"context"

	"github.com/tfournier/catalyst/internal/models"
)

// MentorFetcher is the mentor lookup needed by the email directory
type MentorFetcher interface {
	GetByID(ctx context.Context, id int64) (*models.Mentor, error)
}

// ProjectFetcher is the project lookup needed by the email directory
type ProjectFetcher interface {
	GetByID(ctx context.Context, id int64) (*models.Project, error)
}

// RepoEmailDirectory resolves identity mail addresses from the role
// tables. Admin accounts log in by username and have no mail address;
// resets for them go through operator bootstrap instead.
type RepoEmailDirectory struct {
	mentors  MentorFetcher
	projects ProjectFetcher
}

// NewRepoEmailDirectory creates a new RepoEmailDirectory
func NewRepoEmailDirectory(mentors MentorFetcher, projects ProjectFetcher) *RepoEmailDirectory {
	return &RepoEmailDirectory{
		mentors:  mentors,
		projects: projects,
	}
}

// EmailFor returns the mail address behind an identity
func (d *RepoEmailDirectory) EmailFor(ctx context.Context, role models.Role, id int64) (string, error) {
	switch role {
	case models.RoleMentor:
		mentor, err := d.mentors.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return mentor.Email, nil
	case models.RoleProject:
		project, err := d.projects.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return project.Email, nil
	}
	return "", models.ErrBadRequest
}
