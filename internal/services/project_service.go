package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tfournier/catalyst/internal/models"
	pkglogger "github.com/tfournier/catalyst/pkg/logger"
)

// ProjectRepository defines the project store operations
type ProjectRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	List(ctx context.Context, limit, offset int) ([]*models.Project, error)
	SetStage(ctx context.Context, id int64, target models.Stage) (*models.Project, error)
	AssignMentor(ctx context.Context, mentorID, projectID int64) error
	UnassignMentor(ctx context.Context, mentorID, projectID int64) error
	IsMentorAssigned(ctx context.Context, mentorID, projectID int64) (bool, error)
	ListByMentor(ctx context.Context, mentorID int64) ([]*models.Project, error)
	ListMentors(ctx context.Context, projectID int64) ([]*models.Mentor, error)
}

// ProjectService handles project lifecycle: stage progression and
// mentor assignment. Stage moves are admin actions and go one step at a
// time, in either direction; the repository guard turns a racing or
// skipping move into a conflict.
type ProjectService struct {
	projects      ProjectRepository
	notifications *NotificationService
	email         EmailService
	logger        *slog.Logger
	audit         *pkglogger.AuditLogger
}

// NewProjectService creates a new ProjectService
func NewProjectService(projects ProjectRepository, notifications *NotificationService, email EmailService, logger *slog.Logger, audit *pkglogger.AuditLogger) *ProjectService {
	return &ProjectService{
		projects:      projects,
		notifications: notifications,
		email:         email,
		logger:        logger,
		audit:         audit,
	}
}

// Get returns a single project
func (s *ProjectService) Get(ctx context.Context, id int64) (*models.Project, error) {
	return s.projects.GetByID(ctx, id)
}

// List returns projects, newest first
func (s *ProjectService) List(ctx context.Context, limit, offset int) ([]*models.Project, error) {
	return s.projects.List(ctx, limit, offset)
}

// ListForMentor returns the projects a mentor is assigned to
func (s *ProjectService) ListForMentor(ctx context.Context, mentorID int64) ([]*models.Project, error) {
	return s.projects.ListByMentor(ctx, mentorID)
}

// ListMentors returns the mentors assigned to a project
func (s *ProjectService) ListMentors(ctx context.Context, projectID int64) ([]*models.Mentor, error) {
	return s.projects.ListMentors(ctx, projectID)
}

// AdvanceStage moves a project forward one stage
func (s *ProjectService) AdvanceStage(ctx context.Context, projectID, adminID int64) (*models.Project, error) {
	return s.moveStage(ctx, projectID, adminID, +1)
}

// RevertStage moves a project back one stage
func (s *ProjectService) RevertStage(ctx context.Context, projectID, adminID int64) (*models.Project, error) {
	return s.moveStage(ctx, projectID, adminID, -1)
}

func (s *ProjectService) moveStage(ctx context.Context, projectID, adminID int64, direction int) (*models.Project, error) {
	current, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	target := models.Stage(int(current.Stage) + direction)
	if !target.Valid() {
		return nil, models.ErrConflict
	}

	updated, err := s.projects.SetStage(ctx, projectID, target)
	if err != nil {
		return nil, err
	}

	s.audit.LogAccountAction("stage_changed", string(models.RoleAdmin), adminID, map[string]string{
		"project_id": fmt.Sprintf("%d", projectID),
		"from":       current.Stage.String(),
		"to":         updated.Stage.String(),
	})

	message := fmt.Sprintf("Your project moved from %s to %s", current.Stage, updated.Stage)
	s.notifications.Notify(ctx, models.RoleProject, projectID, models.NotifyStageChanged, message)
	s.notifyMentors(ctx, projectID, models.NotifyStageChanged,
		fmt.Sprintf("%s moved from %s to %s", updated.ProfileName, current.Stage, updated.Stage))

	// The move already happened; a failed mail is an inbox problem, not
	// a stage problem.
	if err := s.email.SendStageChangedEmail(ctx, updated.Email, updated.TeamName, current.Stage.String(), updated.Stage.String()); err != nil {
		s.logger.Error("failed to send stage change email",
			slog.Int64("project_id", projectID),
			slog.Any("error", err))
	}

	return updated, nil
}

// AssignMentor attaches a mentor to a project
func (s *ProjectService) AssignMentor(ctx context.Context, mentorID, projectID, adminID int64) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	if err := s.projects.AssignMentor(ctx, mentorID, projectID); err != nil {
		return err
	}

	s.audit.LogAccountAction("mentor_assigned", string(models.RoleAdmin), adminID, map[string]string{
		"mentor_id":  fmt.Sprintf("%d", mentorID),
		"project_id": fmt.Sprintf("%d", projectID),
	})

	s.notifications.Notify(ctx, models.RoleMentor, mentorID, models.NotifyMentorAssigned,
		fmt.Sprintf("You were assigned to %s", project.ProfileName))
	s.notifications.Notify(ctx, models.RoleProject, projectID, models.NotifyMentorAssigned,
		"A mentor was assigned to your project")

	return nil
}

// UnassignMentor detaches a mentor from a project
func (s *ProjectService) UnassignMentor(ctx context.Context, mentorID, projectID, adminID int64) error {
	if err := s.projects.UnassignMentor(ctx, mentorID, projectID); err != nil {
		return err
	}

	s.audit.LogAccountAction("mentor_unassigned", string(models.RoleAdmin), adminID, map[string]string{
		"mentor_id":  fmt.Sprintf("%d", mentorID),
		"project_id": fmt.Sprintf("%d", projectID),
	})

	return nil
}

func (s *ProjectService) notifyMentors(ctx context.Context, projectID int64, eventType, message string) {
	mentors, err := s.projects.ListMentors(ctx, projectID)
	if err != nil {
		s.logger.Error("failed to list mentors for notification",
			slog.Int64("project_id", projectID),
			slog.Any("error", err))
		return
	}

	for _, mentor := range mentors {
		s.notifications.Notify(ctx, models.RoleMentor, mentor.ID, eventType, message)
	}
}
