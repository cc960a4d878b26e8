package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tfournier/catalyst/internal/models"
)

// FeedbackRepository defines the comment and rating store operations
type FeedbackRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	ListComments(ctx context.Context, projectID int64, limit, offset int) ([]*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	UpsertRating(ctx context.Context, rating *models.Rating) (*models.Rating, error)
	ListRatings(ctx context.Context, projectID int64) ([]*models.Rating, error)
}

// AssignmentChecker reports whether a mentor is attached to a project
type AssignmentChecker interface {
	IsMentorAssigned(ctx context.Context, mentorID, projectID int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*models.Project, error)
}

const maxCommentLen = 4000

// FeedbackService handles comments and stage ratings. Mentors may only
// comment on and rate projects they are assigned to; a project team may
// comment on its own project; admins may comment anywhere.
type FeedbackService struct {
	feedback      FeedbackRepository
	projects      AssignmentChecker
	notifications *NotificationService
	logger        *slog.Logger
}

// NewFeedbackService creates a new FeedbackService
func NewFeedbackService(feedback FeedbackRepository, projects AssignmentChecker, notifications *NotificationService, logger *slog.Logger) *FeedbackService {
	return &FeedbackService{
		feedback:      feedback,
		projects:      projects,
		notifications: notifications,
		logger:        logger,
	}
}

// PostComment adds a comment to a project on behalf of the author
func (s *FeedbackService) PostComment(ctx context.Context, projectID int64, authorRole models.Role, authorID int64, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" || len(body) > maxCommentLen {
		return nil, models.ErrBadRequest
	}

	if err := s.checkProjectAccess(ctx, projectID, authorRole, authorID); err != nil {
		return nil, err
	}

	comment, err := s.feedback.CreateComment(ctx, &models.Comment{
		ProjectID:  projectID,
		AuthorRole: authorRole,
		AuthorID:   authorID,
		Body:       body,
	})
	if err != nil {
		return nil, err
	}

	if authorRole != models.RoleProject {
		s.notifications.Notify(ctx, models.RoleProject, projectID, models.NotifyCommentPosted,
			"New comment on your project")
	}

	return comment, nil
}

// ListComments returns a project's comments, newest first
func (s *FeedbackService) ListComments(ctx context.Context, projectID int64, viewerRole models.Role, viewerID int64, limit, offset int) ([]*models.Comment, error) {
	if err := s.checkProjectAccess(ctx, projectID, viewerRole, viewerID); err != nil {
		return nil, err
	}
	return s.feedback.ListComments(ctx, projectID, limit, offset)
}

// DeleteComment removes a comment, admin only
func (s *FeedbackService) DeleteComment(ctx context.Context, id string) error {
	return s.feedback.DeleteComment(ctx, id)
}

// RateProject records a mentor's score for the project's current stage.
// A second rating by the same mentor for the same stage replaces the
// first.
func (s *FeedbackService) RateProject(ctx context.Context, projectID, mentorID int64, score int, note string) (*models.Rating, error) {
	if score < 1 || score > 5 {
		return nil, models.ErrBadRequest
	}

	assigned, err := s.projects.IsMentorAssigned(ctx, mentorID, projectID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, models.ErrForbidden
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var notePtr *string
	if note = strings.TrimSpace(note); note != "" {
		notePtr = &note
	}

	rating, err := s.feedback.UpsertRating(ctx, &models.Rating{
		ProjectID: projectID,
		MentorID:  mentorID,
		Stage:     project.Stage,
		Score:     score,
		Note:      notePtr,
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Notify(ctx, models.RoleProject, projectID, models.NotifyRatingPosted,
		fmt.Sprintf("A mentor rated your %s stage", project.Stage))

	return rating, nil
}

// ListRatings returns all ratings for a project
func (s *FeedbackService) ListRatings(ctx context.Context, projectID int64, viewerRole models.Role, viewerID int64) ([]*models.Rating, error) {
	if err := s.checkProjectAccess(ctx, projectID, viewerRole, viewerID); err != nil {
		return nil, err
	}
	return s.feedback.ListRatings(ctx, projectID)
}

// checkProjectAccess enforces who may read or write a project's
// feedback: the project itself, an assigned mentor, or any admin.
func (s *FeedbackService) checkProjectAccess(ctx context.Context, projectID int64, role models.Role, actorID int64) error {
	switch role {
	case models.RoleAdmin:
		return nil
	case models.RoleProject:
		if actorID != projectID {
			return models.ErrForbidden
		}
		return nil
	case models.RoleMentor:
		assigned, err := s.projects.IsMentorAssigned(ctx, actorID, projectID)
		if err != nil {
			return err
		}
		if !assigned {
			return models.ErrForbidden
		}
		return nil
	}
	return models.ErrForbidden
}
