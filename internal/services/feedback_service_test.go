package services_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfournier/catalyst/internal/models"
	"github.com/tfournier/catalyst/internal/services"
)

func newFeedbackService(feedback services.FeedbackRepository, projects services.AssignmentChecker) *services.FeedbackService {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	notifier := services.NewNotificationService(&services.MockNotificationRepository{}, logger)
	return services.NewFeedbackService(feedback, projects, notifier, logger)
}

func assignedProjects(assigned bool) *services.MockProjectRepository {
	return &services.MockProjectRepository{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Project, error) {
			return &models.Project{ID: id, Stage: models.StagePrototype}, nil
		},
		IsMentorAssignedFunc: func(ctx context.Context, mentorID, projectID int64) (bool, error) {
			return assigned, nil
		},
	}
}

func TestPostCommentAsAssignedMentor(t *testing.T) {
	service := newFeedbackService(&services.MockFeedbackRepository{}, assignedProjects(true))

	comment, err := service.PostComment(context.Background(), 7, models.RoleMentor, 3, " looks promising ")
	require.NoError(t, err)
	assert.Equal(t, "looks promising", comment.Body)
	assert.Equal(t, models.RoleMentor, comment.AuthorRole)
}

func TestPostCommentAsUnassignedMentor(t *testing.T) {
	service := newFeedbackService(&services.MockFeedbackRepository{}, assignedProjects(false))

	_, err := service.PostComment(context.Background(), 7, models.RoleMentor, 3, "drive-by feedback")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestPostCommentOnAnotherTeamsProject(t *testing.T) {
	service := newFeedbackService(&services.MockFeedbackRepository{}, assignedProjects(true))

	_, err := service.PostComment(context.Background(), 7, models.RoleProject, 8, "hello neighbours")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestPostCommentAdminAnywhere(t *testing.T) {
	service := newFeedbackService(&services.MockFeedbackRepository{}, assignedProjects(false))

	_, err := service.PostComment(context.Background(), 7, models.RoleAdmin, 1, "keep going")
	assert.NoError(t, err)
}

func TestPostCommentEmptyBody(t *testing.T) {
	service := newFeedbackService(&services.MockFeedbackRepository{}, assignedProjects(true))

	_, err := service.PostComment(context.Background(), 7, models.RoleAdmin, 1, "   ")
	assert.ErrorIs(t, err, models.ErrBadRequest)

	_, err = service.PostComment(context.Background(), 7, models.RoleAdmin, 1, strings.Repeat("x", 4001))
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestRateProjectUsesCurrentStage(t *testing.T) {
	var upserted *models.Rating
	feedback := &services.MockFeedbackRepository{
		UpsertRatingFunc: func(ctx context.Context, rating *models.Rating) (*models.Rating, error) {
			upserted = rating
			return rating, nil
		},
	}

	service := newFeedbackService(feedback, assignedProjects(true))

	rating, err := service.RateProject(context.Background(), 7, 3, 4, "solid prototype")
	require.NoError(t, err)
	assert.Equal(t, models.StagePrototype, upserted.Stage)
	assert.Equal(t, 4, rating.Score)
	require.NotNil(t, rating.Note)
	assert.Equal(t, "solid prototype", *rating.Note)
}

func TestRateProjectScoreBounds(t *testing.T) {
	service := newFeedbackService(&services.MockFeedbackRepository{}, assignedProjects(true))

	_, err := service.RateProject(context.Background(), 7, 3, 0, "")
	assert.ErrorIs(t, err, models.ErrBadRequest)

	_, err = service.RateProject(context.Background(), 7, 3, 6, "")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestRateProjectRequiresAssignment(t *testing.T) {
	service := newFeedbackService(&services.MockFeedbackRepository{}, assignedProjects(false))

	_, err := service.RateProject(context.Background(), 7, 3, 4, "")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestListCommentsScopedToViewer(t *testing.T) {
	service := newFeedbackService(&services.MockFeedbackRepository{}, assignedProjects(false))

	_, err := service.ListComments(context.Background(), 7, models.RoleMentor, 3, 20, 0)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = service.ListComments(context.Background(), 7, models.RoleProject, 7, 20, 0)
	assert.NoError(t, err)
}
