package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfournier/catalyst/internal/models"
	"github.com/tfournier/catalyst/internal/services"
	pkglogger "github.com/tfournier/catalyst/pkg/logger"
)

func newProjectService(projects services.ProjectRepository, notifications services.NotificationRepository) *services.ProjectService {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	audit := pkglogger.NewAuditLogger(logger)
	notifier := services.NewNotificationService(notifications, logger)
	return services.NewProjectService(projects, notifier, &services.MockEmailService{}, logger, audit)
}

func TestAdvanceStage(t *testing.T) {
	projects := &services.MockProjectRepository{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Project, error) {
			return &models.Project{ID: id, ProfileName: "solar-sailors", Stage: models.StagePrototype}, nil
		},
		SetStageFunc: func(ctx context.Context, id int64, target models.Stage) (*models.Project, error) {
			assert.Equal(t, models.StageValidation, target)
			return &models.Project{ID: id, ProfileName: "solar-sailors", Stage: target}, nil
		},
	}

	var notified []*models.Notification
	notifications := &services.MockNotificationRepository{
		CreateFunc: func(ctx context.Context, n *models.Notification) (*models.Notification, error) {
			notified = append(notified, n)
			return n, nil
		},
	}

	service := newProjectService(projects, notifications)

	updated, err := service.AdvanceStage(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StageValidation, updated.Stage)

	require.NotEmpty(t, notified)
	assert.Equal(t, models.RoleProject, notified[0].RecipientRole)
	assert.Equal(t, models.NotifyStageChanged, notified[0].EventType)
}

func TestAdvanceStagePastGrowth(t *testing.T) {
	projects := &services.MockProjectRepository{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Project, error) {
			return &models.Project{ID: id, Stage: models.StageGrowth}, nil
		},
	}

	service := newProjectService(projects, &services.MockNotificationRepository{})

	_, err := service.AdvanceStage(context.Background(), 7, 1)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestRevertStageBelowIdeation(t *testing.T) {
	projects := &services.MockProjectRepository{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Project, error) {
			return &models.Project{ID: id, Stage: models.StageIdeation}, nil
		},
	}

	service := newProjectService(projects, &services.MockNotificationRepository{})

	_, err := service.RevertStage(context.Background(), 7, 1)
	assert.ErrorIs(t, err, models.ErrConflict)
}

// A concurrent stage move surfaces as a conflict from the guarded
// update, not as a silent skip.
func TestAdvanceStageLostRace(t *testing.T) {
	projects := &services.MockProjectRepository{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Project, error) {
			return &models.Project{ID: id, Stage: models.StagePrototype}, nil
		},
		SetStageFunc: func(ctx context.Context, id int64, target models.Stage) (*models.Project, error) {
			return nil, models.ErrConflict
		},
	}

	service := newProjectService(projects, &services.MockNotificationRepository{})

	_, err := service.AdvanceStage(context.Background(), 7, 1)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestAssignMentorNotifiesBothSides(t *testing.T) {
	projects := &services.MockProjectRepository{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Project, error) {
			return &models.Project{ID: id, ProfileName: "solar-sailors"}, nil
		},
	}

	var recipients []models.Role
	notifications := &services.MockNotificationRepository{
		CreateFunc: func(ctx context.Context, n *models.Notification) (*models.Notification, error) {
			recipients = append(recipients, n.RecipientRole)
			return n, nil
		},
	}

	service := newProjectService(projects, notifications)

	require.NoError(t, service.AssignMentor(context.Background(), 3, 7, 1))
	assert.ElementsMatch(t, []models.Role{models.RoleMentor, models.RoleProject}, recipients)
}

func TestAssignMentorTwiceConflicts(t *testing.T) {
	projects := &services.MockProjectRepository{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Project, error) {
			return &models.Project{ID: id}, nil
		},
		AssignMentorFunc: func(ctx context.Context, mentorID, projectID int64) error {
			return models.ErrConflict
		},
	}

	service := newProjectService(projects, &services.MockNotificationRepository{})

	assert.ErrorIs(t, service.AssignMentor(context.Background(), 3, 7, 1), models.ErrConflict)
}

func TestUnassignMentorMissingAssignment(t *testing.T) {
	projects := &services.MockProjectRepository{
		UnassignMentorFunc: func(ctx context.Context, mentorID, projectID int64) error {
			return models.ErrNotFound
		},
	}

	service := newProjectService(projects, &services.MockNotificationRepository{})

	assert.ErrorIs(t, service.UnassignMentor(context.Background(), 3, 7, 1), models.ErrNotFound)
}
