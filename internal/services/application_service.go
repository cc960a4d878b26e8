package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tfournier/catalyst/internal/auth"
	"github.com/tfournier/catalyst/internal/models"
	pkgauth "github.com/tfournier/catalyst/pkg/auth"
	pkglogger "github.com/tfournier/catalyst/pkg/logger"
)

// ApplicationRepository defines the application store operations
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) (*models.Application, error)
	GetByID(ctx context.Context, id string) (*models.Application, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.Application, error)
	Decide(ctx context.Context, tx pgx.Tx, id string, status string, adminID int64, rejectNote *string, projectID *int64) error
}

// ProjectCreator is the project provisioning needed on approval
type ProjectCreator interface {
	CreateTx(ctx context.Context, tx pgx.Tx, project *models.Project, passwordHash string) (*models.Project, error)
}

// TxRunner runs a function inside one database transaction
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error
}

// ApplicationService handles the program intake: public submissions and
// admin decisions. Approving an application provisions the project's
// login in the same transaction as the status flip, so a crash can
// never leave an approved application without an account or vice versa.
type ApplicationService struct {
	applications ApplicationRepository
	projects     ProjectCreator
	db           TxRunner
	tokens       *auth.ResetTokenManager
	email        EmailService
	logger       *slog.Logger
	audit        *pkglogger.AuditLogger
}

// NewApplicationService creates a new ApplicationService
func NewApplicationService(applications ApplicationRepository, projects ProjectCreator, db TxRunner, tokens *auth.ResetTokenManager, email EmailService, logger *slog.Logger, audit *pkglogger.AuditLogger) *ApplicationService {
	return &ApplicationService{
		applications: applications,
		projects:     projects,
		db:           db,
		tokens:       tokens,
		email:        email,
		logger:       logger,
		audit:        audit,
	}
}

// Submit records a new pending application from the public form
func (s *ApplicationService) Submit(ctx context.Context, teamName, email, summary string) (*models.Application, error) {
	app := &models.Application{
		TeamName: strings.TrimSpace(teamName),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Summary:  strings.TrimSpace(summary),
		Status:   models.ApplicationPending,
	}

	created, err := s.applications.Create(ctx, app)
	if err != nil {
		return nil, err
	}

	s.logger.Info("application submitted", slog.String("application_id", created.ID))
	return created, nil
}

// Get returns a single application
func (s *ApplicationService) Get(ctx context.Context, id string) (*models.Application, error) {
	return s.applications.GetByID(ctx, id)
}

// ListByStatus returns applications in one status, oldest first so
// reviewers work the queue in submission order.
func (s *ApplicationService) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.Application, error) {
	switch status {
	case models.ApplicationPending, models.ApplicationApproved, models.ApplicationRejected:
	default:
		return nil, models.ErrBadRequest
	}
	return s.applications.ListByStatus(ctx, status, limit, offset)
}

// Approve turns a pending application into a live project account. The
// account starts with an unusable random password; the team receives a
// one-time link to set their own. A decision already made by another
// admin surfaces as a conflict.
func (s *ApplicationService) Approve(ctx context.Context, applicationID string, adminID int64) (*models.Project, error) {
	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if app.Status != models.ApplicationPending {
		return nil, models.ErrConflict
	}

	placeholder, err := unusablePasswordHash()
	if err != nil {
		s.logger.Error("failed to generate placeholder password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	var project *models.Project
	err = s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		project, err = s.projects.CreateTx(ctx, tx, &models.Project{
			ProfileName: profileNameFor(app.TeamName),
			TeamName:    app.TeamName,
			Email:       app.Email,
			Summary:     app.Summary,
		}, placeholder)
		if err != nil {
			return err
		}

		return s.applications.Decide(ctx, tx, applicationID, models.ApplicationApproved, adminID, nil, &project.ID)
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(models.RoleProject, project.ID)
	if err != nil {
		s.logger.Error("failed to generate setup token", slog.Any("error", err))
	} else if err := s.email.SendApplicationApprovedEmail(ctx, app.Email, app.TeamName, project.ProfileName, token); err != nil {
		// The decision stands; an admin can re-issue the link.
		s.logger.Error("failed to send approval email",
			slog.String("application_id", applicationID),
			slog.Any("error", err))
	}

	s.audit.LogAccountAction("application_approved", string(models.RoleAdmin), adminID, map[string]string{
		"application_id": applicationID,
		"profile_name":   project.ProfileName,
	})

	return project, nil
}

// Reject declines a pending application with an optional reviewer note
func (s *ApplicationService) Reject(ctx context.Context, applicationID string, adminID int64, note string) error {
	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}

	if app.Status != models.ApplicationPending {
		return models.ErrConflict
	}

	var rejectNote *string
	if note = strings.TrimSpace(note); note != "" {
		rejectNote = &note
	}

	err = s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return s.applications.Decide(ctx, tx, applicationID, models.ApplicationRejected, adminID, rejectNote, nil)
	})
	if err != nil {
		return err
	}

	if err := s.email.SendApplicationRejectedEmail(ctx, app.Email, app.TeamName, note); err != nil {
		s.logger.Error("failed to send rejection email",
			slog.String("application_id", applicationID),
			slog.Any("error", err))
	}

	s.audit.LogAccountAction("application_rejected", string(models.RoleAdmin), adminID, map[string]string{
		"application_id": applicationID,
	})

	return nil
}

var profileNameSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// profileNameFor derives the login identifier from the team name. A
// random suffix keeps identical team names from colliding.
func profileNameFor(teamName string) string {
	base := profileNameSanitizer.ReplaceAllString(strings.ToLower(teamName), "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = "project"
	}
	if len(base) > 40 {
		base = base[:40]
	}

	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("%s-%s", base, hex.EncodeToString(suffix))
}

// unusablePasswordHash returns the hash of a password nobody knows.
// The account cannot be logged into until the team redeems their setup
// link and picks a real one.
func unusablePasswordHash() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return pkgauth.HashPassword(hex.EncodeToString(raw))
}
