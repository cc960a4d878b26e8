package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tfournier/catalyst/internal/auth"
	"github.com/tfournier/catalyst/internal/models"
	pkglogger "github.com/tfournier/catalyst/pkg/logger"
)

// MentorRepository defines the mentor store operations
type MentorRepository interface {
	Create(ctx context.Context, mentor *models.Mentor, passwordHash string) (*models.Mentor, error)
	GetByID(ctx context.Context, id int64) (*models.Mentor, error)
	List(ctx context.Context, limit, offset int) ([]*models.Mentor, error)
}

// MentorService handles mentor account provisioning. Accounts are
// created by admins with an unusable password and a one-time setup
// link; the mentor picks their own password before first login.
type MentorService struct {
	mentors MentorRepository
	tokens  *auth.ResetTokenManager
	email   EmailService
	ttl     time.Duration
	logger  *slog.Logger
	audit   *pkglogger.AuditLogger
}

// NewMentorService creates a new MentorService
func NewMentorService(mentors MentorRepository, tokens *auth.ResetTokenManager, email EmailService, ttl time.Duration, logger *slog.Logger, audit *pkglogger.AuditLogger) *MentorService {
	return &MentorService{
		mentors: mentors,
		tokens:  tokens,
		email:   email,
		ttl:     ttl,
		logger:  logger,
		audit:   audit,
	}
}

// Create provisions a mentor account and mails the setup link
func (s *MentorService) Create(ctx context.Context, name, email, expertise string, adminID int64) (*models.Mentor, error) {
	placeholder, err := unusablePasswordHash()
	if err != nil {
		s.logger.Error("failed to generate placeholder password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	mentor, err := s.mentors.Create(ctx, &models.Mentor{
		Name:      strings.TrimSpace(name),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Expertise: strings.TrimSpace(expertise),
	}, placeholder)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(models.RoleMentor, mentor.ID)
	if err != nil {
		s.logger.Error("failed to generate setup token", slog.Any("error", err))
	} else if err := s.email.SendResetLinkEmail(ctx, mentor.Email, token, time.Now().Add(s.ttl)); err != nil {
		// The account exists; an admin can re-issue the link.
		s.logger.Error("failed to send mentor setup email",
			slog.Int64("mentor_id", mentor.ID),
			slog.Any("error", err))
	}

	s.audit.LogAccountAction("mentor_created", string(models.RoleAdmin), adminID, map[string]string{
		"email": pkglogger.SanitizedIdentifier(mentor.Email),
	})

	return mentor, nil
}

// Get returns a single mentor
func (s *MentorService) Get(ctx context.Context, id int64) (*models.Mentor, error) {
	return s.mentors.GetByID(ctx, id)
}

// List returns all mentors
func (s *MentorService) List(ctx context.Context, limit, offset int) ([]*models.Mentor, error) {
	return s.mentors.List(ctx, limit, offset)
}
