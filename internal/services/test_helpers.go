package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tfournier/catalyst/internal/models"
)

// MockCredentialStore implements CredentialStore for testing
type MockCredentialStore struct {
	FetchFunc     func(ctx context.Context, role models.Role, identifier string) (*models.Identity, error)
	FetchByIDFunc func(ctx context.Context, role models.Role, id int64) (*models.Identity, error)
	TouchFunc     func(ctx context.Context, role models.Role, id int64, patch models.IdentityPatch) error
}

func (m *MockCredentialStore) Fetch(ctx context.Context, role models.Role, identifier string) (*models.Identity, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, role, identifier)
	}
	return nil, models.ErrNotFound
}

func (m *MockCredentialStore) FetchByID(ctx context.Context, role models.Role, id int64) (*models.Identity, error) {
	if m.FetchByIDFunc != nil {
		return m.FetchByIDFunc(ctx, role, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockCredentialStore) Touch(ctx context.Context, role models.Role, id int64, patch models.IdentityPatch) error {
	if m.TouchFunc != nil {
		return m.TouchFunc(ctx, role, id, patch)
	}
	return nil
}

// MockAttemptRepository implements AttemptRepository for testing
type MockAttemptRepository struct {
	RecordAttemptFunc        func(ctx context.Context, attempt *models.LoginAttempt) error
	CountAddressFailuresFunc func(ctx context.Context, sourceAddress string, since time.Time) (int, error)
	LatestAddressFailureFunc func(ctx context.Context, sourceAddress string, since time.Time) (*time.Time, error)
}

func (m *MockAttemptRepository) RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	if m.RecordAttemptFunc != nil {
		return m.RecordAttemptFunc(ctx, attempt)
	}
	return nil
}

func (m *MockAttemptRepository) CountAddressFailures(ctx context.Context, sourceAddress string, since time.Time) (int, error) {
	if m.CountAddressFailuresFunc != nil {
		return m.CountAddressFailuresFunc(ctx, sourceAddress, since)
	}
	return 0, nil
}

func (m *MockAttemptRepository) LatestAddressFailure(ctx context.Context, sourceAddress string, since time.Time) (*time.Time, error) {
	if m.LatestAddressFailureFunc != nil {
		return m.LatestAddressFailureFunc(ctx, sourceAddress, since)
	}
	return nil, nil
}

// MockFailureRecorder implements FailureRecorder for testing
type MockFailureRecorder struct {
	RecordFailureFunc func(ctx context.Context, role models.Role, id int64, threshold int, window, lockout time.Duration) (int, *time.Time, error)
	ResetFailuresFunc func(ctx context.Context, role models.Role, id int64) error
}

func (m *MockFailureRecorder) RecordFailure(ctx context.Context, role models.Role, id int64, threshold int, window, lockout time.Duration) (int, *time.Time, error) {
	if m.RecordFailureFunc != nil {
		return m.RecordFailureFunc(ctx, role, id, threshold, window, lockout)
	}
	return 1, nil, nil
}

func (m *MockFailureRecorder) ResetFailures(ctx context.Context, role models.Role, id int64) error {
	if m.ResetFailuresFunc != nil {
		return m.ResetFailuresFunc(ctx, role, id)
	}
	return nil
}

// MockTxRunner implements TxRunner for testing; the callback runs with
// a nil transaction.
type MockTxRunner struct {
	WithTransactionFunc func(ctx context.Context, fn func(pgx.Tx) error) error
}

func (m *MockTxRunner) WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(nil)
}

// MockApplicationRepository implements ApplicationRepository for testing
type MockApplicationRepository struct {
	CreateFunc       func(ctx context.Context, app *models.Application) (*models.Application, error)
	GetByIDFunc      func(ctx context.Context, id string) (*models.Application, error)
	ListByStatusFunc func(ctx context.Context, status string, limit, offset int) ([]*models.Application, error)
	DecideFunc       func(ctx context.Context, tx pgx.Tx, id string, status string, adminID int64, rejectNote *string, projectID *int64) error
}

func (m *MockApplicationRepository) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, app)
	}
	return app, nil
}

func (m *MockApplicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockApplicationRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.Application, error) {
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(ctx, status, limit, offset)
	}
	return []*models.Application{}, nil
}

func (m *MockApplicationRepository) Decide(ctx context.Context, tx pgx.Tx, id string, status string, adminID int64, rejectNote *string, projectID *int64) error {
	if m.DecideFunc != nil {
		return m.DecideFunc(ctx, tx, id, status, adminID, rejectNote, projectID)
	}
	return nil
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendResetLinkEmailFunc           func(ctx context.Context, email, token string, expiresAt time.Time) error
	SendApplicationApprovedEmailFunc func(ctx context.Context, email, teamName, profileName, resetToken string) error
	SendApplicationRejectedEmailFunc func(ctx context.Context, email, teamName, note string) error
	SendStageChangedEmailFunc        func(ctx context.Context, email, teamName, fromStage, toStage string) error
}

func (m *MockEmailService) SendResetLinkEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	if m.SendResetLinkEmailFunc != nil {
		return m.SendResetLinkEmailFunc(ctx, email, token, expiresAt)
	}
	return nil
}

func (m *MockEmailService) SendApplicationApprovedEmail(ctx context.Context, email, teamName, profileName, resetToken string) error {
	if m.SendApplicationApprovedEmailFunc != nil {
		return m.SendApplicationApprovedEmailFunc(ctx, email, teamName, profileName, resetToken)
	}
	return nil
}

func (m *MockEmailService) SendApplicationRejectedEmail(ctx context.Context, email, teamName, note string) error {
	if m.SendApplicationRejectedEmailFunc != nil {
		return m.SendApplicationRejectedEmailFunc(ctx, email, teamName, note)
	}
	return nil
}

func (m *MockEmailService) SendStageChangedEmail(ctx context.Context, email, teamName, fromStage, toStage string) error {
	if m.SendStageChangedEmailFunc != nil {
		return m.SendStageChangedEmailFunc(ctx, email, teamName, fromStage, toStage)
	}
	return nil
}

// MockEmailDirectory implements EmailDirectory for testing
type MockEmailDirectory struct {
	EmailForFunc func(ctx context.Context, role models.Role, id int64) (string, error)
}

func (m *MockEmailDirectory) EmailFor(ctx context.Context, role models.Role, id int64) (string, error) {
	if m.EmailForFunc != nil {
		return m.EmailForFunc(ctx, role, id)
	}
	return "team@example.com", nil
}

// MockProjectRepository implements ProjectRepository, AssignmentChecker
// and ProjectCreator for testing
type MockProjectRepository struct {
	CreateTxFunc         func(ctx context.Context, tx pgx.Tx, project *models.Project, passwordHash string) (*models.Project, error)
	GetByIDFunc          func(ctx context.Context, id int64) (*models.Project, error)
	ListFunc             func(ctx context.Context, limit, offset int) ([]*models.Project, error)
	SetStageFunc         func(ctx context.Context, id int64, target models.Stage) (*models.Project, error)
	AssignMentorFunc     func(ctx context.Context, mentorID, projectID int64) error
	UnassignMentorFunc   func(ctx context.Context, mentorID, projectID int64) error
	IsMentorAssignedFunc func(ctx context.Context, mentorID, projectID int64) (bool, error)
	ListByMentorFunc     func(ctx context.Context, mentorID int64) ([]*models.Project, error)
	ListMentorsFunc      func(ctx context.Context, projectID int64) ([]*models.Mentor, error)
}

func (m *MockProjectRepository) CreateTx(ctx context.Context, tx pgx.Tx, project *models.Project, passwordHash string) (*models.Project, error) {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, project, passwordHash)
	}
	return nil, models.ErrInternalServer
}

func (m *MockProjectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockProjectRepository) List(ctx context.Context, limit, offset int) ([]*models.Project, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.Project{}, nil
}

func (m *MockProjectRepository) SetStage(ctx context.Context, id int64, target models.Stage) (*models.Project, error) {
	if m.SetStageFunc != nil {
		return m.SetStageFunc(ctx, id, target)
	}
	return nil, models.ErrConflict
}

func (m *MockProjectRepository) AssignMentor(ctx context.Context, mentorID, projectID int64) error {
	if m.AssignMentorFunc != nil {
		return m.AssignMentorFunc(ctx, mentorID, projectID)
	}
	return nil
}

func (m *MockProjectRepository) UnassignMentor(ctx context.Context, mentorID, projectID int64) error {
	if m.UnassignMentorFunc != nil {
		return m.UnassignMentorFunc(ctx, mentorID, projectID)
	}
	return nil
}

func (m *MockProjectRepository) IsMentorAssigned(ctx context.Context, mentorID, projectID int64) (bool, error) {
	if m.IsMentorAssignedFunc != nil {
		return m.IsMentorAssignedFunc(ctx, mentorID, projectID)
	}
	return false, nil
}

func (m *MockProjectRepository) ListByMentor(ctx context.Context, mentorID int64) ([]*models.Project, error) {
	if m.ListByMentorFunc != nil {
		return m.ListByMentorFunc(ctx, mentorID)
	}
	return []*models.Project{}, nil
}

func (m *MockProjectRepository) ListMentors(ctx context.Context, projectID int64) ([]*models.Mentor, error) {
	if m.ListMentorsFunc != nil {
		return m.ListMentorsFunc(ctx, projectID)
	}
	return []*models.Mentor{}, nil
}

// MockMentorRepository implements MentorRepository for testing
type MockMentorRepository struct {
	CreateFunc  func(ctx context.Context, mentor *models.Mentor, passwordHash string) (*models.Mentor, error)
	GetByIDFunc func(ctx context.Context, id int64) (*models.Mentor, error)
	ListFunc    func(ctx context.Context, limit, offset int) ([]*models.Mentor, error)
}

func (m *MockMentorRepository) Create(ctx context.Context, mentor *models.Mentor, passwordHash string) (*models.Mentor, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, mentor, passwordHash)
	}
	return nil, models.ErrInternalServer
}

func (m *MockMentorRepository) GetByID(ctx context.Context, id int64) (*models.Mentor, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockMentorRepository) List(ctx context.Context, limit, offset int) ([]*models.Mentor, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.Mentor{}, nil
}

// MockFeedbackRepository implements FeedbackRepository for testing
type MockFeedbackRepository struct {
	CreateCommentFunc func(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	ListCommentsFunc  func(ctx context.Context, projectID int64, limit, offset int) ([]*models.Comment, error)
	DeleteCommentFunc func(ctx context.Context, id string) error
	UpsertRatingFunc  func(ctx context.Context, rating *models.Rating) (*models.Rating, error)
	ListRatingsFunc   func(ctx context.Context, projectID int64) ([]*models.Rating, error)
}

func (m *MockFeedbackRepository) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	if m.CreateCommentFunc != nil {
		return m.CreateCommentFunc(ctx, comment)
	}
	return comment, nil
}

func (m *MockFeedbackRepository) ListComments(ctx context.Context, projectID int64, limit, offset int) ([]*models.Comment, error) {
	if m.ListCommentsFunc != nil {
		return m.ListCommentsFunc(ctx, projectID, limit, offset)
	}
	return []*models.Comment{}, nil
}

func (m *MockFeedbackRepository) DeleteComment(ctx context.Context, id string) error {
	if m.DeleteCommentFunc != nil {
		return m.DeleteCommentFunc(ctx, id)
	}
	return nil
}

func (m *MockFeedbackRepository) UpsertRating(ctx context.Context, rating *models.Rating) (*models.Rating, error) {
	if m.UpsertRatingFunc != nil {
		return m.UpsertRatingFunc(ctx, rating)
	}
	return rating, nil
}

func (m *MockFeedbackRepository) ListRatings(ctx context.Context, projectID int64) ([]*models.Rating, error) {
	if m.ListRatingsFunc != nil {
		return m.ListRatingsFunc(ctx, projectID)
	}
	return []*models.Rating{}, nil
}

// MockNotificationRepository implements NotificationRepository for testing
type MockNotificationRepository struct {
	CreateFunc           func(ctx context.Context, n *models.Notification) (*models.Notification, error)
	ListForRecipientFunc func(ctx context.Context, role models.Role, recipientID int64, limit, offset int) ([]*models.Notification, error)
	MarkReadFunc         func(ctx context.Context, id string, role models.Role, recipientID int64) error
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, n)
	}
	return n, nil
}

func (m *MockNotificationRepository) ListForRecipient(ctx context.Context, role models.Role, recipientID int64, limit, offset int) ([]*models.Notification, error) {
	if m.ListForRecipientFunc != nil {
		return m.ListForRecipientFunc(ctx, role, recipientID, limit, offset)
	}
	return []*models.Notification{}, nil
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id string, role models.Role, recipientID int64) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, id, role, recipientID)
	}
	return nil
}
