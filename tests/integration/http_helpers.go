package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tfournier/catalyst/internal/auth"
	"github.com/tfournier/catalyst/internal/database"
	"github.com/tfournier/catalyst/internal/handlers"
	middlewareCustom "github.com/tfournier/catalyst/internal/middleware"
	"github.com/tfournier/catalyst/internal/repositories"
	"github.com/tfournier/catalyst/internal/routes"
	"github.com/tfournier/catalyst/internal/services"
	pkghttp "github.com/tfournier/catalyst/pkg/http"
	pkglogger "github.com/tfournier/catalyst/pkg/logger"
)

// SentEmail represents a captured email message
type SentEmail struct {
	To    string
	Kind  string
	Token string
	Note  string
}

// CapturingEmailService records sent emails for test assertions
type CapturingEmailService struct {
	mu         sync.Mutex
	SentEmails []SentEmail
}

func (m *CapturingEmailService) SendResetLinkEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	m.record(SentEmail{To: email, Kind: "reset", Token: token})
	return nil
}

func (m *CapturingEmailService) SendApplicationApprovedEmail(ctx context.Context, email, teamName, profileName, resetToken string) error {
	m.record(SentEmail{To: email, Kind: "approved", Token: resetToken, Note: profileName})
	return nil
}

func (m *CapturingEmailService) SendApplicationRejectedEmail(ctx context.Context, email, teamName, note string) error {
	m.record(SentEmail{To: email, Kind: "rejected", Note: note})
	return nil
}

func (m *CapturingEmailService) SendStageChangedEmail(ctx context.Context, email, teamName, fromStage, toStage string) error {
	m.record(SentEmail{To: email, Kind: "stage", Note: toStage})
	return nil
}

func (m *CapturingEmailService) record(email SentEmail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentEmails = append(m.SentEmails, email)
}

// LastEmail returns the most recent email sent, or nil
func (m *CapturingEmailService) LastEmail() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.SentEmails) == 0 {
		return nil
	}
	email := m.SentEmails[len(m.SentEmails)-1]
	return &email
}

// TestServer bundles the wired application with its captured collaborators
type TestServer struct {
	Router       chi.Router
	Emails       *CapturingEmailService
	SessionStore *auth.SessionStore
}

// NewTestServer wires repositories, services, handlers, and routes against
// the given database, with a capturing email service and no timing delay.
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	audit := pkglogger.NewAuditLogger(logger)

	identityRepo := repositories.NewIdentityRepository(db)
	loginAttemptRepo := repositories.NewLoginAttemptRepository(db)
	applicationRepo := repositories.NewApplicationRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	mentorRepo := repositories.NewMentorRepository(db)
	feedbackRepo := repositories.NewFeedbackRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	sessionStore := auth.NewSessionStore(auth.DefaultSessionConfig())
	csrfManager := auth.NewCSRFManager(sessionStore)
	resetTokens := auth.NewResetTokenManager("integration-test-secret-0123456789", 15*time.Minute)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{})
	ipConfig := &pkghttp.IPConfig{}
	cookieConfig := auth.CookieConfig{SameSite: "lax"}

	emails := &CapturingEmailService{}

	lockoutService := services.NewLockoutService(loginAttemptRepo, identityRepo, services.DefaultLockoutConfig(), logger)
	authService := services.NewAuthService(identityRepo, lockoutService, sessionStore, csrfManager, timingDelay, logger, audit)
	emailDirectory := services.NewRepoEmailDirectory(mentorRepo, projectRepo)
	resetService := services.NewPasswordResetService(identityRepo, resetTokens, emailDirectory, emails, 15*time.Minute, logger, audit)
	notificationService := services.NewNotificationService(notificationRepo, logger)
	applicationService := services.NewApplicationService(applicationRepo, projectRepo, db, resetTokens, emails, logger, audit)
	projectService := services.NewProjectService(projectRepo, notificationService, emails, logger, audit)
	mentorService := services.NewMentorService(mentorRepo, resetTokens, emails, 15*time.Minute, logger, audit)
	feedbackService := services.NewFeedbackService(feedbackRepo, projectRepo, notificationService, logger)

	authHandler := handlers.NewAuthHandler(authService, resetService, ipConfig, cookieConfig)
	applicationHandler := handlers.NewApplicationHandler(applicationService)
	projectHandler := handlers.NewProjectHandler(projectService)
	mentorHandler := handlers.NewMentorHandler(mentorService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(middlewareCustom.SecureLogger(logger))

	routes.RegisterRoutes(router,
		authHandler, applicationHandler, projectHandler, mentorHandler, feedbackHandler, notificationHandler,
		sessionStore, csrfManager, cookieConfig, ipConfig, audit)

	return &TestServer{
		Router:       router,
		Emails:       emails,
		SessionStore: sessionStore,
	}
}

// DoJSON performs a request with an optional JSON body and returns the recorder
func (ts *TestServer) DoJSON(method, path string, body interface{}, configure func(*http.Request)) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			panic(fmt.Sprintf("marshal request body: %v", err))
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.10:40000"
	if configure != nil {
		configure(req)
	}

	rec := httptest.NewRecorder()
	ts.Router.ServeHTTP(rec, req)
	return rec
}

// Login authenticates and returns the session cookie and CSRF token
func (ts *TestServer) Login(role, identifier, password string) (*http.Cookie, string, error) {
	rec := ts.DoJSON(http.MethodPost, "/auth/"+role+"/login", map[string]string{
		"identifier": identifier,
		"password":   password,
	}, nil)
	if rec.Code != http.StatusOK {
		return nil, "", fmt.Errorf("login returned %d: %s", rec.Code, rec.Body.String())
	}

	var sessionCookie *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == auth.SessionCookieName {
			sessionCookie = cookie
		}
	}
	if sessionCookie == nil {
		return nil, "", fmt.Errorf("login set no session cookie")
	}

	var body struct {
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(&body); err != nil {
		return nil, "", fmt.Errorf("decode login response: %w", err)
	}

	return sessionCookie, body.CSRFToken, nil
}

// Authenticate returns a request configurer that attaches the session
// cookie and CSRF token
func Authenticate(cookie *http.Cookie, csrfToken string) func(*http.Request) {
	return func(req *http.Request) {
		req.AddCookie(cookie)
		req.Header.Set(middlewareCustom.CSRFHeader, csrfToken)
	}
}
