package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/tfournier/catalyst/internal/auth"
	"github.com/tfournier/catalyst/internal/handlers"
	"github.com/tfournier/catalyst/internal/middleware"
	"github.com/tfournier/catalyst/internal/models"
	pkghttp "github.com/tfournier/catalyst/pkg/http"
	pkglogger "github.com/tfournier/catalyst/pkg/logger"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	applicationHandler *handlers.ApplicationHandler,
	projectHandler *handlers.ProjectHandler,
	mentorHandler *handlers.MentorHandler,
	feedbackHandler *handlers.FeedbackHandler,
	notificationHandler *handlers.NotificationHandler,
	sessionStore *auth.SessionStore,
	csrfManager *auth.CSRFManager,
	cookieConfig auth.CookieConfig,
	ipConfig *pkghttp.IPConfig,
	audit *pkglogger.AuditLogger,
) {
	loginLimit := middleware.DefaultLoginRateLimit()
	publicLimit := middleware.DefaultPublicRateLimit()

	// Public routes - no session required
	router.With(middleware.RateLimitByIP(publicLimit, ipConfig)).Post("/applications", applicationHandler.Submit)
	router.With(middleware.RateLimitByIP(loginLimit, ipConfig)).Post("/auth/{role}/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(loginLimit, ipConfig)).Post("/auth/reset/confirm", authHandler.ConfirmReset)

	// Logout always answers 204, session or not, so it sits outside the
	// session group. The handler checks the CSRF token itself when there
	// is a live session to destroy.
	router.Post("/auth/logout", authHandler.Logout)

	// Protected routes - session required. CSRF verification is mounted
	// before the session middleware so a request that triggers an ID
	// rotation is still checked against the session state it was sent with.
	router.Group(func(r chi.Router) {
		r.Use(middleware.CSRFProtection(csrfManager, ipConfig, audit))
		r.Use(auth.RequireSession(sessionStore, cookieConfig, sessionStore.Config().AbsoluteLifetime))

		// Any authenticated role
		r.Get("/auth/session", authHandler.Session)

		r.Get("/projects", projectHandler.List)
		r.Get("/projects/{id}", projectHandler.Get)
		r.Get("/projects/{id}/mentors", projectHandler.ListMentors)
		r.Get("/projects/{id}/comments", feedbackHandler.ListComments)
		r.Post("/projects/{id}/comments", feedbackHandler.PostComment)
		r.Get("/projects/{id}/ratings", feedbackHandler.ListRatings)

		r.Get("/mentors", mentorHandler.List)
		r.Get("/mentors/{id}", mentorHandler.Get)

		r.Get("/notifications", notificationHandler.List)
		r.Post("/notifications/{id}/read", notificationHandler.MarkRead)

		// Mentor-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleMentor))
			r.Post("/projects/{id}/ratings", feedbackHandler.RateProject)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))

			r.Get("/applications", applicationHandler.List)
			r.Get("/applications/{id}", applicationHandler.Get)
			r.Post("/applications/{id}/approve", applicationHandler.Approve)
			r.Post("/applications/{id}/reject", applicationHandler.Reject)

			r.Post("/projects/{id}/advance", projectHandler.AdvanceStage)
			r.Post("/projects/{id}/revert", projectHandler.RevertStage)
			r.Post("/projects/{id}/mentors/{mentorID}", projectHandler.AssignMentor)
			r.Delete("/projects/{id}/mentors/{mentorID}", projectHandler.UnassignMentor)

			r.Post("/mentors", mentorHandler.Create)

			r.Post("/auth/reset/issue", authHandler.IssueReset)
			r.Delete("/comments/{id}", feedbackHandler.DeleteComment)
		})
	})
}
