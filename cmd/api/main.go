package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tfournier/catalyst/internal/auth"
	"github.com/tfournier/catalyst/internal/background"
	"github.com/tfournier/catalyst/internal/config"
	"github.com/tfournier/catalyst/internal/database"
	"github.com/tfournier/catalyst/internal/handlers"
	middlewareCustom "github.com/tfournier/catalyst/internal/middleware"
	"github.com/tfournier/catalyst/internal/models"
	"github.com/tfournier/catalyst/internal/repositories"
	"github.com/tfournier/catalyst/internal/routes"
	"github.com/tfournier/catalyst/internal/services"
	pkgauth "github.com/tfournier/catalyst/pkg/auth"
	pkghttp "github.com/tfournier/catalyst/pkg/http"
	pkglogger "github.com/tfournier/catalyst/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := db.Migrate(migrateCtx, "migrations"); err != nil {
		migrateCancel()
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	migrateCancel()

	// Initialize repositories
	identityRepo := repositories.NewIdentityRepository(db)
	loginAttemptRepo := repositories.NewLoginAttemptRepository(db)
	applicationRepo := repositories.NewApplicationRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	mentorRepo := repositories.NewMentorRepository(db)
	feedbackRepo := repositories.NewFeedbackRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	// Session and token machinery
	sessionStore := auth.NewSessionStore(auth.SessionConfig{
		IdleTimeout:      cfg.Auth.SessionIdleTimeout,
		AbsoluteLifetime: cfg.Auth.SessionAbsoluteLife,
		RotationInterval: cfg.Auth.SessionRotationEvery,
	})
	csrfManager := auth.NewCSRFManager(sessionStore)
	resetTokens := auth.NewResetTokenManager(cfg.Auth.ResetTokenSecret, cfg.Auth.ResetTokenTTL)

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	auditLogger := pkglogger.NewAuditLogger(logger)

	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}

	cookieConfig := auth.CookieConfig{
		Domain:   cfg.Auth.CookieDomain,
		Secure:   cfg.Auth.CookieSecure,
		SameSite: cfg.Auth.CookieSameSite,
	}

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(loginAttemptRepo, sessionStore, logger, cfg.Auth.SessionCleanupInterval)

	// AWS SES email service
	emailService, err := services.NewAWSSESEmailService(
		cfg.Email.AWSRegion,
		cfg.Email.FromAddress,
		cfg.Email.BaseURL,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	lockoutConfig := services.LockoutConfig{
		IdentityMaxAttempts:     cfg.Auth.IdentityMaxAttempts,
		IdentityLockoutDuration: cfg.Auth.IdentityLockoutDuration,
		AddressMaxAttempts:      cfg.Auth.AddressMaxAttempts,
		AddressLockoutDuration:  cfg.Auth.AddressLockoutDuration,
		Window:                  cfg.Auth.AttemptWindow,
	}
	lockoutService := services.NewLockoutService(loginAttemptRepo, identityRepo, lockoutConfig, logger)
	authService := services.NewAuthService(identityRepo, lockoutService, sessionStore, csrfManager, timingDelay, logger, auditLogger)

	emailDirectory := services.NewRepoEmailDirectory(mentorRepo, projectRepo)
	resetService := services.NewPasswordResetService(identityRepo, resetTokens, emailDirectory, emailService, cfg.Auth.ResetTokenTTL, logger, auditLogger)

	notificationService := services.NewNotificationService(notificationRepo, logger)
	applicationService := services.NewApplicationService(applicationRepo, projectRepo, db, resetTokens, emailService, logger, auditLogger)
	projectService := services.NewProjectService(projectRepo, notificationService, emailService, logger, auditLogger)
	mentorService := services.NewMentorService(mentorRepo, resetTokens, emailService, cfg.Auth.ResetTokenTTL, logger, auditLogger)
	feedbackService := services.NewFeedbackService(feedbackRepo, projectRepo, notificationService, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, resetService, ipConfig, cookieConfig)
	applicationHandler := handlers.NewApplicationHandler(applicationService)
	projectHandler := handlers.NewProjectHandler(projectService)
	mentorHandler := handlers.NewMentorHandler(mentorService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Bootstrap first admin if configured
	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(bootstrapCtx, identityRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	bootstrapCancel()

	// Setup router
	// No RealIP middleware: it would rewrite RemoteAddr from forwarding
	// headers before the trusted-proxy check in ExtractClientIP runs,
	// letting any client pick the address the lockout counts against.
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router,
		authHandler, applicationHandler, projectHandler, mentorHandler, feedbackHandler, notificationHandler,
		sessionStore, csrfManager, cookieConfig, ipConfig, auditLogger)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ensureAdminUser creates the first admin if ADMIN_USERNAME and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, identityRepo *repositories.IdentityRepository, logger *slog.Logger) error {
	adminUsername := os.Getenv("ADMIN_USERNAME")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminUsername == "" || adminPassword == "" {
		logger.Info("no ADMIN_USERNAME or ADMIN_PASSWORD set, skipping admin bootstrap")
		return nil
	}

	_, err := identityRepo.Fetch(ctx, models.RoleAdmin, adminUsername)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	if err := pkgauth.ValidatePassword(adminPassword); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD rejected: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	if _, err := identityRepo.CreateAdmin(ctx, adminUsername, hashedPassword); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created")
	return nil
}
