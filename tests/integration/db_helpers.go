package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tfournier/catalyst/internal/database"
	"github.com/tfournier/catalyst/internal/models"
	"github.com/tfournier/catalyst/internal/repositories"
	"github.com/tfournier/catalyst/pkg/auth"
)

// TestDB manages a PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations, returns TestDB
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("catalyst"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	dbWrapper := &database.DB{
		Pool: pool,
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         dbWrapper,
	}, nil
}

// runMigrations executes all goose migrations
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir, err := filepath.Abs("../../migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	// Goose needs a database/sql connection
	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"notifications",
		"ratings",
		"comments",
		"mentor_assignments",
		"login_attempts",
		"applications",
		"projects",
		"mentors",
		"admins",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// SeedMentor inserts a mentor with a hashed password and returns it
func SeedMentor(ctx context.Context, pool *pgxpool.Pool, email, password string) (*models.Mentor, error) {
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO mentors (email, name, expertise, password_hash, is_active)
		VALUES ($1, 'Test Mentor', 'go', $2, TRUE)
		RETURNING id, email, name, expertise, created_at
	`

	var mentor models.Mentor
	err = pool.QueryRow(ctx, query, email, hashedPassword).Scan(
		&mentor.ID, &mentor.Email, &mentor.Name, &mentor.Expertise, &mentor.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert mentor: %w", err)
	}

	return &mentor, nil
}

// SeedAdmin inserts an admin with a hashed password and returns its id
func SeedAdmin(ctx context.Context, pool *pgxpool.Pool, username, password string) (int64, error) {
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	var id int64
	err = pool.QueryRow(ctx,
		`INSERT INTO admins (username, password_hash, is_active) VALUES ($1, $2, TRUE) RETURNING id`,
		username, hashedPassword,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert admin: %w", err)
	}

	return id, nil
}

// SeedProject inserts a project team at the given stage and returns it
func SeedProject(ctx context.Context, pool *pgxpool.Pool, profileName string, stage models.Stage) (*models.Project, error) {
	hashedPassword, err := auth.HashPassword("Pr0ject-team-pass!")
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	repo := repositories.NewProjectRepository(&database.DB{Pool: pool})
	project := &models.Project{
		ProfileName: profileName,
		TeamName:    "Team " + profileName,
		Email:       profileName + "@example.com",
		Summary:     "integration seed",
		Stage:       stage,
	}
	return repo.Create(ctx, project, hashedPassword)
}
