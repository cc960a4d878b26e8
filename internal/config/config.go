package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Email    EmailConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
}

// AuthConfig carries the security policy knobs. The lockout numbers are
// policy, not derived constants: 5 failures per identity in a 15 minute
// window locks that identity for 15 minutes; the address keyspace allows
// 30 failures per window so a shared NAT does not lock out whole offices.
type AuthConfig struct {
	IdentityMaxAttempts     int
	IdentityLockoutDuration time.Duration
	AddressMaxAttempts      int
	AddressLockoutDuration  time.Duration
	AttemptWindow           time.Duration

	SessionIdleTimeout     time.Duration
	SessionAbsoluteLife    time.Duration
	SessionRotationEvery   time.Duration
	SessionCleanupInterval time.Duration

	ResetTokenSecret string
	ResetTokenTTL    time.Duration

	TimingDelayBaseMs   int
	TimingDelayRandomMs int

	CookieDomain   string
	CookieSecure   bool
	CookieSameSite string
}

type EmailConfig struct {
	AWSRegion   string
	FromAddress string
	BaseURL     string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	resetSecret := getEnv("RESET_TOKEN_SECRET", "")
	if resetSecret == "" {
		return nil, fmt.Errorf("RESET_TOKEN_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "catalyst"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: getEnvAsSlice("TRUSTED_PROXIES"),
		},
		Auth: AuthConfig{
			IdentityMaxAttempts:     getEnvAsInt("LOCKOUT_IDENTITY_MAX_ATTEMPTS", 5),
			IdentityLockoutDuration: getEnvAsDuration("LOCKOUT_IDENTITY_DURATION", 15*time.Minute),
			AddressMaxAttempts:      getEnvAsInt("LOCKOUT_ADDRESS_MAX_ATTEMPTS", 30),
			AddressLockoutDuration:  getEnvAsDuration("LOCKOUT_ADDRESS_DURATION", 15*time.Minute),
			AttemptWindow:           getEnvAsDuration("LOCKOUT_ATTEMPT_WINDOW", 15*time.Minute),

			SessionIdleTimeout:     getEnvAsDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
			SessionAbsoluteLife:    getEnvAsDuration("SESSION_ABSOLUTE_LIFETIME", 1*time.Hour),
			SessionRotationEvery:   getEnvAsDuration("SESSION_ROTATION_INTERVAL", 5*time.Minute),
			SessionCleanupInterval: getEnvAsDuration("SESSION_CLEANUP_INTERVAL", 5*time.Minute),

			ResetTokenSecret: resetSecret,
			ResetTokenTTL:    getEnvAsDuration("RESET_TOKEN_TTL", 15*time.Minute),

			TimingDelayBaseMs:   getEnvAsInt("TIMING_DELAY_BASE_MS", 100),
			TimingDelayRandomMs: getEnvAsInt("TIMING_DELAY_RANDOM_MS", 50),

			CookieDomain:   getEnv("COOKIE_DOMAIN", ""),
			CookieSecure:   getEnvAsBool("COOKIE_SECURE", env == "production"),
			CookieSameSite: getEnv("COOKIE_SAMESITE", "lax"),
		},
		Email: EmailConfig{
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			FromAddress: getEnv("EMAIL_FROM", "no-reply@catalyst.local"),
			BaseURL:     getEnv("EMAIL_BASE_URL", "http://localhost:8080"),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateResetSecret(resetSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateResetSecret enforces minimum strength for the reset-link signing key
func validateResetSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32 // 256 bits in production
	}

	if len(secret) < minLength {
		return fmt.Errorf("RESET_TOKEN_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("RESET_TOKEN_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsSlice(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{} // no cross-origin callers unless configured
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
