package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("RESET_TOKEN_SECRET", "test-secret-32-characters-long!!")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"AttemptWindow", cfg.Auth.AttemptWindow, 15 * time.Minute},
		{"IdentityLockoutDuration", cfg.Auth.IdentityLockoutDuration, 15 * time.Minute},
		{"AddressLockoutDuration", cfg.Auth.AddressLockoutDuration, 15 * time.Minute},
		{"SessionIdleTimeout", cfg.Auth.SessionIdleTimeout, 30 * time.Minute},
		{"SessionAbsoluteLife", cfg.Auth.SessionAbsoluteLife, 1 * time.Hour},
		{"SessionRotationEvery", cfg.Auth.SessionRotationEvery, 5 * time.Minute},
		{"ResetTokenTTL", cfg.Auth.ResetTokenTTL, 15 * time.Minute},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	if cfg.Auth.IdentityMaxAttempts != 5 {
		t.Errorf("IdentityMaxAttempts: got %d, want 5", cfg.Auth.IdentityMaxAttempts)
	}
	if cfg.Auth.AddressMaxAttempts != 30 {
		t.Errorf("AddressMaxAttempts: got %d, want 30", cfg.Auth.AddressMaxAttempts)
	}
	if cfg.Auth.CookieSameSite != "lax" {
		t.Errorf("CookieSameSite: got %q, want %q", cfg.Auth.CookieSameSite, "lax")
	}
}

func TestLoad_CustomLockoutPolicy(t *testing.T) {
	os.Setenv("RESET_TOKEN_SECRET", "test-secret-32-characters-long!!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("LOCKOUT_IDENTITY_MAX_ATTEMPTS", "3")
	os.Setenv("LOCKOUT_IDENTITY_DURATION", "30m")
	os.Setenv("LOCKOUT_ATTEMPT_WINDOW", "10m")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.IdentityMaxAttempts != 3 {
		t.Errorf("IdentityMaxAttempts: got %d, want 3", cfg.Auth.IdentityMaxAttempts)
	}
	if cfg.Auth.IdentityLockoutDuration != 30*time.Minute {
		t.Errorf("IdentityLockoutDuration: got %v, want 30m", cfg.Auth.IdentityLockoutDuration)
	}
	if cfg.Auth.AttemptWindow != 10*time.Minute {
		t.Errorf("AttemptWindow: got %v, want 10m", cfg.Auth.AttemptWindow)
	}
}

func TestLoad_MissingResetSecret(t *testing.T) {
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing RESET_TOKEN_SECRET")
	}
}

func TestLoad_MissingDBPassword(t *testing.T) {
	os.Setenv("RESET_TOKEN_SECRET", "test-secret-32-characters-long!!")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing DB_PASSWORD")
	}
}

func TestLoad_WeakResetSecretInProduction(t *testing.T) {
	os.Setenv("RESET_TOKEN_SECRET", "short")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("ENV", "production")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for weak secret in production")
	}
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	os.Setenv("RESET_TOKEN_SECRET", "test-secret-32-characters-long!!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("SESSION_IDLE_TIMEOUT", "not-a-duration")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.SessionIdleTimeout != 30*time.Minute {
		t.Errorf("SessionIdleTimeout with invalid value: got %v, want 30m", cfg.Auth.SessionIdleTimeout)
	}
}
