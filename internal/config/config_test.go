package config

import (
	"testing"
	"time"
)

// clearEnv はテストに関係する環境変数をすべて未設定状態にする。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "TOKEN_SECRET", "TOKEN_TTL", "OTP_TTL",
		"ADMIN_USERNAME", "ADMIN_PASSWORD",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_FROM",
		"RATE_LIMIT_LOGIN", "RATE_LIMIT_OTP",
		"SERVER_PORT", "BASE_URL", "COOKIE_DOMAIN", "CORS_ALLOWED_ORIGIN",
		"LOG_LEVEL", "APP_ENV",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_MissingRequiredVarsFails(t *testing.T) {
	clearEnv(t)

	if _, err := Load(); err == nil {
		t.Error("expected error when required variables are missing")
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_SECRET", "test-secret")
	t.Setenv("BASE_URL", "http://localhost:8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.TokenTTL != 7*24*time.Hour {
		t.Errorf("expected default token TTL 168h, got %s", cfg.TokenTTL)
	}
	if cfg.OTPTTL != 5*time.Minute {
		t.Errorf("expected default OTP TTL 5m, got %s", cfg.OTPTTL)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.ServerPort)
	}
	if cfg.RateLimitLogin != 10 || cfg.RateLimitOTP != 5 {
		t.Errorf("unexpected rate limit defaults: login=%d otp=%d", cfg.RateLimitLogin, cfg.RateLimitOTP)
	}
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		t.Error("expected default admin credentials")
	}
	if cfg.IsProduction() {
		t.Error("expected development environment by default")
	}
}

func TestLoad_CookieSecureFollowsBaseURLScheme(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_SECRET", "test-secret")

	t.Setenv("BASE_URL", "http://localhost:8080")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CookieSecure {
		t.Error("expected insecure cookie for http base URL")
	}

	t.Setenv("BASE_URL", "https://example.com")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.CookieSecure {
		t.Error("expected secure cookie for https base URL")
	}
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_SECRET", "test-secret")
	t.Setenv("BASE_URL", "https://example.com")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("RATE_LIMIT_LOGIN", "3")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.TokenTTL != time.Hour {
		t.Errorf("expected 1h token TTL, got %s", cfg.TokenTTL)
	}
	if cfg.OTPTTL != 90*time.Second {
		t.Errorf("expected 90s OTP TTL, got %s", cfg.OTPTTL)
	}
	if cfg.RateLimitLogin != 3 {
		t.Errorf("expected rate limit 3, got %d", cfg.RateLimitLogin)
	}
	if !cfg.IsProduction() {
		t.Error("expected production environment")
	}
}

func TestLoad_InvalidDurationFallsBackToDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_SECRET", "test-secret")
	t.Setenv("BASE_URL", "http://localhost:8080")
	t.Setenv("TOKEN_TTL", "not-a-duration")
	t.Setenv("RATE_LIMIT_LOGIN", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.TokenTTL != 7*24*time.Hour {
		t.Errorf("expected fallback to default TTL, got %s", cfg.TokenTTL)
	}
	if cfg.RateLimitLogin != 10 {
		t.Errorf("expected fallback to default rate limit, got %d", cfg.RateLimitLogin)
	}
}
