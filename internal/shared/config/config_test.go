package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.ApplyCooldown != 5*time.Minute {
		t.Fatalf("expected apply cooldown 5m, got %s", cfg.ApplyCooldown)
	}
	if cfg.ContactCooldown != 3*time.Minute {
		t.Fatalf("expected contact cooldown 3m, got %s", cfg.ContactCooldown)
	}
	if cfg.DownloadCooldown != time.Minute {
		t.Fatalf("expected download cooldown 1m, got %s", cfg.DownloadCooldown)
	}
	if cfg.RateLimitStore != "memory" {
		t.Fatalf("expected memory rate limit store, got %s", cfg.RateLimitStore)
	}
	if cfg.MailTransport != "log" {
		t.Fatalf("expected log mail transport, got %s", cfg.MailTransport)
	}
	if cfg.AdmissionsEmail != "admissions@kala-klub.com" {
		t.Fatalf("unexpected admissions email: %s", cfg.AdmissionsEmail)
	}
}

func TestLoadReadsEnvAndEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("CONTACT_EMAIL=hello@example.com\nSMTP_PORT=2525\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("APPLY_COOLDOWN", "90s")
	t.Setenv("RATE_LIMIT_STORE", "REDIS")
	t.Setenv("ENV", "prod")
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.1, ,10.0.0.2 ")
	t.Cleanup(func() {
		os.Unsetenv("CONTACT_EMAIL")
		os.Unsetenv("SMTP_PORT")
	})

	cfg := Load(envFile)

	if cfg.ApplyCooldown != 90*time.Second {
		t.Fatalf("expected 90s, got %s", cfg.ApplyCooldown)
	}
	if cfg.RateLimitStore != "redis" {
		t.Fatalf("expected redis, got %s", cfg.RateLimitStore)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %s", cfg.Env)
	}
	if cfg.ContactEmail != "hello@example.com" {
		t.Fatalf("expected env file value, got %s", cfg.ContactEmail)
	}
	if cfg.SMTPPort != 2525 {
		t.Fatalf("expected smtp port 2525, got %d", cfg.SMTPPort)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[1] != "10.0.0.2" {
		t.Fatalf("unexpected trusted proxies: %v", cfg.TrustedProxies)
	}
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("CONTACT_COOLDOWN", "soon")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))
	if cfg.ContactCooldown != 3*time.Minute {
		t.Fatalf("expected fallback 3m, got %s", cfg.ContactCooldown)
	}
}
