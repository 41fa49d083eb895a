package config

import (
	"testing"
	"time"
)

func TestReadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_PATH", "JWT_SECRET", "ACCESS_TOKEN_TTL", "ALLOW_LEGACY_SESSIONS", "RATE_LIMIT_WINDOW"} {
		t.Setenv(key, "")
	}

	cfg := Read()
	if cfg.Port != "8080" || cfg.DBPath != "./joy.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AccessTokenTTL != 2*time.Hour {
		t.Fatalf("expected 2h access ttl, got %s", cfg.AccessTokenTTL)
	}
	if !cfg.AllowLegacySessions {
		t.Fatal("legacy sessions should be allowed by default")
	}
	if cfg.RateLimitWindow != 2*time.Second {
		t.Fatalf("expected 2s rate limit window, got %s", cfg.RateLimitWindow)
	}
}

func TestReadOverrides(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "Owner@Joy.Test")
	t.Setenv("DEVICE_CODE_TTL", "30")
	t.Setenv("ALLOW_LEGACY_SESSIONS", "false")
	t.Setenv("ACCESS_TOKEN_TTL", "not-a-number")

	cfg := Read()
	if cfg.AdminEmail != "owner@joy.test" {
		t.Fatalf("admin email should be lowercased, got %q", cfg.AdminEmail)
	}
	if cfg.DeviceCodeTTL != 30*time.Minute {
		t.Fatalf("expected 30m code ttl, got %s", cfg.DeviceCodeTTL)
	}
	if cfg.AllowLegacySessions {
		t.Fatal("expected legacy sessions disabled")
	}
	if cfg.AccessTokenTTL != 2*time.Hour {
		t.Fatalf("invalid ttl should fall back to default, got %s", cfg.AccessTokenTTL)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error without JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	if _, err := Load(); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
}
