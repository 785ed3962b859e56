package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
log:
  encoding: console
telegram:
  token: bot-token
cors:
  allowed_origins:
    - https://events.example.com
matching:
  max_page_limit: 50
  swipe_rate:
    per_10sec: 4
  stats_cache_ttl: 2m
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Log.Encoding != "console" {
		t.Fatalf("unexpected log encoding: %s", cfg.Log.Encoding)
	}
	if cfg.Telegram.Token != "bot-token" {
		t.Fatalf("unexpected telegram token: %q", cfg.Telegram.Token)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://events.example.com" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Matching.MaxPageLimit != 50 {
		t.Fatalf("unexpected max page limit: %d", cfg.Matching.MaxPageLimit)
	}
	if cfg.Matching.SwipeRate.Per10Sec != 4 {
		t.Fatalf("unexpected swipe per_10sec: %d", cfg.Matching.SwipeRate.Per10Sec)
	}
	if cfg.Matching.StatsCacheTTL != 2*time.Minute {
		t.Fatalf("unexpected stats cache ttl: %s", cfg.Matching.StatsCacheTTL)
	}

	if cfg.Matching.SwipeRate.PerMinute != 60 {
		t.Fatalf("swipe per_minute default should stay 60, got %d", cfg.Matching.SwipeRate.PerMinute)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level default should stay debug, got %s", cfg.Log.Level)
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected default addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Matching.DefaultPageLimit != 50 || cfg.Matching.MaxPageLimit != 100 {
		t.Fatalf("unexpected page limits: %d/%d", cfg.Matching.DefaultPageLimit, cfg.Matching.MaxPageLimit)
	}
	if cfg.Matching.MessageRate.PerMinute != 30 || cfg.Matching.MessageRate.Per10Sec != 10 {
		t.Fatalf("unexpected message rate defaults: %+v", cfg.Matching.MessageRate)
	}
	if cfg.Matching.BlockCacheTTL != 30*time.Second {
		t.Fatalf("unexpected block cache ttl: %s", cfg.Matching.BlockCacheTTL)
	}
	if cfg.Telegram.Token != "" {
		t.Fatalf("telegram must be disabled by default")
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("S3_USE_SSL", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("MATCHING_MESSAGE_PER_10SEC", "2")
	t.Setenv("TELEGRAM_NOTIFY_TIMEOUT", "3s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" || cfg.Redis.DB != 3 || !cfg.S3.UseSSL {
		t.Fatalf("env overrides not applied: %+v %+v %+v", cfg.HTTP, cfg.Redis, cfg.S3)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Matching.MessageRate.Per10Sec != 2 {
		t.Fatalf("unexpected message per_10sec: %d", cfg.Matching.MessageRate.Per10Sec)
	}
	if cfg.Telegram.NotifyTimeout != 3*time.Second {
		t.Fatalf("unexpected notify timeout: %s", cfg.Telegram.NotifyTimeout)
	}
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("REDIS_DB", "two")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for malformed REDIS_DB")
	}
}

func TestLoadRejectsDefaultJWTSecretInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error when auth.jwt_secret is the default in production")
	}

	t.Setenv("JWT_SECRET", "a-real-secret")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Fatalf("load with explicit secret: %v", err)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"HTTP_REQUEST_TIMEOUT",
		"LOG_LEVEL",
		"LOG_ENCODING",
		"POSTGRES_DSN",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"S3_ENDPOINT",
		"S3_REGION",
		"S3_ACCESS_KEY",
		"S3_SECRET_KEY",
		"S3_BUCKET",
		"S3_USE_SSL",
		"JWT_SECRET",
		"JWT_ACCESS_TTL",
		"TELEGRAM_BOT_TOKEN",
		"TELEGRAM_API_ENDPOINT",
		"TELEGRAM_NOTIFY_TIMEOUT",
		"CORS_ALLOWED_ORIGINS",
		"MATCHING_SWIPE_PER_MINUTE",
		"MATCHING_SWIPE_PER_10SEC",
		"MATCHING_MESSAGE_PER_MINUTE",
		"MATCHING_MESSAGE_PER_10SEC",
	} {
		t.Setenv(key, "")
	}
}
