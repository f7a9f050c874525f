package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
bot:
  web_app_url: https://app.example.com/
limits:
  like_max_min: 66
media:
  max_dimension: 1024
  signed_url_ttl: 2m
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Limits.LikeMaxPerMin != 66 {
		t.Fatalf("unexpected like_max_min: %d", cfg.Limits.LikeMaxPerMin)
	}
	if cfg.Media.MaxDimension != 1024 {
		t.Fatalf("unexpected media max dimension: %d", cfg.Media.MaxDimension)
	}
	if cfg.Media.SignedURLTTL.String() != "2m0s" {
		t.Fatalf("unexpected signed url ttl: %s", cfg.Media.SignedURLTTL.String())
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://app.example.com" {
		t.Fatalf("cors origins should default to the web app origin, got %v", cfg.CORS.AllowedOrigins)
	}

	if cfg.Limits.LikeMaxPerSec != 2 {
		t.Fatalf("like_max_per_sec default should stay 2")
	}
	if cfg.Media.MaxUploadBytes != 20<<20 {
		t.Fatalf("max_upload_bytes default should stay 20MiB")
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
	if cfg.HTTP.RequestTimeout.String() != "1m0s" {
		t.Fatalf("unexpected request timeout: %s", cfg.HTTP.RequestTimeout.String())
	}
	if cfg.Limits.CandidatesMax != 200 {
		t.Fatalf("unexpected candidates max: %d", cfg.Limits.CandidatesMax)
	}
	if cfg.Auth.RequireInitData {
		t.Fatalf("init data verification should be off by default")
	}
}

func TestLoadEnvAliases(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")
	t.Setenv("WEB_APP_URL", "https://tg.example.com")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Bot.Token != "123:abc" {
		t.Fatalf("unexpected bot token: %q", cfg.Bot.Token)
	}
	if cfg.Postgres.DSN != "postgres://u:p@db:5432/x" {
		t.Fatalf("unexpected dsn: %q", cfg.Postgres.DSN)
	}
	if cfg.Bot.WebAppURL != "https://tg.example.com" {
		t.Fatalf("unexpected web app url: %q", cfg.Bot.WebAppURL)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadRejectsInvalidEnvValues(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("REDIS_DB", "one")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for non-numeric REDIS_DB")
	}
}

func TestLoadRejectsMissingBotTokenInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error when bot.token is empty in production")
	}
}

func TestLoadDotEnvMissingFileIsIgnored(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}
}

func TestLoadDotEnvDoesNotOverrideExisting(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("HTTP_ADDR=:9999\nLOG_LEVEL=warn\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("LOG_LEVEL", "error")
	// godotenv treats an empty but present variable as set.
	os.Unsetenv("HTTP_ADDR")
	t.Cleanup(func() { os.Unsetenv("HTTP_ADDR") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load .env: %v", err)
	}
	if got := os.Getenv("HTTP_ADDR"); got != ":9999" {
		t.Fatalf("expected HTTP_ADDR from .env, got %q", got)
	}
	if got := os.Getenv("LOG_LEVEL"); got != "error" {
		t.Fatalf("existing LOG_LEVEL should win, got %q", got)
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
		"POSTGRES_DSN",
		"DATABASE_URL",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"S3_ENDPOINT",
		"S3_ACCESS_KEY",
		"S3_SECRET_KEY",
		"S3_BUCKET",
		"S3_REGION",
		"S3_USE_SSL",
		"TELEGRAM_TOKEN",
		"BOT_TOKEN",
		"WEB_APP_URL",
		"BOT_WEBHOOK_URL",
		"BOT_WEBHOOK_SECRET",
		"CORS_ALLOWED_ORIGINS",
		"AUTH_REQUIRE_INIT_DATA",
		"AUTH_INIT_DATA_MAX_AGE",
		"LIMITS_LIKE_MAX_MIN",
		"LIMITS_UPLOAD_MAX_MIN",
	} {
		t.Setenv(key, "")
	}
}
