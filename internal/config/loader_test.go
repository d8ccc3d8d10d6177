package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maxviazov/pelada-service/internal/config"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestConfigLoad_FromYAMLAndEnv(t *testing.T) {
	yaml := `
app:
  name: pelada-service
  env: staging
  port: 18080
  shutdown_timeout: 3s

logger:
  level: info
  format: json
  output_target: stdout
  time_format: rfc3339

storage:
  driver: postgres

postgres:
  host: 127.0.0.1
  port: 5432
  sslmode: disable
  max_conns: 5

auth:
  admin_uids: [root-uid]
`
	path := writeTempConfig(t, yaml)

	t.Setenv("APP_POSTGRES_USER", "testuser")
	t.Setenv("APP_POSTGRES_PASSWORD", "testpass")
	t.Setenv("APP_POSTGRES_DB", "testdb")
	t.Setenv("APP_AUTH_JWT_SECRET", "0123456789abcdef0123")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Port != 18080 || cfg.App.ShutdownTimeout != 3*time.Second {
		t.Fatalf("app section not loaded: %+v", cfg.App)
	}
	if cfg.App.RequestTimeout != 5*time.Second {
		t.Fatalf("expected default request timeout, got %s", cfg.App.RequestTimeout)
	}
	if cfg.Postgres.User != "testuser" || cfg.Postgres.Password != "testpass" || cfg.Postgres.DBName != "testdb" {
		t.Fatalf("env overrides not applied: got user=%q pass=%q db=%q", cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName)
	}
	if cfg.Postgres.Host != "127.0.0.1" || cfg.Postgres.MaxConns != 5 {
		t.Fatalf("yaml values not loaded as expected: %+v", cfg.Postgres)
	}
	if cfg.Logger.OutputTarget != "stdout" || cfg.Logger.TimeFormat != "rfc3339" {
		t.Fatalf("logger section not loaded: %+v", cfg.Logger)
	}
	if len(cfg.Auth.AdminUIDs) != 1 || cfg.Auth.AdminUIDs[0] != "root-uid" {
		t.Fatalf("admin uids not loaded: %v", cfg.Auth.AdminUIDs)
	}
}

func TestConfigLoad_MemoryDriverIgnoresPostgres(t *testing.T) {
	t.Setenv("APP_AUTH_JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("APP_POSTGRES_USER", "")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Driver != config.DriverMemory {
		t.Fatalf("expected memory driver by default, got %q", cfg.Storage.Driver)
	}
	if len(cfg.Cors.AllowedOrigins) != 1 || cfg.Cors.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected cors default: %v", cfg.Cors.AllowedOrigins)
	}
}

func TestConfigLoad_MissingRequiredFails(t *testing.T) {
	yaml := `
storage:
  driver: postgres
postgres:
  host: localhost
`
	path := writeTempConfig(t, yaml)

	t.Setenv("APP_AUTH_JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("APP_POSTGRES_USER", "")

	if _, err := config.Load(path); err == nil {
		t.Fatalf("expected error when postgres user is missing, got nil")
	}
}

func TestConfigLoad_ShortSecretFails(t *testing.T) {
	t.Setenv("APP_AUTH_JWT_SECRET", "short")
	if _, err := config.Load(""); err == nil {
		t.Fatalf("expected error for short jwt secret")
	}
}

func TestConfigLoad_MissingFileFails(t *testing.T) {
	t.Setenv("APP_AUTH_JWT_SECRET", "0123456789abcdef0123")
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
