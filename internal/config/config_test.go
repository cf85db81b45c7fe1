package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/garnizeh/fieldops/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"FIELDOPS_ENV", "FIELDOPS_BACKEND_URL", "FIELDOPS_HAZARDS_URL", "FIELDOPS_SESSION_DB", "FIELDOPS_JWT_SECRET", "FIELDOPS_LOG_LEVEL", "FIELDOPS_LOG_FORMAT", "FIELDOPS_DEV_ADDR", "FIELDOPS_SESSION"} {
		t.Setenv(k, "")
	}
	t.Setenv("FIELDOPS_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error for empty path: %v", err)
	}
	if cfg.Backend.URL != "http://localhost:5000" {
		t.Fatalf("unexpected backend url: %q", cfg.Backend.URL)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("unexpected PollInterval: %v", cfg.PollInterval)
	}
	if cfg.SearchDebounce != 500*time.Millisecond {
		t.Fatalf("unexpected SearchDebounce: %v", cfg.SearchDebounce)
	}
	if cfg.RefreshSchedule != "@every 30s" {
		t.Fatalf("unexpected RefreshSchedule: %q", cfg.RefreshSchedule)
	}
	if cfg.Env != config.EnvDevelopment {
		t.Fatalf("unexpected Env: %q", cfg.Env)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadConfig_FromEnvFileAndYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("FIELDOPS_BACKEND_URL=http://api.local:8080\nFIELDOPS_SESSION_DB=env.db\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("FIELDOPS_ENV_FILE", envFile)
	// godotenv never overrides variables that are already set
	os.Unsetenv("FIELDOPS_BACKEND_URL")
	os.Unsetenv("FIELDOPS_SESSION_DB")
	t.Cleanup(func() {
		os.Unsetenv("FIELDOPS_BACKEND_URL")
		os.Unsetenv("FIELDOPS_SESSION_DB")
	})

	yamlFile := filepath.Join(dir, "fieldops.yaml")
	content := []byte("session_db: \"file.db\"\npoll_interval: \"10s\"\nbackend:\n  timeout: \"30s\"\nlog:\n  format: json\n")
	if err := os.WriteFile(yamlFile, content, 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	cfg, err := config.LoadConfig(yamlFile)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend.URL != "http://api.local:8080" {
		t.Fatalf("env file not applied: %q", cfg.Backend.URL)
	}
	if cfg.SessionDB != "file.db" {
		t.Fatalf("yaml should override env: %q", cfg.SessionDB)
	}
	if cfg.PollInterval != 10*time.Second || cfg.Backend.Timeout != 30*time.Second {
		t.Fatalf("unexpected durations: %v %v", cfg.PollInterval, cfg.Backend.Timeout)
	}
	if cfg.Client().BaseURL != "http://api.local:8080" || cfg.Client().LoginPath != "/login" {
		t.Fatalf("unexpected client config: %+v", cfg.Client())
	}
}

func TestLoadConfig_BadPath(t *testing.T) {
	clearEnv(t)
	if _, err := config.LoadConfig("/path/that/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent path, got nil")
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	clearEnv(t)
	f := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(f, []byte("::: not yaml :::"), 0o600); err != nil {
		t.Fatalf("failed to write bad yaml: %v", err)
	}
	if _, err := config.LoadConfig(f); err == nil {
		t.Fatalf("expected YAML decode error, got nil")
	}
}

func TestValidate_InsecureJWT(t *testing.T) {
	clearEnv(t)

	cfg := &config.Config{Env: "production", Dev: config.DevConfig{JWTSecret: "supersecretkey"}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for insecure JWT in non-development env")
	}

	cfg = &config.Config{Env: config.EnvDevelopment, Dev: config.DevConfig{JWTSecret: "supersecretkey"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected Validate to succeed in development env, got: %v", err)
	}

	t.Setenv("FIELDOPS_ENV", "production")
	cfg = &config.Config{Dev: config.DevConfig{JWTSecret: "strongsecret"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("strong secret should pass: %v", err)
	}
	if cfg.Env != "production" {
		t.Fatalf("Env should fall back to FIELDOPS_ENV, got %q", cfg.Env)
	}
}

func TestValidate_Rejects(t *testing.T) {
	clearEnv(t)
	cases := map[string]config.Config{
		"bad url":      {Backend: config.BackendConfig{URL: "ftp://x"}},
		"bad hazards":  {Backend: config.BackendConfig{URL: "http://x", HazardsURL: "::"}},
		"negative":     {PollInterval: -time.Second},
		"bad schedule": {RefreshSchedule: "every now and then"},
		"bad level":    {Log: config.LogConfig{Level: "loud"}},
		"bad format":   {Log: config.LogConfig{Format: "xml"}},
	}
	for name, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLogConfig_Logger(t *testing.T) {
	var buf bytes.Buffer
	l := config.LogConfig{Level: "warn", Format: "json"}.Logger(&buf)
	l.Info("hidden")
	l.Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}
