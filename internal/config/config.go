package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/garnizeh/fieldops/pkg/client"
)

const (
	EnvDevelopment = "development"

	// insecureJWTSecret is the built-in development secret; it is refused
	// outside development.
	insecureJWTSecret = "supersecretkey"
)

type Config struct {
	Env             string        `yaml:"env"`
	Backend         BackendConfig `yaml:"backend"`
	SessionDB       string        `yaml:"session_db"`
	SessionName     string        `yaml:"session_name"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	SearchDebounce  time.Duration `yaml:"search_debounce"`
	RefreshSchedule string        `yaml:"refresh_schedule"`
	Log             LogConfig     `yaml:"log"`
	Dev             DevConfig     `yaml:"dev"`
}

type BackendConfig struct {
	URL        string        `yaml:"url"`
	HazardsURL string        `yaml:"hazards_url"`
	Timeout    time.Duration `yaml:"timeout"`
	LoginPath  string        `yaml:"login_path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DevConfig configures the in-memory development backend.
type DevConfig struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenDuration time.Duration `yaml:"token_duration"`
}

// LoadConfig builds a Config from the environment (after loading an
// optional .env file) and overlays the YAML file at path when set.
func LoadConfig(path string) (*Config, error) {
	envFile := getEnv("FIELDOPS_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &Config{
		Env: getEnv("FIELDOPS_ENV", EnvDevelopment),
		Backend: BackendConfig{
			URL:        getEnv("FIELDOPS_BACKEND_URL", "http://localhost:5000"),
			HazardsURL: getEnv("FIELDOPS_HAZARDS_URL", ""),
			Timeout:    15 * time.Second,
			LoginPath:  "/login",
		},
		SessionDB:       getEnv("FIELDOPS_SESSION_DB", "fieldops.db"),
		SessionName:     getEnv("FIELDOPS_SESSION", "default"),
		PollInterval:    5 * time.Second,
		SearchDebounce:  500 * time.Millisecond,
		RefreshSchedule: "@every 30s",
		Log: LogConfig{
			Level:  getEnv("FIELDOPS_LOG_LEVEL", "info"),
			Format: getEnv("FIELDOPS_LOG_FORMAT", "text"),
		},
		Dev: DevConfig{
			Addr:          getEnv("FIELDOPS_DEV_ADDR", ":5000"),
			JWTSecret:     getEnv("FIELDOPS_JWT_SECRET", insecureJWTSecret),
			TokenDuration: time.Hour,
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate fills zero values with defaults and rejects unusable settings.
func (c *Config) Validate() error {
	if c.Env == "" {
		c.Env = getEnv("FIELDOPS_ENV", EnvDevelopment)
	}
	if c.Backend.URL == "" {
		c.Backend.URL = "http://localhost:5000"
	}
	for _, raw := range []string{c.Backend.URL, c.Backend.HazardsURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid backend url %q", raw)
		}
	}
	if c.Backend.LoginPath == "" {
		c.Backend.LoginPath = "/login"
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 15 * time.Second
	}
	if c.SessionDB == "" {
		c.SessionDB = "fieldops.db"
	}
	if c.SessionName == "" {
		c.SessionName = "default"
	}
	if c.PollInterval == 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.SearchDebounce == 0 {
		c.SearchDebounce = 500 * time.Millisecond
	}
	if c.RefreshSchedule == "" {
		c.RefreshSchedule = "@every 30s"
	}
	if c.Dev.TokenDuration == 0 {
		c.Dev.TokenDuration = time.Hour
	}
	if c.Backend.Timeout < 0 || c.PollInterval < 0 || c.SearchDebounce < 0 || c.Dev.TokenDuration < 0 {
		return errors.New("durations must be positive")
	}
	if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
		return fmt.Errorf("invalid refresh_schedule %q: %w", c.RefreshSchedule, err)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}

	if c.Dev.JWTSecret == "" {
		c.Dev.JWTSecret = insecureJWTSecret
	}
	if c.Dev.JWTSecret == insecureJWTSecret && c.Env != EnvDevelopment {
		return fmt.Errorf("insecure jwt_secret is only allowed in %s (env is %q)", EnvDevelopment, c.Env)
	}
	return nil
}

// Client returns the HTTP adapter configuration.
func (c *Config) Client() client.Config {
	return client.Config{
		BaseURL:    c.Backend.URL,
		HazardsURL: c.Backend.HazardsURL,
		Timeout:    c.Backend.Timeout,
		LoginPath:  c.Backend.LoginPath,
	}
}

func (l LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return lvl, nil
}

// Logger builds the slog logger described by the config, writing to w.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	lvl, err := l.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
