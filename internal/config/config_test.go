package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	for _, name := range []string{"BASE_URL", "CACHE_BACKEND", "CACHE_PATH", "REDIS_URL", "REDIS_PREFIX", "LOG_FILE", "LOG_LEVEL", "LOG_FORMAT", "POLL_SECONDS"} {
		t.Setenv(envPrefix+name, "")
		_ = os.Unsetenv(envPrefix + name)
	}
	return home
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BaseURL != defaultBaseURL {
		t.Fatalf("BaseURL = %q, want %q", cfg.BaseURL, defaultBaseURL)
	}
	if cfg.CacheBackend != "file" {
		t.Fatalf("CacheBackend = %q, want file", cfg.CacheBackend)
	}
	if cfg.CachePath != filepath.Join(home, ".local/share/keep/cache.json") {
		t.Fatalf("CachePath = %q", cfg.CachePath)
	}
	if cfg.LogDir() != filepath.Join(home, ".local/state/keep") {
		t.Fatalf("LogDir = %q", cfg.LogDir())
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("PollInterval = %v, want 30s", cfg.PollInterval)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := isolate(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
base_url = "  http://localhost:8000/api  "
cache_backend = " Redis "
redis_url = "redis://localhost:6379/1"
log_file = "  ~/logs/keep.log  "
log_format = "JSON"
poll_seconds = 5
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BaseURL != "http://localhost:8000/api" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.CacheBackend != "redis" || cfg.RedisURL != "redis://localhost:6379/1" {
		t.Fatalf("cache = %q %q", cfg.CacheBackend, cfg.RedisURL)
	}
	if cfg.RedisPrefix != "keep:" {
		t.Fatalf("RedisPrefix = %q, want keep:", cfg.RedisPrefix)
	}
	if !strings.HasPrefix(cfg.LogFile, home) {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("LogFormat = %q, want json", cfg.LogFormat)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("PollInterval = %v, want 5s", cfg.PollInterval)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`log_level = "warn"`+"\n"+`poll_seconds = 10`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("KEEP_LOG_LEVEL", "debug")
	t.Setenv("KEEP_POLL_SECONDS", "60")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.PollInterval != time.Minute {
		t.Fatalf("PollInterval = %v, want 1m", cfg.PollInterval)
	}
}

func TestLoad_DotenvDoesNotOverrideEnvironment(t *testing.T) {
	isolate(t)

	if err := os.WriteFile(dotenv, []byte("KEEP_BASE_URL=http://dotenv/api\nKEEP_LOG_LEVEL=error\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("KEEP_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BaseURL != "http://dotenv/api" {
		t.Fatalf("BaseURL = %q, want value from .env", cfg.BaseURL)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want environment to win", cfg.LogLevel)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"backend":      `cache_backend = "s3"`,
		"redis no url": `cache_backend = "redis"`,
		"format":       `log_format = "xml"`,
		"poll":         `poll_seconds = -1`,
		"syntax":       `base_url = `,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			isolate(t)
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatalf("Load returned nil error for %s", body)
			}
		})
	}
}

func TestLoad_BadPollEnv(t *testing.T) {
	isolate(t)
	t.Setenv("KEEP_POLL_SECONDS", "soon")

	if _, err := Load(filepath.Join(t.TempDir(), "none.toml")); err == nil {
		t.Fatalf("Load returned nil error for non-numeric KEEP_POLL_SECONDS")
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/x/y")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	if got != filepath.Join(home, "x/y") {
		t.Fatalf("expandPath = %q, want %q", got, filepath.Join(home, "x/y"))
	}
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error for blank path")
	}
}
