package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything keep needs to reach the API, keep its snapshots
// and write its log.
type Config struct {
	BaseURL      string
	CacheBackend string
	CachePath    string
	RedisURL     string
	RedisPrefix  string
	LogFile      string
	LogLevel     string
	LogFormat    string
	PollInterval time.Duration
}

const (
	defaultConfigPath   = "~/.config/keep/config.toml"
	defaultBaseURL      = "https://keep.kevindupas.com/api"
	defaultCacheBackend = "file"
	defaultCachePath    = "~/.local/share/keep/cache.json"
	defaultRedisPrefix  = "keep:"
	defaultLogFile      = "~/.local/state/keep/keep.log"
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
	defaultPollSeconds  = 30

	envPrefix = "KEEP_"
	dotenv    = ".env"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		BaseURL:      defaultBaseURL,
		CacheBackend: defaultCacheBackend,
		CachePath:    mustExpand(defaultCachePath),
		RedisPrefix:  defaultRedisPrefix,
		LogFile:      mustExpand(defaultLogFile),
		LogLevel:     defaultLogLevel,
		LogFormat:    defaultLogFormat,
		PollInterval: defaultPollSeconds * time.Second,
	}
}

type fileConfig struct {
	BaseURL      string `toml:"base_url"`
	CacheBackend string `toml:"cache_backend"`
	CachePath    string `toml:"cache_path"`
	RedisURL     string `toml:"redis_url"`
	RedisPrefix  string `toml:"redis_prefix"`
	LogFile      string `toml:"log_file"`
	LogLevel     string `toml:"log_level"`
	LogFormat    string `toml:"log_format"`
	PollSeconds  int    `toml:"poll_seconds"`
}

// Load reads the TOML config at path (the default location when empty),
// then applies .env and KEEP_* environment overrides. A missing file yields
// defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw fileConfig
	data, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	if data != nil {
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
	}
	if err := applyEnv(&raw); err != nil {
		return Config{}, err
	}

	return build(raw)
}

func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return data, nil
}

func applyEnv(raw *fileConfig) error {
	strs := map[string]*string{
		"BASE_URL":      &raw.BaseURL,
		"CACHE_BACKEND": &raw.CacheBackend,
		"CACHE_PATH":    &raw.CachePath,
		"REDIS_URL":     &raw.RedisURL,
		"REDIS_PREFIX":  &raw.RedisPrefix,
		"LOG_FILE":      &raw.LogFile,
		"LOG_LEVEL":     &raw.LogLevel,
		"LOG_FORMAT":    &raw.LogFormat,
	}
	for name, dest := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dest = v
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "POLL_SECONDS"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sPOLL_SECONDS: %w", envPrefix, err)
		}
		raw.PollSeconds = n
	}
	return nil
}

func build(raw fileConfig) (Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(raw.BaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.ToLower(strings.TrimSpace(raw.CacheBackend)); v != "" {
		switch v {
		case "file", "redis", "memory":
			cfg.CacheBackend = v
		default:
			return Config{}, fmt.Errorf("cache_backend %q: want file, redis or memory", raw.CacheBackend)
		}
	}
	if v := strings.TrimSpace(raw.CachePath); v != "" {
		cfg.CachePath = mustExpand(v)
	}
	cfg.RedisURL = strings.TrimSpace(raw.RedisURL)
	if cfg.CacheBackend == "redis" && cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("cache_backend redis requires redis_url")
	}
	if v := strings.TrimSpace(raw.RedisPrefix); v != "" {
		cfg.RedisPrefix = v
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogFormat)); v != "" {
		if v != "text" && v != "json" {
			return Config{}, fmt.Errorf("log_format %q: want text or json", raw.LogFormat)
		}
		cfg.LogFormat = v
	}
	if raw.PollSeconds < 0 {
		return Config{}, fmt.Errorf("poll_seconds must be positive")
	}
	if raw.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}
	return cfg, nil
}

// LogDir returns the directory holding the log file.
func (c Config) LogDir() string {
	if strings.TrimSpace(c.LogFile) == "" {
		return filepath.Dir(mustExpand(defaultLogFile))
	}
	return filepath.Dir(c.LogFile)
}

// DefaultPath returns the expanded default config location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
