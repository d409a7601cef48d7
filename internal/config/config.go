package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"huddle/internal/constants"
)

type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Chat    ChatConfig    `yaml:"chat"`
	Log     LogConfig     `yaml:"log"`
	Device  DeviceConfig  `yaml:"device"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	// LegacyAuthPaths routes login/register through /api/users instead of /api/auth.
	LegacyAuthPaths bool `yaml:"legacy_auth_paths"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type ChatConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

// DeviceConfig describes the client in crash reports.
type DeviceConfig struct {
	AppVersion string `yaml:"app_version"`
	Platform   string `yaml:"platform"`
	Model      string `yaml:"model"`
	OSVersion  string `yaml:"os_version"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the /metrics listener
}

// Load reads the YAML file at path. A missing file is not an error: the
// client can run from environment variables alone.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("applying env overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("HUDDLE_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("HUDDLE_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HUDDLE_API_TIMEOUT: %w", err)
		}
		c.API.Timeout = d
	}
	if v := os.Getenv("HUDDLE_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("HUDDLE_CHAT_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HUDDLE_CHAT_POLL_INTERVAL: %w", err)
		}
		c.Chat.PollInterval = d
	}
	if v := os.Getenv("HUDDLE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if c.Chat.PollInterval < 0 {
		return fmt.Errorf("chat.poll_interval must not be negative")
	}
	if c.Chat.PollInterval > 0 && c.Chat.PollInterval < 500*time.Millisecond {
		return fmt.Errorf("chat.poll_interval must be at least 500ms")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text")
	}
	return nil
}

func (c *Config) setDefaults() {
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.Timeout == 0 {
		c.API.Timeout = constants.DefaultHTTPTimeout
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = "huddle-client"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "./data/huddle.db"
	}
	if c.Chat.PollInterval == 0 {
		c.Chat.PollInterval = constants.DefaultChatPollInterval
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Device.Platform == "" {
		c.Device.Platform = "cli"
	}
	if c.Device.AppVersion == "" {
		c.Device.AppVersion = "dev"
	}
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level %q is not one of debug, info, warn, error", s)
}
