package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, "api:\n  base_url: http://localhost:8080/\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8080" {
		t.Fatalf("API.BaseURL = %q, want trailing slash trimmed", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Fatalf("API.Timeout = %s, want 15s", cfg.API.Timeout)
	}
	if cfg.Chat.PollInterval != 5*time.Second {
		t.Fatalf("Chat.PollInterval = %s, want 5s", cfg.Chat.PollInterval)
	}
	if cfg.Storage.Path != "./data/huddle.db" {
		t.Fatalf("Storage.Path = %q", cfg.Storage.Path)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("SlogLevel() = %v, want info", cfg.SlogLevel())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, "api:\n  base_url: http://localhost:8080\nchat:\n  poll_interval: 10s\n")
	t.Setenv("HUDDLE_API_BASE_URL", "https://api.example.com")
	t.Setenv("HUDDLE_CHAT_POLL_INTERVAL", "2s")
	t.Setenv("HUDDLE_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.BaseURL != "https://api.example.com" {
		t.Fatalf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Chat.PollInterval != 2*time.Second {
		t.Fatalf("Chat.PollInterval = %s, want 2s", cfg.Chat.PollInterval)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}
}

func TestLoadMissingFileUsesEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HUDDLE_API_BASE_URL", "http://10.0.2.2:8080")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.BaseURL != "http://10.0.2.2:8080" {
		t.Fatalf("API.BaseURL = %q", cfg.API.BaseURL)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "missing_base_url", body: "log:\n  level: info\n", wantErr: "api.base_url is required"},
		{name: "relative_base_url", body: "api:\n  base_url: /api\n", wantErr: "absolute http(s) URL"},
		{name: "poll_too_fast", body: "api:\n  base_url: http://x\nchat:\n  poll_interval: 100ms\n", wantErr: "at least 500ms"},
		{name: "bad_level", body: "api:\n  base_url: http://x\nlog:\n  level: loud\n", wantErr: "log.level"},
		{name: "bad_format", body: "api:\n  base_url: http://x\nlog:\n  format: xml\n", wantErr: "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv("HUDDLE_API_BASE_URL", "")

			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
