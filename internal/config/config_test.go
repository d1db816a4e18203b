package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SMARTMAIL_API_URL", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("default base_url = %q, want %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if got := cfg.PollInterval(); got != 2*time.Second {
		t.Errorf("default poll interval = %v, want 2s", got)
	}
	if got := cfg.MonitorInterval(); got != 5*time.Second {
		t.Errorf("default monitor interval = %v, want 5s", got)
	}
	if got := cfg.ReplyTTL(); got != 5*time.Minute {
		t.Errorf("default reply ttl = %v, want 5m", got)
	}
	if got := cfg.SendDelay(); got != 500*time.Millisecond {
		t.Errorf("default send delay = %v, want 500ms", got)
	}
	if cfg.UI.PageSize != 25 {
		t.Errorf("default page_size = %d, want 25", cfg.UI.PageSize)
	}
}

func TestLoad_FromFile(t *testing.T) {
	t.Setenv("SMARTMAIL_API_URL", "")
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	content := `
[api]
base_url = "https://mail.example.com/api/v1"

[poll]
interval = "1s"
timeout = "0s"

[cache]
reply_ttl = "10m"

[log]
level = "debug"
format = "json"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.BaseURL != "https://mail.example.com/api/v1" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if got := cfg.PollInterval(); got != time.Second {
		t.Errorf("poll interval = %v, want 1s", got)
	}
	if got := cfg.PollTimeout(); got != 0 {
		t.Errorf("poll timeout = %v, want 0", got)
	}
	if got := cfg.ReplyTTL(); got != 10*time.Minute {
		t.Errorf("reply ttl = %v, want 10m", got)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log format = %q, want json", cfg.Log.Format)
	}
	// Untouched sections keep their defaults.
	if got := cfg.MonitorInterval(); got != 5*time.Second {
		t.Errorf("monitor interval = %v, want default 5s", got)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("Load() should return defaults for missing file, got error: %v", err)
	}
	if cfg.Poll.Interval != "2s" {
		t.Errorf("interval = %q, want default %q", cfg.Poll.Interval, "2s")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(cfgPath, []byte("not valid [[ toml"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(cfgPath)
	if err == nil {
		t.Fatal("Load() should return error for invalid TOML")
	}
	if !strings.Contains(err.Error(), "failed to parse config") {
		t.Errorf("error = %q, want it to contain %q", err.Error(), "failed to parse config")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SMARTMAIL_API_URL", "http://backend:9000/api/v1")
	t.Setenv("GOOGLE_CLIENT_ID", "id-from-env")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret-from-env")
	t.Setenv("SMARTMAIL_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.BaseURL != "http://backend:9000/api/v1" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.Auth.GoogleClientID != "id-from-env" || cfg.Auth.GoogleClientSecret != "secret-from-env" {
		t.Errorf("google credentials not taken from env: %+v", cfg.Auth)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
base_url = "https://mail.example.com/api/v1"

[log]
level = "warn"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	tests := []struct {
		name    string
		url     string
		level   string
		wantURL string
		wantLvl string
	}{
		{"unset keeps file", "", "", "https://mail.example.com/api/v1", "warn"},
		{"env wins", "http://backend:9000/api/v1", "debug", "http://backend:9000/api/v1", "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SMARTMAIL_API_URL", tt.url)
			t.Setenv("SMARTMAIL_LOG_LEVEL", tt.level)
			cfg, err := Load(cfgPath)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if cfg.API.BaseURL != tt.wantURL {
				t.Errorf("base_url = %q, want %q", cfg.API.BaseURL, tt.wantURL)
			}
			if cfg.Log.Level != tt.wantLvl {
				t.Errorf("log level = %q, want %q", cfg.Log.Level, tt.wantLvl)
			}
		})
	}
}

func TestDurations_InvalidFallsBack(t *testing.T) {
	cfg := defaults()
	cfg.Poll.Interval = "soon"
	cfg.Cache.ReplyTTL = "-1m"
	if got := cfg.PollInterval(); got != 2*time.Second {
		t.Errorf("PollInterval() = %v, want fallback 2s", got)
	}
	if got := cfg.ReplyTTL(); got != 5*time.Minute {
		t.Errorf("ReplyTTL() = %v, want fallback 5m", got)
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		dir := ConfigDir()
		want := "/custom/config/smartmail"
		if dir != want {
			t.Errorf("ConfigDir() = %q, want %q", dir, want)
		}
	})
	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		dir := ConfigDir()
		if !strings.HasSuffix(dir, filepath.Join(".config", "smartmail")) {
			t.Errorf("ConfigDir() = %q, want suffix %q", dir, filepath.Join(".config", "smartmail"))
		}
	})
}

func TestDataDir(t *testing.T) {
	t.Run("with XDG_DATA_HOME", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "/custom/data")
		dir := DataDir()
		want := "/custom/data/smartmail"
		if dir != want {
			t.Errorf("DataDir() = %q, want %q", dir, want)
		}
	})
	t.Run("without XDG_DATA_HOME", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "")
		dir := DataDir()
		if !strings.HasSuffix(dir, filepath.Join(".local", "share", "smartmail")) {
			t.Errorf("DataDir() = %q, want suffix %q", dir, filepath.Join(".local", "share", "smartmail"))
		}
	})
}
