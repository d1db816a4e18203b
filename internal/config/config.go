package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// DefaultBaseURL is the backend address used when nothing else is configured.
const DefaultBaseURL = "http://localhost:8000/api/v1"

// Config holds all smartmail configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Auth      AuthConfig      `toml:"auth"`
	Poll      PollConfig      `toml:"poll"`
	Cache     CacheConfig     `toml:"cache"`
	Bulk      BulkConfig      `toml:"bulk"`
	UI        UIConfig        `toml:"ui"`
	Log       LogConfig       `toml:"log"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Profiles  ProfilesConfig  `toml:"profiles"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// AuthConfig holds Google OAuth credentials used for the loopback login flow.
// Users supply their own client via config file or env vars.
type AuthConfig struct {
	GoogleClientID     string `toml:"google_client_id"`
	GoogleClientSecret string `toml:"google_client_secret"`
	BypassAuth         bool   `toml:"bypass_auth"`
}

// PollConfig holds job polling settings.
type PollConfig struct {
	Interval        string `toml:"interval"`
	MonitorInterval string `toml:"monitor_interval"`
	Timeout         string `toml:"timeout"`
}

// CacheConfig holds reply cache settings.
type CacheConfig struct {
	ReplyTTL string `toml:"reply_ttl"`
}

// BulkConfig holds bulk operation settings.
type BulkConfig struct {
	SendDelay          string `toml:"send_delay"`
	PreviewConcurrency int    `toml:"preview_concurrency"`
}

// UIConfig holds TUI display settings.
type UIConfig struct {
	Theme    string `toml:"theme"`
	PageSize int    `toml:"page_size"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// TelemetryConfig holds OpenTelemetry exporter settings.
type TelemetryConfig struct {
	Enabled         bool   `toml:"enabled"`
	MetricsExporter string `toml:"metrics_exporter"`
	TracingExporter string `toml:"tracing_exporter"`
	OTLPEndpoint    string `toml:"otlp_endpoint"`
	OTLPInsecure    bool   `toml:"otlp_insecure"`
	MetricsAddr     string `toml:"metrics_addr"`
}

// ProfilesConfig holds profile selection settings.
type ProfilesConfig struct {
	Default string `toml:"default"`
}

func defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: "30s",
		},
		Poll: PollConfig{
			Interval:        "2s",
			MonitorInterval: "5s",
			Timeout:         "5m",
		},
		Cache: CacheConfig{
			ReplyTTL: "5m",
		},
		Bulk: BulkConfig{
			SendDelay:          "500ms",
			PreviewConcurrency: 4,
		},
		UI: UIConfig{
			Theme:    "default",
			PageSize: 25,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			MetricsExporter: "none",
			TracingExporter: "none",
			MetricsAddr:     "127.0.0.1:9464",
		},
	}
}

// Load reads config from path. If path is empty, returns defaults.
// Environment overrides are applied after the file.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}
	cfg.applyEnv()
	return &cfg, nil
}

// envBindings maps config keys to the environment variables that override
// them. Empty variables are ignored.
var envBindings = map[string]string{
	"api.base_url":              "SMARTMAIL_API_URL",
	"auth.google_client_id":     "GOOGLE_CLIENT_ID",
	"auth.google_client_secret": "GOOGLE_CLIENT_SECRET",
	"log.level":                 "SMARTMAIL_LOG_LEVEL",
}

func (c *Config) applyEnv() {
	env := viper.New()
	for key, name := range envBindings {
		_ = env.BindEnv(key, name)
	}
	set := func(key string, dst *string) {
		if v := env.GetString(key); v != "" {
			*dst = v
		}
	}
	set("api.base_url", &c.API.BaseURL)
	set("auth.google_client_id", &c.Auth.GoogleClientID)
	set("auth.google_client_secret", &c.Auth.GoogleClientSecret)
	set("log.level", &c.Log.Level)
}

// APITimeout returns the HTTP timeout for backend calls.
func (c *Config) APITimeout() time.Duration {
	return parseDuration(c.API.Timeout, 30*time.Second)
}

// PollInterval returns the delay between job status checks.
func (c *Config) PollInterval() time.Duration {
	return parseDuration(c.Poll.Interval, 2*time.Second)
}

// MonitorInterval returns the job monitor refresh period.
func (c *Config) MonitorInterval() time.Duration {
	return parseDuration(c.Poll.MonitorInterval, 5*time.Second)
}

// PollTimeout returns the overall deadline for waiting on one job.
// Zero means wait until the context is cancelled.
func (c *Config) PollTimeout() time.Duration {
	return parseDuration(c.Poll.Timeout, 5*time.Minute)
}

// ReplyTTL returns how long a generated auto-reply stays cached.
func (c *Config) ReplyTTL() time.Duration {
	return parseDuration(c.Cache.ReplyTTL, 5*time.Minute)
}

// SendDelay returns the pause between consecutive bulk sends.
func (c *Config) SendDelay() time.Duration {
	return parseDuration(c.Bulk.SendDelay, 500*time.Millisecond)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// ConfigDir returns the smartmail config directory path.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "smartmail")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "smartmail")
}

// DataDir returns the smartmail data directory path.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "smartmail")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "smartmail")
}
