package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/batchlens/batchlens/internal/provider"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort        = 8080
	DefaultScraperInterval = 30 * time.Second
	DefaultAlertCooldown   = 15 * time.Minute
)

// Config is the full batchlens-server configuration tree.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Dataset DatasetConfig `yaml:"dataset"`
	Scraper ScraperConfig `yaml:"scraper"`
	Alerts  AlertsConfig  `yaml:"alerts"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API and WebSocket hub listen on
	// (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Auth controls write access to the dataset endpoint. Read access
	// is never authenticated; the dashboard is an internal tool.
	Auth AuthConfig `yaml:"auth"`

	// BroadcastInterval, when positive, re-broadcasts the KPI summary
	// to WebSocket clients on a timer in addition to the broadcast on
	// every snapshot swap. Zero disables the timer.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
}

// AuthConfig controls authentication of dataset writes.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable holding the
	// expected API key. Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header the key is read from.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default
// "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// DatasetConfig selects where the corpus snapshot comes from.
type DatasetConfig struct {
	// Source is one of: demo | file | sqlite (default demo).
	Source string `yaml:"source"`

	// Path is the corpus file or database path for the file-backed
	// sources.
	Path string `yaml:"path"`

	// Watch republishes the snapshot when the corpus file changes.
	// Only meaningful for the file source.
	Watch bool `yaml:"watch"`
}

// ScraperConfig controls polling of the equipment gateway for live
// bioreactor statuses.
type ScraperConfig struct {
	// Enabled turns the poller on.
	Enabled bool `yaml:"enabled"`

	// Endpoint is the gateway's metrics URL, e.g.
	// "http://gateway:9100/metrics".
	Endpoint string `yaml:"endpoint"`

	// Interval is the polling period (default 30s).
	Interval time.Duration `yaml:"interval"`
}

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one threshold-based alert condition evaluated
// against the headline KPI rollup after every snapshot swap.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the
	// deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression over KPI fields:
	// "titer_cv > 12", "pass_rate < 90", "high_risk_count >= 3".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert
	// fires. Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the
	// webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the config file at path. Missing fields are
// filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
		},
		Dataset: DatasetConfig{
			Source: provider.SourceDemo,
		},
		Scraper: ScraperConfig{
			Interval: DefaultScraperInterval,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.BroadcastInterval < 0 {
		return fmt.Errorf("server.broadcast_interval must not be negative")
	}

	switch cfg.Dataset.Source {
	case provider.SourceDemo, "":
	case provider.SourceFile, provider.SourceSQLite:
		if cfg.Dataset.Path == "" {
			return fmt.Errorf("dataset.source %q requires dataset.path", cfg.Dataset.Source)
		}
	default:
		return fmt.Errorf("dataset.source %q unknown: want demo|file|sqlite", cfg.Dataset.Source)
	}

	if cfg.Scraper.Enabled {
		if cfg.Scraper.Endpoint == "" {
			return fmt.Errorf("scraper.enabled requires scraper.endpoint")
		}
		if cfg.Scraper.Interval < time.Second {
			return fmt.Errorf("scraper.interval %v is too short: want >= 1s", cfg.Scraper.Interval)
		}
	}

	for i, r := range cfg.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("alerts.rules[%d] missing name", i)
		}
		if r.Condition == "" {
			return fmt.Errorf("alerts.rules[%d] (%s) missing condition", i, r.Name)
		}
		switch r.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("alerts.rules[%d] (%s) severity %q unknown: want critical|warning|info",
				i, r.Name, r.Severity)
		}
		if r.Cooldown < 0 {
			return fmt.Errorf("alerts.rules[%d] (%s) cooldown must not be negative", i, r.Name)
		}
	}
	for i, w := range cfg.Alerts.Webhooks {
		switch w.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d] type %q unknown: want slack|teams|http", i, w.Type)
		}
	}

	return nil
}
