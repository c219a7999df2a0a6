package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 8080
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Dataset.Source != "demo" {
		t.Errorf("dataset.source: got %q, want demo", cfg.Dataset.Source)
	}
	if cfg.Scraper.Interval != DefaultScraperInterval {
		t.Errorf("scraper.interval: got %v, want %v", cfg.Scraper.Interval, DefaultScraperInterval)
	}
	if cfg.Scraper.Enabled {
		t.Error("scraper enabled by default")
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 9091
  broadcast_interval: 10s
  auth:
    mode: apikey
    key_env: BL_KEY
    header: x-bl-key
dataset:
  source: file
  path: ./corpus.yaml
  watch: true
scraper:
  enabled: true
  endpoint: http://gateway:9100/metrics
  interval: 15s
alerts:
  rules:
    - name: titer variability high
      condition: "titer_cv > 12"
      severity: warning
      cooldown: 30m
  webhooks:
    - type: slack
      url_env: SLACK_WEBHOOK
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 9091 {
		t.Errorf("http_port: got %d, want 9091", cfg.Server.HTTPPort)
	}
	if cfg.Server.BroadcastInterval != 10*time.Second {
		t.Errorf("broadcast_interval: got %v, want 10s", cfg.Server.BroadcastInterval)
	}
	if cfg.Server.Auth.Mode != "apikey" || cfg.Server.Auth.Header != "x-bl-key" {
		t.Errorf("auth: got %+v", cfg.Server.Auth)
	}
	if cfg.Dataset.Source != "file" || cfg.Dataset.Path != "./corpus.yaml" || !cfg.Dataset.Watch {
		t.Errorf("dataset: got %+v", cfg.Dataset)
	}
	if !cfg.Scraper.Enabled || cfg.Scraper.Interval != 15*time.Second {
		t.Errorf("scraper: got %+v", cfg.Scraper)
	}
	if len(cfg.Alerts.Rules) != 1 || cfg.Alerts.Rules[0].Cooldown != 30*time.Minute {
		t.Errorf("alert rules: got %+v", cfg.Alerts.Rules)
	}
	if len(cfg.Alerts.Webhooks) != 1 || cfg.Alerts.Webhooks[0].Type != "slack" {
		t.Errorf("webhooks: got %+v", cfg.Alerts.Webhooks)
	}
}

func TestLoad_KeyEnvResolution(t *testing.T) {
	t.Setenv("BL_TEST_KEY", "sekrit")
	a := AuthConfig{Mode: "apikey", KeyEnv: "BL_TEST_KEY"}
	if got := a.Key(); got != "sekrit" {
		t.Errorf("Key: got %q, want sekrit", got)
	}
	if got := (AuthConfig{}).Key(); got != "" {
		t.Errorf("unset KeyEnv: got %q, want empty", got)
	}
	if got := a.EffectiveHeader(); got != "x-api-key" {
		t.Errorf("EffectiveHeader default: got %q", got)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad port", "server:\n  http_port: 99999\n", "out of range"},
		{"bad auth mode", "server:\n  auth:\n    mode: wizardry\n", "auth.mode"},
		{"unknown source", "dataset:\n  source: carrier-pigeon\n", "dataset.source"},
		{"file source without path", "dataset:\n  source: file\n", "requires dataset.path"},
		{"scraper without endpoint", "scraper:\n  enabled: true\n", "scraper.endpoint"},
		{"rule without condition", "alerts:\n  rules:\n    - name: r1\n", "missing condition"},
		{"bad severity", "alerts:\n  rules:\n    - name: r1\n      condition: \"titer_cv > 1\"\n      severity: loud\n", "severity"},
		{"bad webhook type", "alerts:\n  webhooks:\n    - type: fax\n", "webhooks[0] type"},
		{"broken yaml", "server: [\n", "parse yaml"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := writeConfig(t, tc.content)
			_, err := Load(p)
			if err == nil {
				t.Fatal("want error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("want error for missing file")
	}
}
