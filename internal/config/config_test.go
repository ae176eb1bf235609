package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero concurrency", func(c *Config) { c.Engine.Concurrency = 0 }},
		{"zero queue", func(c *Config) { c.Engine.QueueSize = 0 }},
		{"bad fetcher", func(c *Config) { c.Fetcher.Type = "curl" }},
		{"bad storage", func(c *Config) { c.Storage.Type = "postgres" }},
		{"mongo without uri", func(c *Config) { c.Storage.MongoURI = "" }},
		{"sqlite without path", func(c *Config) { c.Storage.Type = "sqlite"; c.Storage.SQLitePath = "" }},
		{"bad provider", func(c *Config) { c.Sentiment.Provider = "textblob" }},
		{"zero max chars", func(c *Config) { c.Sentiment.MaxChars = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad proxy rotation", func(c *Config) { c.Proxy.Enabled = true; c.Proxy.Rotation = "sticky" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://www.bbc.com/news", false},
		{"http://example.com", false},
		{"ftp://example.com", true},
		{"https://", true},
		{"not a url", true},
	}
	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) err = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "insightbot.yaml")
	content := []byte(`
storage:
  type: sqlite
  sqlite_path: /tmp/articles.db
engine:
  concurrency: 2
  request_timeout: 5s
sentiment:
  provider: none
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.SQLitePath != "/tmp/articles.db" {
		t.Errorf("storage not loaded: %+v", cfg.Storage)
	}
	if cfg.Engine.Concurrency != 2 {
		t.Errorf("concurrency = %d, want 2", cfg.Engine.Concurrency)
	}
	if cfg.Engine.RequestTimeout != 5*time.Second {
		t.Errorf("request_timeout = %v, want 5s", cfg.Engine.RequestTimeout)
	}
	if cfg.Storage.Database != "insightbot" {
		t.Errorf("database default lost: %q", cfg.Storage.Database)
	}
	if cfg.Sentiment.Provider != "none" {
		t.Errorf("provider = %q, want none", cfg.Sentiment.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("INSIGHTBOT_STORAGE_COLLECTION", "news")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Collection != "news" {
		t.Errorf("collection = %q, want news", cfg.Storage.Collection)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}
