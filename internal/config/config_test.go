package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:8080" {
		t.Fatalf("http addr = %q", cfg.HTTPAddr)
	}
	if cfg.ProviderMode != ProviderModeMock {
		t.Fatalf("provider mode = %q", cfg.ProviderMode)
	}
	if cfg.StateBackend != StateBackendMemory {
		t.Fatalf("state backend = %q", cfg.StateBackend)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PROMPTFILE_HTTP_ADDR", "127.0.0.1:9191")
	t.Setenv("PROMPTFILE_LOG_LEVEL", "debug")
	t.Setenv("PROMPTFILE_DEFAULT_MODEL", "openai/gpt-4o")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9191" {
		t.Fatalf("http addr = %q", cfg.HTTPAddr)
	}
	if cfg.DefaultModel != "openai/gpt-4o" {
		t.Fatalf("default model = %q", cfg.DefaultModel)
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		t.Fatalf("SlogLevel: %v", err)
	}
	if level != slog.LevelDebug {
		t.Fatalf("level = %v", level)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "promptfile.yaml")
	document := "http_addr: 127.0.0.1:7070\nprompt_dir: /srv/prompts\nshutdown_timeout: 10s\n"
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:7070" {
		t.Fatalf("http addr = %q", cfg.HTTPAddr)
	}
	if cfg.PromptDir != "/srv/prompts" {
		t.Fatalf("prompt dir = %q", cfg.PromptDir)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("shutdown timeout = %v", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"openai mode without api key", func(c *Config) { c.ProviderMode = ProviderModeOpenAI }},
		{"unknown provider mode", func(c *Config) { c.ProviderMode = "azure" }},
		{"disk backend without data dir", func(c *Config) { c.StateBackend = StateBackendDisk; c.DataDir = "" }},
		{"unknown state backend", func(c *Config) { c.StateBackend = "s3" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"empty prompt dir", func(c *Config) { c.PromptDir = "" }},
		{"empty default model", func(c *Config) { c.DefaultModel = "" }},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }},
		{"zero max attempts", func(c *Config) { c.ProviderMaxAttempts = 0 }},
		{"zero body limit", func(c *Config) { c.MaxRequestBodyBytes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
