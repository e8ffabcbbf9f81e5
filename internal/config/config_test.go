package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dubwatch/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[engine]
base_url = "https://engine.example.com/api/v1/"
api_token = "token"
scope = "proj-1"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved=%q exists=%v", resolved, exists)
	}
	if cfg.Engine.BaseURL != "https://engine.example.com/api/v1" {
		t.Fatalf("base_url not trimmed: %q", cfg.Engine.BaseURL)
	}
	if cfg.Watch.JobPollInterval != 8 || cfg.Watch.ActivePollInterval != 5 {
		t.Fatalf("poll defaults not applied: %+v", cfg.Watch)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("logging defaults not applied: %+v", cfg.Logging)
	}
}

func TestLoadRejectsMissingEngine(t *testing.T) {
	path := writeConfig(t, `
[engine]
base_url = ""
`)
	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "engine.base_url") || !strings.Contains(err.Error(), "engine.scope") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsBadLoggingFormat(t *testing.T) {
	path := writeConfig(t, `
[engine]
base_url = "https://engine.example.com"
scope = "proj-1"

[logging]
format = "xml"
`)
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("expected logging.format error, got %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	expanded, err := config.ExpandPath("~/dubwatch-test")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if expanded != filepath.Join(home, "dubwatch-test") {
		t.Fatalf("expanded = %q", expanded)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when file exists")
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/tmp/dubwatch-test"
	if cfg.DatabasePath() != "/tmp/dubwatch-test/dubwatch.db" {
		t.Fatalf("DatabasePath = %q", cfg.DatabasePath())
	}
	if cfg.SocketPath() != "/tmp/dubwatch-test/dubwatch.sock" {
		t.Fatalf("SocketPath = %q", cfg.SocketPath())
	}
}
