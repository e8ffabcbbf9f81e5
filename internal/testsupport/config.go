package testsupport

import (
	"path/filepath"
	"testing"

	"dubwatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Engine.BaseURL = "http://127.0.0.1:0"
	cfg.Engine.APIToken = "test-token"
	cfg.Engine.Scope = "test-scope"
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithScope overrides the engine scope on the test config.
func WithScope(scope string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Engine.Scope = scope
	}
}

// WithBaseURL points the test config at a live test server.
func WithBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Engine.BaseURL = url
	}
}
