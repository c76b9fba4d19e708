// Package testsupport provides fixtures shared by montage test suites.
package testsupport

import (
	"path/filepath"
	"testing"

	"montage/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.MediaDir = filepath.Join(base, "media")
	cfg.Paths.RenderDir = filepath.Join(base, "renders")
	cfg.Paths.ProjectDir = filepath.Join(base, "projects")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return &cfg
}

// WithWatermark enables the watermark with the given label.
func WithWatermark(label string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Watermark.Enabled = true
		cfg.Watermark.Label = label
	}
}

// WithRemoteQueue points render submission at a remote queue service.
func WithRemoteQueue(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Queue.RemoteURL = url
	}
}
