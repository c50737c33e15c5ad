// Package testsupport builds throwaway daemon configurations for tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"tidycore/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per
// test: one watched root plus data and log directories.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	root := filepath.Join(base, "downloads")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("create watched root: %v", err)
	}

	cfg := config.Default()
	cfg.Paths.TargetFolders = []string{root}
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithFolderMode overrides the folder handling mode.
func WithFolderMode(mode string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Engine.FolderMode = mode
	}
}

// WithCooldownSeconds overrides the settle window.
func WithCooldownSeconds(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Engine.CooldownSeconds = seconds
	}
}

// WithNtfyTopic enables push notifications on the test config.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
	}
}

// WatchRoot returns the first watched root of a generated config.
func WatchRoot(cfg *config.Config) string {
	if cfg == nil || len(cfg.Paths.TargetFolders) == 0 {
		return ""
	}
	return cfg.Paths.TargetFolders[0]
}

// BaseDir returns the temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
