package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tidycore/internal/config"
)

func TestSocketPath(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(t.TempDir(), "data")

	expected := filepath.Join(cfg.Paths.DataDir, "tidycored.sock")
	if got := socketPath(&cfg); got != expected {
		t.Fatalf("expected socket path %q, got %q", expected, got)
	}

	cfg.Daemon.SocketPath = "/tmp/custom.sock"
	if got := socketPath(&cfg); got != "/tmp/custom.sock" {
		t.Fatalf("expected configured socket path, got %q", got)
	}

	if got := socketPath(nil); !strings.HasSuffix(got, "tidycored.sock") {
		t.Fatalf("expected fallback socket path, got %q", got)
	}
}

func TestLoadConfigHonorsEnvOverride(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "inbox")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("mkdir root: %v", err)
	}

	configPath := filepath.Join(base, "config.toml")
	content := "[paths]\ntarget_folders = [\"" + root + "\"]\ndata_dir = \"" + filepath.Join(base, "data") + "\"\nlog_dir = \"" + filepath.Join(base, "logs") + "\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TIDYCORE_CONFIG", configPath)

	cfg, resolvedPath, exists, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if resolvedPath != configPath {
		t.Fatalf("expected resolved path %q, got %q", configPath, resolvedPath)
	}
	if len(cfg.Paths.TargetFolders) != 1 || cfg.Paths.TargetFolders[0] != root {
		t.Fatalf("unexpected target folders: %v", cfg.Paths.TargetFolders)
	}
}

func TestBuildLoggerDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}

	logger, err := buildLogger(&cfg)
	if err != nil {
		t.Fatalf("buildLogger: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger")
	}

	nop, err := buildLogger(nil)
	if err != nil {
		t.Fatalf("buildLogger(nil): %v", err)
	}
	if nop == nil {
		t.Fatal("expected fallback logger")
	}
}
