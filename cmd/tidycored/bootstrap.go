package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"tidycore/internal/config"
	"tidycore/internal/logging"
)

func loadConfig() (*config.Config, string, bool, error) {
	path := os.Getenv("TIDYCORE_CONFIG")
	return config.Load(path)
}

func buildLogger(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return logging.New(logging.Options{})
	}
	return logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", cfg.LogPath()},
		ErrorOutputPaths: []string{"stderr", cfg.LogPath()},
	})
}

func socketPath(cfg *config.Config) string {
	if cfg == nil {
		return filepath.Join(os.TempDir(), "tidycored.sock")
	}
	return cfg.SocketPath()
}
