package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tidycore/internal/engine"
	"tidycore/internal/logging"
)

func TestNewWritesConsoleFormatToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tidycore.log")
	logger, err := logging.New(logging.Options{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("file organized", logging.String(logging.FieldCategory, "Documents"))
	logger.Debug("should be filtered")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "INFO file organized") {
		t.Fatalf("expected info line, got %q", out)
	}
	if !strings.Contains(out, "category=Documents") {
		t.Fatalf("expected category attr, got %q", out)
	}
	if strings.Contains(out, "should be filtered") {
		t.Fatalf("debug line leaked through info level: %q", out)
	}
}

func TestNewJSONFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tidycore.log")
	logger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("move completed")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"move completed"`) {
		t.Fatalf("expected JSON msg key, got %q", data)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsRootAndPath(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tidycore.log")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := engine.WithRoot(context.Background(), "/downloads")
	ctx = engine.WithPath(ctx, "/downloads/report.pdf")
	logging.WithContext(ctx, logger).Info("settled")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "root=/downloads") || !strings.Contains(out, "path=/downloads/report.pdf") {
		t.Fatalf("expected context fields, got %q", out)
	}
}

func TestConsoleHandlerPromotesComponent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tidycore.log")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.NewComponentLogger(logger, "watcher").Info("scan complete")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "watcher: scan complete") {
		t.Fatalf("expected component prefix, got %q", data)
	}
}
