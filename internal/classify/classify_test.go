package classify_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tidycore/internal/classify"
	"tidycore/internal/config"
	"tidycore/internal/engine"
	"tidycore/internal/rules"
)

func stockProvider() *rules.Provider {
	return rules.NewProvider(rules.Compile(config.DefaultRules(), "Others"))
}

func seedFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestClassifyFileMatchesRuleTree(t *testing.T) {
	classifier := classify.New(stockProvider(), config.FolderModeSmartScan, 64, nil)
	path := seedFile(t, t.TempDir(), "report.pdf", "content")

	decision, err := classifier.Classify(path, false)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if decision.Category != "Documents" || decision.Subcategory != "PDF" || decision.IsFolder {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}

func TestClassifyUnmatchedFileGetsDefault(t *testing.T) {
	classifier := classify.New(stockProvider(), config.FolderModeSmartScan, 64, nil)
	path := seedFile(t, t.TempDir(), "mystery.xyz", "content")

	decision, err := classifier.Classify(path, false)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if decision.Category != "Others" {
		t.Fatalf("expected default category, got %q", decision.Category)
	}
}

func TestClassifySkipsEmptyFile(t *testing.T) {
	classifier := classify.New(stockProvider(), config.FolderModeSmartScan, 64, nil)
	path := seedFile(t, t.TempDir(), "empty.pdf", "")

	_, err := classifier.Classify(path, false)
	if !errors.Is(err, engine.ErrClassificationSkipped) {
		t.Fatalf("expected skip sentinel, got %v", err)
	}
}

func TestClassifySkipsMissingFile(t *testing.T) {
	classifier := classify.New(stockProvider(), config.FolderModeSmartScan, 64, nil)

	_, err := classifier.Classify(filepath.Join(t.TempDir(), "absent.pdf"), false)
	if !errors.Is(err, engine.ErrClassificationSkipped) {
		t.Fatalf("expected skip sentinel, got %v", err)
	}
}

func TestClassifyFolderSmartScan(t *testing.T) {
	classifier := classify.New(stockProvider(), config.FolderModeSmartScan, 64, nil)
	dir := t.TempDir()
	project := filepath.Join(dir, "ProjectX")
	if err := os.Mkdir(project, 0o755); err != nil {
		t.Fatalf("mkdir fixture: %v", err)
	}
	seedFile(t, project, "a.jpg", "xx")
	seedFile(t, project, "b.jpg", "xx")
	seedFile(t, project, "notes.txt", "xx")

	decision, err := classifier.Classify(project, true)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if decision.Category != "Images" || !decision.IsFolder {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}

func TestClassifyFolderMoveToOthers(t *testing.T) {
	classifier := classify.New(stockProvider(), config.FolderModeMoveToOthers, 64, nil)

	decision, err := classifier.Classify(t.TempDir(), true)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if decision.Category != "Others" || !decision.IsFolder {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}

func TestClassifyFolderIgnoreModeSkips(t *testing.T) {
	classifier := classify.New(stockProvider(), config.FolderModeIgnore, 64, nil)

	_, err := classifier.Classify(t.TempDir(), true)
	if !errors.Is(err, engine.ErrClassificationSkipped) {
		t.Fatalf("expected skip sentinel, got %v", err)
	}
}

func TestDestinationComposesSegments(t *testing.T) {
	got := classify.Destination("/watch", classify.Decision{Category: "Documents", Subcategory: "PDF"})
	if got != filepath.Join("/watch", "Documents", "PDF") {
		t.Fatalf("unexpected destination: %q", got)
	}
	got = classify.Destination("/watch", classify.Decision{Category: "Images"})
	if got != filepath.Join("/watch", "Images") {
		t.Fatalf("unexpected destination: %q", got)
	}
}
