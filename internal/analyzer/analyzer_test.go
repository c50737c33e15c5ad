package analyzer_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tidycore/internal/analyzer"
	"tidycore/internal/config"
	"tidycore/internal/rules"
)

func stockTree() *rules.Tree {
	return rules.Compile(config.DefaultRules(), "Others")
}

func seedFile(t *testing.T, dir, name string, size int) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create fixture dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(strings.Repeat("x", size)), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func TestAnalyzePicksPluralityCategory(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 8; i++ {
		seedFile(t, root, fmt.Sprintf("photo%d.jpg", i), 10)
	}
	seedFile(t, root, "notes.txt", 10)
	seedFile(t, root, "readme.md", 10)

	result := analyzer.Analyze(root, stockTree(), 64)
	if result.Category != "Images" {
		t.Fatalf("expected Images, got %q", result.Category)
	}
	if result.Sampled != 10 {
		t.Fatalf("expected 10 sampled files, got %d", result.Sampled)
	}
}

func TestAnalyzeRecursesIntoSubfolders(t *testing.T) {
	root := t.TempDir()
	seedFile(t, filepath.Join(root, "shots"), "a.png", 10)
	seedFile(t, filepath.Join(root, "shots"), "b.png", 10)
	seedFile(t, root, "notes.txt", 10)

	result := analyzer.Analyze(root, stockTree(), 64)
	if result.Category != "Images" {
		t.Fatalf("expected Images, got %q", result.Category)
	}
}

func TestAnalyzeTieBreaksBySampledSize(t *testing.T) {
	root := t.TempDir()
	seedFile(t, root, "clip.mp4", 100)
	seedFile(t, root, "photo.jpg", 10)

	result := analyzer.Analyze(root, stockTree(), 64)
	if result.Category != "Videos" {
		t.Fatalf("expected size tie-break toward Videos, got %q", result.Category)
	}
}

func TestAnalyzeTieBreaksAlphabetically(t *testing.T) {
	root := t.TempDir()
	seedFile(t, root, "clip.mp4", 10)
	seedFile(t, root, "photo.jpg", 10)

	result := analyzer.Analyze(root, stockTree(), 64)
	if result.Category != "Images" {
		t.Fatalf("expected alphabetical tie-break toward Images, got %q", result.Category)
	}
}

func TestAnalyzeEmptyFolderReturnsDefault(t *testing.T) {
	result := analyzer.Analyze(t.TempDir(), stockTree(), 64)
	if result.Category != "Others" {
		t.Fatalf("expected default category, got %q", result.Category)
	}
	if result.Sampled != 0 {
		t.Fatalf("expected zero sampled files, got %d", result.Sampled)
	}
}

func TestAnalyzeHonorsSampleCap(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		seedFile(t, root, fmt.Sprintf("photo%02d.jpg", i), 1)
	}

	result := analyzer.Analyze(root, stockTree(), 5)
	if result.Sampled != 5 {
		t.Fatalf("expected sampling to stop at cap, sampled %d", result.Sampled)
	}
	if result.Category != "Images" {
		t.Fatalf("unexpected category: %q", result.Category)
	}
}

func TestAnalyzeSkipsHiddenEntries(t *testing.T) {
	root := t.TempDir()
	seedFile(t, root, ".hidden.jpg", 10)
	seedFile(t, filepath.Join(root, ".cache"), "a.jpg", 10)
	seedFile(t, root, "notes.txt", 10)

	result := analyzer.Analyze(root, stockTree(), 64)
	if result.Category != "Documents" {
		t.Fatalf("expected hidden entries skipped, got %q", result.Category)
	}
	if result.Sampled != 1 {
		t.Fatalf("expected one sampled file, got %d", result.Sampled)
	}
}
