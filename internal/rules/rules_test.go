package rules_test

import (
	"testing"

	"tidycore/internal/config"
	"tidycore/internal/rules"
)

func stockTree(t *testing.T) *rules.Tree {
	t.Helper()
	return rules.Compile(config.DefaultRules(), "Others")
}

func TestClassifyFirstMatchWins(t *testing.T) {
	tree := rules.Compile([]config.Rule{
		{Category: "Reports", Patterns: []string{"report*"}},
		{Category: "Documents", Extensions: []string{".pdf"}},
	}, "Others")

	match, ok := tree.Classify("report.pdf")
	if !ok {
		t.Fatal("expected a rule match")
	}
	if match.Category != "Reports" {
		t.Fatalf("expected earlier sibling to win, got %q", match.Category)
	}
}

func TestClassifyDescendsIntoChildren(t *testing.T) {
	tree := stockTree(t)

	match, ok := tree.Classify("report.pdf")
	if !ok {
		t.Fatal("expected a rule match")
	}
	if match.Category != "Documents" || match.Subcategory != "PDF" {
		t.Fatalf("unexpected match: %+v", match)
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	tree := stockTree(t)

	match, ok := tree.Classify("HOLIDAY.JPG")
	if !ok || match.Category != "Images" {
		t.Fatalf("unexpected match: %+v ok=%v", match, ok)
	}
}

func TestClassifyFallsBackToDefault(t *testing.T) {
	tree := stockTree(t)

	match, ok := tree.Classify("mystery.xyz")
	if ok {
		t.Fatal("expected no rule match")
	}
	if match.Category != "Others" {
		t.Fatalf("expected default category, got %q", match.Category)
	}
}

func TestClassifyPatternMatcher(t *testing.T) {
	tree := rules.Compile([]config.Rule{
		{Category: "Screenshots", Patterns: []string{"screenshot*"}},
	}, "Others")

	match, ok := tree.Classify("Screenshot 2026-08-25.png")
	if !ok || match.Category != "Screenshots" {
		t.Fatalf("unexpected match: %+v ok=%v", match, ok)
	}
}

func TestIsCategoryFolder(t *testing.T) {
	tree := stockTree(t)

	for _, name := range []string{"Images", "images", "Others"} {
		if !tree.IsCategoryFolder(name) {
			t.Fatalf("expected %q to be a category folder", name)
		}
	}
	if tree.IsCategoryFolder("ProjectX") {
		t.Fatal("expected ProjectX to be classifiable")
	}
}

func TestCategoriesIncludeDefaultOnce(t *testing.T) {
	tree := rules.Compile([]config.Rule{
		{Category: "Images", Extensions: []string{".jpg"}},
		{Category: "Others", Extensions: []string{".bin"}},
	}, "Others")

	names := tree.Categories()
	if len(names) != 2 || names[0] != "Images" || names[1] != "Others" {
		t.Fatalf("unexpected categories: %v", names)
	}
}

func TestProviderSwapChangesSnapshot(t *testing.T) {
	provider := rules.NewProvider(stockTree(t))

	if match, _ := provider.Current().Classify("song.mp3"); match.Category != "Music" {
		t.Fatalf("unexpected category before swap: %q", match.Category)
	}

	provider.Swap(rules.Compile([]config.Rule{
		{Category: "Audio", Extensions: []string{".mp3"}},
	}, "Others"))

	if match, _ := provider.Current().Classify("song.mp3"); match.Category != "Audio" {
		t.Fatalf("unexpected category after swap: %q", match.Category)
	}
}
