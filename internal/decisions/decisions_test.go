package decisions_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tidycore/internal/decisions"
	"tidycore/internal/engine"
	"tidycore/internal/events"
	"tidycore/internal/ignore"
)

func openStore(t *testing.T) *decisions.Store {
	t.Helper()
	store, err := decisions.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newLog(t *testing.T, store *decisions.Store, retention int) (*decisions.Log, *ignore.Set) {
	t.Helper()
	set, err := ignore.Load(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("load ignore set: %v", err)
	}
	return decisions.NewLog(store, set, nil, retention, nil), set
}

func folderRecord(source, dest string) events.MoveRecord {
	return events.MoveRecord{
		SourcePath:      source,
		DestinationPath: dest,
		Category:        "Images",
		IsFolder:        true,
		MovedAt:         time.Now(),
	}
}

func TestStoreInsertAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	decision := &decisions.Decision{
		ID:           "d1",
		OriginalPath: "/watch/ProjectX",
		NewPath:      "/watch/Images/ProjectX",
		Category:     "Images",
	}
	if err := store.Insert(ctx, decision); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "d1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.State != decisions.StateActive {
		t.Fatalf("expected active state, got %q", got.State)
	}
	if got.OriginalPath != decision.OriginalPath || got.Category != "Images" {
		t.Fatalf("unexpected decision: %+v", got)
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, decisions.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStorePruneKeepsNewest(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		decision := &decisions.Decision{
			ID:           fmt.Sprintf("d%d", i),
			OriginalPath: fmt.Sprintf("/watch/p%d", i),
			NewPath:      fmt.Sprintf("/watch/Images/p%d", i),
			Category:     "Images",
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Insert(ctx, decision); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	if err := store.Prune(ctx, 2); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	remaining, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 decisions after prune, got %d", len(remaining))
	}
	if remaining[0].ID != "d4" || remaining[1].ID != "d3" {
		t.Fatalf("expected newest decisions kept, got %s and %s", remaining[0].ID, remaining[1].ID)
	}
}

func TestLogRecordAppliesRetention(t *testing.T) {
	store := openStore(t)
	log, _ := newLog(t, store, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		record := folderRecord(fmt.Sprintf("/watch/p%d", i), fmt.Sprintf("/watch/Images/p%d", i))
		record.MovedAt = time.Now().Add(time.Duration(i) * time.Millisecond)
		if _, err := log.Record(ctx, record); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected retention cap of 3, got %d", count)
	}
}

func TestUndoRestoresFolder(t *testing.T) {
	store := openStore(t)
	log, _ := newLog(t, store, 10)
	ctx := context.Background()

	root := t.TempDir()
	moved := filepath.Join(root, "Images", "ProjectX")
	if err := os.MkdirAll(moved, 0o755); err != nil {
		t.Fatalf("mkdir fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(moved, "a.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	original := filepath.Join(root, "ProjectX")

	decision, err := log.Record(ctx, folderRecord(original, moved))
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	undone, err := log.Undo(ctx, decision.ID)
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if undone.State != decisions.StateUndone {
		t.Fatalf("expected undone state, got %q", undone.State)
	}
	if _, err := os.Stat(filepath.Join(original, "a.jpg")); err != nil {
		t.Fatalf("folder not restored: %v", err)
	}

	if _, err := log.Undo(ctx, decision.ID); err == nil {
		t.Fatal("expected second undo to be rejected")
	}
}

func TestUndoConflictLeavesDecisionActive(t *testing.T) {
	store := openStore(t)
	log, _ := newLog(t, store, 10)
	ctx := context.Background()

	root := t.TempDir()
	moved := filepath.Join(root, "Images", "ProjectX")
	if err := os.MkdirAll(moved, 0o755); err != nil {
		t.Fatalf("mkdir fixture: %v", err)
	}
	original := filepath.Join(root, "ProjectX")
	if err := os.Mkdir(original, 0o755); err != nil {
		t.Fatalf("occupy original path: %v", err)
	}

	decision, err := log.Record(ctx, folderRecord(original, moved))
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	_, err = log.Undo(ctx, decision.ID)
	if !errors.Is(err, engine.ErrUndoConflict) {
		t.Fatalf("expected undo conflict, got %v", err)
	}

	got, err := store.GetByID(ctx, decision.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.State != decisions.StateActive {
		t.Fatalf("expected decision to stay active, got %q", got.State)
	}
	if _, err := os.Stat(moved); err != nil {
		t.Fatalf("moved folder should stay put: %v", err)
	}
}

func TestIgnoreAddsOriginalPathToIgnoreSet(t *testing.T) {
	store := openStore(t)
	log, set := newLog(t, store, 10)
	ctx := context.Background()

	root := t.TempDir()
	original := filepath.Join(root, "ProjectX")
	moved := filepath.Join(root, "Images", "ProjectX")

	decision, err := log.Record(ctx, folderRecord(original, moved))
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	ignored, err := log.Ignore(ctx, decision.ID)
	if err != nil {
		t.Fatalf("Ignore failed: %v", err)
	}
	if ignored.State != decisions.StateIgnored {
		t.Fatalf("expected ignored state, got %q", ignored.State)
	}
	if !set.Match(original) {
		t.Fatal("expected original path in ignore set")
	}

	if _, err := log.Undo(ctx, decision.ID); err == nil {
		t.Fatal("expected undo of ignored decision to be rejected")
	}
}
