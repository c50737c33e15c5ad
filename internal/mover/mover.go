// Package mover performs the engine's only filesystem mutation: the
// relocation of a settled file or folder into its category directory.
package mover

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"tidycore/internal/engine"
	"tidycore/internal/events"
	"tidycore/internal/logging"
)

// maxConflictAttempts caps the numeric-suffix probe before the resolver
// reports the destination namespace as saturated.
const maxConflictAttempts = 1000

// ResolveConflict returns a path free at the time of check. When the
// desired path is taken it probes "name (1).ext", "name (2).ext" and so
// on. The function never creates files; the atomic rename in Move
// covers the remaining race window.
func ResolveConflict(destPath string) (string, error) {
	if _, err := os.Lstat(destPath); errors.Is(err, fs.ErrNotExist) {
		return destPath, nil
	}

	dir := filepath.Dir(destPath)
	base := filepath.Base(destPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for attempt := 1; attempt <= maxConflictAttempts; attempt++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, attempt, ext))
		if _, err := os.Lstat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
	}
	return "", engine.Wrap(engine.ErrConflictExhausted, "mover", "resolve",
		fmt.Sprintf("no free name for %q after %d attempts", base, maxConflictAttempts), nil)
}

// Executor serializes moves per destination directory so the resolver's
// check-then-rename stays valid under concurrent classification.
type Executor struct {
	bus    *events.Bus
	logger *slog.Logger

	mu       sync.Mutex
	dirLocks map[string]*sync.Mutex
}

// NewExecutor builds an Executor. A nil bus disables record publishing,
// which the decision log uses for inverse moves.
func NewExecutor(bus *events.Bus, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		bus:      bus,
		logger:   logger,
		dirLocks: make(map[string]*sync.Mutex),
	}
}

func (e *Executor) lockFor(destDir string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, exists := e.dirLocks[destDir]
	if !exists {
		lock = &sync.Mutex{}
		e.dirLocks[destDir] = lock
	}
	return lock
}

// Move relocates source into destDir, resolving name conflicts, and
// publishes a MoveRecord on success. The publish survives caller
// cancellation; only a closed bus can drop the record. Failures leave
// the source untouched; a partial cross-volume copy is removed before
// returning.
func (e *Executor) Move(ctx context.Context, id, source, destDir, category, subcategory string, isFolder bool) (events.MoveRecord, error) {
	destDir = filepath.Clean(destDir)
	dirLock := e.lockFor(destDir)
	dirLock.Lock()
	defer dirLock.Unlock()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return events.MoveRecord{}, engine.Wrap(engine.ErrMoveFailed, "mover", "mkdir", destDir, err)
	}

	destPath, err := ResolveConflict(filepath.Join(destDir, filepath.Base(source)))
	if err != nil {
		return events.MoveRecord{}, err
	}

	sizeBytes := sizeOf(source)
	if err := Relocate(source, destPath); err != nil {
		return events.MoveRecord{}, err
	}

	record := events.MoveRecord{
		ID:              id,
		SourcePath:      source,
		DestinationPath: destPath,
		Category:        category,
		Subcategory:     subcategory,
		IsFolder:        isFolder,
		SizeBytes:       sizeBytes,
	}
	e.logger.Info("moved",
		logging.String(logging.FieldPath, source),
		logging.String("destination", destPath),
		logging.String(logging.FieldCategory, category))

	if e.bus != nil {
		// The rename already happened; a cancelled caller must not lose
		// the record, so only bus shutdown can abandon the publish.
		if err := e.bus.PublishRecord(context.WithoutCancel(ctx), record); err != nil {
			e.logger.Warn("move record dropped at shutdown",
				logging.String(logging.FieldPath, source),
				logging.Error(err))
		}
	}
	return record, nil
}

// Relocate renames source onto dest, falling back to copy-then-delete
// when the destination lives on another volume. The partial copy is
// removed if the fallback fails midway.
func Relocate(source, dest string) error {
	if err := os.Rename(source, dest); err != nil {
		var linkErr *os.LinkError
		if errors.As(err, &linkErr) && errors.Is(linkErr.Err, unix.EXDEV) {
			return crossVolumeMove(source, dest)
		}
		return engine.Wrap(engine.ErrMoveFailed, "mover", "rename", source, err)
	}
	return nil
}

func crossVolumeMove(source, dest string) error {
	info, err := os.Lstat(source)
	if err != nil {
		return engine.Wrap(engine.ErrMoveFailed, "mover", "stat", source, err)
	}

	var copyErr error
	if info.IsDir() {
		copyErr = copyTree(source, dest)
	} else {
		copyErr = copyFile(source, dest, info.Mode())
	}
	if copyErr != nil {
		os.RemoveAll(dest)
		return engine.Wrap(engine.ErrMoveFailed, "mover", "copy", "cross-volume copy aborted", copyErr)
	}
	if err := os.RemoveAll(source); err != nil {
		return engine.Wrap(engine.ErrMoveFailed, "mover", "cleanup", "remove source after copy", err)
	}
	return nil
}

func copyTree(source, dest string) error {
	return filepath.WalkDir(source, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relative, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, relative)
		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if entry.Type() != 0 {
			// Skip special files.
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(source, dest string, mode os.FileMode) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func sizeOf(path string) int64 {
	info, err := os.Lstat(path)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		return info.Size()
	}
	var total int64
	filepath.WalkDir(path, func(_ string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return nil
		}
		if info, err := entry.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
