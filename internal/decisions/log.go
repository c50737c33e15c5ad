package decisions

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"

	"tidycore/internal/engine"
	"tidycore/internal/events"
	"tidycore/internal/ignore"
	"tidycore/internal/logging"
	"tidycore/internal/mover"
)

// Log is the engine's decision surface. Commands arrive asynchronously
// from the control socket and are processed one at a time so an undo
// cannot race a concurrent move completion.
type Log struct {
	store     *Store
	ignoreSet *ignore.Set
	bus       *events.Bus
	retention int
	logger    *slog.Logger

	mu sync.Mutex
}

// NewLog wires the decision log to its store, the persistent ignore
// set, and the outward event bus.
func NewLog(store *Store, ignoreSet *ignore.Set, bus *events.Bus, retention int, logger *slog.Logger) *Log {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Log{
		store:     store,
		ignoreSet: ignoreSet,
		bus:       bus,
		retention: retention,
		logger:    logger,
	}
}

// Record persists a decision for a completed folder move and applies
// the retention cap.
func (l *Log) Record(ctx context.Context, record events.MoveRecord) (*Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	decision := &Decision{
		ID:           uuid.NewString(),
		OriginalPath: record.SourcePath,
		NewPath:      record.DestinationPath,
		Category:     record.Category,
		Subcategory:  record.Subcategory,
		State:        StateActive,
		CreatedAt:    record.MovedAt,
	}
	if err := l.store.Insert(ctx, decision); err != nil {
		return nil, err
	}
	if err := l.store.Prune(ctx, l.retention); err != nil {
		l.logger.Warn("decision retention prune failed", logging.Error(err))
	}

	l.logger.Info("decision recorded",
		logging.String(logging.FieldDecisionID, decision.ID),
		logging.String(logging.FieldPath, decision.OriginalPath),
		logging.String(logging.FieldCategory, decision.Category))
	if l.bus != nil {
		l.bus.PublishStatus(events.Status{
			Kind:   events.KindDecisionRecorded,
			Path:   decision.OriginalPath,
			Detail: decision.ID,
		})
	}
	return decision, nil
}

// Undo moves a folder back to its original path and marks the decision
// undone. If something now occupies the original path the decision
// stays active and the caller resolves the conflict manually.
func (l *Log) Undo(ctx context.Context, id string) (*Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	decision, err := l.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if decision.State != StateActive {
		return nil, fmt.Errorf("decision %s is %s and cannot be undone", id, decision.State)
	}

	if _, err := os.Lstat(decision.OriginalPath); !errors.Is(err, fs.ErrNotExist) {
		return nil, engine.Wrap(engine.ErrUndoConflict, "decisions", "undo",
			fmt.Sprintf("%q is occupied", decision.OriginalPath), nil)
	}
	if err := mover.Relocate(decision.NewPath, decision.OriginalPath); err != nil {
		return nil, err
	}
	if err := l.store.UpdateState(ctx, id, StateUndone); err != nil {
		return nil, err
	}
	decision.State = StateUndone

	l.logger.Info("decision undone",
		logging.String(logging.FieldDecisionID, id),
		logging.String(logging.FieldPath, decision.OriginalPath))
	if l.bus != nil {
		l.bus.PublishStatus(events.Status{
			Kind:   events.KindDecisionUndone,
			Path:   decision.OriginalPath,
			Detail: id,
		})
	}
	return decision, nil
}

// Ignore marks a decision ignored and persists its original path so the
// watcher filters that location before it reaches the scheduler. The
// moved folder stays where it is.
func (l *Log) Ignore(ctx context.Context, id string) (*Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	decision, err := l.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if decision.State == StateIgnored {
		return decision, nil
	}

	if err := l.ignoreSet.Add(decision.OriginalPath); err != nil {
		return nil, err
	}
	if err := l.store.UpdateState(ctx, id, StateIgnored); err != nil {
		return nil, err
	}
	decision.State = StateIgnored

	l.logger.Info("decision ignored",
		logging.String(logging.FieldDecisionID, id),
		logging.String(logging.FieldPath, decision.OriginalPath))
	if l.bus != nil {
		l.bus.PublishStatus(events.Status{
			Kind:   events.KindDecisionIgnored,
			Path:   decision.OriginalPath,
			Detail: id,
		})
	}
	return decision, nil
}

// Recent lists the newest decisions for UI surfaces.
func (l *Log) Recent(ctx context.Context, limit int) ([]*Decision, error) {
	return l.store.List(ctx, limit)
}
