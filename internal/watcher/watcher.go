// Package watcher is the engine's orchestrator. It subscribes to
// filesystem events on each watched root, debounces them through the
// cooldown scheduler, and drives classification and moves on a bounded
// worker pool.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"tidycore/internal/classify"
	"tidycore/internal/cooldown"
	"tidycore/internal/decisions"
	"tidycore/internal/engine"
	"tidycore/internal/events"
	"tidycore/internal/ignore"
	"tidycore/internal/logging"
	"tidycore/internal/mover"
	"tidycore/internal/notifications"
	"tidycore/internal/rules"
)

// Root states reported by Status.
const (
	StateWatching = "watching"
	StateDegraded = "degraded"
	StateStopped  = "stopped"
)

const (
	backoffInitial = time.Second
	backoffMax     = time.Minute
)

// Options wires a Watcher to its collaborators.
type Options struct {
	Roots       []string
	Provider    *rules.Provider
	IgnoreSet   *ignore.Set
	Classifier  *classify.Classifier
	Executor    *mover.Executor
	DecisionLog *decisions.Log
	Bus         *events.Bus
	Notifier    notifications.Service
	Cooldown    time.Duration
	Workers     int
	IsTransient func(name string) bool
	Logger      *slog.Logger
}

// RootStatus describes one watched root.
type RootStatus struct {
	Root  string
	State string
}

type job struct {
	entry cooldown.Entry
}

// Watcher owns one event loop per watched root plus the shared worker
// pool. Per-path serialization lives in the cooldown scheduler; per
// destination directory serialization lives in the executor.
type Watcher struct {
	opts      Options
	scheduler *cooldown.Scheduler
	logger    *slog.Logger
	ignoreSet atomic.Pointer[ignore.Set]

	jobs chan job

	// runCtx is the context Run was started with; enqueue uses it so a
	// blocked hand-off to the pool is released on shutdown. It is set
	// before any root goroutine can produce a settle.
	runCtx context.Context

	mu     sync.Mutex
	states map[string]string

	moves atomic.Uint64
}

// New builds a Watcher. Run starts it.
func New(opts Options) *Watcher {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = 5 * time.Second
	}
	if opts.Notifier == nil {
		opts.Notifier = notifications.Noop()
	}

	w := &Watcher{
		opts:   opts,
		logger: opts.Logger.With(logging.String(logging.FieldComponent, "watcher")),
		jobs:   make(chan job, opts.Workers*4),
		states: make(map[string]string, len(opts.Roots)),
	}
	w.ignoreSet.Store(opts.IgnoreSet)
	w.scheduler = cooldown.New(opts.Cooldown, opts.IsTransient, w.enqueue, opts.Logger)
	for _, root := range opts.Roots {
		w.states[root] = StateStopped
	}
	return w
}

// Run blocks until ctx is cancelled. Pending cooldowns are dropped on
// shutdown; moves already handed to the executor complete.
func (w *Watcher) Run(ctx context.Context) error {
	w.runCtx = ctx

	var workers sync.WaitGroup
	for i := 0; i < w.opts.Workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			w.workerLoop(ctx)
		}()
	}

	var roots sync.WaitGroup
	for _, root := range w.opts.Roots {
		roots.Add(1)
		go func(root string) {
			defer roots.Done()
			w.watchRoot(ctx, root)
		}(root)
	}

	<-ctx.Done()
	w.scheduler.Stop()
	roots.Wait()
	workers.Wait()
	return ctx.Err()
}

// SwapIgnoreSet installs a replacement ignore set, used on config
// reload. User-added entries persist through the set's own file.
func (w *Watcher) SwapIgnoreSet(set *ignore.Set) {
	w.ignoreSet.Store(set)
}

// MovesCompleted reports how many moves succeeded since start.
func (w *Watcher) MovesCompleted() uint64 {
	return w.moves.Load()
}

// Pending reports how many paths are cooling down.
func (w *Watcher) Pending() int {
	return w.scheduler.Pending()
}

// Status reports the state of every watched root.
func (w *Watcher) Status() []RootStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	statuses := make([]RootStatus, 0, len(w.opts.Roots))
	for _, root := range w.opts.Roots {
		statuses = append(statuses, RootStatus{Root: root, State: w.states[root]})
	}
	return statuses
}

func (w *Watcher) setState(root, state string) {
	w.mu.Lock()
	w.states[root] = state
	w.mu.Unlock()
}

// watchRoot runs the subscribe/scan/dispatch loop for one root,
// re-subscribing with backoff whenever the root becomes inaccessible.
func (w *Watcher) watchRoot(ctx context.Context, root string) {
	backoff := backoffInitial
	degraded := false

	for {
		if ctx.Err() != nil {
			w.setState(root, StateStopped)
			return
		}

		err := w.watchRootOnce(ctx, root)
		if ctx.Err() != nil {
			w.setState(root, StateStopped)
			return
		}

		if !degraded {
			wrapped := engine.Wrap(engine.ErrWatchUnavailable, "watcher", "subscribe", root, err)
			w.logger.Warn("watched root unavailable",
				logging.String(logging.FieldRoot, root),
				logging.Error(wrapped))
			w.opts.Bus.PublishStatus(events.Status{
				Kind:   events.KindWatcherDegraded,
				Path:   root,
				Reason: engine.ReasonCode(wrapped),
			})
			_ = w.opts.Notifier.NotifyWatcherDegraded(ctx, root)
			degraded = true
		}
		w.setState(root, StateDegraded)

		select {
		case <-ctx.Done():
			w.setState(root, StateStopped)
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > backoffMax {
			backoff = backoffMax
		}

		if _, statErr := os.Stat(root); statErr == nil {
			// Root is back; the next watchRootOnce announces recovery.
			backoff = backoffInitial
			degraded = w.announceRecovery(ctx, root)
		}
	}
}

func (w *Watcher) announceRecovery(ctx context.Context, root string) bool {
	w.logger.Info("watched root recovered", logging.String(logging.FieldRoot, root))
	w.opts.Bus.PublishStatus(events.Status{
		Kind: events.KindWatcherRecovered,
		Path: root,
	})
	_ = w.opts.Notifier.NotifyWatcherRecovered(ctx, root)
	return false
}

// watchRootOnce subscribes, replays pre-existing entries, and forwards
// events until an error or cancellation. A non-nil return means the
// subscription was lost.
func (w *Watcher) watchRootOnce(ctx context.Context, root string) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(root); err != nil {
		return err
	}
	w.setState(root, StateWatching)
	w.logger.Info("watching", logging.String(logging.FieldRoot, root))

	// Pre-existing clutter is organized without waiting for activity.
	if err := w.scanRoot(root); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return errors.New("event channel closed")
			}
			w.handleEvent(root, event)
		case watchErr, ok := <-fsWatcher.Errors:
			if !ok {
				return errors.New("error channel closed")
			}
			if watchErr != nil {
				return watchErr
			}
		}
	}
}

func (w *Watcher) scanRoot(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		if w.filtered(path, entry.IsDir()) {
			continue
		}
		w.scheduler.Observe(path, entry.IsDir(), entrySize(entry))
	}
	return nil
}

func (w *Watcher) handleEvent(root string, event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if path == root {
		return
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.scheduler.Cancel(path)
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	info, err := os.Lstat(path)
	if err != nil {
		// Gone already; a Remove event will follow or already passed.
		w.scheduler.Cancel(path)
		return
	}
	if w.filtered(path, info.IsDir()) {
		return
	}
	w.scheduler.Observe(path, info.IsDir(), info.Size())
}

// filtered applies the pre-classification gates: hidden names, the
// ignore set, and the category folders the engine itself creates.
func (w *Watcher) filtered(path string, isDir bool) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if set := w.ignoreSet.Load(); set != nil && set.Match(path) {
		return true
	}
	if isDir && w.opts.Provider.Current().IsCategoryFolder(base) {
		return true
	}
	return false
}

// enqueue hands a settled path to the worker pool. The send blocks when
// the pool is saturated so all classification runs on workers Run waits
// for; shutdown releases a blocked hand-off.
func (w *Watcher) enqueue(entry cooldown.Entry) {
	select {
	case w.jobs <- job{entry: entry}:
	case <-w.runCtx.Done():
	}
}

func (w *Watcher) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-w.jobs:
			w.process(ctx, item.entry)
		}
	}
}

func (w *Watcher) process(ctx context.Context, entry cooldown.Entry) {
	path := entry.Path
	info, err := os.Lstat(path)
	if err != nil {
		return
	}
	isDir := info.IsDir()
	if w.filtered(path, isDir) {
		return
	}

	root := filepath.Dir(path)
	ctx = engine.WithPath(engine.WithRoot(ctx, root), path)

	decision, err := w.opts.Classifier.Classify(path, isDir)
	if err != nil {
		if errors.Is(err, engine.ErrClassificationSkipped) {
			logging.WithContext(ctx, w.logger).Debug("classification skipped", logging.Error(err))
			return
		}
		w.reportMoveFailure(ctx, path, err)
		return
	}

	destDir := classify.Destination(root, decision)
	record, err := w.opts.Executor.Move(ctx, uuid.NewString(), path, destDir, decision.Category, decision.Subcategory, isDir)
	if err != nil {
		w.reportMoveFailure(ctx, path, err)
		return
	}

	w.moves.Add(1)
	w.opts.Bus.PublishStatus(events.Status{
		Kind:   events.KindMoveCompleted,
		Path:   path,
		Detail: record.DestinationPath,
	})

	if isDir && w.opts.DecisionLog != nil {
		if _, err := w.opts.DecisionLog.Record(ctx, record); err != nil {
			logging.WithContext(ctx, w.logger).Error("record decision failed", logging.Error(err))
			return
		}
		_ = w.opts.Notifier.NotifyDecisionRecorded(ctx, filepath.Base(path), decision.Category)
	}
}

func (w *Watcher) reportMoveFailure(ctx context.Context, path string, err error) {
	reason := engine.ReasonCode(err)
	logging.WithContext(ctx, w.logger).Error("move failed",
		logging.String(logging.FieldErrorHint, reason),
		logging.Error(err))
	w.opts.Bus.PublishStatus(events.Status{
		Kind:   events.KindMoveFailed,
		Path:   path,
		Reason: reason,
	})
	_ = w.opts.Notifier.NotifyMoveFailed(ctx, path, reason)
}

func entrySize(entry fs.DirEntry) int64 {
	info, err := entry.Info()
	if err != nil {
		return 0
	}
	return info.Size()
}
