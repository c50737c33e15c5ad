package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"tidycore/internal/classify"
	"tidycore/internal/config"
	"tidycore/internal/decisions"
	"tidycore/internal/events"
	"tidycore/internal/ignore"
	"tidycore/internal/logging"
	"tidycore/internal/mover"
	"tidycore/internal/notifications"
	"tidycore/internal/rules"
	"tidycore/internal/stats"
	"tidycore/internal/watcher"
)

// Daemon owns the engine's shared state and enforces single-instance
// execution per data directory.
type Daemon struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
	notifier   notifications.Service

	bus           *events.Bus
	provider      *rules.Provider
	decisionStore *decisions.Store
	statsStore    *stats.Store
	decisionLog   *decisions.Log

	lockPath string
	lock     *flock.Flock

	mu          sync.Mutex
	ignoreSet   *ignore.Set
	engine      *watcher.Watcher
	engineStop  context.CancelFunc
	engineDone  chan struct{}
	startedAt   time.Time
	background  sync.WaitGroup
	backgroundC context.CancelFunc

	running atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	StartedAt      time.Time
	Roots          []watcher.RootStatus
	PendingPaths   int
	MovesCompleted uint64
	DroppedStatus  uint64
	DecisionDBPath string
	LockFilePath   string
	ConfigPath     string
}

// New constructs a daemon with initialized stores. The caller owns the
// returned daemon and must Close it.
func New(cfg *config.Config, configPath string, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	ignoreSet, err := ignore.Load(cfg.Paths.DataDir, cfg.Engine.Ignore)
	if err != nil {
		return nil, fmt.Errorf("load ignore set: %w", err)
	}
	decisionStore, err := decisions.Open(cfg.Paths.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open decision store: %w", err)
	}
	statsStore, err := stats.Open(cfg.Paths.DataDir)
	if err != nil {
		_ = decisionStore.Close()
		return nil, fmt.Errorf("open stats store: %w", err)
	}

	bus := events.NewBus(256, 16)
	lockPath := filepath.Join(cfg.Paths.DataDir, "tidycored.lock")

	d := &Daemon{
		cfg:           cfg,
		configPath:    configPath,
		logger:        logger,
		notifier:      notifications.NewService(cfg),
		bus:           bus,
		provider:      rules.NewProvider(rules.Compile(cfg.Rules, cfg.Engine.DefaultCategory)),
		decisionStore: decisionStore,
		statsStore:    statsStore,
		ignoreSet:     ignoreSet,
		lockPath:      lockPath,
		lock:          flock.New(lockPath),
	}
	d.decisionLog = decisions.NewLog(decisionStore, ignoreSet, bus, cfg.Engine.DecisionRetentionCount, logger)
	return d, nil
}

// Run acquires the instance lock, starts the background consumers and
// the engine, and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another tidycore daemon instance is already running")
	}
	defer func() {
		_ = d.lock.Unlock()
	}()

	backgroundCtx, cancelBackground := context.WithCancel(ctx)
	d.backgroundC = cancelBackground

	collector := stats.NewCollector(d.statsStore, d.bus, d.logger)
	d.background.Add(1)
	go func() {
		defer d.background.Done()
		collector.Run(backgroundCtx)
	}()

	d.background.Add(1)
	go func() {
		defer d.background.Done()
		d.consumeStatuses(backgroundCtx)
	}()

	if err := d.Start(ctx); err != nil {
		d.logger.Error("engine start failed", logging.Error(err))
	}

	<-ctx.Done()
	d.Stop()
	d.bus.Close()
	cancelBackground()
	d.background.Wait()
	return nil
}

// Start launches the watcher engine. It is idempotent while running.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("engine already running")
	}

	engineCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w := watcher.New(watcher.Options{
		Roots:       d.cfg.Paths.TargetFolders,
		Provider:    d.provider,
		IgnoreSet:   d.ignoreSet,
		Classifier:  classify.New(d.provider, d.cfg.Engine.FolderMode, d.cfg.Engine.SampleCapPerFolder, d.logger),
		Executor:    mover.NewExecutor(d.bus, d.logger),
		DecisionLog: d.decisionLog,
		Bus:         d.bus,
		Notifier:    d.notifier,
		Cooldown:    d.cfg.CooldownDuration(),
		Workers:     d.cfg.Engine.Workers,
		IsTransient: d.cfg.IsTransient,
		Logger:      d.logger,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(engineCtx)
	}()

	d.engine = w
	d.engineStop = cancel
	d.engineDone = done
	d.startedAt = time.Now()
	d.running.Store(true)

	d.logger.Info("engine started",
		logging.Int("roots", len(d.cfg.Paths.TargetFolders)),
		logging.String("lock", d.lockPath))
	d.bus.PublishStatus(events.Status{Kind: events.KindEngineStarted})
	_ = d.notifier.NotifyEngineStarted(ctx, len(d.cfg.Paths.TargetFolders))
	return nil
}

// Stop halts the watcher engine without shutting the daemon process
// down; pending cooldowns are dropped.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Daemon) stopLocked() {
	if !d.running.Load() {
		return
	}
	moves := d.engine.MovesCompleted()
	d.engineStop()
	<-d.engineDone
	d.engine = nil
	d.engineStop = nil
	d.engineDone = nil
	d.running.Store(false)

	d.logger.Info("engine stopped", logging.Int64("moves_completed", int64(moves)))
	d.bus.PublishStatus(events.Status{Kind: events.KindEngineStopped})
	_ = d.notifier.NotifyEngineStopped(context.Background(), int(moves))
}

// Reload re-reads the configuration file and swaps the rule tree and
// ignore patterns while the engine keeps running. Changes to watched
// roots, cooldown, or workers restart the engine.
func (d *Daemon) Reload(ctx context.Context) error {
	cfg, _, exists, err := config.Load(d.configPath)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	if !exists {
		return fmt.Errorf("config file %s not found", d.configPath)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	restart := d.running.Load() && engineShapeChanged(d.cfg, cfg)

	d.cfg = cfg
	d.ignoreSet.SetPatterns(cfg.Engine.Ignore)
	d.provider.Swap(rules.Compile(cfg.Rules, cfg.Engine.DefaultCategory))

	if restart {
		d.stopLocked()
		d.mu.Unlock()
		err = d.Start(ctx)
		d.mu.Lock()
		if err != nil {
			return err
		}
	}
	d.logger.Info("configuration reloaded", logging.String("config", d.configPath))
	return nil
}

func engineShapeChanged(old, updated *config.Config) bool {
	if len(old.Paths.TargetFolders) != len(updated.Paths.TargetFolders) {
		return true
	}
	for i, root := range old.Paths.TargetFolders {
		if updated.Paths.TargetFolders[i] != root {
			return true
		}
	}
	return old.Engine.CooldownSeconds != updated.Engine.CooldownSeconds ||
		old.Engine.Workers != updated.Engine.Workers ||
		old.Engine.FolderMode != updated.Engine.FolderMode
}

// consumeStatuses drains the advisory stream into the daemon log.
func (d *Daemon) consumeStatuses(ctx context.Context) {
	for {
		select {
		case status := <-d.bus.Status():
			level := slog.LevelInfo
			if status.Kind == events.KindMoveFailed || status.Kind == events.KindWatcherDegraded {
				level = slog.LevelWarn
			}
			d.logger.Log(ctx, level, "engine event",
				logging.String(logging.FieldEventType, string(status.Kind)),
				logging.String(logging.FieldPath, status.Path),
				logging.String("detail", status.Detail),
				logging.String("reason", status.Reason))
		case <-d.bus.Done():
			return
		case <-ctx.Done():
			return
		}
	}
}

// Running reports whether the engine is processing events.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status assembles runtime information for the CLI.
func (d *Daemon) Status(context.Context) Status {
	status := Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		DecisionDBPath: d.decisionStore.Path(),
		LockFilePath:   d.lockPath,
		ConfigPath:     d.configPath,
		DroppedStatus:  d.bus.Dropped(),
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.engine != nil {
		status.StartedAt = d.startedAt
		status.Roots = d.engine.Status()
		status.PendingPaths = d.engine.Pending()
		status.MovesCompleted = d.engine.MovesCompleted()
	}
	return status
}

// ListDecisions returns the newest decisions.
func (d *Daemon) ListDecisions(ctx context.Context, limit int) ([]*decisions.Decision, error) {
	return d.decisionLog.Recent(ctx, limit)
}

// UndoDecision reverses a folder move.
func (d *Daemon) UndoDecision(ctx context.Context, id string) (*decisions.Decision, error) {
	return d.decisionLog.Undo(ctx, id)
}

// IgnoreDecision suppresses a folder's original location permanently.
func (d *Daemon) IgnoreDecision(ctx context.Context, id string) (*decisions.Decision, error) {
	return d.decisionLog.Ignore(ctx, id)
}

// Stats returns aggregate move statistics.
func (d *Daemon) Stats(ctx context.Context) (*stats.Summary, error) {
	return d.statsStore.Summarize(ctx, time.Now())
}

// RecentOperations lists the latest recorded moves.
func (d *Daemon) RecentOperations(ctx context.Context, limit int) ([]stats.Operation, error) {
	return d.statsStore.Recent(ctx, limit)
}

// TestNotification exercises the notification pipeline.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg.Notifications.NtfyTopic == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, err.Error(), err
	}
	return true, "test notification sent", nil
}

// LogPath reports where the daemon writes its log file.
func (d *Daemon) LogPath() string {
	return d.cfg.LogPath()
}

// SocketPath reports the control socket location.
func (d *Daemon) SocketPath() string {
	return d.cfg.SocketPath()
}

// Close releases stores. The engine must already be stopped.
func (d *Daemon) Close() error {
	d.Stop()
	var firstErr error
	if err := d.decisionStore.Close(); err != nil {
		firstErr = err
	}
	if err := d.statsStore.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
