// Package cooldown debounces filesystem activity per path. A path is
// handed onward only after it has produced no events for the configured
// window and still exists; transient download artifacts are held until
// they are renamed away from their marker suffix.
package cooldown

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tidycore/internal/logging"
)

// Entry is the snapshot handed to the settle callback.
type Entry struct {
	Path          string
	IsDir         bool
	FirstSeenSize int64
	LastSize      int64
	LastEventTime time.Time
	StableCount   int
}

// SettleFunc receives a settled path. It runs on the timer goroutine;
// long work belongs on the caller's worker pool.
type SettleFunc func(entry Entry)

type entryState struct {
	entry      Entry
	timer      *time.Timer
	generation uint64
}

// Scheduler owns one timer per watched path. Transitions for a single
// path (reschedule, fire, cancel) are serialized through the scheduler
// mutex so a settle decision cannot race a late event.
type Scheduler struct {
	cooldown  time.Duration
	transient func(name string) bool
	settle    SettleFunc
	logger    *slog.Logger

	mu      sync.Mutex
	entries map[string]*entryState
	stopped bool
}

// New builds a Scheduler. The transient predicate is applied to base
// names; a nil predicate holds nothing.
func New(cooldownWindow time.Duration, transient func(name string) bool, settle SettleFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if transient == nil {
		transient = func(string) bool { return false }
	}
	return &Scheduler{
		cooldown:  cooldownWindow,
		transient: transient,
		settle:    settle,
		logger:    logger,
		entries:   make(map[string]*entryState),
	}
}

// Observe records filesystem activity for path and restarts its
// cooldown. Paths with a transient suffix are never scheduled; any
// pending timer for them is cancelled so a partial download cannot
// settle mid-write.
func (s *Scheduler) Observe(path string, isDir bool, size int64) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	if s.transient(filepath.Base(path)) {
		if state, exists := s.entries[path]; exists {
			state.timer.Stop()
			delete(s.entries, path)
		}
		s.logger.Debug("holding transient artifact", logging.String(logging.FieldPath, path))
		return
	}

	state, exists := s.entries[path]
	if !exists {
		state = &entryState{entry: Entry{
			Path:          path,
			IsDir:         isDir,
			FirstSeenSize: size,
		}}
		s.entries[path] = state
	} else {
		state.timer.Stop()
		if state.entry.LastSize == size {
			state.entry.StableCount++
		} else {
			state.entry.StableCount = 0
		}
	}
	state.entry.IsDir = isDir
	state.entry.LastSize = size
	state.entry.LastEventTime = now
	state.generation++

	generation := state.generation
	state.timer = time.AfterFunc(s.cooldown, func() {
		s.fire(path, generation)
	})
}

func (s *Scheduler) fire(path string, generation uint64) {
	s.mu.Lock()
	state, exists := s.entries[path]
	if !exists || state.generation != generation || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.entries, path)
	entry := state.entry
	s.mu.Unlock()

	if _, err := os.Lstat(path); err != nil {
		s.logger.Debug("path vanished during cooldown", logging.String(logging.FieldPath, path))
		return
	}
	s.settle(entry)
}

// Cancel drops any pending cooldown for path without settling it. Used
// when the path is deleted or renamed away mid-cooldown.
func (s *Scheduler) Cancel(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, exists := s.entries[path]; exists {
		state.timer.Stop()
		delete(s.entries, path)
	}
}

// Pending reports how many paths are currently cooling down.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop cancels every pending timer. No settles are delivered after Stop
// returns; in-flight settles already past the generation check finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for path, state := range s.entries {
		state.timer.Stop()
		delete(s.entries, path)
	}
}
