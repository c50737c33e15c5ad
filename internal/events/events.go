// Package events carries the engine's outward-facing streams. Status
// notifications are advisory and lossy under backpressure; MoveRecords
// are the durability path for statistics and are never dropped.
package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Kind identifies a status notification.
type Kind string

const (
	KindEngineStarted    Kind = "engine_started"
	KindEngineStopped    Kind = "engine_stopped"
	KindMoveCompleted    Kind = "move_completed"
	KindMoveFailed       Kind = "move_failed"
	KindDecisionRecorded Kind = "decision_recorded"
	KindDecisionUndone   Kind = "decision_undone"
	KindDecisionIgnored  Kind = "decision_ignored"
	KindWatcherDegraded  Kind = "watcher_degraded"
	KindWatcherRecovered Kind = "watcher_recovered"
)

// Status is one advisory notification for logging, notifications, and
// UI surfaces. Slow consumers lose the oldest entries, never the newest.
type Status struct {
	Kind   Kind
	Path   string
	Detail string
	Reason string
	Time   time.Time
}

// MoveRecord is the immutable fact describing one completed relocation.
type MoveRecord struct {
	ID              string
	SourcePath      string
	DestinationPath string
	Category        string
	Subcategory     string
	IsFolder        bool
	SizeBytes       int64
	MovedAt         time.Time
}

// Bus fans engine output out to consumers. The status channel is
// bounded and drops its oldest entry when full; the record channel
// applies backpressure to the producer instead.
type Bus struct {
	mu      sync.Mutex
	status  chan Status
	records chan MoveRecord
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

// NewBus sizes both streams. Buffers below one are raised to one so a
// publish can always make progress after evicting.
func NewBus(statusBuffer, recordBuffer int) *Bus {
	if statusBuffer < 1 {
		statusBuffer = 1
	}
	if recordBuffer < 0 {
		recordBuffer = 0
	}
	return &Bus{
		status:  make(chan Status, statusBuffer),
		records: make(chan MoveRecord, recordBuffer),
		done:    make(chan struct{}),
	}
}

// PublishStatus enqueues a status notification, evicting the oldest
// queued entry if the consumer has fallen behind.
func (b *Bus) PublishStatus(status Status) {
	if status.Time.IsZero() {
		status.Time = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	select {
	case <-b.done:
		return
	default:
	}
	for {
		select {
		case b.status <- status:
			return
		default:
		}
		select {
		case <-b.status:
			b.dropped.Add(1)
		default:
		}
	}
}

// PublishRecord blocks until the record is accepted, the context is
// cancelled, or the bus shuts down.
func (b *Bus) PublishRecord(ctx context.Context, record MoveRecord) error {
	if record.MovedAt.IsZero() {
		record.MovedAt = time.Now()
	}
	select {
	case b.records <- record:
		return nil
	case <-b.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status exposes the advisory stream.
func (b *Bus) Status() <-chan Status {
	return b.status
}

// Records exposes the durable stream.
func (b *Bus) Records() <-chan MoveRecord {
	return b.records
}

// Done closes when the bus shuts down; consumers select on it alongside
// their stream.
func (b *Bus) Done() <-chan struct{} {
	return b.done
}

// Dropped reports how many status notifications were evicted.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close wakes blocked producers and consumers. The stream channels are
// left open so in-flight reads drain safely.
func (b *Bus) Close() {
	b.once.Do(func() {
		close(b.done)
	})
}
