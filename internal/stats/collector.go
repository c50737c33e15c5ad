package stats

import (
	"context"
	"log/slog"

	"tidycore/internal/events"
	"tidycore/internal/logging"
)

// Collector drains the durable MoveRecord stream into the store. It is
// the only consumer of that stream; while it persists a record the
// producer blocks, which is the backpressure the stream promises.
type Collector struct {
	store  *Store
	bus    *events.Bus
	logger *slog.Logger
}

// NewCollector wires a collector to the bus and store.
func NewCollector(store *Store, bus *events.Bus, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Collector{store: store, bus: bus, logger: logger}
}

// Run consumes records until the context is cancelled or the bus shuts
// down. Persistence failures are logged and the loop continues; one bad
// record must not stall move processing.
func (c *Collector) Run(ctx context.Context) {
	for {
		select {
		case record := <-c.bus.Records():
			if err := c.store.RecordMove(ctx, record); err != nil {
				c.logger.Error("record move failed",
					logging.String(logging.FieldPath, record.SourcePath),
					logging.Error(err))
			}
		case <-c.bus.Done():
			return
		case <-ctx.Done():
			return
		}
	}
}
