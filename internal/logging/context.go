package logging

import (
	"context"
	"log/slog"

	"tidycore/internal/engine"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRoot is the standardized structured logging key for watched root directories.
	FieldRoot = "root"
	// FieldPath is the standardized structured logging key for the path being processed.
	FieldPath = "path"
	// FieldCategory is the standardized structured logging key for destination categories.
	FieldCategory = "category"
	// FieldEventType is the standardized structured logging key for machine-parseable event markers.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator guidance on failures.
	FieldErrorHint = "error_hint"
	// FieldDecisionID is the standardized structured logging key for folder decision identifiers.
	FieldDecisionID = "decision_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if root, ok := engine.RootFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRoot, root))
	}
	if path, ok := engine.PathFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPath, path))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
