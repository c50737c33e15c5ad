package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for engine failures. Stages wrap these via Wrap so
// callers can classify an error without parsing its message.
var (
	// ErrWatchUnavailable indicates a watched root became inaccessible.
	// The watcher retries with backoff; this is never fatal.
	ErrWatchUnavailable = errors.New("watch unavailable")
	// ErrClassificationSkipped indicates a path was intentionally left
	// alone: ignored, unreadable, or a transient artifact.
	ErrClassificationSkipped = errors.New("classification skipped")
	// ErrConflictExhausted indicates the destination namespace was
	// saturated while probing for a free filename.
	ErrConflictExhausted = errors.New("conflict exhausted")
	// ErrMoveFailed indicates the move itself failed; the source is left
	// untouched and any partial copy has been removed.
	ErrMoveFailed = errors.New("move failed")
	// ErrUndoConflict indicates something now occupies a decision's
	// original path; the decision remains active so the user can retry.
	ErrUndoConflict = errors.New("undo conflict")
)

// Wrap builds an error message that includes component context while
// tagging it with the provided marker for later classification.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrMoveFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ReasonCode maps an engine error to the stable reason string carried on
// outward status events.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrWatchUnavailable):
		return "watch_unavailable"
	case errors.Is(err, ErrClassificationSkipped):
		return "classification_skipped"
	case errors.Is(err, ErrConflictExhausted):
		return "conflict_exhausted"
	case errors.Is(err, ErrUndoConflict):
		return "undo_conflict"
	case errors.Is(err, ErrMoveFailed):
		return "move_failed"
	default:
		return "unknown"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "engine failure"
	}
	return strings.Join(parts, ": ")
}
