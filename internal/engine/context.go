package engine

import "context"

type contextKey string

const (
	rootContextKey contextKey = "tidycore.root"
	pathContextKey contextKey = "tidycore.path"
)

// WithRoot attaches the watched root to the context for structured logging.
func WithRoot(ctx context.Context, root string) context.Context {
	if root == "" {
		return ctx
	}
	return context.WithValue(ctx, rootContextKey, root)
}

// RootFromContext extracts the watched root, if present.
func RootFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	root, ok := ctx.Value(rootContextKey).(string)
	return root, ok && root != ""
}

// WithPath attaches the path being processed to the context.
func WithPath(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, pathContextKey, path)
}

// PathFromContext extracts the path being processed, if present.
func PathFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	path, ok := ctx.Value(pathContextKey).(string)
	return path, ok && path != ""
}
