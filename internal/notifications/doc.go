// Package notifications delivers engine events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured
// in config.toml and gracefully degrades to a no-op when notifications are
// disabled. Move failures, watcher health changes, and folder decisions map
// to dedicated methods so callers emit consistent messages without
// duplicating HTTP glue.
package notifications
