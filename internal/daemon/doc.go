// Package daemon coordinates the engine's long-running services: the
// filesystem watcher, the statistics collector, and the decision log.
// It combines them into a single lifecycle with flock-based locking so
// only one tidycore daemon runs per data directory.
package daemon
