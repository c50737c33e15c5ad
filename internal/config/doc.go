// Package config loads, normalizes, and validates the TOML configuration
// that drives the organization engine: watched roots, the rule tree,
// cooldown and folder-handling behavior, ignore patterns, logging, and
// notification settings.
package config
