// Package logging centralizes slog construction and the structured field
// conventions used across the engine. Handlers support a human-oriented
// console format and machine-oriented JSON, selected by configuration.
package logging
