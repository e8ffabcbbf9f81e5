// Package logging builds the slog loggers used across dubwatch and keeps
// the structured field vocabulary in one place.
package logging
