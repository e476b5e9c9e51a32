// Package logging builds the slog loggers used by the daemon and CLI,
// with console and JSON handlers plus shared attribute helpers.
package logging
