// Package jnconfig holds jn's ambient CLI configuration: environment
// variable constants, global preferences file discovery, and logging
// setup. None of it feeds the per-address Config merged by
// internal/resolve — resolve() never consults this package.
package jnconfig

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SetupLogging configures the global slog default logger at the given
// level and format, writing to os.Stderr so stdout stays reserved for
// NDJSON.
func SetupLogging(level slog.Level, format string) {
	SetupLoggingWithWriter(level, format, os.Stderr)
}

// SetupLoggingWithWriter is SetupLogging with an explicit writer, for
// tests that capture log output.
func SetupLoggingWithWriter(level slog.Level, format string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// ResolveLogLevel determines the slog.Level from CLI flags and
// environment variables, highest priority first:
//
//  1. JN_DEBUG=1 -> slog.LevelDebug
//  2. verbose flag -> slog.LevelDebug
//  3. quiet flag -> slog.LevelError
//  4. default -> slog.LevelInfo
func ResolveLogLevel(verbose, quiet bool) slog.Level {
	if os.Getenv(EnvDebug) == "1" {
		return slog.LevelDebug
	}
	if verbose {
		return slog.LevelDebug
	}
	if quiet {
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ResolveLogFormat reads JN_LOG_FORMAT and returns "json" or "text".
func ResolveLogFormat() string {
	if strings.EqualFold(os.Getenv(EnvLogFormat), "json") {
		return "json"
	}
	return "text"
}

// NewLogger returns a child logger tagged with a "component" attribute.
func NewLogger(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
