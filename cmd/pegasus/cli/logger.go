// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger for CLI commands. When
// stderr is a terminal it uses slog.TextHandler for human-readable
// output; when stderr is piped or redirected (a nested launch, a
// systemd unit, CI) it uses slog.JSONHandler. PEGASUS_LOG_LEVEL
// (debug, info, warn, error) sets the level; the default is info.
//
// Callers scope the logger with command-specific context via With():
//
//	logger = logger.With("command", "run", "definition", reference)
func NewCommandLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("PEGASUS_LOG_LEVEL"))); err != nil {
		level = slog.LevelInfo
	}
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
