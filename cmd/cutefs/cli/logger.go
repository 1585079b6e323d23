// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// LoggerOptions selects the handler and level of a command logger.
type LoggerOptions struct {
	// Level is the minimum level logged.
	Level slog.Level

	// Format is "text", "json", or "auto" (also the empty string).
	// Auto uses text when Output is a terminal and JSON otherwise.
	Format string

	// Output receives log records. Defaults to os.Stderr.
	Output io.Writer
}

// NewCommandLogger creates the structured logger for a command. Text
// output is for people at a terminal; JSON is for everything else
// (scripts, service managers, log collection).
//
// Callers scope it with command context via With():
//
//	logger = logger.With("command", "mount", "mountpoint", mountpoint)
func NewCommandLogger(options LoggerOptions) (*slog.Logger, error) {
	output := options.Output
	if output == nil {
		output = os.Stderr
	}

	handlerOptions := &slog.HandlerOptions{Level: options.Level}
	var handler slog.Handler
	switch options.Format {
	case "text":
		handler = slog.NewTextHandler(output, handlerOptions)
	case "json":
		handler = slog.NewJSONHandler(output, handlerOptions)
	case "auto", "":
		if IsTerminal(output) {
			handler = slog.NewTextHandler(output, handlerOptions)
		} else {
			handler = slog.NewJSONHandler(output, handlerOptions)
		}
	default:
		return nil, fmt.Errorf("unknown log format %q", options.Format)
	}
	return slog.New(handler), nil
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
