// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the cutefs binary.
//
// The central type is [Command], a named subcommand with optional
// nested [Command.Subcommands], a [pflag.FlagSet] factory, and a Run
// function. The tree is assembled in cmd/cutefs/main.go and dispatched
// via [Command.Execute], which parses flags, routes subcommands, and
// prints help with examples.
//
// Unknown subcommands and flags get a "did you mean" suggestion when a
// known name is within edit distance 3.
//
// [NewCommandLogger] builds the slog logger commands share, and
// [ExitError] lets a command choose its exit code without an extra
// error message.
package cli
