// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the pegasus
// binary.
//
// The central type is [Command], which represents a named subcommand
// with optional nested [Command.Subcommands], a params struct whose
// tagged fields become pflag flags (see [BindFlags]), and a Run
// function. Commands are assembled into a tree in cmd/pegasus/commands
// and dispatched via [Command.Execute], which handles flag parsing,
// subcommand routing, and structured help output with examples.
//
// When a user types an unknown subcommand or flag, the framework
// computes Levenshtein edit distance against all known names and
// suggests the closest match (threshold: distance <= 3).
//
// Errors returned by Run functions are plain wrapped errors, a
// categorized [ToolError] (see [Validation], [NotFound]), or an
// [ExitError] when the command has already printed its own report.
package cli
