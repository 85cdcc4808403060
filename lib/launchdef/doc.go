// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package launchdef provides parsing, validation, and lookup of launch
// definitions. A launch definition declares the arguments of one launch,
// the shared-process containers it starts (with their members), any
// standalone nodes, and the subsystem launches it delegates to.
//
// Definitions are authored as YAML or JSONC files. Three definitions are
// embedded in the binary: "pegasus" (the top-level vehicle launch),
// "pegasus_control", and "pegasus_telemetry".
//
// The typical flow:
//
//  1. Locator.Locate: reference → Location (built-in, file, or package:file)
//  2. Locator.Load: Location → *Definition
//  3. Validate: structural checks (names, duplicates, remap endpoints)
//  4. ExpandPackageShares: resolve $(find-pkg-share pkg) in defaults
//
// Substitutions of the form $(var name) inside unit fields are parsed by
// package launcharg once the definition's arguments are declared.
package launchdef
