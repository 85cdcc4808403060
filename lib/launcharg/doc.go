// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package launcharg implements launch arguments: declaration, command
// line overrides, and late-bound resolution.
//
// A [Registry] collects declarations (name, default, description) and
// hands out [Handle] values. Handles name an argument rather than a
// particular declaration: declaring the same name twice shadows the
// earlier declaration for every handle, and the last declaration's
// default is what resolution sees. Shadowing is not an error, but it is
// never silent. Each occurrence is recorded in [Registry.Shadowed] and
// logged at WARN.
//
// Overrides come from invocation arguments of the form name:=value
// ([ParseOverrides]). They take precedence over defaults. Resolution is
// pure: [Registry.ResolveAll] resolves every declaration exactly once
// into an immutable [Resolution], and reading an undeclared name fails
// with [ErrUndeclared].
//
// Parameter values are either early-bound literals or late-bound
// references to an argument ([Value]). A [Substitution] is an ordered
// list of values concatenated as text, which is how a namespace such as
// $(var vehicle_ns)$(var vehicle_id) is expressed. [ParseSubstitution]
// turns that text form into a Substitution, rejecting references to
// names the registry has never seen.
package launcharg
