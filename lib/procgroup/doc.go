// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package procgroup starts the processes of a launch and manages them as
// one unit.
//
// Each member runs in its own OS process group (Setpgid), so signals
// reach the member and every child it spawns in that group. A nested
// launch engine starts its own members in groups of their own, so it
// has to stop them itself. Members are started concurrently and are
// otherwise independent: one member exiting does not stop the others.
// There is no restart or readiness tracking.
//
// Terminate sends SIGTERM to every member's process group, waits up to
// a grace period measured on an injectable clock, and then sends
// SIGKILL to whatever is left. Members marked Nested are given a second
// grace period before SIGKILL, long enough for the nested engine to run
// the same escalation over its own members.
package procgroup
