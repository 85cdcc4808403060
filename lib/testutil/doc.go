// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// safety valve so individual tests never call time.After directly.
//
// [Prefix] builds a throwaway install prefix laid out the way an ament
// workspace is (share/<package>/... and lib/<package>/<executable>),
// so tests can exercise package-share lookup and executable resolution
// without a ROS installation.
//
// All helpers call t.Fatalf on failure; setup failures are not
// recoverable.
package testutil
