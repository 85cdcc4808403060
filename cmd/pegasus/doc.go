// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Pegasus assembles launch definitions for autonomous drones into
// process graphs and runs them.
//
// Primary commands:
//
//   - run: assemble a definition and start it in the foreground
//   - plan: show the resolved arguments and processes without starting
//   - fleet: start one vehicle-scoped definition for several vehicle ids
//   - status, stop: inspect and stop launches recorded in the run directory
//   - doctor: preflight checks for the host and the flight-controller link
//   - definitions: list built-in and configured definitions
//
// Configuration comes from --config, PEGASUS_CONFIG, or built-in
// defaults that search AMENT_PREFIX_PATH. Nested launches re-invoke
// this binary with "run".
package main
