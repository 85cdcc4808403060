// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package graph assembles a launch definition into an immutable
// LaunchGraph and turns graphs into running process groups.
//
// Assembly happens in a fixed order, and any error stops it before a
// single process exists:
//
//  1. locate and load the definition
//  2. scan the raw invocation for the vehicle id
//  3. declare the arguments (the scanned id becomes the id default)
//  4. resolve every argument once
//  5. resolve the vehicle identity
//  6. build containers and their members
//  7. build standalone nodes
//  8. build delegates to nested launches
//
// Execution is split the same way. NewPlan resolves every executable on
// disk into a procgroup.Spec, so a missing executable also fails before
// anything starts. Execute writes the container manifests and starts
// every process of the plan concurrently.
package graph
