// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the engine configuration for the pegasus
// launcher.
//
// The configuration file is given by the --config flag or the
// PEGASUS_CONFIG environment variable. When neither is set the engine
// runs on [Default], which derives the install prefixes from
// AMENT_PREFIX_PATH. No other file discovery happens.
//
// The file is distinct from the vehicle's shared parameter file
// (drone_params): this one tells the engine where packages are
// installed and how to run processes; the shared parameter file is
// passed through to vehicle processes and never parsed here.
//
// Environment-specific sections (development, simulation, flight)
// override base values when [Config].Environment matches. Path fields
// undergo ${VAR} and ${VAR:-default} expansion after loading.
//
// This package depends on no other pegasus packages.
package config
