// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the engine's standard CBOR encoding.
//
// Two formats are used with a clear boundary. YAML and JSON face the
// operator: launch definitions, engine configuration, component
// manifests handed to container executables, and CLI --json output.
// CBOR is internal: run-state records under the run directory and the
// canonical byte form of a launch graph that feeds its fingerprint.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2). Map
// keys are sorted and integers use their smallest encoding, so the same
// logical value always produces identical bytes. The graph fingerprint
// depends on this.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
package codec
