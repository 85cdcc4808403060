// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helpers for the pegasus binary:
// the raw stderr write used when main() fails before or outside the
// structured logger.
package process

import (
	"fmt"
	"os"
)

// Fatal writes "error: err" to stderr and exits with code 1. If err
// carries its own exit code (an ExitCode() int method) that code is
// used and nothing is printed; the command already reported the failure.
func Fatal(err error) {
	if coder, ok := err.(interface{ ExitCode() int }); ok {
		os.Exit(coder.ExitCode())
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
