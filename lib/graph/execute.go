// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pegasus-robotics/pegasus/lib/clock"
	"github.com/pegasus-robotics/pegasus/lib/container"
	"github.com/pegasus-robotics/pegasus/lib/procgroup"
)

// LogDirectory is the subdirectory of ExecuteOptions.Directory that
// holds member log files.
const LogDirectory = "log"

// ExecuteOptions configures Execute.
type ExecuteOptions struct {
	// Directory receives container manifests and member log files. It
	// is created if missing.
	Directory string

	Logger *slog.Logger
	Clock  clock.Clock
	Stdout io.Writer
	Stderr io.Writer
}

// Execute writes the plan's container manifests and starts every process
// concurrently. The returned group is the only handle on the started
// processes: nested launches are opaque beyond their own process group.
func Execute(ctx context.Context, plan *Plan, options ExecuteOptions) (*procgroup.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(options.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("creating run directory: %w", err)
	}

	specs := make([]procgroup.Spec, 0, len(plan.Processes))
	for _, process := range plan.Processes {
		spec := process.Spec
		if process.Manifest != "" {
			path := filepath.Join(options.Directory, spec.Name+".manifest.yaml")
			if err := os.WriteFile(path, []byte(process.Manifest), 0o644); err != nil {
				return nil, fmt.Errorf("writing manifest for %s: %w", spec.Name, err)
			}
			spec.Args = append([]string{container.ManifestFlag, path}, spec.Args...)
		}
		specs = append(specs, spec)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return procgroup.Start(specs, procgroup.Options{
		Logger:       options.Logger,
		Clock:        options.Clock,
		Stdout:       options.Stdout,
		Stderr:       options.Stderr,
		LogDirectory: filepath.Join(options.Directory, LogDirectory),
	})
}
