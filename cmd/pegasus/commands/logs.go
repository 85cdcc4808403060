// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pegasus-robotics/pegasus/cmd/pegasus/cli"
	"github.com/pegasus-robotics/pegasus/lib/graph"
	"github.com/pegasus-robotics/pegasus/lib/logarchive"
)

type logsParams struct {
	configOptions
}

func logsCommand(env *Environment) *cli.Command {
	var params logsParams

	return &cli.Command{
		Name:    "logs",
		Summary: "Print the log of a process started with output: log",
		Description: `Print a member's log file from a launch's run directory, running or
finished. Compressed logs (launcher.compress_logs) are decompressed.
Without a member name, lists the members that have a log.

The run ID may be abbreviated to any unique prefix.`,
		Usage: "pegasus logs <run-id> [member] [flags]",
		Examples: []cli.Example{
			{
				Description: "Members with a log",
				Command:     "pegasus logs 3f2a",
			},
			{
				Description: "The link-layer bridge of a fleet launch",
				Command:     "pegasus logs 3f2a drone2.control",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) == 0 || len(args) > 2 {
				return cli.Validation("usage: pegasus logs <run-id> [member]")
			}
			cfg, _, err := params.load(env)
			if err != nil {
				return err
			}
			runDirectory, err := findRunDirectory(cfg.Paths.Run, args[0])
			if err != nil {
				return err
			}
			directory := filepath.Join(runDirectory, graph.LogDirectory)

			if len(args) == 1 {
				members, err := logarchive.Members(directory)
				if err != nil {
					return cli.NotFound("run %s has no member logs", filepath.Base(runDirectory))
				}
				for _, member := range members {
					fmt.Fprintln(env.Stdout, member)
				}
				return nil
			}

			reader, err := logarchive.Open(directory, args[1])
			if err != nil {
				return cli.NotFound("%w", err)
			}
			defer reader.Close()
			_, err = io.Copy(env.Stdout, reader)
			return err
		},
	}
}

// findRunDirectory returns the run directory whose name starts with
// prefix. Directories outlive their run records, so finished launches
// are found too.
func findRunDirectory(runRoot, prefix string) (string, error) {
	entries, err := os.ReadDir(runRoot)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("reading run directory: %w", err)
	}
	var matches []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			matches = append(matches, entry.Name())
		}
	}
	switch len(matches) {
	case 0:
		return "", cli.NotFound("no launch matches %q", prefix)
	case 1:
		return filepath.Join(runRoot, matches[0]), nil
	default:
		return "", cli.Conflict("run ID prefix %q is ambiguous: %s", prefix, strings.Join(matches, ", "))
	}
}
