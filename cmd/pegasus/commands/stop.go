// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	"github.com/pegasus-robotics/pegasus/cmd/pegasus/cli"
	"github.com/pegasus-robotics/pegasus/lib/clock"
	"github.com/pegasus-robotics/pegasus/lib/procgroup"
	"github.com/pegasus-robotics/pegasus/lib/runstate"
)

// pollInterval is how often stop checks whether processes have exited.
const pollInterval = 50 * time.Millisecond

type stopParams struct {
	configOptions
	All   bool          `flag:"all" desc:"stop every recorded launch"`
	Grace time.Duration `flag:"grace" desc:"time between SIGTERM and SIGKILL (default: launcher.terminate_grace)"`
}

func stopCommand(env *Environment) *cli.Command {
	var params stopParams

	return &cli.Command{
		Name:    "stop",
		Summary: "Stop a running launch",
		Description: `Stop a launch recorded in the run directory. A live engine is sent
SIGTERM and stops its own processes. When the engine is gone, every
recorded process group is sent SIGTERM directly, then SIGKILL after the
grace period. The run record is removed once nothing is left.

The run ID may be abbreviated to any unique prefix.`,
		Usage: "pegasus stop <run-id> | --all [flags]",
		Examples: []cli.Example{
			{
				Description: "Stop one launch by run ID prefix",
				Command:     "pegasus stop 3f2a",
			},
			{
				Description: "Stop everything, with a short grace period",
				Command:     "pegasus stop --all --grace 2s",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if params.All == (len(args) > 0) {
				return cli.Validation("give exactly one of <run-id> or --all")
			}
			if len(args) > 1 {
				return cli.Validation("unexpected argument: %s", args[1])
			}
			cfg, _, err := params.load(env)
			if err != nil {
				return err
			}
			grace := params.Grace
			if grace == 0 {
				if grace, err = cfg.TerminateGracePeriod(); err != nil {
					return err
				}
			}

			var records []runstate.Record
			if params.All {
				records, err = runstate.List(cfg.Paths.Run)
				if err != nil {
					logger.Warn("some run records could not be read", "error", err)
				}
			} else {
				record, err := runstate.Find(cfg.Paths.Run, args[0])
				if err != nil {
					switch {
					case errors.Is(err, runstate.ErrNoRecord):
						return cli.NotFound("%w", err)
					case errors.Is(err, runstate.ErrAmbiguous):
						return cli.Conflict("%w", err)
					}
					return err
				}
				records = []runstate.Record{record}
			}

			var errs []error
			for _, record := range records {
				if err := stopRun(record, cfg.Paths.Run, grace, env.Clock, logger); err != nil {
					errs = append(errs, fmt.Errorf("run %s: %w", record.RunID, err))
					continue
				}
				fmt.Fprintf(env.Stdout, "stopped %s (%s)\n", record.RunID, record.Definition)
			}
			return errors.Join(errs...)
		},
	}
}

// stopRun stops one recorded launch and removes its record.
func stopRun(record runstate.Record, directory string, grace time.Duration, clk clock.Clock, logger *slog.Logger) error {
	logger = logger.With("run_id", record.RunID, "definition", record.Definition)

	if procgroup.ProcessAlive(record.EnginePID) {
		logger.Info("signalling engine", "pid", record.EnginePID)
		if err := unix.Kill(record.EnginePID, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
			return fmt.Errorf("signalling engine %d: %w", record.EnginePID, err)
		}
		// The engine applies its own grace periods before SIGKILL,
		// including the second one it gives nested engines.
		if !waitUntil(clk, 2*grace+procgroup.NestedMargin+time.Second, func() bool { return !procgroup.ProcessAlive(record.EnginePID) }) {
			logger.Warn("engine did not exit; signalling its processes directly", "pid", record.EnginePID)
		}
	}

	membersGone := func() bool {
		for _, member := range record.Members {
			if procgroup.GroupAlive(member.PID) {
				return false
			}
		}
		return true
	}

	var errs []error
	if !membersGone() {
		for _, member := range record.Members {
			if err := procgroup.SignalGroup(member.PID, unix.SIGTERM); err != nil {
				errs = append(errs, fmt.Errorf("signalling %s: %w", member.Name, err))
			}
		}
		if !waitUntil(clk, grace, membersGone) {
			for _, member := range record.Members {
				if !procgroup.GroupAlive(member.PID) {
					continue
				}
				logger.Warn("process did not exit within grace period, killing", "name", member.Name, "grace", grace)
				if err := procgroup.SignalGroup(member.PID, unix.SIGKILL); err != nil {
					errs = append(errs, fmt.Errorf("killing %s: %w", member.Name, err))
				}
			}
			if !waitUntil(clk, time.Second, membersGone) {
				errs = append(errs, errors.New("processes still alive after SIGKILL"))
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return runstate.Remove(directory, record.RunID)
}

// waitUntil polls done until it returns true or timeout elapses on clk.
func waitUntil(clk clock.Clock, timeout time.Duration, done func() bool) bool {
	deadline := clk.Now().Add(timeout)
	for {
		if done() {
			return true
		}
		if !clk.Now().Before(deadline) {
			return false
		}
		<-clk.After(pollInterval)
	}
}
