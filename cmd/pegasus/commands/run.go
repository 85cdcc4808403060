// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/pegasus-robotics/pegasus/cmd/pegasus/cli"
	"github.com/pegasus-robotics/pegasus/lib/config"
	"github.com/pegasus-robotics/pegasus/lib/graph"
	"github.com/pegasus-robotics/pegasus/lib/logarchive"
	"github.com/pegasus-robotics/pegasus/lib/runstate"
)

type runParams struct {
	configOptions
}

func runCommand(env *Environment) *cli.Command {
	var params runParams

	return &cli.Command{
		Name:    "run",
		Summary: "Assemble a launch definition and start it",
		Description: `Assemble a launch definition and start every process it describes:
shared-process containers, standalone nodes, and nested launches. Each
process runs in its own process group. The engine stays in the
foreground until every process exits or it receives SIGINT/SIGTERM, in
which case every group gets SIGTERM and, after launcher.terminate_grace,
SIGKILL.

The definition is a built-in name (see "pegasus definitions"), a
package reference (pkg:file, under <prefix>/share/pkg/launch), or a
path. Arguments after it are name:=value overrides.`,
		Usage: "pegasus run <definition> [name:=value ...] [flags]",
		Examples: []cli.Example{
			{
				Description: "Vehicle 3 on the default serial link",
				Command:     "pegasus run pegasus vehicle_id:=3",
			},
			{
				Description: "Against a simulator",
				Command:     "pegasus run pegasus connection:=udp://:14540 mavlink_forward:=\"[]\"",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("definition required\n\nRun 'pegasus run --help' for usage.")
			}
			cfg, configPath, err := params.load(env)
			if err != nil {
				return err
			}
			logger = logger.With("command", "run", "definition", args[0])

			launch, err := graph.NewAssembler(cfg, logger).Assemble(args[0], args[1:])
			if err != nil {
				return err
			}
			plan, err := graph.NewPlan(launch, cfg, graph.PlanOptions{ConfigPath: configPath})
			if err != nil {
				return err
			}
			return launchPlan(ctx, env, cfg, plan, logger)
		},
	}
}

// launchPlan starts plan, records it in the run directory, and blocks
// until every process has exited or ctx is cancelled or a termination
// signal arrives.
func launchPlan(ctx context.Context, env *Environment, cfg *config.Config, plan *graph.Plan, logger *slog.Logger) error {
	grace, err := cfg.TerminateGracePeriod()
	if err != nil {
		return err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, unix.SIGTERM)
	defer stop()

	runID := runstate.NewRunID()
	logger = logger.With("run_id", runID)
	directory := filepath.Join(cfg.Paths.Run, runID)
	group, err := graph.Execute(ctx, plan, graph.ExecuteOptions{
		Directory: directory,
		Logger:    logger,
		Clock:     env.Clock,
		Stdout:    env.Stdout,
		Stderr:    env.Stderr,
	})
	if err != nil {
		return err
	}

	kinds := make(map[string]graph.Kind, len(plan.Processes))
	for _, process := range plan.Processes {
		kinds[process.Spec.Name] = process.Kind
	}
	record := runstate.Record{
		RunID:       runID,
		Definition:  plan.Definition,
		Fingerprint: plan.Fingerprint,
		Scopes:      plan.Scopes,
		EnginePID:   os.Getpid(),
		StartedAt:   env.Clock.Now().UnixNano(),
	}
	for _, member := range group.Members() {
		record.Members = append(record.Members, runstate.Member{
			Name: member.Name,
			PID:  member.PID,
			Kind: string(kinds[member.Name]),
		})
	}
	if err := runstate.Write(cfg.Paths.Run, record); err != nil {
		return errors.Join(err, group.Terminate(grace))
	}
	defer func() {
		if err := runstate.Remove(cfg.Paths.Run, runID); err != nil {
			logger.Warn("removing run state", "error", err)
		}
		if cfg.Launcher.CompressLogs {
			archives, err := logarchive.CompressDirectory(filepath.Join(directory, graph.LogDirectory))
			if err != nil {
				logger.Warn("compressing member logs", "error", err)
			}
			logger.Debug("member logs compressed", "archives", len(archives))
		}
	}()

	logger.Info("launch started",
		"fingerprint", plan.Fingerprint,
		"scopes", plan.Scopes,
		"processes", len(record.Members),
	)

	select {
	case <-group.Done():
		if err := group.Wait(); err != nil {
			return fmt.Errorf("launch %s: %w", plan.Definition, err)
		}
		logger.Info("every process exited")
		return nil
	case <-ctx.Done():
		logger.Info("stopping launch", "grace", grace)
		if err := group.Terminate(grace); err != nil {
			return fmt.Errorf("stopping launch %s: %w", plan.Definition, err)
		}
		logger.Info("launch stopped")
		return nil
	}
}
