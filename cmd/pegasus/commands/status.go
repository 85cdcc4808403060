// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pegasus-robotics/pegasus/cmd/pegasus/cli"
	"github.com/pegasus-robotics/pegasus/lib/procgroup"
	"github.com/pegasus-robotics/pegasus/lib/runstate"
)

type statusParams struct {
	cli.JSONOutput
	configOptions
}

// runStatus is one recorded launch and what is still alive of it.
type runStatus struct {
	runstate.Record
	EngineAlive bool `json:"engine_alive"`
	Running     int  `json:"running"`
}

func inspect(record runstate.Record) runStatus {
	status := runStatus{Record: record, EngineAlive: procgroup.ProcessAlive(record.EnginePID)}
	for _, member := range record.Members {
		if procgroup.GroupAlive(member.PID) {
			status.Running++
		}
	}
	return status
}

func (s runStatus) state() string {
	switch {
	case s.EngineAlive:
		return "running"
	case s.Running > 0:
		return "orphaned"
	default:
		return "stale"
	}
}

func statusCommand(env *Environment) *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "List running launches",
		Description: `List the launches recorded in the run directory with their engine
and process state. "orphaned" means the engine is gone but some process
groups are still alive; "stale" means nothing is left and the record
can be removed with "pegasus stop".`,
		Usage:  "pegasus status [flags]",
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			cfg, _, err := params.load(env)
			if err != nil {
				return err
			}

			records, err := runstate.List(cfg.Paths.Run)
			if err != nil {
				logger.Warn("some run records could not be read", "error", err)
			}
			statuses := make([]runStatus, 0, len(records))
			for _, record := range records {
				statuses = append(statuses, inspect(record))
			}

			if done, err := params.EmitJSON(env.Stdout, statuses); done {
				return err
			}
			if len(statuses) == 0 {
				fmt.Fprintln(env.Stdout, "No launches running.")
				return nil
			}

			now := env.Clock.Now()
			tw := tabwriter.NewWriter(env.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "RUN ID\tDEFINITION\tSCOPES\tSTATE\tPROCESSES\tUPTIME")
			for _, status := range statuses {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
					status.RunID[:8],
					status.Definition,
					strings.Join(status.Scopes, ","),
					status.state(),
					status.Running, len(status.Members),
					now.Sub(status.Started()).Truncate(time.Second),
				)
			}
			return tw.Flush()
		},
	}
}
