// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"

	"github.com/pegasus-robotics/pegasus/cmd/pegasus/cli"
	"github.com/pegasus-robotics/pegasus/lib/graph"
)

type planParams struct {
	cli.JSONOutput
	configOptions
	Graph bool `flag:"graph" desc:"print the assembled launch graph instead of the process plan (JSON)"`
}

// planOutput is the --json form of plan.
type planOutput struct {
	Plan     *graph.Plan `json:"plan"`
	Unused   []string    `json:"unused_overrides,omitempty"`
	Shadowed []string    `json:"shadowed_arguments,omitempty"`
}

func planCommand(env *Environment) *cli.Command {
	var params planParams

	return &cli.Command{
		Name:    "plan",
		Summary: "Show what a launch would start, without starting it",
		Description: `Assemble a launch definition and resolve every executable, then print
the resolved arguments and the processes "pegasus run" would start with
the same arguments. Nothing is started and nothing is written.

The fingerprint identifies the assembled graph: the same definition and
overrides always give the same fingerprint.`,
		Usage: "pegasus plan <definition> [name:=value ...] [flags]",
		Examples: []cli.Example{
			{
				Description: "Inspect vehicle 3",
				Command:     "pegasus plan pegasus vehicle_id:=3",
			},
			{
				Description: "Machine-readable graph",
				Command:     "pegasus plan pegasus --graph",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("definition required\n\nRun 'pegasus plan --help' for usage.")
			}
			cfg, configPath, err := params.load(env)
			if err != nil {
				return err
			}

			launch, err := graph.NewAssembler(cfg, logger).Assemble(args[0], args[1:])
			if err != nil {
				return err
			}
			if params.Graph {
				return cli.WriteJSON(env.Stdout, launch.Snapshot())
			}

			plan, err := graph.NewPlan(launch, cfg, graph.PlanOptions{ConfigPath: configPath})
			if err != nil {
				return err
			}

			output := planOutput{Plan: plan}
			for _, unused := range launch.Unused() {
				output.Unused = append(output.Unused, unused.String())
			}
			for _, shadowing := range launch.Shadowed() {
				output.Shadowed = append(output.Shadowed, shadowing.Current.Name)
			}
			if done, err := params.EmitJSON(env.Stdout, output); done {
				return err
			}

			planRenderer{theme: defaultTheme, w: env.Stdout}.render(plan, []*graph.LaunchGraph{launch})
			for _, unused := range output.Unused {
				logger.Warn("override names no declared argument", "override", unused)
			}
			return nil
		},
	}
}
