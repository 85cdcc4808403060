// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pegasus-robotics/pegasus/cmd/pegasus/cli"
	"github.com/pegasus-robotics/pegasus/lib/fleet"
	"github.com/pegasus-robotics/pegasus/lib/graph"
	"github.com/pegasus-robotics/pegasus/lib/launcharg"
)

// defaultDefinition is launched when fleet is given only overrides.
const defaultDefinition = "pegasus"

type fleetParams struct {
	cli.JSONOutput
	configOptions
	Vehicles string `flag:"vehicles" desc:"vehicle ids, e.g. 1,2,5-7 (required)"`
	DryRun   bool   `flag:"dry-run" desc:"print the merged plan instead of starting it"`
}

func fleetCommand(env *Environment) *cli.Command {
	var params fleetParams

	return &cli.Command{
		Name:    "fleet",
		Summary: "Launch one definition for several vehicles",
		Description: `Assemble a vehicle-scoped launch definition once per vehicle id and
start every resulting process in one engine. Each vehicle gets the
shared overrides plus <id argument>:=<id>; any id override given on the
command line is replaced. Process names are prefixed with the vehicle
scope (drone2.visual_slam_launch_container).

Two ids that resolve to the same scope are an error, as is a definition
without an identity block.`,
		Usage: "pegasus fleet --vehicles <ids> [definition] [name:=value ...] [flags]",
		Examples: []cli.Example{
			{
				Description: "Three drones in simulation",
				Command:     "pegasus fleet --vehicles 1-3 pegasus connection:=udp://:14540",
			},
			{
				Description: "Check the merged plan first",
				Command:     "pegasus fleet --vehicles 1,2 --dry-run",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if params.Vehicles == "" {
				return cli.Validation("--vehicles is required\n\nRun 'pegasus fleet --help' for usage.")
			}
			ids, err := fleet.ParseIDs(params.Vehicles)
			if err != nil {
				return cli.Validation("--vehicles: %w", err)
			}

			reference := defaultDefinition
			if len(args) > 0 && !strings.Contains(args[0], launcharg.Separator) {
				reference, args = args[0], args[1:]
			}

			cfg, configPath, err := params.load(env)
			if err != nil {
				return err
			}
			logger = logger.With("command", "fleet", "definition", reference)
			assembler := graph.NewAssembler(cfg, logger)

			location, err := assembler.Locator().Locate(reference)
			if err != nil {
				return err
			}
			definition, err := assembler.Locator().Load(location)
			if err != nil {
				return err
			}
			if definition.Identity == nil {
				return cli.Validation("%s has no identity block; fleet launches need a vehicle-scoped definition", definition.Name)
			}

			launches, err := fleet.Plan(assembler, location.String(), definition.Identity.IDArgument, args, ids)
			if err != nil {
				return err
			}
			plans := make([]*graph.Plan, 0, len(launches))
			for _, launch := range launches {
				plan, err := graph.NewPlan(launch, cfg, graph.PlanOptions{ConfigPath: configPath})
				if err != nil {
					return err
				}
				plans = append(plans, plan)
			}
			merged, err := graph.Merge(plans...)
			if err != nil {
				return err
			}

			if params.DryRun {
				if done, err := params.EmitJSON(env.Stdout, planOutput{Plan: merged}); done {
					return err
				}
				planRenderer{theme: defaultTheme, w: env.Stdout}.render(merged, launches)
				return nil
			}
			return launchPlan(ctx, env, cfg, merged, logger)
		},
	}
}
