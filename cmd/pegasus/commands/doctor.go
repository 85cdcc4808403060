// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pegasus-robotics/pegasus/cmd/pegasus/cli"
	"github.com/pegasus-robotics/pegasus/lib/graph"
	"github.com/pegasus-robotics/pegasus/lib/launcharg"
	"github.com/pegasus-robotics/pegasus/lib/preflight"
)

// Arguments doctor inspects when the definition declares them.
const (
	connectionArgument = "connection"
	forwardArgument    = "mavlink_forward"
)

type doctorParams struct {
	cli.JSONOutput
	configOptions
	Probe bool `flag:"probe" desc:"open the flight-controller serial device at the configured baud rate"`
}

func doctorCommand(env *Environment) *cli.Command {
	var params doctorParams

	return &cli.Command{
		Name:    "doctor",
		Summary: "Check that this host can run a launch",
		Description: `Run preflight checks for a launch definition without starting
anything: install prefixes and run directory, definition assembly,
parameter files, executables, the flight-controller link named by the
"connection" argument, the "mavlink_forward" endpoint list, and leftover
run records.

Exits 1 when any check fails. Warnings do not fail the run.`,
		Usage: "pegasus doctor [definition] [name:=value ...] [flags]",
		Examples: []cli.Example{
			{
				Description: "Check the default drone launch",
				Command:     "pegasus doctor",
			},
			{
				Description: "Also open the serial link",
				Command:     "pegasus doctor pegasus connection:=serial:///dev/ttyTHS1:921600 --probe",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			reference := defaultDefinition
			if len(args) > 0 && !strings.Contains(args[0], launcharg.Separator) {
				reference, args = args[0], args[1:]
			}
			cfg, _, err := params.load(env)
			if err != nil {
				return err
			}

			validator := preflight.NewValidator()
			validator.ValidateConfig(cfg)
			launch := validator.ValidateGraph(graph.NewAssembler(cfg, logger), reference, args)
			if launch != nil {
				validator.ValidateParameterFiles(launch)
				validator.ValidateExecutables(launch, cfg)
				for _, argument := range launch.Arguments() {
					switch argument.Name {
					case connectionArgument:
						validator.ValidateLink(argument.Value, params.Probe)
					case forwardArgument:
						validator.ValidateForward(argument.Value)
					}
				}
			}
			validator.ValidateRunState(cfg)

			if done, err := params.EmitJSON(env.Stdout, validator.Results()); done {
				if err != nil {
					return err
				}
			} else {
				validator.PrintResults(env.Stdout)
			}
			if validator.HasErrors() {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
