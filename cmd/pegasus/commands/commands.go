// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the pegasus command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pegasus-robotics/pegasus/cmd/pegasus/cli"
	"github.com/pegasus-robotics/pegasus/lib/clock"
	"github.com/pegasus-robotics/pegasus/lib/config"
	"github.com/pegasus-robotics/pegasus/lib/version"
)

// Environment is what commands read from and write to. Tests substitute
// buffers and a fake clock.
type Environment struct {
	Stdout io.Writer
	Stderr io.Writer
	Clock  clock.Clock

	// Getenv reads PEGASUS_CONFIG. Nil uses os.Getenv.
	Getenv func(string) string
}

// DefaultEnvironment writes to the process's stdout and stderr.
func DefaultEnvironment() *Environment {
	return &Environment{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Clock:  clock.Real(),
		Getenv: os.Getenv,
	}
}

func (e *Environment) getenv(name string) string {
	if e.Getenv == nil {
		return os.Getenv(name)
	}
	return e.Getenv(name)
}

// configOptions is embedded in every params struct that needs the
// engine configuration.
type configOptions struct {
	ConfigPath string `flag:"config" desc:"configuration file (default: $PEGASUS_CONFIG, else built-in defaults)"`
}

// load returns the configuration and the path it came from ("" for the
// built-in defaults).
func (o configOptions) load(env *Environment) (*config.Config, string, error) {
	path := o.ConfigPath
	if path == "" {
		path = env.getenv("PEGASUS_CONFIG")
	}
	if path == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, "", fmt.Errorf("default configuration: %w", err)
		}
		return cfg, "", nil
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Root builds the pegasus command tree.
func Root(env *Environment) *cli.Command {
	return &cli.Command{
		Name: "pegasus",
		Description: `pegasus: launch composition for autonomous drones.

Assembles a launch definition (built-in, package-relative, or a file)
into a graph of containers, standalone nodes, and nested launches,
resolves per-vehicle identity, and starts the result as one process
group.`,
		Subcommands: []*cli.Command{
			runCommand(env),
			planCommand(env),
			fleetCommand(env),
			statusCommand(env),
			stopCommand(env),
			logsCommand(env),
			doctorCommand(env),
			definitionsCommand(env),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
					fmt.Fprintf(env.Stdout, "pegasus %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Check this host before the first launch",
				Command:     "pegasus doctor --probe",
			},
			{
				Description: "Launch vehicle 3 with the built-in drone definition",
				Command:     "pegasus run pegasus vehicle_id:=3",
			},
			{
				Description: "Show what would be started, without starting it",
				Command:     "pegasus plan pegasus vehicle_id:=3 connection:=udp://:14540",
			},
			{
				Description: "Launch a simulated fleet of three vehicles",
				Command:     "pegasus fleet --vehicles 1-3 pegasus",
			},
			{
				Description: "Stop every running launch",
				Command:     "pegasus stop --all",
			},
		},
	}
}
