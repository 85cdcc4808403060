// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"text/tabwriter"

	"github.com/pegasus-robotics/pegasus/cmd/pegasus/cli"
	"github.com/pegasus-robotics/pegasus/lib/launchdef"
)

type definitionsParams struct {
	cli.JSONOutput
	configOptions
	Show string `flag:"show" desc:"print the source of one definition"`
}

// definitionEntry is one listed definition.
type definitionEntry struct {
	Name        string   `json:"name"`
	Location    string   `json:"location"`
	Description string   `json:"description,omitempty"`
	Scoped      bool     `json:"vehicle_scoped"`
	Problems    []string `json:"problems,omitempty"`
}

func definitionsCommand(env *Environment) *cli.Command {
	var params definitionsParams

	return &cli.Command{
		Name:    "definitions",
		Summary: "List launch definitions",
		Description: `List the built-in launch definitions and those in paths.definitions,
with whether each declares a vehicle identity. --show prints one
definition's source; any reference "pegasus run" accepts works.`,
		Usage: "pegasus definitions [--show <definition>] [flags]",
		Examples: []cli.Example{
			{
				Description: "Print the built-in drone definition",
				Command:     "pegasus definitions --show pegasus",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			cfg, _, err := params.load(env)
			if err != nil {
				return err
			}
			locator := launchdef.NewLocator(cfg)

			if params.Show != "" {
				location, err := locator.Locate(params.Show)
				if err != nil {
					return cli.NotFound("%w", err)
				}
				var source []byte
				if location.Builtin {
					source, err = launchdef.BuiltinSource(location.Reference)
				} else {
					source, err = os.ReadFile(location.Path)
				}
				if err != nil {
					return err
				}
				_, err = env.Stdout.Write(source)
				return err
			}

			var entries []definitionEntry
			for _, name := range launchdef.Builtins() {
				definition, err := launchdef.Builtin(name)
				if err != nil {
					entries = append(entries, definitionEntry{Name: name, Location: "builtin", Problems: []string{err.Error()}})
					continue
				}
				entries = append(entries, describe(definition, "builtin", nil))
			}
			if cfg.Paths.Definitions != "" {
				files, err := definitionFiles(cfg.Paths.Definitions)
				if err != nil {
					return err
				}
				for _, path := range files {
					definition, err := launchdef.ReadFile(path)
					if err != nil {
						entries = append(entries, definitionEntry{Name: launchdef.NameFromPath(path), Location: path, Problems: []string{err.Error()}})
						continue
					}
					entries = append(entries, describe(definition, path, launchdef.Validate(definition)))
				}
			}

			if done, err := params.EmitJSON(env.Stdout, entries); done {
				return err
			}
			tw := tabwriter.NewWriter(env.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSCOPED\tLOCATION\tDESCRIPTION")
			for _, entry := range entries {
				scoped := "no"
				if entry.Scoped {
					scoped = "yes"
				}
				description := entry.Description
				if len(entry.Problems) > 0 {
					description = fmt.Sprintf("INVALID: %s", entry.Problems[0])
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", entry.Name, scoped, entry.Location, description)
			}
			return tw.Flush()
		},
	}
}

func describe(definition *launchdef.Definition, location string, problems []string) definitionEntry {
	return definitionEntry{
		Name:        definition.Name,
		Location:    location,
		Description: definition.Description,
		Scoped:      definition.Identity != nil,
		Problems:    problems,
	}
}

// definitionFiles lists the definition files directly inside directory.
func definitionFiles(directory string) ([]string, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading definitions directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml", ".jsonc", ".json":
			files = append(files, filepath.Join(directory, entry.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}
