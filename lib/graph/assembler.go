// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pegasus-robotics/pegasus/lib/config"
	"github.com/pegasus-robotics/pegasus/lib/container"
	"github.com/pegasus-robotics/pegasus/lib/delegate"
	"github.com/pegasus-robotics/pegasus/lib/descriptor"
	"github.com/pegasus-robotics/pegasus/lib/identity"
	"github.com/pegasus-robotics/pegasus/lib/launcharg"
	"github.com/pegasus-robotics/pegasus/lib/launchdef"
)

// Assembler turns launch definitions into launch graphs.
type Assembler struct {
	config  *config.Config
	locator *launchdef.Locator
	logger  *slog.Logger
}

// NewAssembler returns an assembler that locates definitions through
// cfg. A nil logger uses slog.Default().
func NewAssembler(cfg *config.Config, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		config:  cfg,
		locator: launchdef.NewLocator(cfg),
		logger:  logger,
	}
}

// Locator returns the locator the assembler uses.
func (a *Assembler) Locator() *launchdef.Locator {
	return a.locator
}

// Assemble builds the launch graph for reference. rawArgs are the
// invocation's name:=value overrides exactly as given.
func (a *Assembler) Assemble(reference string, rawArgs []string) (*LaunchGraph, error) {
	location, err := a.locator.Locate(reference)
	if err != nil {
		return nil, err
	}
	definition, err := a.locator.Load(location)
	if err != nil {
		return nil, err
	}

	graph, err := a.assemble(definition, location, rawArgs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", definition.Name, err)
	}

	a.logger.Debug("launch graph assembled",
		"definition", graph.definition,
		"scope", graph.Scope(),
		"containers", len(graph.containers),
		"nodes", len(graph.nodes),
		"delegates", len(graph.delegates),
	)
	return graph, nil
}

func (a *Assembler) assemble(definition *launchdef.Definition, location launchdef.Location, rawArgs []string) (*LaunchGraph, error) {
	overrides, rest, err := launcharg.ParseOverrides(rawArgs)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("unexpected arguments %s (launch arguments are name:=value)", strings.Join(rest, " "))
	}

	// The vehicle id is needed as the default of its own formal
	// argument, so it is read from the raw invocation before anything
	// is declared.
	scannedID := 0
	if definition.Identity != nil {
		scannedID, err = identity.ScanRaw(rawArgs, definition.Identity.IDArgument, definition.DefaultVehicleID())
		if err != nil {
			return nil, err
		}
	}

	registry := launcharg.NewRegistry(a.logger.With("definition", definition.Name))
	for _, argument := range definition.Arguments {
		defaultValue := argument.Default
		if definition.Identity != nil && argument.Name == definition.Identity.IDArgument {
			defaultValue = strconv.Itoa(scannedID)
		} else if _, overridden := overrides.Lookup(argument.Name); !overridden && launchdef.HasPackageShares(defaultValue) {
			defaultValue, err = launchdef.ExpandPackageShares(defaultValue, a.config)
			if err != nil {
				return nil, fmt.Errorf("argument %q default: %w", argument.Name, err)
			}
		}
		registry.Declare(argument.Name, defaultValue, argument.Description)
	}

	resolution, err := registry.ResolveAll(overrides)
	if err != nil {
		return nil, err
	}

	graph := &LaunchGraph{
		definition:  definition.Name,
		description: definition.Description,
		location:    location,
		shadowed:    registry.Shadowed(),
		unused:      resolution.Unused(),
	}
	for _, declaration := range registry.Declarations() {
		value, err := resolution.Get(declaration.Name)
		if err != nil {
			return nil, err
		}
		_, overridden := overrides.Lookup(declaration.Name)
		graph.arguments = append(graph.arguments, Argument{
			Name:        declaration.Name,
			Value:       value,
			Default:     declaration.Default,
			Description: declaration.Description,
			Overridden:  overridden,
		})
	}

	if definition.Identity != nil {
		vehicle, err := identity.Resolve(resolution, definition.Identity.IDArgument, definition.Identity.NamespaceArgument)
		if err != nil {
			return nil, err
		}
		graph.vehicle = &vehicle
	}

	builder := descriptor.NewBuilder(registry, resolution)

	for _, spec := range definition.Containers {
		grouped, err := a.buildContainer(builder, spec, graph.vehicle)
		if err != nil {
			return nil, err
		}
		graph.containers = append(graph.containers, grouped)
	}

	for _, unit := range definition.Nodes {
		node, err := builder.Build(unit, graph.vehicle)
		if err != nil {
			return nil, err
		}
		graph.nodes = append(graph.nodes, node)
	}

	for _, include := range definition.Includes {
		nested, err := a.buildDelegate(builder, include)
		if err != nil {
			return nil, err
		}
		graph.delegates = append(graph.delegates, nested)
	}

	return graph, nil
}

func (a *Assembler) buildContainer(builder *descriptor.Builder, spec launchdef.ContainerSpec, vehicle *identity.Identity) (container.Container, error) {
	namespace, err := builder.Resolve(spec.Namespace)
	if err != nil {
		return container.Container{}, fmt.Errorf("container %q namespace: %w", spec.Name, err)
	}
	var arguments []string
	for _, argument := range spec.Arguments {
		resolved, err := builder.Resolve(argument)
		if err != nil {
			return container.Container{}, fmt.Errorf("container %q arguments: %w", spec.Name, err)
		}
		arguments = append(arguments, resolved)
	}
	output := spec.Output
	if output == "" {
		output = a.config.Launcher.Output
	}

	members := make([]descriptor.ProcessDescriptor, 0, len(spec.Members))
	for _, unit := range spec.Members {
		member, err := builder.Build(unit, vehicle)
		if err != nil {
			return container.Container{}, fmt.Errorf("container %q: %w", spec.Name, err)
		}
		members = append(members, member)
	}

	return container.Group(container.Spec{
		Name:       spec.Name,
		Namespace:  strings.Trim(namespace, "/"),
		Package:    spec.Package,
		Executable: spec.Executable,
		Arguments:  arguments,
		Output:     output,
		EmulateTTY: spec.EmulateTTY,
	}, members), nil
}

func (a *Assembler) buildDelegate(builder *descriptor.Builder, include launchdef.IncludeSpec) (delegate.Delegate, error) {
	target, err := builder.Resolve(include.Target)
	if err != nil {
		return delegate.Delegate{}, fmt.Errorf("delegate %q target: %w", include.Name, err)
	}
	bindings := make([]launcharg.Override, 0, len(include.Arguments))
	for _, binding := range include.Arguments {
		value, err := builder.Resolve(binding.Value)
		if err != nil {
			return delegate.Delegate{}, fmt.Errorf("delegate %q argument %q: %w", include.Name, binding.Name, err)
		}
		bindings = append(bindings, launcharg.Override{Name: binding.Name, Value: value})
	}
	return delegate.New(a.locator, include.Name, target, bindings)
}
