// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package descriptor

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pegasus-robotics/pegasus/lib/identity"
	"github.com/pegasus-robotics/pegasus/lib/launcharg"
	"github.com/pegasus-robotics/pegasus/lib/launchdef"
)

// ErrMissingParameterFile is returned when a unit's parameter file does
// not exist.
var ErrMissingParameterFile = errors.New("parameter file does not exist")

// Builder turns unit specs into descriptors against one resolved set of
// launch arguments.
type Builder struct {
	registry   *launcharg.Registry
	resolution *launcharg.Resolution
}

// NewBuilder returns a builder. Substitutions are parsed against
// registry and resolved from resolution.
func NewBuilder(registry *launcharg.Registry, resolution *launcharg.Resolution) *Builder {
	return &Builder{registry: registry, resolution: resolution}
}

// Build resolves unit into a descriptor. When the unit names no
// namespace, the vehicle scope of vehicle is used; a nil vehicle leaves
// the node in the root namespace.
func (b *Builder) Build(unit launchdef.UnitSpec, vehicle *identity.Identity) (ProcessDescriptor, error) {
	descriptor := ProcessDescriptor{
		Name:       unit.Name,
		Package:    unit.Package,
		EntryPoint: unit.EntryPoint(),
		Component:  unit.Plugin != "",
	}

	if unit.Namespace != "" {
		namespace, err := b.Resolve(unit.Namespace)
		if err != nil {
			return ProcessDescriptor{}, fmt.Errorf("unit %q namespace: %w", unit.Name, err)
		}
		descriptor.Namespace = strings.Trim(namespace, "/")
	} else if vehicle != nil {
		descriptor.Namespace = vehicle.Scope()
	}

	for _, file := range unit.ParameterFiles {
		path, err := b.parameterFile(unit.Name, file)
		if err != nil {
			return ProcessDescriptor{}, err
		}
		descriptor.ParameterFiles = append(descriptor.ParameterFiles, path)
	}

	if len(unit.Parameters) > 0 {
		descriptor.Parameters = make(map[string]any, len(unit.Parameters))
		if err := b.flatten("", unit.Parameters, descriptor.Parameters); err != nil {
			return ProcessDescriptor{}, fmt.Errorf("unit %q parameter %w", unit.Name, err)
		}
	}

	for index, remap := range unit.Remappings {
		from, err := b.Resolve(remap.From)
		if err != nil {
			return ProcessDescriptor{}, fmt.Errorf("unit %q remappings[%d]: %w", unit.Name, index, err)
		}
		to, err := b.Resolve(remap.To)
		if err != nil {
			return ProcessDescriptor{}, fmt.Errorf("unit %q remappings[%d]: %w", unit.Name, index, err)
		}
		descriptor.Remaps = append(descriptor.Remaps, Remap{From: from, To: to})
	}

	for _, argument := range unit.Arguments {
		text, err := b.Resolve(argument)
		if err != nil {
			return ProcessDescriptor{}, fmt.Errorf("unit %q arguments: %w", unit.Name, err)
		}
		descriptor.Arguments = append(descriptor.Arguments, text)
	}

	return descriptor, nil
}

// parameterFile resolves one parameter file entry and checks that it
// exists. The error names the unit, the arguments the path came from,
// and the path.
func (b *Builder) parameterFile(unitName, text string) (string, error) {
	substitution, err := launcharg.ParseSubstitution(text, b.registry)
	if err != nil {
		return "", fmt.Errorf("unit %q parameter file: %w", unitName, err)
	}
	path, err := substitution.Resolve(b.resolution)
	if err != nil {
		return "", fmt.Errorf("unit %q parameter file: %w", unitName, err)
	}

	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		return path, nil
	}

	var sources []string
	for _, handle := range substitution.References() {
		sources = append(sources, handle.Name())
	}
	source := "literal path"
	if len(sources) > 0 {
		source = "argument " + strings.Join(sources, ", ")
	}
	return "", fmt.Errorf("unit %q: %w: %s (from %s)", unitName, ErrMissingParameterFile, path, source)
}

// Resolve parses text for $(var name) tokens and returns the resolved
// string.
func (b *Builder) Resolve(text string) (string, error) {
	substitution, err := launcharg.ParseSubstitution(text, b.registry)
	if err != nil {
		return "", err
	}
	return substitution.Resolve(b.resolution)
}

// flatten copies parameters into out, resolving substitutions in string
// values and turning nested mappings into dotted names.
func (b *Builder) flatten(prefix string, parameters map[string]any, out map[string]any) error {
	for key, value := range parameters {
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			if err := b.flatten(name, nested, out); err != nil {
				return err
			}
			continue
		}
		resolved, err := b.value(value)
		if err != nil {
			return fmt.Errorf("%q: %w", name, err)
		}
		out[name] = resolved
	}
	return nil
}

func (b *Builder) value(value any) (any, error) {
	switch typed := value.(type) {
	case string:
		substitution, err := launcharg.ParseSubstitution(typed, b.registry)
		if err != nil {
			return nil, err
		}
		return substitution.Value(b.resolution)
	case []any:
		result := make([]any, len(typed))
		for i, element := range typed {
			resolved, err := b.value(element)
			if err != nil {
				return nil, err
			}
			result[i] = resolved
		}
		return result, nil
	default:
		return value, nil
	}
}
