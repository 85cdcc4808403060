// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package launchdef

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Definition is one declarative launch.
type Definition struct {
	// Name identifies the definition. Built-ins and package files are
	// addressed by it; for files it defaults to the file name without
	// extension.
	Name string `yaml:"name"`

	Description string `yaml:"description,omitempty"`

	// Identity names the arguments that carry the vehicle identity.
	// Nil means the definition is not vehicle-scoped and units must give
	// explicit namespaces.
	Identity *IdentitySpec `yaml:"identity,omitempty"`

	// Arguments are declared in order. A later entry with the same name
	// shadows an earlier one.
	Arguments []ArgumentSpec `yaml:"arguments,omitempty"`

	Containers []ContainerSpec `yaml:"containers,omitempty"`

	// Nodes are standalone processes, one OS process per node.
	Nodes []UnitSpec `yaml:"nodes,omitempty"`

	Includes []IncludeSpec `yaml:"includes,omitempty"`
}

// IdentitySpec names the identity arguments of a definition.
type IdentitySpec struct {
	// IDArgument is the integer vehicle ID argument, also scanned from
	// the raw invocation before arguments are declared.
	IDArgument string `yaml:"id_argument"`

	// NamespaceArgument is the namespace prefix argument.
	NamespaceArgument string `yaml:"namespace_argument"`

	// DefaultID applies when the invocation does not set IDArgument.
	// Nil means 1.
	DefaultID *int `yaml:"default_id,omitempty"`
}

// ArgumentSpec declares one launch argument.
type ArgumentSpec struct {
	Name        string `yaml:"name"`
	Default     string `yaml:"default"`
	Description string `yaml:"description,omitempty"`
}

// UnitSpec describes one node: a component plugin when it is a
// container member, an executable otherwise. String fields may contain
// $(var name) substitutions.
type UnitSpec struct {
	Name    string `yaml:"name"`
	Package string `yaml:"package"`

	// Plugin is the component class loaded into a container.
	Plugin string `yaml:"plugin,omitempty"`

	// Executable is the program under lib/<package>/.
	Executable string `yaml:"executable,omitempty"`

	// Namespace overrides the identity scope when non-empty.
	Namespace string `yaml:"namespace,omitempty"`

	// Parameters are literal tuning values. String values may contain
	// substitutions; other scalars and lists keep their YAML types.
	Parameters map[string]any `yaml:"parameters,omitempty"`

	// ParameterFiles are loaded before Parameters. Each must exist when
	// the descriptor is built.
	ParameterFiles []string `yaml:"parameter_files,omitempty"`

	// Remappings are topic renames applied in order.
	Remappings []RemapSpec `yaml:"remappings,omitempty"`

	// Arguments are passed to standalone executables ahead of the
	// --ros-args block.
	Arguments []string `yaml:"arguments,omitempty"`
}

// EntryPoint returns Plugin or Executable, whichever is set.
func (u UnitSpec) EntryPoint() string {
	if u.Plugin != "" {
		return u.Plugin
	}
	return u.Executable
}

// RemapSpec renames topic From to To.
type RemapSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ContainerSpec describes one shared-process container and its members.
type ContainerSpec struct {
	Name       string `yaml:"name"`
	Namespace  string `yaml:"namespace,omitempty"`
	Package    string `yaml:"package"`
	Executable string `yaml:"executable"`

	// Arguments are passed to the container executable verbatim.
	Arguments []string `yaml:"arguments,omitempty"`

	// Output is "screen" or "log". Empty uses the configured default.
	Output string `yaml:"output,omitempty"`

	// EmulateTTY forces line-buffered output from the container.
	EmulateTTY bool `yaml:"emulate_tty,omitempty"`

	Members []UnitSpec `yaml:"members"`
}

// IncludeSpec delegates to another launch definition.
type IncludeSpec struct {
	Name string `yaml:"name"`

	// Target is a locator reference: built-in name, path, or
	// package:file.
	Target string `yaml:"target"`

	// Arguments are forwarded to the nested launch in order. Values may
	// contain substitutions.
	Arguments Bindings `yaml:"arguments,omitempty"`
}

// Binding is one name/value pair forwarded to a nested launch.
type Binding struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Bindings keeps include arguments in document order. In YAML it is
// written either as a mapping or as a list of {name, value} entries.
type Bindings []Binding

// UnmarshalYAML accepts a mapping (order preserved) or a sequence.
func (b *Bindings) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		result := make(Bindings, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if value.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: include argument %q must be a scalar", value.Line, key.Value)
			}
			result = append(result, Binding{Name: key.Value, Value: value.Value})
		}
		*b = result
		return nil
	case yaml.SequenceNode:
		var list []Binding
		if err := node.Decode(&list); err != nil {
			return err
		}
		*b = list
		return nil
	default:
		return fmt.Errorf("line %d: include arguments must be a mapping or a list", node.Line)
	}
}

// MarshalYAML writes bindings as an ordered mapping.
func (b Bindings) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, binding := range b {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: binding.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: binding.Value, Style: yaml.DoubleQuotedStyle},
		)
	}
	return node, nil
}

// DefaultVehicleID returns the identity's default ID, or 1.
func (d *Definition) DefaultVehicleID() int {
	if d.Identity == nil || d.Identity.DefaultID == nil {
		return 1
	}
	return *d.Identity.DefaultID
}
