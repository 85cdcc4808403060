// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package container groups process descriptors into one shared OS
// process. Grouping only enables intra-process transport on the members;
// their namespaces, parameters, and remaps are exactly what the
// descriptor builder produced.
//
// The container executable learns its members from a component
// manifest: a YAML document written next to the run state and passed as
// --manifest <path>. The stock rclcpp_components component_container
// does not read manifests; it only loads components requested over its
// load_node service. The configured container executable must therefore
// be a manifest-aware loader that reads --manifest and loads each listed
// component itself.
package container

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pegasus-robotics/pegasus/lib/descriptor"
)

// Spec is what starts the container process itself.
type Spec struct {
	Name       string   `json:"name"`
	Namespace  string   `json:"namespace,omitempty"`
	Package    string   `json:"package"`
	Executable string   `json:"executable"`
	Arguments  []string `json:"arguments,omitempty"`

	// Output is "screen" or "log".
	Output     string `json:"output"`
	EmulateTTY bool   `json:"emulate_tty,omitempty"`
}

// Container is a shared-process container with its members. Immutable
// after Group returns.
type Container struct {
	spec    Spec
	members []descriptor.ProcessDescriptor
}

// Group returns a container holding copies of members with IntraProcess
// set. The caller's descriptors are not modified.
func Group(spec Spec, members []descriptor.ProcessDescriptor) Container {
	spec.Arguments = append([]string(nil), spec.Arguments...)
	grouped := make([]descriptor.ProcessDescriptor, len(members))
	for i, member := range members {
		grouped[i] = member.Clone()
		grouped[i].IntraProcess = true
	}
	return Container{spec: spec, members: grouped}
}

// Spec returns the container process spec.
func (c Container) Spec() Spec {
	spec := c.spec
	spec.Arguments = append([]string(nil), c.spec.Arguments...)
	return spec
}

// Name returns the container name.
func (c Container) Name() string {
	return c.spec.Name
}

// Members returns copies of the grouped descriptors in declaration
// order.
func (c Container) Members() []descriptor.ProcessDescriptor {
	result := make([]descriptor.ProcessDescriptor, len(c.members))
	for i, member := range c.members {
		result[i] = member.Clone()
	}
	return result
}

// ManifestFlag is the container executable flag naming the manifest.
const ManifestFlag = "--manifest"

// Manifest is the document the container executable loads its members
// from.
type Manifest struct {
	Container  string              `yaml:"container"`
	Namespace  string              `yaml:"namespace"`
	Components []ManifestComponent `yaml:"components"`
}

// ManifestComponent is one member in a manifest.
type ManifestComponent struct {
	Name           string             `yaml:"name"`
	Package        string             `yaml:"package"`
	Plugin         string             `yaml:"plugin"`
	Namespace      string             `yaml:"namespace"`
	ParameterFiles []string           `yaml:"parameter_files,omitempty"`
	Parameters     yaml.Node          `yaml:"parameters"`
	Remappings     []descriptor.Remap `yaml:"remappings,omitempty"`
	ExtraArguments map[string]bool    `yaml:"extra_arguments"`
}

// Manifest builds the component manifest of c.
func (c Container) Manifest() (Manifest, error) {
	manifest := Manifest{
		Container: c.spec.Name,
		Namespace: "/" + c.spec.Namespace,
	}
	for _, member := range c.members {
		parameters, err := parameterMapping(member)
		if err != nil {
			return Manifest{}, fmt.Errorf("container %s: %w", c.spec.Name, err)
		}
		manifest.Components = append(manifest.Components, ManifestComponent{
			Name:           member.Name,
			Package:        member.Package,
			Plugin:         member.EntryPoint,
			Namespace:      "/" + member.Namespace,
			ParameterFiles: member.ParameterFiles,
			Parameters:     parameters,
			Remappings:     member.Remaps,
			ExtraArguments: map[string]bool{"use_intra_process_comms": member.IntraProcess},
		})
	}
	return manifest, nil
}

// ManifestYAML renders the manifest of c.
func (c Container) ManifestYAML() ([]byte, error) {
	manifest, err := c.Manifest()
	if err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(&manifest)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest for container %s: %w", c.spec.Name, err)
	}
	return data, nil
}

// parameterMapping renders parameters as a mapping in sorted key order.
// Values use the same formatting as the command line, so floats keep
// their decimal point.
func parameterMapping(member descriptor.ProcessDescriptor) (yaml.Node, error) {
	node := yaml.Node{Kind: yaml.MappingNode}
	for _, key := range member.ParameterNames() {
		value, err := descriptor.FormatParameter(member.Parameters[key])
		if err != nil {
			return yaml.Node{}, fmt.Errorf("member %s parameter %q: %w", member.Name, key, err)
		}
		var valueNode yaml.Node
		if err := yaml.Unmarshal([]byte(value), &valueNode); err != nil || len(valueNode.Content) == 0 {
			valueNode = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
		} else {
			valueNode = *valueNode.Content[0]
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&valueNode,
		)
	}
	return node, nil
}
