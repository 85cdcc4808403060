// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package launchdef

import (
	"fmt"
	"regexp"
)

// argumentNamePattern matches valid argument names: identifiers, which
// is what the $(var name) and name:=value syntaxes can express.
var argumentNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks a Definition for structural issues. Returns a list of
// human-readable issue descriptions. An empty list means the definition
// is valid.
//
// Structural checks include:
//   - Name is required
//   - Argument names must be identifiers (duplicates are allowed and
//     shadow, see launcharg.Registry)
//   - Identity arguments must be declared
//   - Every container needs a name, package, executable, and at least
//     one member; members need a plugin
//   - Standalone nodes need an executable, not a plugin
//   - Unit names are unique across containers, nodes, and includes
//   - Remappings have both endpoints
//   - Includes have a name and target
func Validate(definition *Definition) []string {
	var issues []string

	if definition.Name == "" {
		issues = append(issues, "name is required")
	}

	declared := make(map[string]bool, len(definition.Arguments))
	for index, argument := range definition.Arguments {
		if !argumentNamePattern.MatchString(argument.Name) {
			issues = append(issues, fmt.Sprintf("arguments[%d]: invalid argument name %q", index, argument.Name))
			continue
		}
		declared[argument.Name] = true
	}

	if identity := definition.Identity; identity != nil {
		if identity.IDArgument == "" || !declared[identity.IDArgument] {
			issues = append(issues, fmt.Sprintf("identity.id_argument %q is not a declared argument", identity.IDArgument))
		}
		if identity.NamespaceArgument == "" || !declared[identity.NamespaceArgument] {
			issues = append(issues, fmt.Sprintf("identity.namespace_argument %q is not a declared argument", identity.NamespaceArgument))
		}
		if identity.DefaultID != nil && *identity.DefaultID < 0 {
			issues = append(issues, fmt.Sprintf("identity.default_id %d must not be negative", *identity.DefaultID))
		}
	}

	// Unit names are process names. Two units with the same name in one
	// launch would be indistinguishable in run state and logs.
	unitNames := make(map[string]string)
	claim := func(name, location string) {
		if name == "" {
			return
		}
		if first, exists := unitNames[name]; exists {
			issues = append(issues, fmt.Sprintf("%s %q: duplicate unit name (first used at %s)", location, name, first))
			return
		}
		unitNames[name] = location
	}

	for index, container := range definition.Containers {
		prefix := fmt.Sprintf("containers[%d]", index)
		if container.Name == "" {
			issues = append(issues, prefix+": name is required")
		}
		if container.Package == "" || container.Executable == "" {
			issues = append(issues, fmt.Sprintf("%s %q: package and executable are required", prefix, container.Name))
		}
		if container.Output != "" && container.Output != "screen" && container.Output != "log" {
			issues = append(issues, fmt.Sprintf("%s %q: output must be \"screen\" or \"log\", got %q", prefix, container.Name, container.Output))
		}
		if len(container.Members) == 0 {
			issues = append(issues, fmt.Sprintf("%s %q: at least one member is required", prefix, container.Name))
		}
		claim(container.Name, prefix)

		for memberIndex, member := range container.Members {
			memberPrefix := fmt.Sprintf("%s.members[%d]", prefix, memberIndex)
			issues = append(issues, validateUnit(member, memberPrefix)...)
			if member.Plugin == "" {
				issues = append(issues, fmt.Sprintf("%s %q: container members need a plugin", memberPrefix, member.Name))
			}
			if member.Executable != "" {
				issues = append(issues, fmt.Sprintf("%s %q: container members cannot set executable", memberPrefix, member.Name))
			}
			claim(member.Name, memberPrefix)
		}
	}

	for index, node := range definition.Nodes {
		prefix := fmt.Sprintf("nodes[%d]", index)
		issues = append(issues, validateUnit(node, prefix)...)
		if node.Executable == "" {
			issues = append(issues, fmt.Sprintf("%s %q: standalone nodes need an executable", prefix, node.Name))
		}
		if node.Plugin != "" {
			issues = append(issues, fmt.Sprintf("%s %q: plugins must run inside a container", prefix, node.Name))
		}
		claim(node.Name, prefix)
	}

	for index, include := range definition.Includes {
		prefix := fmt.Sprintf("includes[%d]", index)
		if include.Name == "" {
			issues = append(issues, prefix+": name is required")
		}
		claim(include.Name, prefix)
		if include.Target == "" {
			issues = append(issues, fmt.Sprintf("%s %q: target is required", prefix, include.Name))
		}
		for bindingIndex, binding := range include.Arguments {
			if !argumentNamePattern.MatchString(binding.Name) {
				issues = append(issues, fmt.Sprintf("%s.arguments[%d]: invalid argument name %q", prefix, bindingIndex, binding.Name))
			}
		}
	}

	return issues
}

func validateUnit(unit UnitSpec, prefix string) []string {
	var issues []string
	if unit.Name == "" {
		issues = append(issues, prefix+": name is required")
	}
	if unit.Package == "" {
		issues = append(issues, fmt.Sprintf("%s %q: package is required", prefix, unit.Name))
	}
	for index, remap := range unit.Remappings {
		if remap.From == "" || remap.To == "" {
			issues = append(issues, fmt.Sprintf("%s %q: remappings[%d] needs both from and to", prefix, unit.Name, index))
		}
	}
	for index, file := range unit.ParameterFiles {
		if file == "" {
			issues = append(issues, fmt.Sprintf("%s %q: parameter_files[%d] is empty", prefix, unit.Name, index))
		}
	}
	return issues
}
