// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package descriptor

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RosArguments renders the --ros-args block that applies d to a process:
//
//	--ros-args -r __node:=<name> -r __ns:=/<namespace>
//	  --params-file <file>... -p <key>:=<value>... -r <from>:=<to>...
//
// Parameters appear in sorted key order so the rendering is
// deterministic.
func (d ProcessDescriptor) RosArguments() ([]string, error) {
	args := []string{
		"--ros-args",
		"-r", "__node:=" + d.Name,
		"-r", "__ns:=/" + d.Namespace,
	}
	for _, file := range d.ParameterFiles {
		args = append(args, "--params-file", file)
	}
	for _, key := range d.ParameterNames() {
		value, err := FormatParameter(d.Parameters[key])
		if err != nil {
			return nil, fmt.Errorf("parameter %q of %s: %w", key, d.Name, err)
		}
		args = append(args, "-p", key+":="+value)
	}
	for _, remap := range d.Remaps {
		args = append(args, "-r", remap.From+":="+remap.To)
	}
	return args, nil
}

// CommandArguments returns the full argument list for a standalone
// executable: its own arguments, then the --ros-args block.
func (d ProcessDescriptor) CommandArguments() ([]string, error) {
	ros, err := d.RosArguments()
	if err != nil {
		return nil, err
	}
	return append(append([]string(nil), d.Arguments...), ros...), nil
}

// ParameterNames returns the parameter keys of d, sorted.
func (d ProcessDescriptor) ParameterNames() []string {
	names := make([]string, 0, len(d.Parameters))
	for name := range d.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatParameter renders a parameter value in the YAML form ROS
// parses from -p name:=value. Scalars are written verbatim, so a string
// resolved from an argument is typed by ROS the same way a launch
// argument would be. Floats always carry a decimal point so they are not
// read back as integers. Lists render as flow sequences with their
// string elements quoted where YAML needs it.
func FormatParameter(value any) (string, error) {
	node, err := parameterNode(value)
	if err != nil {
		return "", err
	}
	if node.Kind == yaml.ScalarNode {
		return node.Value, nil
	}
	data, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

func parameterNode(value any) (*yaml.Node, error) {
	switch typed := value.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: typed}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(typed)}, nil
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(typed)}, nil
	case int64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(typed, 10)}, nil
	case uint64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatUint(typed, 10)}, nil
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(typed)}, nil
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		for _, element := range typed {
			child, err := parameterNode(element)
			if err != nil {
				return nil, err
			}
			if child.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("nested lists are not valid parameter values")
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case []string:
		list := make([]any, len(typed))
		for i, element := range typed {
			list[i] = element
		}
		return parameterNode(list)
	default:
		return nil, fmt.Errorf("unsupported parameter type %T", value)
	}
}

func formatFloat(value float64) string {
	switch {
	case math.IsInf(value, 1):
		return ".inf"
	case math.IsInf(value, -1):
		return "-.inf"
	case math.IsNaN(value):
		return ".nan"
	}
	text := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.Contains(text, ".") {
		text += ".0"
	}
	return text
}
