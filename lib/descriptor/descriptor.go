// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package descriptor builds process descriptors: the fully resolved
// description of one node (what to run, in which namespace, with which
// parameters and topic remaps). Descriptors are plain values; nothing
// is started here.
package descriptor

// Remap renames topic From to To inside one process.
type Remap struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ProcessDescriptor is one fully resolved node.
type ProcessDescriptor struct {
	Name    string `json:"name"`
	Package string `json:"package"`

	// EntryPoint is the component plugin when Component is set, the
	// executable under lib/<Package>/ otherwise.
	EntryPoint string `json:"entry_point"`
	Component  bool   `json:"component,omitempty"`

	// Namespace has no leading slash. Empty is the root namespace.
	Namespace string `json:"namespace"`

	// Parameters are literal tuning values keyed by parameter name.
	// Nested mappings are flattened to dotted names.
	Parameters map[string]any `json:"parameters,omitempty"`

	// ParameterFiles are absolute or working-directory relative paths,
	// each verified to exist when the descriptor was built.
	ParameterFiles []string `json:"parameter_files,omitempty"`

	// Remaps apply in order.
	Remaps []Remap `json:"remaps,omitempty"`

	// Arguments precede --ros-args for standalone executables.
	Arguments []string `json:"arguments,omitempty"`

	// IntraProcess enables zero-copy transport between members of the
	// same container. Only a container sets it.
	IntraProcess bool `json:"intra_process,omitempty"`
}

// Clone returns a deep copy of d. Containers group clones so that
// grouping never mutates the caller's descriptors.
func (d ProcessDescriptor) Clone() ProcessDescriptor {
	clone := d
	if d.Parameters != nil {
		clone.Parameters = make(map[string]any, len(d.Parameters))
		for key, value := range d.Parameters {
			clone.Parameters[key] = cloneValue(value)
		}
	}
	clone.ParameterFiles = append([]string(nil), d.ParameterFiles...)
	clone.Remaps = append([]Remap(nil), d.Remaps...)
	clone.Arguments = append([]string(nil), d.Arguments...)
	return clone
}

func cloneValue(value any) any {
	list, ok := value.([]any)
	if !ok {
		return value
	}
	result := make([]any, len(list))
	for i, element := range list {
		result[i] = cloneValue(element)
	}
	return result
}

// FullyQualifiedName returns /<namespace>/<name>.
func (d ProcessDescriptor) FullyQualifiedName() string {
	if d.Namespace == "" {
		return "/" + d.Name
	}
	return "/" + d.Namespace + "/" + d.Name
}
