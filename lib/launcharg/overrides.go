// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package launcharg

import (
	"fmt"
	"strings"
)

// Separator splits an override into name and value.
const Separator = ":="

// Override is one name:=value pair from the invocation.
type Override struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// String renders the override in invocation form.
func (o Override) String() string {
	return o.Name + Separator + o.Value
}

// Overrides is the ordered list of overrides of one invocation. When a
// name appears more than once the last occurrence wins.
type Overrides struct {
	entries []Override
}

// ParseOverrides splits args into overrides and everything else. The
// value is the text after the first separator, verbatim: URIs such as
// serial:///dev/ttyTHS1:921600 pass through untouched.
func ParseOverrides(args []string) (Overrides, []string, error) {
	var overrides Overrides
	var rest []string
	for _, arg := range args {
		name, value, found := strings.Cut(arg, Separator)
		if !found {
			rest = append(rest, arg)
			continue
		}
		if name == "" {
			return Overrides{}, nil, fmt.Errorf("override %q has an empty argument name", arg)
		}
		overrides.entries = append(overrides.entries, Override{Name: name, Value: value})
	}
	return overrides, rest, nil
}

// NewOverrides builds overrides from pairs, preserving order.
func NewOverrides(entries ...Override) Overrides {
	return Overrides{entries: append([]Override(nil), entries...)}
}

// Lookup returns the last value given for name.
func (o Overrides) Lookup(name string) (string, bool) {
	for i := len(o.entries) - 1; i >= 0; i-- {
		if o.entries[i].Name == name {
			return o.entries[i].Value, true
		}
	}
	return "", false
}

// With returns a copy with name:=value appended, so it takes precedence
// over any earlier occurrence.
func (o Overrides) With(name, value string) Overrides {
	entries := make([]Override, 0, len(o.entries)+1)
	entries = append(entries, o.entries...)
	entries = append(entries, Override{Name: name, Value: value})
	return Overrides{entries: entries}
}

// Entries returns the overrides in invocation order.
func (o Overrides) Entries() []Override {
	return append([]Override(nil), o.entries...)
}

// Args renders the overrides back to name:=value arguments.
func (o Overrides) Args() []string {
	args := make([]string, 0, len(o.entries))
	for _, entry := range o.entries {
		args = append(args, entry.String())
	}
	return args
}
