// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package launchdef

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed builtin/*.yaml
var builtinFiles embed.FS

// Builtins returns the names of the embedded definitions, sorted.
func Builtins() []string {
	entries, err := builtinFiles.ReadDir("builtin")
	if err != nil {
		// The directory is embedded; failure here is a build defect.
		panic(fmt.Sprintf("launchdef: reading embedded definitions: %v", err))
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// IsBuiltin reports whether name is an embedded definition.
func IsBuiltin(name string) bool {
	if name == "" || strings.ContainsAny(name, "/\\:") {
		return false
	}
	_, err := builtinFiles.Open("builtin/" + name + ".yaml")
	return err == nil
}

// Builtin parses and validates the embedded definition name.
func Builtin(name string) (*Definition, error) {
	if !IsBuiltin(name) {
		return nil, fmt.Errorf("%w: no built-in definition %q", ErrNotFound, name)
	}
	data, err := builtinFiles.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("reading built-in definition %s: %w", name, err)
	}
	definition, err := Parse(data, FormatYAML)
	if err != nil {
		return nil, fmt.Errorf("built-in definition %s: %w", name, err)
	}
	if issues := Validate(definition); len(issues) > 0 {
		return nil, fmt.Errorf("built-in definition %s: %s", name, strings.Join(issues, "; "))
	}
	return definition, nil
}

// BuiltinSource returns the embedded YAML of name, for display.
func BuiltinSource(name string) ([]byte, error) {
	if !IsBuiltin(name) {
		return nil, fmt.Errorf("%w: no built-in definition %q", ErrNotFound, name)
	}
	return builtinFiles.ReadFile("builtin/" + name + ".yaml")
}
