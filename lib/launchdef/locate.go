// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package launchdef

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pegasus-robotics/pegasus/lib/config"
)

// ErrNotFound is returned when a reference names no definition.
var ErrNotFound = errors.New("launch definition not found")

// definitionExtensions are tried, in order, for references without one.
var definitionExtensions = []string{".yaml", ".yml", ".jsonc", ".json"}

// Location is where a located definition lives.
type Location struct {
	// Reference is what the caller asked for.
	Reference string `json:"reference"`

	// Builtin is set when the definition is embedded; Path is empty.
	Builtin bool `json:"builtin,omitempty"`

	// Path is the absolute file path for file definitions.
	Path string `json:"path,omitempty"`
}

// String returns a reference that locates the same definition from any
// working directory: the built-in name or the absolute path.
func (l Location) String() string {
	if l.Builtin {
		return l.Reference
	}
	return l.Path
}

// Locator finds launch definitions. References take three forms:
//
//   - a built-in name ("pegasus")
//   - a file path ("./survey.yaml", "/etc/pegasus/survey.jsonc")
//   - package:file ("pegasus_drone:survey.yaml"), searched under
//     <prefix>/share/<package>/launch for each configured prefix
//
// A bare name that is not a built-in is also looked up in the configured
// definitions directory.
type Locator struct {
	config *config.Config
}

// NewLocator returns a locator over cfg's prefixes and definitions
// directory.
func NewLocator(cfg *config.Config) *Locator {
	return &Locator{config: cfg}
}

// Locate resolves reference to a Location without parsing the target.
func (l *Locator) Locate(reference string) (Location, error) {
	if reference == "" {
		return Location{}, fmt.Errorf("%w: empty reference", ErrNotFound)
	}

	if IsBuiltin(reference) {
		return Location{Reference: reference, Builtin: true}, nil
	}

	var candidates []string
	switch {
	case isPackageReference(reference):
		pkg, file, _ := strings.Cut(reference, ":")
		for _, prefix := range l.config.Paths.Prefixes {
			candidates = append(candidates, withExtensions(filepath.Join(prefix, "share", pkg, "launch", file))...)
		}
	case looksLikePath(reference):
		candidates = withExtensions(reference)
	default:
		if l.config.Paths.Definitions != "" {
			candidates = withExtensions(filepath.Join(l.config.Paths.Definitions, reference))
		}
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		absolute, err := filepath.Abs(candidate)
		if err != nil {
			return Location{}, fmt.Errorf("resolving %s: %w", candidate, err)
		}
		return Location{Reference: reference, Path: absolute}, nil
	}

	if len(candidates) == 0 {
		return Location{}, fmt.Errorf("%w: %q is not a built-in (%s) and no definitions directory is configured",
			ErrNotFound, reference, strings.Join(Builtins(), ", "))
	}
	return Location{}, fmt.Errorf("%w: %q (searched %s)", ErrNotFound, reference, strings.Join(candidates, ", "))
}

// Load parses and validates the definition at location.
func (l *Locator) Load(location Location) (*Definition, error) {
	if location.Builtin {
		return Builtin(location.Reference)
	}

	definition, err := ReadFile(location.Path)
	if err != nil {
		return nil, err
	}
	if issues := Validate(definition); len(issues) > 0 {
		return nil, fmt.Errorf("%s: invalid launch definition: %s", location.Path, strings.Join(issues, "; "))
	}
	return definition, nil
}

// isPackageReference matches "pkg:file" but not Windows drive letters or
// paths containing a colon after a separator.
func isPackageReference(reference string) bool {
	pkg, file, found := strings.Cut(reference, ":")
	if !found || pkg == "" || file == "" {
		return false
	}
	return !strings.ContainsAny(pkg, "/\\.")
}

func looksLikePath(reference string) bool {
	return strings.ContainsRune(reference, os.PathSeparator) ||
		strings.HasPrefix(reference, ".") ||
		filepath.Ext(reference) != ""
}

// withExtensions returns path itself when it has an extension, otherwise
// path with each definition extension appended.
func withExtensions(path string) []string {
	if filepath.Ext(path) != "" {
		return []string{path}
	}
	result := make([]string, 0, len(definitionExtensions))
	for _, extension := range definitionExtensions {
		result = append(result, path+extension)
	}
	return result
}
