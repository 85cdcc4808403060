// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package launchdef

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a definition file.
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatJSONC Format = "jsonc"
)

// FormatFromPath picks a format by file extension. Anything that is not
// .json or .jsonc is read as YAML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSONC
	default:
		return FormatYAML
	}
}

// Parse decodes a definition. JSONC input has comments and trailing
// commas stripped and is then decoded by the YAML decoder, so both
// formats share field names and types. Unknown fields are errors.
func Parse(data []byte, format Format) (*Definition, error) {
	if format == FormatJSONC {
		data = jsonc.ToJSON(data)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var definition Definition
	if err := decoder.Decode(&definition); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("parsing launch definition: document is empty")
		}
		return nil, fmt.Errorf("parsing launch definition: %w", err)
	}
	return &definition, nil
}

// ReadFile reads and parses a definition file. When the document has no
// name, the file name without extension is used.
func ReadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	definition, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if definition.Name == "" {
		definition.Name = NameFromPath(path)
	}
	return definition, nil
}

// NameFromPath strips the directory and extension from path:
// "share/pegasus_drone/launch/survey.yaml" returns "survey".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
