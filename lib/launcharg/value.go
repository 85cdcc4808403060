// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package launcharg

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind distinguishes early-bound from late-bound values.
type Kind int

const (
	// KindLiteral is fixed when the graph is constructed.
	KindLiteral Kind = iota
	// KindReference is read from the resolution.
	KindReference
)

// Value is Literal(v) or Reference(handle).
type Value struct {
	kind    Kind
	literal any
	handle  Handle
}

// Literal returns an early-bound value.
func Literal(v any) Value {
	return Value{kind: KindLiteral, literal: v}
}

// Reference returns a value bound to an argument at resolution time.
func Reference(handle Handle) Value {
	return Value{kind: KindReference, handle: handle}
}

// Kind reports which variant v is.
func (v Value) Kind() Kind { return v.kind }

// Handle returns the referenced argument. Only meaningful for
// references.
func (v Value) Handle() Handle { return v.handle }

// Literal returns the literal payload. Only meaningful for literals.
func (v Value) Literal() any { return v.literal }

// Resolve returns the literal unchanged, or the referenced argument's
// resolved text.
func (v Value) Resolve(resolution *Resolution) (any, error) {
	if v.kind == KindLiteral {
		return v.literal, nil
	}
	return resolution.Lookup(v.handle)
}

// String renders v in definition syntax.
func (v Value) String() string {
	if v.kind == KindReference {
		return "$(var " + v.handle.name + ")"
	}
	return formatLiteral(v.literal)
}

// Substitution is an ordered list of values whose resolved forms are
// concatenated with no separator.
type Substitution []Value

// Resolve concatenates every element's text.
func (s Substitution) Resolve(resolution *Resolution) (string, error) {
	var builder strings.Builder
	for _, value := range s {
		resolved, err := value.Resolve(resolution)
		if err != nil {
			return "", err
		}
		builder.WriteString(formatLiteral(resolved))
	}
	return builder.String(), nil
}

// Value resolves s keeping type information where possible: a single
// literal element comes back as its original Go value, anything else as
// the concatenated text.
func (s Substitution) Value(resolution *Resolution) (any, error) {
	if len(s) == 1 && s[0].kind == KindLiteral {
		return s[0].literal, nil
	}
	return s.Resolve(resolution)
}

// References returns the handles s depends on, in order.
func (s Substitution) References() []Handle {
	var handles []Handle
	for _, value := range s {
		if value.kind == KindReference {
			handles = append(handles, value.handle)
		}
	}
	return handles
}

// IsEmpty reports whether s has no elements.
func (s Substitution) IsEmpty() bool {
	return len(s) == 0
}

// String renders s in definition syntax.
func (s Substitution) String() string {
	var builder strings.Builder
	for _, value := range s {
		builder.WriteString(value.String())
	}
	return builder.String()
}

var substitutionPattern = regexp.MustCompile(`\$\(\s*([a-z-]+)\s+([^)]*?)\s*\)`)

// ParseSubstitution parses text containing $(var name) tokens. Text
// between tokens becomes string literals. A reference to a name the
// registry has not declared is an error naming that argument, as is any
// directive other than var.
func ParseSubstitution(text string, registry *Registry) (Substitution, error) {
	var result Substitution
	cursor := 0
	for _, match := range substitutionPattern.FindAllStringSubmatchIndex(text, -1) {
		if match[0] > cursor {
			result = append(result, Literal(text[cursor:match[0]]))
		}
		directive := text[match[2]:match[3]]
		argument := text[match[4]:match[5]]
		if directive != "var" {
			return nil, fmt.Errorf("unsupported substitution $(%s %s) in %q", directive, argument, text)
		}
		handle, ok := registry.Lookup(argument)
		if !ok {
			return nil, fmt.Errorf("%q references %w: %q", text, ErrUndeclared, argument)
		}
		result = append(result, Reference(handle))
		cursor = match[1]
	}
	if cursor < len(text) {
		result = append(result, Literal(text[cursor:]))
	}
	return result, nil
}

// LiteralSubstitution wraps a single early-bound value.
func LiteralSubstitution(v any) Substitution {
	return Substitution{Literal(v)}
}

func formatLiteral(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case int:
		return strconv.Itoa(typed)
	case float64:
		return strconv.FormatFloat(typed, 'g', -1, 64)
	default:
		return fmt.Sprint(typed)
	}
}
