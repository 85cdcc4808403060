// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package launcharg

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrUndeclared is returned when resolving a name no declaration uses.
var ErrUndeclared = errors.New("launch argument not declared")

// Declaration is one declared launch argument. Immutable once declared.
type Declaration struct {
	Name        string `json:"name"`
	Default     string `json:"default"`
	Description string `json:"description,omitempty"`
}

// Handle refers to a declared argument by name.
type Handle struct {
	name string
}

// Name returns the argument name the handle refers to.
func (h Handle) Name() string {
	return h.name
}

// Shadowing records a redeclaration that replaced an earlier one.
type Shadowing struct {
	Previous Declaration `json:"previous"`
	Current  Declaration `json:"current"`
}

// Registry holds the declared arguments of one launch definition.
type Registry struct {
	declarations map[string]Declaration
	order        []string
	shadowed     []Shadowing
	logger       *slog.Logger
}

// NewRegistry returns an empty registry. A nil logger uses
// slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		declarations: make(map[string]Declaration),
		logger:       logger,
	}
}

// Declare registers an argument and returns its handle. Redeclaring a
// name replaces the earlier declaration (last wins) and records the
// shadowing. Panics on an empty name: definitions are validated before
// their arguments are declared, so this is a programming error.
func (r *Registry) Declare(name, defaultValue, description string) Handle {
	if name == "" {
		panic("launcharg: Declare called with empty name")
	}

	current := Declaration{Name: name, Default: defaultValue, Description: description}
	if previous, exists := r.declarations[name]; exists {
		r.shadowed = append(r.shadowed, Shadowing{Previous: previous, Current: current})
		r.logger.Warn("launch argument redeclared; last declaration wins",
			"argument", name,
			"previous_default", previous.Default,
			"default", defaultValue,
		)
	} else {
		r.order = append(r.order, name)
	}
	r.declarations[name] = current
	return Handle{name: name}
}

// Lookup returns the handle for name if it has been declared.
func (r *Registry) Lookup(name string) (Handle, bool) {
	_, ok := r.declarations[name]
	return Handle{name: name}, ok
}

// Declarations returns the effective declarations in first-declaration
// order.
func (r *Registry) Declarations() []Declaration {
	result := make([]Declaration, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.declarations[name])
	}
	return result
}

// Shadowed returns every redeclaration in the order it happened.
func (r *Registry) Shadowed() []Shadowing {
	return append([]Shadowing(nil), r.shadowed...)
}

// Resolve returns the value of one argument: the override when present,
// otherwise the effective default.
func (r *Registry) Resolve(handle Handle, overrides Overrides) (string, error) {
	declaration, ok := r.declarations[handle.name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUndeclared, handle.name)
	}
	if value, ok := overrides.Lookup(handle.name); ok {
		return value, nil
	}
	return declaration.Default, nil
}

// ResolveAll resolves every declared argument once. Overrides that name
// no declared argument are kept in the resolution's Unused list.
func (r *Registry) ResolveAll(overrides Overrides) (*Resolution, error) {
	resolution := &Resolution{
		values: make(map[string]string, len(r.order)),
		order:  append([]string(nil), r.order...),
	}
	for _, name := range r.order {
		value, err := r.Resolve(Handle{name: name}, overrides)
		if err != nil {
			return nil, err
		}
		resolution.values[name] = value
	}

	for _, override := range overrides.Entries() {
		if _, declared := r.declarations[override.Name]; !declared {
			resolution.unused = append(resolution.unused, override)
			r.logger.Debug("override names no declared argument", "argument", override.Name)
		}
	}
	return resolution, nil
}

// Resolution is the immutable result of resolving a registry.
type Resolution struct {
	values map[string]string
	order  []string
	unused []Override
}

// Get returns the resolved value of name.
func (r *Resolution) Get(name string) (string, error) {
	value, ok := r.values[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUndeclared, name)
	}
	return value, nil
}

// Lookup returns the resolved value for a handle.
func (r *Resolution) Lookup(handle Handle) (string, error) {
	return r.Get(handle.name)
}

// Names returns the resolved argument names in declaration order.
func (r *Resolution) Names() []string {
	return append([]string(nil), r.order...)
}

// Values returns a copy of every resolved value.
func (r *Resolution) Values() map[string]string {
	result := make(map[string]string, len(r.values))
	for name, value := range r.values {
		result[name] = value
	}
	return result
}

// Unused returns overrides that matched no declaration.
func (r *Resolution) Unused() []Override {
	return append([]Override(nil), r.unused...)
}
