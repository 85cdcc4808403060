// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/pegasus-robotics/pegasus/lib/codec"
	"github.com/pegasus-robotics/pegasus/lib/container"
	"github.com/pegasus-robotics/pegasus/lib/delegate"
	"github.com/pegasus-robotics/pegasus/lib/descriptor"
	"github.com/pegasus-robotics/pegasus/lib/identity"
	"github.com/pegasus-robotics/pegasus/lib/launcharg"
	"github.com/pegasus-robotics/pegasus/lib/launchdef"
)

// Argument is one resolved launch argument.
type Argument struct {
	Name        string `cbor:"name" json:"name"`
	Value       string `cbor:"value" json:"value"`
	Default     string `cbor:"default" json:"default"`
	Description string `cbor:"description,omitempty" json:"description,omitempty"`
	Overridden  bool   `cbor:"overridden,omitempty" json:"overridden,omitempty"`
}

// LaunchGraph is the assembled, fully resolved launch. Every accessor
// returns a copy; nothing can change a graph after Assemble returns it.
type LaunchGraph struct {
	definition  string
	description string
	location    launchdef.Location
	arguments   []Argument
	shadowed    []launcharg.Shadowing
	unused      []launcharg.Override
	vehicle     *identity.Identity
	containers  []container.Container
	nodes       []descriptor.ProcessDescriptor
	delegates   []delegate.Delegate
}

// Definition returns the definition name.
func (g *LaunchGraph) Definition() string { return g.definition }

// Description returns the definition description.
func (g *LaunchGraph) Description() string { return g.description }

// Location returns where the definition was loaded from.
func (g *LaunchGraph) Location() launchdef.Location { return g.location }

// Arguments returns the resolved arguments in declaration order.
func (g *LaunchGraph) Arguments() []Argument {
	return append([]Argument(nil), g.arguments...)
}

// Shadowed returns argument redeclarations in the definition.
func (g *LaunchGraph) Shadowed() []launcharg.Shadowing {
	return append([]launcharg.Shadowing(nil), g.shadowed...)
}

// Unused returns overrides that named no declared argument.
func (g *LaunchGraph) Unused() []launcharg.Override {
	return append([]launcharg.Override(nil), g.unused...)
}

// Identity returns the vehicle identity, and false when the definition
// is not vehicle-scoped.
func (g *LaunchGraph) Identity() (identity.Identity, bool) {
	if g.vehicle == nil {
		return identity.Identity{}, false
	}
	return *g.vehicle, true
}

// Scope returns the vehicle scope, or "" when not vehicle-scoped.
func (g *LaunchGraph) Scope() string {
	if g.vehicle == nil {
		return ""
	}
	return g.vehicle.Scope()
}

// Containers returns the shared-process containers in declaration order.
func (g *LaunchGraph) Containers() []container.Container {
	return append([]container.Container(nil), g.containers...)
}

// Nodes returns the standalone nodes in declaration order.
func (g *LaunchGraph) Nodes() []descriptor.ProcessDescriptor {
	result := make([]descriptor.ProcessDescriptor, len(g.nodes))
	for i, node := range g.nodes {
		result[i] = node.Clone()
	}
	return result
}

// Delegates returns the nested launches in declaration order.
func (g *LaunchGraph) Delegates() []delegate.Delegate {
	return append([]delegate.Delegate(nil), g.delegates...)
}

// Snapshot is the serializable form of a LaunchGraph, used for the
// fingerprint and for machine-readable output.
type Snapshot struct {
	Definition string                         `cbor:"definition" json:"definition"`
	Location   string                         `cbor:"location" json:"location"`
	Identity   *identity.Identity             `cbor:"identity,omitempty" json:"identity,omitempty"`
	Arguments  []Argument                     `cbor:"arguments" json:"arguments"`
	Containers []ContainerSnapshot            `cbor:"containers,omitempty" json:"containers,omitempty"`
	Nodes      []descriptor.ProcessDescriptor `cbor:"nodes,omitempty" json:"nodes,omitempty"`
	Delegates  []DelegateSnapshot             `cbor:"delegates,omitempty" json:"delegates,omitempty"`
}

// ContainerSnapshot is a container and its members.
type ContainerSnapshot struct {
	container.Spec `cbor:"spec" json:"spec"`
	Members        []descriptor.ProcessDescriptor `cbor:"members" json:"members"`
}

// DelegateSnapshot is a nested launch and its bindings.
type DelegateSnapshot struct {
	Name     string               `cbor:"name" json:"name"`
	Target   string               `cbor:"target" json:"target"`
	Bindings []launcharg.Override `cbor:"bindings,omitempty" json:"bindings,omitempty"`
}

// Snapshot returns the serializable form of g.
func (g *LaunchGraph) Snapshot() Snapshot {
	snapshot := Snapshot{
		Definition: g.definition,
		Location:   g.location.String(),
		Arguments:  g.Arguments(),
		Nodes:      g.Nodes(),
	}
	if g.vehicle != nil {
		vehicle := *g.vehicle
		snapshot.Identity = &vehicle
	}
	for _, grouped := range g.containers {
		snapshot.Containers = append(snapshot.Containers, ContainerSnapshot{
			Spec:    grouped.Spec(),
			Members: grouped.Members(),
		})
	}
	for _, nested := range g.delegates {
		snapshot.Delegates = append(snapshot.Delegates, DelegateSnapshot{
			Name:     nested.Name(),
			Target:   nested.Location().String(),
			Bindings: nested.Bindings(),
		})
	}
	return snapshot
}

// Fingerprint returns the hex BLAKE3 digest of the graph's deterministic
// CBOR encoding. Assembling the same definition with the same
// invocation arguments gives the same fingerprint.
func (g *LaunchGraph) Fingerprint() (string, error) {
	data, err := codec.Marshal(g.Snapshot())
	if err != nil {
		return "", fmt.Errorf("encoding launch graph %s: %w", g.definition, err)
	}
	digest := blake3.Sum256(data)
	return hex.EncodeToString(digest[:]), nil
}
