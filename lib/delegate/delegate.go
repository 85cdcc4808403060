// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package delegate hands a subsystem off to a nested launch. A Delegate
// knows where the subsystem's definition is and which arguments to pass
// it; it knows nothing about the processes the nested launch will start.
// The nested launch runs as a separate engine process that resolves the
// bindings as its own overrides.
package delegate

import (
	"fmt"

	"github.com/pegasus-robotics/pegasus/lib/launcharg"
	"github.com/pegasus-robotics/pegasus/lib/launchdef"
)

// RunCommand is the engine subcommand a nested launch is started with.
const RunCommand = "run"

// Locator finds launch definitions.
type Locator interface {
	Locate(reference string) (launchdef.Location, error)
}

// Delegate is a located subsystem launch with its argument bindings.
type Delegate struct {
	name     string
	location launchdef.Location
	bindings []launcharg.Override
}

// New locates target and returns a delegate forwarding bindings in
// order. A target the locator cannot find is an error naming the
// delegate and the target; nothing about the target is parsed.
func New(locator Locator, name, target string, bindings []launcharg.Override) (Delegate, error) {
	location, err := locator.Locate(target)
	if err != nil {
		return Delegate{}, fmt.Errorf("delegate %q: %w", name, err)
	}
	return Delegate{
		name:     name,
		location: location,
		bindings: append([]launcharg.Override(nil), bindings...),
	}, nil
}

// Name returns the delegate name.
func (d Delegate) Name() string {
	return d.name
}

// Location returns where the nested definition lives.
func (d Delegate) Location() launchdef.Location {
	return d.location
}

// Bindings returns the forwarded arguments in order.
func (d Delegate) Bindings() []launcharg.Override {
	return append([]launcharg.Override(nil), d.bindings...)
}

// Arguments returns the engine arguments that start the nested launch:
// run <location> name:=value...
func (d Delegate) Arguments() []string {
	args := make([]string, 0, 2+len(d.bindings))
	args = append(args, RunCommand, d.location.String())
	for _, binding := range d.bindings {
		args = append(args, binding.String())
	}
	return args
}
