// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package fleet assembles one launch graph per vehicle from a single
// definition, for running several vehicles on one host (simulation, or
// a ground station driving a formation).
package fleet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pegasus-robotics/pegasus/lib/graph"
	"github.com/pegasus-robotics/pegasus/lib/identity"
	"github.com/pegasus-robotics/pegasus/lib/launcharg"
)

// Assembler builds launch graphs.
type Assembler interface {
	Assemble(reference string, rawArgs []string) (*graph.LaunchGraph, error)
}

// Plan assembles reference once per id. Each vehicle gets baseArgs with
// every <idArgument>:= occurrence removed and <idArgument>:=<id>
// appended. Two vehicles that resolve to the same scope are an error,
// as is a definition that is not vehicle-scoped.
func Plan(assembler Assembler, reference, idArgument string, baseArgs []string, ids []int) ([]*graph.LaunchGraph, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no vehicle ids given")
	}

	prefix := idArgument + launcharg.Separator
	var shared []string
	for _, arg := range baseArgs {
		if !strings.HasPrefix(arg, prefix) {
			shared = append(shared, arg)
		}
	}

	graphs := make([]*graph.LaunchGraph, 0, len(ids))
	scopes := make(map[string]int, len(ids))
	for _, id := range ids {
		args := append(append([]string(nil), shared...), prefix+strconv.Itoa(id))
		launch, err := assembler.Assemble(reference, args)
		if err != nil {
			return nil, fmt.Errorf("vehicle %d: %w", id, err)
		}
		scope := launch.Scope()
		if scope == "" {
			return nil, fmt.Errorf("%s is not vehicle-scoped; fleet launches need an identity block", launch.Definition())
		}
		if previous, exists := scopes[scope]; exists {
			return nil, fmt.Errorf("vehicles %d and %d both resolve to scope %q", previous, id, scope)
		}
		scopes[scope] = id
		graphs = append(graphs, launch)
	}
	return graphs, nil
}

// MaxVehicles bounds the number of vehicles one fleet launch starts.
const MaxVehicles = 256

// ParseIDs parses a vehicle list such as "1,2,5-7". A list naming more
// than MaxVehicles ids is an error.
func ParseIDs(text string) ([]int, error) {
	var ids []int
	seen := make(map[int]bool)
	for _, field := range strings.Split(text, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		low, high, isRange := strings.Cut(field, "-")
		first, err := identity.ParseID(low)
		if err != nil {
			return nil, fmt.Errorf("vehicle list %q: %w", text, err)
		}
		last := first
		if isRange {
			last, err = identity.ParseID(high)
			if err != nil {
				return nil, fmt.Errorf("vehicle list %q: %w", text, err)
			}
			if last < first {
				return nil, fmt.Errorf("vehicle list %q: range %s is descending", text, field)
			}
		}
		if last-first >= MaxVehicles-len(ids) {
			return nil, fmt.Errorf("vehicle list %q names more than %d vehicles", text, MaxVehicles)
		}
		for id := first; id <= last; id++ {
			if seen[id] {
				return nil, fmt.Errorf("vehicle list %q: id %d given twice", text, id)
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("vehicle list %q is empty", text)
	}
	return ids, nil
}
