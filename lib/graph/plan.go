// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/pegasus-robotics/pegasus/lib/config"
	"github.com/pegasus-robotics/pegasus/lib/container"
	"github.com/pegasus-robotics/pegasus/lib/procgroup"
)

// Kind is what a planned process is.
type Kind string

const (
	KindContainer Kind = "container"
	KindNode      Kind = "node"
	KindDelegate  Kind = "delegate"
)

// Process is one process a plan will start.
type Process struct {
	Kind  Kind   `json:"kind"`
	Scope string `json:"scope,omitempty"`

	Spec procgroup.Spec `json:"spec"`

	// Manifest is the component manifest of a container. Execute writes
	// it to disk and passes its path ahead of Spec.Args.
	Manifest string `json:"manifest,omitempty"`
}

// Plan is everything needed to start one or more launch graphs, with
// every executable already resolved.
type Plan struct {
	Definition  string    `json:"definition"`
	Fingerprint string    `json:"fingerprint"`
	Scopes      []string  `json:"scopes,omitempty"`
	Processes   []Process `json:"processes"`
}

// PlanOptions configures NewPlan.
type PlanOptions struct {
	// ConfigPath is forwarded to nested launches as PEGASUS_CONFIG so
	// they resolve against the same configuration.
	ConfigPath string
}

// NewPlan resolves every process of graph against cfg. Containers and
// nodes resolve to <prefix>/lib/<package>/<executable>; delegates
// re-invoke the engine binary. Any unresolved executable is an error
// and the plan is not returned.
func NewPlan(graph *LaunchGraph, cfg *config.Config, options PlanOptions) (*Plan, error) {
	fingerprint, err := graph.Fingerprint()
	if err != nil {
		return nil, err
	}
	plan := &Plan{
		Definition:  graph.Definition(),
		Fingerprint: fingerprint,
	}
	scope := graph.Scope()
	if scope != "" {
		plan.Scopes = []string{scope}
	}

	for _, grouped := range graph.Containers() {
		process, err := containerProcess(grouped, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", graph.Definition(), err)
		}
		process.Scope = scope
		plan.Processes = append(plan.Processes, process)
	}

	for _, node := range graph.Nodes() {
		path, err := cfg.ExecutablePath(node.Package, node.EntryPoint)
		if err != nil {
			return nil, fmt.Errorf("%s: node %q: %w", graph.Definition(), node.Name, err)
		}
		args, err := node.CommandArguments()
		if err != nil {
			return nil, fmt.Errorf("%s: node %q: %w", graph.Definition(), node.Name, err)
		}
		plan.Processes = append(plan.Processes, Process{
			Kind:  KindNode,
			Scope: scope,
			Spec: procgroup.Spec{
				Name:   node.Name,
				Path:   path,
				Args:   args,
				Output: procgroup.Output(cfg.Launcher.Output),
			},
		})
	}

	delegates := graph.Delegates()
	if len(delegates) > 0 {
		self, err := cfg.SelfPath()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", graph.Definition(), err)
		}
		var env []string
		if options.ConfigPath != "" {
			env = append(env, "PEGASUS_CONFIG="+options.ConfigPath)
		}
		for _, nested := range delegates {
			plan.Processes = append(plan.Processes, Process{
				Kind:  KindDelegate,
				Scope: scope,
				Spec: procgroup.Spec{
					Name: nested.Name(),
					Path: self,
					Args: nested.Arguments(),
					Env:  env,
					// Nested engines prefix their own members' output.
					Output: procgroup.OutputScreen,
					Nested: true,
				},
			})
		}
	}

	return plan, nil
}

func containerProcess(grouped container.Container, cfg *config.Config) (Process, error) {
	spec := grouped.Spec()
	path, err := cfg.ExecutablePath(spec.Package, spec.Executable)
	if err != nil {
		return Process{}, fmt.Errorf("container %q: %w", spec.Name, err)
	}
	manifest, err := grouped.ManifestYAML()
	if err != nil {
		return Process{}, err
	}

	args := append([]string(nil), spec.Arguments...)
	if !slices.Contains(args, "--ros-args") {
		args = append(args, "--ros-args")
	}
	args = append(args, "-r", "__node:="+spec.Name, "-r", "__ns:=/"+spec.Namespace)

	var env []string
	if spec.EmulateTTY {
		env = append(env, "RCUTILS_LOGGING_BUFFERED_STREAM=0", "RCUTILS_COLORIZED_OUTPUT=1")
	}

	return Process{
		Kind: KindContainer,
		Spec: procgroup.Spec{
			Name:   spec.Name,
			Path:   path,
			Args:   args,
			Env:    env,
			Output: procgroup.Output(spec.Output),
		},
		Manifest: string(manifest),
	}, nil
}

// Merge combines plans into one. Process names are prefixed with their
// vehicle scope ("drone2.camera") so members of different vehicles stay
// distinct. Two plans for the same scope are an error.
func Merge(plans ...*Plan) (*Plan, error) {
	if len(plans) == 1 {
		return plans[0], nil
	}

	merged := &Plan{}
	definitions := make([]string, 0, len(plans))
	hasher := blake3.New()
	seenScopes := make(map[string]bool)
	seenNames := make(map[string]bool)

	for _, plan := range plans {
		definitions = append(definitions, plan.Definition)
		hasher.Write([]byte(plan.Fingerprint))
		for _, scope := range plan.Scopes {
			if seenScopes[scope] {
				return nil, fmt.Errorf("two launches share vehicle scope %q", scope)
			}
			seenScopes[scope] = true
			merged.Scopes = append(merged.Scopes, scope)
		}
		for _, process := range plan.Processes {
			process.Spec.Args = append([]string(nil), process.Spec.Args...)
			process.Spec.Env = append([]string(nil), process.Spec.Env...)
			if process.Scope != "" {
				process.Spec.Name = process.Scope + "." + process.Spec.Name
			}
			if seenNames[process.Spec.Name] {
				return nil, fmt.Errorf("duplicate process name %q in merged plan", process.Spec.Name)
			}
			seenNames[process.Spec.Name] = true
			merged.Processes = append(merged.Processes, process)
		}
	}

	merged.Definition = strings.Join(slices.Compact(slices.Clone(definitions)), ",")
	merged.Fingerprint = hex.EncodeToString(hasher.Sum(nil))
	return merged, nil
}
