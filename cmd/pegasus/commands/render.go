// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pegasus-robotics/pegasus/lib/graph"
)

// theme is the palette for human-readable output. ANSI 256-color codes;
// lipgloss drops them when the output is not a terminal.
type theme struct {
	Heading    lipgloss.Color
	Name       lipgloss.Color
	Faint      lipgloss.Color
	Overridden lipgloss.Color
	Container  lipgloss.Color
	Node       lipgloss.Color
	Delegate   lipgloss.Color
}

var defaultTheme = theme{
	Heading:    lipgloss.Color("75"),
	Name:       lipgloss.Color("252"),
	Faint:      lipgloss.Color("243"),
	Overridden: lipgloss.Color("214"),
	Container:  lipgloss.Color("141"),
	Node:       lipgloss.Color("114"),
	Delegate:   lipgloss.Color("180"),
}

func (t theme) kindColor(kind graph.Kind) lipgloss.Color {
	switch kind {
	case graph.KindContainer:
		return t.Container
	case graph.KindNode:
		return t.Node
	case graph.KindDelegate:
		return t.Delegate
	}
	return t.Faint
}

// planRenderer writes a launch plan and the graphs it came from.
type planRenderer struct {
	theme theme
	w     io.Writer
}

func (r planRenderer) heading(text string) {
	fmt.Fprintln(r.w, lipgloss.NewStyle().Bold(true).Foreground(r.theme.Heading).Render(text))
}

func (r planRenderer) faint(text string) string {
	return lipgloss.NewStyle().Foreground(r.theme.Faint).Render(text)
}

func (r planRenderer) render(plan *graph.Plan, launches []*graph.LaunchGraph) {
	label := lipgloss.NewStyle().Width(13).Foreground(r.theme.Faint)
	fmt.Fprintln(r.w, label.Render("definition")+plan.Definition)
	fmt.Fprintln(r.w, label.Render("fingerprint")+plan.Fingerprint)
	if len(plan.Scopes) > 0 {
		fmt.Fprintln(r.w, label.Render("scopes")+strings.Join(plan.Scopes, ", "))
	}

	for _, launch := range launches {
		fmt.Fprintln(r.w)
		title := "Arguments"
		if scope := launch.Scope(); scope != "" && len(launches) > 1 {
			title += " (" + scope + ")"
		}
		r.heading(title)
		r.arguments(launch.Arguments())
	}

	fmt.Fprintln(r.w)
	r.heading("Processes")
	members := make(map[string][]string)
	for _, launch := range launches {
		for _, grouped := range launch.Containers() {
			for _, member := range grouped.Members() {
				name := grouped.Name()
				if len(launches) > 1 {
					name = launch.Scope() + "." + name
				}
				members[name] = append(members[name], member.FullyQualifiedName()+" "+r.faint(member.EntryPoint))
			}
		}
	}
	nameWidth := 0
	for _, process := range plan.Processes {
		nameWidth = max(nameWidth, len(process.Spec.Name))
	}
	for _, process := range plan.Processes {
		kind := lipgloss.NewStyle().Width(10).Foreground(r.theme.kindColor(process.Kind)).Render(string(process.Kind))
		name := lipgloss.NewStyle().Width(nameWidth + 2).Foreground(r.theme.Name).Render(process.Spec.Name)
		command := process.Spec.Path
		if process.Kind == graph.KindDelegate {
			command = "pegasus " + strings.Join(process.Spec.Args, " ")
		}
		fmt.Fprintf(r.w, "  %s%s%s\n", kind, name, command)
		for _, member := range members[process.Spec.Name] {
			fmt.Fprintf(r.w, "      %s\n", member)
		}
	}
}

func (r planRenderer) arguments(arguments []graph.Argument) {
	width := 0
	for _, argument := range arguments {
		width = max(width, len(argument.Name))
	}
	nameStyle := lipgloss.NewStyle().Width(width + 2).Foreground(r.theme.Name)
	for _, argument := range arguments {
		value := argument.Value
		if argument.Overridden {
			value = lipgloss.NewStyle().Foreground(r.theme.Overridden).Render(value) +
				r.faint(" (default "+argument.Default+")")
		}
		fmt.Fprintf(r.w, "  %s%s\n", nameStyle.Render(argument.Name), value)
	}
}
