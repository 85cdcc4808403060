// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package launcharg

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestResolveOverrideBeatsDefault(t *testing.T) {
	registry := NewRegistry(nil)
	namespace := registry.Declare("vehicle_ns", "drone", "Namespace prefix")

	value, err := registry.Resolve(namespace, Overrides{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if value != "drone" {
		t.Errorf("default = %q, want drone", value)
	}

	overrides, _, err := ParseOverrides([]string{"vehicle_ns:=quad"})
	if err != nil {
		t.Fatalf("ParseOverrides: %v", err)
	}
	value, err = registry.Resolve(namespace, overrides)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if value != "quad" {
		t.Errorf("override = %q, want quad", value)
	}
}

func TestResolveUndeclared(t *testing.T) {
	registry := NewRegistry(nil)
	_, err := registry.Resolve(Handle{name: "ghost"}, Overrides{})
	if !errors.Is(err, ErrUndeclared) {
		t.Fatalf("error = %v, want ErrUndeclared", err)
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("error %q does not name the argument", err)
	}
}

func TestRedeclarationShadowsAndIsReported(t *testing.T) {
	var logs bytes.Buffer
	registry := NewRegistry(slog.New(slog.NewTextHandler(&logs, nil)))

	first := registry.Declare("connection", "serial:///dev/ttyACM0:921600", "first")
	second := registry.Declare("connection", "udp://:14540@", "second")

	// Both handles see the last declaration.
	for _, handle := range []Handle{first, second} {
		value, err := registry.Resolve(handle, Overrides{})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if value != "udp://:14540@" {
			t.Errorf("value = %q, want last declaration's default", value)
		}
	}

	shadowed := registry.Shadowed()
	if len(shadowed) != 1 {
		t.Fatalf("shadowed = %d entries, want 1", len(shadowed))
	}
	if shadowed[0].Previous.Description != "first" || shadowed[0].Current.Description != "second" {
		t.Errorf("shadowing = %+v", shadowed[0])
	}
	if !strings.Contains(logs.String(), "redeclared") || !strings.Contains(logs.String(), "connection") {
		t.Errorf("no WARN diagnostic logged: %q", logs.String())
	}

	// Declaration order keeps the first position.
	declarations := registry.Declarations()
	if len(declarations) != 1 || declarations[0].Description != "second" {
		t.Errorf("declarations = %+v", declarations)
	}
}

func TestResolveAll(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Declare("vehicle_id", "1", "")
	registry.Declare("vehicle_ns", "drone", "")

	overrides, _, err := ParseOverrides([]string{"vehicle_id:=3", "use_sim_time:=true"})
	if err != nil {
		t.Fatalf("ParseOverrides: %v", err)
	}
	resolution, err := registry.ResolveAll(overrides)
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}

	if got, _ := resolution.Get("vehicle_id"); got != "3" {
		t.Errorf("vehicle_id = %q, want 3", got)
	}
	if got, _ := resolution.Get("vehicle_ns"); got != "drone" {
		t.Errorf("vehicle_ns = %q, want drone", got)
	}
	if names := resolution.Names(); strings.Join(names, ",") != "vehicle_id,vehicle_ns" {
		t.Errorf("names = %v", names)
	}
	unused := resolution.Unused()
	if len(unused) != 1 || unused[0].Name != "use_sim_time" {
		t.Errorf("unused = %+v", unused)
	}
	if _, err := resolution.Get("drone_params"); !errors.Is(err, ErrUndeclared) {
		t.Errorf("Get(undeclared) error = %v", err)
	}
}

func TestDeclareEmptyNamePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewRegistry(nil).Declare("", "x", "")
}
