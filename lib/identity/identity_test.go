// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"errors"
	"strconv"
	"testing"

	"github.com/pegasus-robotics/pegasus/lib/launcharg"
)

func TestScanRaw(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"absent", []string{"run", "pegasus"}, DefaultID},
		{"present", []string{"run", "pegasus", "vehicle_id:=3"}, 3},
		{"zero", []string{"vehicle_id:=0"}, 0},
		{"last wins", []string{"vehicle_id:=2", "vehicle_id:=9"}, 9},
		{"other keys ignored", []string{"vehicle_ns:=quad", "id:=5"}, DefaultID},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ScanRaw(test.args, "vehicle_id", DefaultID)
			if err != nil {
				t.Fatalf("ScanRaw: %v", err)
			}
			if got != test.want {
				t.Errorf("id = %d, want %d", got, test.want)
			}
		})
	}
}

func TestScanRawMalformedFailsFast(t *testing.T) {
	for _, arg := range []string{"vehicle_id:=abc", "vehicle_id:=", "vehicle_id:=-1", "vehicle_id:=3.5", "vehicle_id:=03", "vehicle_id:=+3", "vehicle_id:=-0", "vehicle_id:= 3"} {
		t.Run(arg, func(t *testing.T) {
			_, err := ScanRaw([]string{"pegasus", arg}, "vehicle_id", DefaultID)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if parseErr.Arg != arg {
				t.Errorf("ParseError.Arg = %q, want %q", parseErr.Arg, arg)
			}
		})
	}
}

func TestScopeConcatenatesWithoutSeparator(t *testing.T) {
	for _, id := range []int{0, 1, 3, 10, 255, 4096} {
		identity := Identity{ID: id, Namespace: "drone"}
		want := "drone" + strconv.Itoa(id)
		if got := identity.Scope(); got != want {
			t.Errorf("Scope() = %q, want %q", got, want)
		}
	}
}

func TestTwoPhaseResolution(t *testing.T) {
	raw := []string{"pegasus", "vehicle_id:=3"}

	id, err := ScanRaw(raw, "vehicle_id", DefaultID)
	if err != nil {
		t.Fatalf("ScanRaw: %v", err)
	}

	registry := launcharg.NewRegistry(nil)
	registry.Declare("vehicle_id", strconv.Itoa(id), "Drone ID in the network")
	registry.Declare("vehicle_ns", DefaultNamespace, "Namespace prefix")

	// The raw phase already installed the id as the default, so even with
	// no overrides the formal phase agrees.
	resolution, err := registry.ResolveAll(launcharg.Overrides{})
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	identity, err := Resolve(resolution, "vehicle_id", "vehicle_ns")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if identity != (Identity{ID: 3, Namespace: "drone"}) {
		t.Errorf("identity = %+v", identity)
	}
	if identity.Scope() != "drone3" {
		t.Errorf("scope = %q", identity.Scope())
	}
}

func TestResolveMissingArguments(t *testing.T) {
	registry := launcharg.NewRegistry(nil)
	registry.Declare("vehicle_id", "1", "")
	resolution, err := registry.ResolveAll(launcharg.Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Resolve(resolution, "vehicle_id", "vehicle_ns"); !errors.Is(err, launcharg.ErrUndeclared) {
		t.Errorf("error = %v, want ErrUndeclared", err)
	}
}

func TestResolveRejectsNonCanonicalID(t *testing.T) {
	registry := launcharg.NewRegistry(nil)
	registry.Declare("vehicle_id", "007", "")
	registry.Declare("vehicle_ns", DefaultNamespace, "")
	resolution, err := registry.ResolveAll(launcharg.Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = Resolve(resolution, "vehicle_id", "vehicle_ns")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if parseErr.Value != "007" {
		t.Errorf("ParseError.Value = %q, want 007", parseErr.Value)
	}
}
