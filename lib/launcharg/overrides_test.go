// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package launcharg

import (
	"strings"
	"testing"
)

func TestParseOverrides(t *testing.T) {
	args := []string{
		"pegasus",
		"connection:=serial:///dev/ttyTHS1:921600",
		"mavlink_forward:=['udp://127.0.0.1:14550']",
		"vehicle_id:=2",
		"vehicle_id:=4",
		"empty:=",
	}
	overrides, rest, err := ParseOverrides(args)
	if err != nil {
		t.Fatalf("ParseOverrides: %v", err)
	}

	if len(rest) != 1 || rest[0] != "pegasus" {
		t.Errorf("rest = %v, want [pegasus]", rest)
	}

	tests := []struct {
		name string
		want string
	}{
		{"connection", "serial:///dev/ttyTHS1:921600"},
		{"mavlink_forward", "['udp://127.0.0.1:14550']"},
		{"vehicle_id", "4"},
		{"empty", ""},
	}
	for _, test := range tests {
		got, ok := overrides.Lookup(test.name)
		if !ok {
			t.Errorf("%s not found", test.name)
			continue
		}
		if got != test.want {
			t.Errorf("%s = %q, want %q", test.name, got, test.want)
		}
	}

	if got := len(overrides.Entries()); got != 5 {
		t.Errorf("entries = %d, want 5 (duplicates are kept in order)", got)
	}
}

func TestParseOverridesEmptyName(t *testing.T) {
	_, _, err := ParseOverrides([]string{":=3"})
	if err == nil || !strings.Contains(err.Error(), ":=3") {
		t.Fatalf("error = %v, want one quoting the argument", err)
	}
}

func TestOverridesWithTakesPrecedence(t *testing.T) {
	base := NewOverrides(Override{Name: "vehicle_id", Value: "1"})
	derived := base.With("vehicle_id", "7")

	if got, _ := derived.Lookup("vehicle_id"); got != "7" {
		t.Errorf("derived vehicle_id = %q, want 7", got)
	}
	if got, _ := base.Lookup("vehicle_id"); got != "1" {
		t.Errorf("base mutated: vehicle_id = %q", got)
	}
	if args := derived.Args(); strings.Join(args, " ") != "vehicle_id:=1 vehicle_id:=7" {
		t.Errorf("args = %v", args)
	}
}
