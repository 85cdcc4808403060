// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "launch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaultUsesAmentPrefixPath(t *testing.T) {
	t.Setenv("AMENT_PREFIX_PATH", "/opt/ws/install:/opt/ros/humble")

	cfg := Default()
	if cfg.Environment != Development {
		t.Errorf("environment = %s, want development", cfg.Environment)
	}
	want := []string{"/opt/ws/install", "/opt/ros/humble"}
	if strings.Join(cfg.Paths.Prefixes, ",") != strings.Join(want, ",") {
		t.Errorf("prefixes = %v, want %v", cfg.Paths.Prefixes, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestDefaultFallsBackWithoutAmentPrefixPath(t *testing.T) {
	t.Setenv("AMENT_PREFIX_PATH", "")

	cfg := Default()
	if len(cfg.Paths.Prefixes) != 1 || cfg.Paths.Prefixes[0] != "/opt/ros/humble" {
		t.Errorf("prefixes = %v, want [/opt/ros/humble]", cfg.Paths.Prefixes)
	}
}

func TestLoadWithoutEnvironmentReturnsDefault(t *testing.T) {
	t.Setenv("PEGASUS_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Launcher.TerminateGrace != "10s" {
		t.Errorf("terminate_grace = %q, want 10s", cfg.Launcher.TerminateGrace)
	}
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	t.Setenv("PEGASUS_ROOT", "/srv/pegasus")
	path := writeConfig(t, `
environment: simulation
paths:
  prefixes: ["${PEGASUS_ROOT}/install"]
  run: ${PEGASUS_ROOT}/run
launcher:
  output: log
`)
	t.Setenv("PEGASUS_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != Simulation {
		t.Errorf("environment = %s, want simulation", cfg.Environment)
	}
	if len(cfg.Paths.Prefixes) != 1 || cfg.Paths.Prefixes[0] != "/srv/pegasus/install" {
		t.Errorf("prefixes = %v", cfg.Paths.Prefixes)
	}
	if cfg.Paths.Run != "/srv/pegasus/run" {
		t.Errorf("run = %q", cfg.Paths.Run)
	}
	if cfg.Launcher.Output != "log" {
		t.Errorf("output = %q, want log", cfg.Launcher.Output)
	}
	// Untouched fields keep their defaults.
	if cfg.Launcher.TerminateGrace != "10s" {
		t.Errorf("terminate_grace = %q, want default 10s", cfg.Launcher.TerminateGrace)
	}
}

func TestFlightEnvironmentShortensGrace(t *testing.T) {
	path := writeConfig(t, `
environment: flight
paths:
  prefixes: [/opt/pegasus]
  run: /run/pegasus
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	grace, err := cfg.TerminateGracePeriod()
	if err != nil {
		t.Fatalf("TerminateGracePeriod: %v", err)
	}
	if grace != 3*time.Second {
		t.Errorf("grace = %v, want 3s", grace)
	}
	if !cfg.Launcher.CompressLogs {
		t.Error("flight environment does not compress logs")
	}
}

func TestEnvironmentSectionOverrides(t *testing.T) {
	path := writeConfig(t, `
environment: flight
paths:
  prefixes: [/opt/pegasus]
  run: /run/pegasus
flight:
  launcher:
    terminate_grace: 1500ms
  paths:
    prefixes: [/opt/flight, /opt/ros/humble]
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Launcher.TerminateGrace != "1500ms" {
		t.Errorf("terminate_grace = %q, want 1500ms", cfg.Launcher.TerminateGrace)
	}
	if len(cfg.Paths.Prefixes) != 2 || cfg.Paths.Prefixes[0] != "/opt/flight" {
		t.Errorf("prefixes = %v", cfg.Paths.Prefixes)
	}
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad environment", "environment: orbit\n", "invalid environment"},
		{"bad grace", "launcher:\n  terminate_grace: soon\n", "terminate_grace"},
		{"bad output", "launcher:\n  output: tty\n", "launcher.output"},
		{"malformed yaml", "paths: [\n", "parsing config"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, test.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error %q does not mention %q", err, test.want)
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "absent.yaml") {
		t.Fatalf("error = %v, want one naming the missing file", err)
	}
}

func TestSharePathAndExecutablePath(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	if err := os.MkdirAll(filepath.Join(second, "share", "pegasus_drone"), 0o755); err != nil {
		t.Fatal(err)
	}
	executable := filepath.Join(second, "lib", "web_video_server", "web_video_server")
	if err := os.MkdirAll(filepath.Dir(executable), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(executable, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{Paths: PathsConfig{Prefixes: []string{first, second}}}

	share, err := cfg.SharePath("pegasus_drone")
	if err != nil {
		t.Fatalf("SharePath: %v", err)
	}
	if share != filepath.Join(second, "share", "pegasus_drone") {
		t.Errorf("share = %q", share)
	}

	if _, err := cfg.SharePath("missing_pkg"); err == nil || !strings.Contains(err.Error(), "missing_pkg") {
		t.Errorf("SharePath(missing_pkg) error = %v", err)
	}

	path, err := cfg.ExecutablePath("web_video_server", "web_video_server")
	if err != nil {
		t.Fatalf("ExecutablePath: %v", err)
	}
	if path != executable {
		t.Errorf("path = %q, want %q", path, executable)
	}

	if _, err := cfg.ExecutablePath("mavros", "mavros_node"); err == nil {
		t.Error("expected error for missing executable")
	}
}
