// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pegasus-robotics/pegasus/cmd/pegasus/cli"
	"github.com/pegasus-robotics/pegasus/lib/clock"
	"github.com/pegasus-robotics/pegasus/lib/testutil"
)

// syncBuffer is written by process output goroutines and read by the
// test.
type syncBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (b *syncBuffer) Write(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Write(data)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.String()
}

// harness is an install prefix with the drone stack's executables, a
// configuration file pointing at it, and captured output.
type harness struct {
	prefix     *testutil.Prefix
	configPath string
	runDir     string
	stdout     *syncBuffer
	stderr     *syncBuffer
}

// newHarness installs every executable the built-in definitions need,
// each running script. launcher lines are appended to the launcher
// section of the configuration.
func newHarness(t *testing.T, script string, launcher ...string) *harness {
	t.Helper()
	prefix := testutil.NewPrefix(t)
	prefix.AddShareFile("pegasus_drone", "config/pegasus.yaml", "/**:\n  ros__parameters: {}\n")
	prefix.AddExecutable("rclcpp_components", "component_container", script)
	self := prefix.AddExecutable("pegasus", "pegasus", script)

	root := t.TempDir()
	h := &harness{
		prefix:     prefix,
		configPath: filepath.Join(root, "pegasus.yaml"),
		runDir:     filepath.Join(root, "run"),
		stdout:     &syncBuffer{},
		stderr:     &syncBuffer{},
	}
	config := "paths:\n" +
		"  prefixes: [" + prefix.Root + "]\n" +
		"  run: " + h.runDir + "\n" +
		"launcher:\n" +
		"  self_binary: " + self + "\n" +
		"  terminate_grace: 2s\n" +
		"  output: log\n"
	for _, line := range launcher {
		config += "  " + line + "\n"
	}
	if err := os.WriteFile(h.configPath, []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}
	return h
}

func (h *harness) root() *cli.Command {
	root := Root(&Environment{
		Stdout: h.stdout,
		Stderr: h.stderr,
		Clock:  clock.Real(),
		Getenv: func(name string) string {
			if name == "PEGASUS_CONFIG" {
				return h.configPath
			}
			return ""
		},
	})
	root.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	root.HelpOutput = io.Discard
	return root
}

func (h *harness) execute(ctx context.Context, args ...string) error {
	return h.root().Execute(ctx, args)
}

func (h *harness) mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	before := len(h.stdout.String())
	if err := h.execute(context.Background(), args...); err != nil {
		t.Fatalf("pegasus %s: %v", strings.Join(args, " "), err)
	}
	return h.stdout.String()[before:]
}

func decode[T any](t *testing.T, data string) T {
	t.Helper()
	var value T
	if err := json.Unmarshal([]byte(data), &value); err != nil {
		t.Fatalf("decoding %q: %v", data, err)
	}
	return value
}

func TestVersion(t *testing.T) {
	h := newHarness(t, "exit 0")
	if output := h.mustExecute(t, "version"); !strings.HasPrefix(output, "pegasus ") {
		t.Errorf("version output = %q", output)
	}
}

func TestDefinitionsList(t *testing.T) {
	h := newHarness(t, "exit 0")
	output := h.mustExecute(t, "definitions")
	for _, want := range []string{"pegasus ", "pegasus_control", "pegasus_telemetry", "builtin"} {
		if !strings.Contains(output, want) {
			t.Errorf("definitions output missing %q:\n%s", want, output)
		}
	}

	entries := decode[[]definitionEntry](t, h.mustExecute(t, "definitions", "--json"))
	if len(entries) != 3 || entries[0].Name != "pegasus" || !entries[0].Scoped {
		t.Errorf("entries = %+v", entries)
	}
}

func TestDefinitionsShow(t *testing.T) {
	h := newHarness(t, "exit 0")
	output := h.mustExecute(t, "definitions", "--show", "pegasus_telemetry")
	if !strings.Contains(output, "web_video_server") {
		t.Errorf("show output = %q", output)
	}

	err := h.execute(context.Background(), "definitions", "--show", "no_such_definition")
	var toolError *cli.ToolError
	if !errors.As(err, &toolError) || toolError.Category != cli.CategoryNotFound {
		t.Errorf("show unknown = %v, want not-found error", err)
	}
}

func TestPlanText(t *testing.T) {
	h := newHarness(t, "exit 0")
	output := h.mustExecute(t, "plan", "pegasus", "vehicle_id:=3", "connection:=udp://:14540")
	for _, want := range []string{
		"fingerprint",
		"drone3",
		"vehicle_id",
		"udp://:14540 (default serial:///dev/ttyACM0:921600)",
		"visual_slam_launch_container",
		"/drone3/visual_slam_node",
		"pegasus run pegasus_control id:=3",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("plan output missing %q:\n%s", want, output)
		}
	}
}

func TestPlanJSON(t *testing.T) {
	h := newHarness(t, "exit 0")
	output := decode[planOutput](t, h.mustExecute(t, "plan", "pegasus", "vehicle_id:=2", "bogus:=1", "--json"))
	if len(output.Plan.Processes) != 3 || output.Plan.Scopes[0] != "drone2" {
		t.Errorf("plan = %+v", output.Plan)
	}
	if len(output.Unused) != 1 || output.Unused[0] != "bogus:=1" {
		t.Errorf("unused = %v", output.Unused)
	}
	control := output.Plan.Processes[1].Spec
	if len(control.Env) != 1 || control.Env[0] != "PEGASUS_CONFIG="+h.configPath {
		t.Errorf("delegate env = %v, want the configuration forwarded", control.Env)
	}

	again := decode[planOutput](t, h.mustExecute(t, "plan", "pegasus", "vehicle_id:=2", "bogus:=1", "--json"))
	if again.Plan.Fingerprint != output.Plan.Fingerprint {
		t.Errorf("fingerprint changed between identical plans: %s, %s", output.Plan.Fingerprint, again.Plan.Fingerprint)
	}
}

func TestPlanGraph(t *testing.T) {
	h := newHarness(t, "exit 0")
	var snapshot struct {
		Identity struct {
			ID        int    `json:"id"`
			Namespace string `json:"namespace"`
		} `json:"identity"`
	}
	if err := json.Unmarshal([]byte(h.mustExecute(t, "plan", "pegasus", "vehicle_id:=4", "--graph")), &snapshot); err != nil {
		t.Fatal(err)
	}
	if snapshot.Identity.ID != 4 || snapshot.Identity.Namespace != "drone" {
		t.Errorf("identity = %+v", snapshot.Identity)
	}
}

func TestPlanRequiresDefinition(t *testing.T) {
	h := newHarness(t, "exit 0")
	if err := h.execute(context.Background(), "plan"); err == nil {
		t.Error("plan without a definition succeeded")
	}
}

func TestPlanConstructionError(t *testing.T) {
	h := newHarness(t, "exit 0")
	err := h.execute(context.Background(), "plan", "pegasus", "vehicle_id:=three")
	if err == nil || !strings.Contains(err.Error(), "three") {
		t.Errorf("plan with malformed id = %v", err)
	}
}

func TestFleetDryRun(t *testing.T) {
	h := newHarness(t, "exit 0")
	output := decode[planOutput](t, h.mustExecute(t, "fleet", "--vehicles", "1-2", "--dry-run", "--json", "vehicle_id:=9"))

	var names []string
	for _, process := range output.Plan.Processes {
		names = append(names, process.Spec.Name)
	}
	want := "drone1.visual_slam_launch_container drone1.control drone1.telemetry " +
		"drone2.visual_slam_launch_container drone2.control drone2.telemetry"
	if strings.Join(names, " ") != want {
		t.Errorf("process names = %v", names)
	}
	if strings.Join(output.Plan.Scopes, ",") != "drone1,drone2" {
		t.Errorf("scopes = %v", output.Plan.Scopes)
	}

	text := h.mustExecute(t, "fleet", "--vehicles", "1,2", "--dry-run")
	if !strings.Contains(text, "Arguments (drone2)") {
		t.Errorf("fleet text plan missing per-vehicle arguments:\n%s", text)
	}
}

func TestFleetValidation(t *testing.T) {
	h := newHarness(t, "exit 0")
	for _, args := range [][]string{
		{"fleet", "--dry-run"},
		{"fleet", "--vehicles", "3-1", "--dry-run"},
		{"fleet", "--vehicles", "0-2000000000", "--dry-run"},
		{"fleet", "--vehicles", "1,2", "--dry-run", "pegasus_telemetry_missing"},
	} {
		if err := h.execute(context.Background(), args...); err == nil {
			t.Errorf("pegasus %v succeeded", args)
		}
	}
}

func TestDoctor(t *testing.T) {
	h := newHarness(t, "exit 0")
	output := h.mustExecute(t, "doctor", "pegasus", "connection:=udp://:14540")
	for _, want := range []string{"✓ definition", "✓ executables", "✓ link: udp link to :14540", "✓ forward", "Ready to launch"} {
		if !strings.Contains(output, want) {
			t.Errorf("doctor output missing %q:\n%s", want, output)
		}
	}
}

func TestDoctorFailureExitCode(t *testing.T) {
	h := newHarness(t, "exit 0")
	err := h.execute(context.Background(), "doctor", "connection:=ftp://nowhere")
	var exitError *cli.ExitError
	if !errors.As(err, &exitError) || exitError.Code != 1 {
		t.Errorf("doctor with a bad link = %v, want exit code 1", err)
	}
	if !strings.Contains(h.stdout.String(), "✗ link") {
		t.Errorf("doctor output:\n%s", h.stdout.String())
	}
}
