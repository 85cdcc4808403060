// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pegasus-robotics/pegasus/lib/procgroup"
)

// installStack adds the container executable and an engine stand-in to
// the fixture prefix. Each writes its arguments to <output>/<name>.args
// so tests can see exactly how it was invoked.
func (f *fixture) installStack(t *testing.T, output string) {
	t.Helper()
	f.prefix.AddExecutable("rclcpp_components", "component_container",
		`echo "$@" > `+output+`/container.args; cat "$2" > `+output+`/container.manifest`)
	self := f.prefix.AddExecutable("pegasus", "pegasus",
		`echo "$@" > `+output+`/"$2".args; echo "PEGASUS_CONFIG=$PEGASUS_CONFIG" >> `+output+`/"$2".args`)
	f.config.Launcher.SelfBinary = self
}

func TestNewPlan(t *testing.T) {
	f := newFixture(t)
	f.installStack(t, t.TempDir())
	graph := f.assemble(t, "pegasus", "vehicle_id:=3")

	plan, err := NewPlan(graph, f.config, PlanOptions{ConfigPath: "/etc/pegasus/flight.yaml"})
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}

	if plan.Definition != "pegasus" || len(plan.Fingerprint) != 64 {
		t.Errorf("plan header = %q %q", plan.Definition, plan.Fingerprint)
	}
	if diff := cmp.Diff([]string{"drone3"}, plan.Scopes); diff != "" {
		t.Errorf("scopes mismatch (-want +got):\n%s", diff)
	}

	var kinds []string
	for _, process := range plan.Processes {
		kinds = append(kinds, string(process.Kind)+":"+process.Spec.Name)
	}
	want := []string{"container:visual_slam_launch_container", "delegate:control", "delegate:telemetry"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("processes mismatch (-want +got):\n%s", diff)
	}

	containerProcess := plan.Processes[0]
	wantArgs := []string{"--ros-args", "--log-level", "info", "-r", "__node:=visual_slam_launch_container", "-r", "__ns:=/"}
	if diff := cmp.Diff(wantArgs, containerProcess.Spec.Args); diff != "" {
		t.Errorf("container args mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(containerProcess.Manifest, "use_intra_process_comms: true") {
		t.Errorf("manifest does not enable intra-process comms:\n%s", containerProcess.Manifest)
	}
	if containerProcess.Spec.Output != procgroup.OutputScreen {
		t.Errorf("container output = %q", containerProcess.Spec.Output)
	}

	control := plan.Processes[1].Spec
	if diff := cmp.Diff([]string{"PEGASUS_CONFIG=/etc/pegasus/flight.yaml"}, control.Env); diff != "" {
		t.Errorf("delegate env mismatch (-want +got):\n%s", diff)
	}
	if control.Path != f.config.Launcher.SelfBinary || control.Args[0] != "run" || control.Args[1] != "pegasus_control" || control.Args[2] != "id:=3" {
		t.Errorf("control spec = %+v", control)
	}
	for _, process := range plan.Processes {
		if want := process.Kind == KindDelegate; process.Spec.Nested != want {
			t.Errorf("%s Nested = %v, want %v", process.Spec.Name, process.Spec.Nested, want)
		}
	}
}

func TestNewPlanMissingExecutable(t *testing.T) {
	f := newFixture(t)
	graph := f.assemble(t, "pegasus")
	_, err := NewPlan(graph, f.config, PlanOptions{})
	if err == nil || !strings.Contains(err.Error(), "component_container") {
		t.Fatalf("err = %v, want error naming component_container", err)
	}
}

func TestNewPlanStandaloneNodes(t *testing.T) {
	f := newFixture(t)
	f.prefix.AddExecutable("web_video_server", "web_video_server", "exit 0")
	graph := f.assemble(t, "pegasus_telemetry", "id:=4")

	plan, err := NewPlan(graph, f.config, PlanOptions{})
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	if len(plan.Processes) != 1 {
		t.Fatalf("processes = %d, want 1", len(plan.Processes))
	}
	args := plan.Processes[0].Spec.Args
	want := []string{
		"--ros-args",
		"-r", "__node:=web_video_server",
		"-r", "__ns:=/drone4",
		"-p", "address:=0.0.0.0",
		"-p", "default_stream_type:=ros_compressed",
		"-p", "port:=8080",
		"-p", "server_threads:=4",
	}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("node args mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge(t *testing.T) {
	f := newFixture(t)
	f.installStack(t, t.TempDir())

	var plans []*Plan
	for _, id := range []string{"1", "2"} {
		plan, err := NewPlan(f.assemble(t, "pegasus", "vehicle_id:="+id), f.config, PlanOptions{})
		if err != nil {
			t.Fatalf("NewPlan: %v", err)
		}
		plans = append(plans, plan)
	}

	merged, err := Merge(plans...)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if diff := cmp.Diff([]string{"drone1", "drone2"}, merged.Scopes); diff != "" {
		t.Errorf("scopes mismatch (-want +got):\n%s", diff)
	}
	if merged.Definition != "pegasus" {
		t.Errorf("Definition = %q", merged.Definition)
	}
	if merged.Processes[0].Spec.Name != "drone1.visual_slam_launch_container" || merged.Processes[3].Spec.Name != "drone2.visual_slam_launch_container" {
		t.Errorf("process names not scoped: %s, %s", merged.Processes[0].Spec.Name, merged.Processes[3].Spec.Name)
	}
	if plans[0].Processes[0].Spec.Name != "visual_slam_launch_container" {
		t.Error("Merge renamed the input plan's processes")
	}

	if _, err := Merge(plans[0], plans[0]); err == nil || !strings.Contains(err.Error(), "drone1") {
		t.Errorf("Merge of duplicate scope = %v, want error naming drone1", err)
	}
}

func TestExecute(t *testing.T) {
	f := newFixture(t)
	output := t.TempDir()
	f.installStack(t, output)
	graph := f.assemble(t, "pegasus", "vehicle_id:=3")
	plan, err := NewPlan(graph, f.config, PlanOptions{ConfigPath: "/etc/pegasus.yaml"})
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}

	var stdout lockedBuffer
	directory := filepath.Join(t.TempDir(), "run")
	group, err := Execute(context.Background(), plan, ExecuteOptions{Directory: directory, Stdout: &stdout, Stderr: &stdout})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := group.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	manifestPath := filepath.Join(directory, "visual_slam_launch_container.manifest.yaml")
	containerArgs := readFile(t, filepath.Join(output, "container.args"))
	if !strings.HasPrefix(containerArgs, "--manifest "+manifestPath+" --ros-args --log-level info") {
		t.Errorf("container args = %q", containerArgs)
	}
	if readFile(t, filepath.Join(output, "container.manifest")) != plan.Processes[0].Manifest {
		t.Error("container did not receive the planned manifest")
	}

	control := readFile(t, filepath.Join(output, "pegasus_control.args"))
	if !strings.HasPrefix(control, "run pegasus_control id:=3 namespace:=drone drone_params:="+f.params) {
		t.Errorf("control args = %q", control)
	}
	if !strings.Contains(control, "PEGASUS_CONFIG=/etc/pegasus.yaml") {
		t.Errorf("control did not receive PEGASUS_CONFIG: %q", control)
	}
	telemetry := readFile(t, filepath.Join(output, "pegasus_telemetry.args"))
	if strings.TrimSpace(strings.Split(telemetry, "\n")[0]) != "run pegasus_telemetry id:=3 namespace:=drone" {
		t.Errorf("telemetry args = %q", telemetry)
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	f := newFixture(t)
	f.installStack(t, t.TempDir())
	plan, err := NewPlan(f.assemble(t, "pegasus"), f.config, PlanOptions{})
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Execute(ctx, plan, ExecuteOptions{Directory: t.TempDir()}); err == nil {
		t.Fatal("Execute started processes with a cancelled context")
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

type lockedBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (b *lockedBuffer) Write(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Write(data)
}
