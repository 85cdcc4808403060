// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/pegasus-robotics/pegasus/lib/procgroup"
	"github.com/pegasus-robotics/pegasus/lib/runstate"
	"github.com/pegasus-robotics/pegasus/lib/testutil"
)

// waitForRecords polls the run directory until it holds n records.
func waitForRecords(t *testing.T, directory string, n int) []runstate.Record {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		records, err := runstate.List(directory)
		if err == nil && len(records) == n {
			return records
		}
		if time.Now().After(deadline) {
			t.Fatalf("run directory holds %d records (error %v), want %d", len(records), err, n)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestRunToCompletion(t *testing.T) {
	h := newHarness(t, "exit 0")
	if err := h.execute(context.Background(), "run", "pegasus", "vehicle_id:=2"); err != nil {
		t.Fatalf("run: %v", err)
	}
	waitForRecords(t, h.runDir, 0)
}

func TestRunReportsFailedProcesses(t *testing.T) {
	h := newHarness(t, "exit 3")
	err := h.execute(context.Background(), "run", "pegasus")
	if err == nil || !strings.Contains(err.Error(), "visual_slam_launch_container") {
		t.Errorf("run with failing processes = %v", err)
	}
	waitForRecords(t, h.runDir, 0)
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, "exec sleep 30")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- h.execute(ctx, "run", "pegasus", "vehicle_id:=5") }()

	records := waitForRecords(t, h.runDir, 1)
	record := records[0]
	if record.Definition != "pegasus" || record.EnginePID != os.Getpid() || len(record.Members) != 3 {
		t.Fatalf("record = %+v", record)
	}
	if strings.Join(record.Scopes, ",") != "drone5" || record.Members[0].Kind != "container" {
		t.Errorf("record = %+v", record)
	}

	status := h.mustExecute(t, "status")
	if !strings.Contains(status, record.RunID[:8]) || !strings.Contains(status, "running") || !strings.Contains(status, "3/3") {
		t.Errorf("status output:\n%s", status)
	}
	statuses := decode[[]runStatus](t, h.mustExecute(t, "status", "--json"))
	if len(statuses) != 1 || !statuses[0].EngineAlive || statuses[0].Running != 3 {
		t.Errorf("statuses = %+v", statuses)
	}

	cancel()
	if err := testutil.RequireReceive(t, result, 10*time.Second, "waiting for run to stop"); err != nil {
		t.Errorf("run after cancel: %v", err)
	}
	for _, member := range record.Members {
		if procgroup.GroupAlive(member.PID) {
			t.Errorf("member %s still alive after stop", member.Name)
		}
	}
	waitForRecords(t, h.runDir, 0)
}

// orphanedRun starts a process group the way the engine does and
// records it under an engine pid that no longer exists.
func orphanedRun(t *testing.T, directory string) runstate.Record {
	t.Helper()
	exited := exec.Command("true")
	if err := exited.Run(); err != nil {
		t.Fatal(err)
	}

	sleeper := exec.Command("sleep", "30")
	sleeper.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := sleeper.Start(); err != nil {
		t.Fatal(err)
	}
	// Reap in the background so the group disappears once killed.
	go sleeper.Wait()
	t.Cleanup(func() { procgroup.SignalGroup(sleeper.Process.Pid, syscall.SIGKILL) })

	record := runstate.Record{
		RunID:      runstate.NewRunID(),
		Definition: "pegasus",
		EnginePID:  exited.Process.Pid,
		StartedAt:  time.Now().UnixNano(),
		Members:    []runstate.Member{{Name: "camera", PID: sleeper.Process.Pid, Kind: "node"}},
	}
	if err := runstate.Write(directory, record); err != nil {
		t.Fatal(err)
	}
	return record
}

func TestStatusOrphaned(t *testing.T) {
	h := newHarness(t, "exit 0")
	record := orphanedRun(t, h.runDir)
	statuses := decode[[]runStatus](t, h.mustExecute(t, "status", "--json"))
	if len(statuses) != 1 || statuses[0].RunID != record.RunID || statuses[0].EngineAlive || statuses[0].Running != 1 {
		t.Errorf("statuses = %+v", statuses)
	}
	if statuses[0].state() != "orphaned" {
		t.Errorf("state = %q, want orphaned", statuses[0].state())
	}
}

func TestStatusEmpty(t *testing.T) {
	h := newHarness(t, "exit 0")
	if output := h.mustExecute(t, "status"); !strings.Contains(output, "No launches running") {
		t.Errorf("status output = %q", output)
	}
}

func TestStopOrphanedRun(t *testing.T) {
	h := newHarness(t, "exit 0")
	record := orphanedRun(t, h.runDir)

	output := h.mustExecute(t, "stop", record.RunID[:8], "--grace", "2s")
	if !strings.Contains(output, "stopped "+record.RunID) {
		t.Errorf("stop output = %q", output)
	}
	if procgroup.GroupAlive(record.Members[0].PID) {
		t.Error("process group still alive after stop")
	}
	waitForRecords(t, h.runDir, 0)
}

func TestStopAll(t *testing.T) {
	h := newHarness(t, "exit 0")
	orphanedRun(t, h.runDir)
	orphanedRun(t, h.runDir)

	h.mustExecute(t, "stop", "--all", "--grace", "1s")
	waitForRecords(t, h.runDir, 0)
}

func TestStopValidation(t *testing.T) {
	h := newHarness(t, "exit 0")
	for _, args := range [][]string{
		{"stop"},
		{"stop", "--all", "abc"},
		{"stop", "ffffffff"},
	} {
		if err := h.execute(context.Background(), args...); err == nil {
			t.Errorf("pegasus %v succeeded", args)
		}
	}
}

// onlyRunDirectory returns the name of the single run directory.
func onlyRunDirectory(t *testing.T, runDir string) string {
	t.Helper()
	entries, err := os.ReadDir(runDir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	if len(names) != 1 {
		t.Fatalf("run directories = %v, want one", names)
	}
	return names[0]
}

func TestLogsOfFinishedRun(t *testing.T) {
	for _, compress := range []bool{false, true} {
		t.Run(map[bool]string{false: "plain", true: "compressed"}[compress], func(t *testing.T) {
			var launcher []string
			if compress {
				launcher = append(launcher, "compress_logs: true")
			}
			h := newHarness(t, `echo "started $1 $2"`, launcher...)
			if err := h.execute(context.Background(), "run", "pegasus"); err != nil {
				t.Fatalf("run: %v", err)
			}
			runID := onlyRunDirectory(t, h.runDir)

			_, err := os.Stat(filepath.Join(h.runDir, runID, "log", "control.log.zst"))
			if compress != (err == nil) {
				t.Errorf("archive present = %v, want %v", err == nil, compress)
			}

			members := h.mustExecute(t, "logs", runID[:8])
			if members != "control\ntelemetry\nvisual_slam_launch_container\n" {
				t.Errorf("members = %q", members)
			}
			if output := h.mustExecute(t, "logs", runID[:8], "control"); output != "started run pegasus_control\n" {
				t.Errorf("control log = %q", output)
			}
			if err := h.execute(context.Background(), "logs", runID[:8], "camera"); err == nil {
				t.Error("logs for a member without a log succeeded")
			}
		})
	}
}
