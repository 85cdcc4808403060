// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package preflight checks that a host can run a launch before anything
// is started: the install prefixes and run directory, the definition and
// its graph, every executable, the flight-controller link, and leftover
// run state from earlier launches.
package preflight

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.bug.st/serial"
	"gopkg.in/yaml.v3"

	"github.com/pegasus-robotics/pegasus/lib/config"
	"github.com/pegasus-robotics/pegasus/lib/graph"
	"github.com/pegasus-robotics/pegasus/lib/procgroup"
	"github.com/pegasus-robotics/pegasus/lib/runstate"
)

// Result holds the result of one check.
type Result struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
	Warning bool   `json:"warning,omitempty"` // True if this is a warning, not an error.
}

// Validator runs preflight checks and collects their results.
type Validator struct {
	results []Result
	errors  int

	// ListPorts enumerates serial devices. Defaults to
	// serial.GetPortsList.
	ListPorts func() ([]string, error)

	// OpenPort opens a serial device for the link probe. Defaults to
	// serial.Open.
	OpenPort func(name string, mode *serial.Mode) (serial.Port, error)
}

// NewValidator creates a validator using the host's serial devices.
func NewValidator() *Validator {
	return &Validator{
		ListPorts: serial.GetPortsList,
		OpenPort:  serial.Open,
	}
}

// Results returns all check results in the order they ran.
func (v *Validator) Results() []Result {
	return v.results
}

// HasErrors returns true if any check failed.
func (v *Validator) HasErrors() bool {
	return v.errors > 0
}

func (v *Validator) pass(name, message string) {
	v.results = append(v.results, Result{Name: name, Passed: true, Message: message})
}

func (v *Validator) warn(name, message string) {
	v.results = append(v.results, Result{Name: name, Passed: true, Message: message, Warning: true})
}

func (v *Validator) fail(name, message string) {
	v.results = append(v.results, Result{Name: name, Passed: false, Message: message})
	v.errors++
}

// ValidateConfig checks the install prefixes and the run directory.
func (v *Validator) ValidateConfig(cfg *config.Config) {
	found := 0
	for _, prefix := range cfg.Paths.Prefixes {
		info, err := os.Stat(prefix)
		if err != nil || !info.IsDir() {
			v.warn("prefix", fmt.Sprintf("install prefix not found: %s", prefix))
			continue
		}
		found++
		v.pass("prefix", fmt.Sprintf("install prefix: %s", prefix))
	}
	if found == 0 {
		v.fail("prefix", "no install prefix exists (source the ROS setup file or set paths.prefixes)")
	}

	if err := cfg.EnsurePaths(); err != nil {
		v.fail("run_directory", err.Error())
		return
	}
	probe, err := os.CreateTemp(cfg.Paths.Run, ".preflight-*")
	if err != nil {
		v.fail("run_directory", fmt.Sprintf("not writable: %v", err))
		return
	}
	probe.Close()
	os.Remove(probe.Name())
	v.pass("run_directory", fmt.Sprintf("writable: %s", cfg.Paths.Run))
}

// ValidateGraph assembles reference and returns the graph, or nil when
// assembly fails.
func (v *Validator) ValidateGraph(assembler *graph.Assembler, reference string, rawArgs []string) *graph.LaunchGraph {
	launch, err := assembler.Assemble(reference, rawArgs)
	if err != nil {
		v.fail("definition", err.Error())
		return nil
	}
	message := fmt.Sprintf("%s assembled (%s)", launch.Definition(), launch.Location().String())
	if scope := launch.Scope(); scope != "" {
		message += ", scope " + scope
	}
	v.pass("definition", message)

	for _, shadowing := range launch.Shadowed() {
		v.warn("arguments", fmt.Sprintf("argument %q declared more than once; default %q replaces %q",
			shadowing.Current.Name, shadowing.Current.Default, shadowing.Previous.Default))
	}
	for _, unused := range launch.Unused() {
		v.warn("arguments", fmt.Sprintf("override %s names no declared argument", unused))
	}
	return launch
}

// ValidateExecutables checks that every process of launch resolves.
func (v *Validator) ValidateExecutables(launch *graph.LaunchGraph, cfg *config.Config) {
	plan, err := graph.NewPlan(launch, cfg, graph.PlanOptions{})
	if err != nil {
		v.fail("executables", err.Error())
		return
	}
	v.pass("executables", fmt.Sprintf("%d processes resolved", len(plan.Processes)))
}

// ValidateParameterFiles checks that every parameter file in launch is
// readable YAML.
func (v *Validator) ValidateParameterFiles(launch *graph.LaunchGraph) {
	checked := make(map[string]bool)
	var files []string
	for _, grouped := range launch.Containers() {
		for _, member := range grouped.Members() {
			files = append(files, member.ParameterFiles...)
		}
	}
	for _, node := range launch.Nodes() {
		files = append(files, node.ParameterFiles...)
	}

	for _, file := range files {
		if checked[file] {
			continue
		}
		checked[file] = true
		data, err := os.ReadFile(file)
		if err != nil {
			v.fail("parameters", fmt.Sprintf("cannot read %s: %v", file, err))
			continue
		}
		var document any
		if err := yaml.Unmarshal(data, &document); err != nil {
			v.fail("parameters", fmt.Sprintf("%s is not valid YAML: %v", file, err))
			continue
		}
		v.pass("parameters", fmt.Sprintf("readable: %s", file))
	}
}

// Link is a parsed link-layer connection URI.
type Link struct {
	Scheme string
	// Device is the serial device path for serial links, host:port
	// otherwise.
	Device   string
	BaudRate int
}

// ParseLink parses serial:///dev/ttyACM0:921600, udp://host:port, or
// tcp://host:port.
func ParseLink(text string) (Link, error) {
	parsed, err := url.Parse(text)
	if err != nil {
		return Link{}, fmt.Errorf("connection %q: %w", text, err)
	}
	switch parsed.Scheme {
	case "serial":
		device, rate, found := strings.Cut(parsed.Path, ":")
		if !found || device == "" {
			return Link{}, fmt.Errorf("connection %q: want serial://<device>:<baud>", text)
		}
		baud, err := strconv.Atoi(rate)
		if err != nil || baud <= 0 {
			return Link{}, fmt.Errorf("connection %q: invalid baud rate %q", text, rate)
		}
		return Link{Scheme: "serial", Device: device, BaudRate: baud}, nil
	case "udp", "udpin", "udpout", "tcp", "tcpin":
		if parsed.Host == "" {
			return Link{}, fmt.Errorf("connection %q: missing host:port", text)
		}
		return Link{Scheme: parsed.Scheme, Device: parsed.Host}, nil
	case "":
		return Link{}, fmt.Errorf("connection %q: missing scheme", text)
	default:
		return Link{}, fmt.Errorf("connection %q: unsupported scheme %q", text, parsed.Scheme)
	}
}

// ValidateLink checks the flight-controller connection. Serial devices
// must be present; with probe set the device is also opened at the
// configured baud rate and closed again.
func (v *Validator) ValidateLink(connection string, probe bool) {
	link, err := ParseLink(connection)
	if err != nil {
		v.fail("link", err.Error())
		return
	}
	if link.Scheme != "serial" {
		v.pass("link", fmt.Sprintf("%s link to %s", link.Scheme, link.Device))
		return
	}

	ports, err := v.ListPorts()
	if err != nil {
		v.warn("link", fmt.Sprintf("cannot enumerate serial ports: %v", err))
		return
	}
	if !portPresent(ports, link.Device) {
		if len(ports) == 0 {
			v.fail("link", fmt.Sprintf("serial device %s not found (no serial ports present)", link.Device))
		} else {
			v.fail("link", fmt.Sprintf("serial device %s not found (present: %s)", link.Device, strings.Join(ports, ", ")))
		}
		return
	}

	if probe {
		port, err := v.OpenPort(link.Device, &serial.Mode{BaudRate: link.BaudRate})
		if err != nil {
			v.fail("link", fmt.Sprintf("cannot open %s at %d baud: %v", link.Device, link.BaudRate, err))
			return
		}
		port.Close()
		v.pass("link", fmt.Sprintf("opened %s at %d baud", link.Device, link.BaudRate))
		return
	}
	v.pass("link", fmt.Sprintf("serial device present: %s", link.Device))
}

// portPresent matches device against the enumerated ports, following
// symlinks such as /dev/serial/by-id entries.
func portPresent(ports []string, device string) bool {
	if slices.Contains(ports, device) {
		return true
	}
	resolved, err := filepath.EvalSymlinks(device)
	return err == nil && slices.Contains(ports, resolved)
}

// ValidateForward checks that text is a YAML list of endpoint URIs, the
// format the link-layer bridge reads its forward targets in.
func (v *Validator) ValidateForward(text string) {
	var endpoints []string
	if err := yaml.Unmarshal([]byte(text), &endpoints); err != nil {
		v.fail("forward", fmt.Sprintf("mavlink_forward %q is not a list: %v", text, err))
		return
	}
	for _, endpoint := range endpoints {
		parsed, err := url.Parse(endpoint)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			v.fail("forward", fmt.Sprintf("mavlink_forward endpoint %q is not scheme://host:port", endpoint))
			return
		}
	}
	if len(endpoints) == 0 {
		v.warn("forward", "mavlink_forward is empty; link traffic is not forwarded")
		return
	}
	v.pass("forward", fmt.Sprintf("forwarding to %s", strings.Join(endpoints, ", ")))
}

// ValidateRunState reports launches recorded in the run directory whose
// engine is gone but whose processes may still be running.
func (v *Validator) ValidateRunState(cfg *config.Config) {
	records, err := runstate.List(cfg.Paths.Run)
	if err != nil {
		v.warn("run_state", err.Error())
	}
	stale := 0
	for _, record := range records {
		if procgroup.ProcessAlive(record.EnginePID) {
			v.warn("run_state", fmt.Sprintf("launch %s (%s) is already running", record.RunID, record.Definition))
			continue
		}
		stale++
	}
	if stale > 0 {
		v.warn("run_state", fmt.Sprintf("%d stale run record(s); run \"pegasus stop --all\" to clean up", stale))
		return
	}
	if len(records) == 0 {
		v.pass("run_state", "no launches running")
	}
}

// PrintResults writes check results to w.
func (v *Validator) PrintResults(w io.Writer) {
	for _, r := range v.results {
		var prefix string
		if r.Passed {
			if r.Warning {
				prefix = "⚠"
			} else {
				prefix = "✓"
			}
		} else {
			prefix = "✗"
		}
		fmt.Fprintf(w, "%s %s: %s\n", prefix, r.Name, r.Message)
	}

	fmt.Fprintln(w)
	if v.HasErrors() {
		fmt.Fprintf(w, "Preflight failed with %d error(s)\n", v.errors)
	} else {
		fmt.Fprintln(w, "Ready to launch")
	}
}
