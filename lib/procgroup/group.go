// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package procgroup

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/pegasus-robotics/pegasus/lib/clock"
)

// Output selects where a member's stdout and stderr go.
type Output string

const (
	// OutputScreen writes member output to the engine's stdout/stderr,
	// each line prefixed with the member name.
	OutputScreen Output = "screen"

	// OutputLog writes member output to <LogDirectory>/<name>.log.
	OutputLog Output = "log"
)

// Spec describes one process to start.
type Spec struct {
	// Name identifies the member in logs, output prefixes, and run
	// state. Unique within a group.
	Name string `json:"name"`

	Path string   `json:"path"`
	Args []string `json:"args,omitempty"`

	// Env entries (KEY=VALUE) are appended to the engine's environment.
	Env []string `json:"env,omitempty"`

	Dir    string `json:"dir,omitempty"`
	Output Output `json:"output"`

	// Nested marks a member that is itself an engine terminating its
	// own group on SIGTERM. Terminate waits a second grace period plus
	// NestedMargin for it before sending SIGKILL, so the nested engine's
	// escalation reaches its members first.
	Nested bool `json:"nested,omitempty"`
}

// NestedMargin is added to the second grace period nested members get.
const NestedMargin = 2 * time.Second

// Options configures Start.
type Options struct {
	Logger *slog.Logger

	// Clock measures the terminate grace period. Nil uses clock.Real().
	Clock clock.Clock

	// Stdout and Stderr receive screen output. Nil uses os.Stdout and
	// os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// LogDirectory holds member log files for OutputLog members.
	LogDirectory string
}

// Member is a started process.
type Member struct {
	Name string `json:"name"`
	PID  int    `json:"pid"`
}

// Group is a set of started processes.
type Group struct {
	logger *slog.Logger
	clock  clock.Clock

	members []*member
	done    chan struct{}

	mu          sync.Mutex
	terminating bool
}

type member struct {
	spec    Spec
	command *exec.Cmd
	closers []io.Closer
	flushes []func()

	// err is set once, before exited is closed.
	err    error
	exited chan struct{}
}

// Start starts every spec concurrently, each in its own process group.
// If any member fails to start, the members that did start are killed
// and reaped, and the error names every spec that failed.
func Start(specs []Spec, options Options) (*Group, error) {
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Stdout == nil {
		options.Stdout = os.Stdout
	}
	if options.Stderr == nil {
		options.Stderr = os.Stderr
	}

	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if seen[spec.Name] {
			return nil, fmt.Errorf("duplicate member name %q", spec.Name)
		}
		seen[spec.Name] = true
	}

	group := &Group{
		logger:  options.Logger,
		clock:   options.Clock,
		members: make([]*member, len(specs)),
		done:    make(chan struct{}),
	}

	// Screen output from all members shares one lock so lines from
	// different processes never interleave mid-line.
	var screenLock sync.Mutex

	errs := make([]error, len(specs))
	var wg sync.WaitGroup
	for i, spec := range specs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started, err := startMember(spec, options, &screenLock)
			if err != nil {
				errs[i] = fmt.Errorf("starting %s: %w", spec.Name, err)
				return
			}
			group.members[i] = started
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		for _, started := range group.members {
			if started == nil {
				continue
			}
			_ = unix.Kill(-started.command.Process.Pid, unix.SIGKILL)
			_ = started.command.Wait()
			started.close()
		}
		return nil, err
	}

	var reapers sync.WaitGroup
	for _, started := range group.members {
		group.logger.Info("process started",
			"name", started.spec.Name,
			"pid", started.command.Process.Pid,
			"path", started.spec.Path,
		)
		reapers.Add(1)
		go func() {
			defer reapers.Done()
			group.reap(started)
		}()
	}
	go func() {
		reapers.Wait()
		close(group.done)
	}()

	return group, nil
}

func startMember(spec Spec, options Options, screenLock *sync.Mutex) (*member, error) {
	command := exec.Command(spec.Path, spec.Args...)
	command.Dir = spec.Dir
	if len(spec.Env) > 0 {
		command.Env = append(os.Environ(), spec.Env...)
	}
	command.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	started := &member{spec: spec, command: command, exited: make(chan struct{})}

	switch spec.Output {
	case OutputLog:
		if err := os.MkdirAll(options.LogDirectory, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		path := filepath.Join(options.LogDirectory, spec.Name+".log")
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		writer := newLogWriter(file)
		command.Stdout = writer
		command.Stderr = writer
		started.flushes = append(started.flushes, writer.Flush)
		started.closers = append(started.closers, file)
	default:
		stdout := newPrefixWriter(options.Stdout, spec.Name, screenLock)
		stderr := newPrefixWriter(options.Stderr, spec.Name, screenLock)
		command.Stdout = stdout
		command.Stderr = stderr
		started.flushes = append(started.flushes, stdout.Flush, stderr.Flush)
	}

	if err := command.Start(); err != nil {
		started.close()
		return nil, err
	}
	return started, nil
}

func (m *member) close() {
	for _, flush := range m.flushes {
		flush()
	}
	for _, closer := range m.closers {
		_ = closer.Close()
	}
}

func (g *Group) reap(m *member) {
	err := m.command.Wait()
	m.close()

	g.mu.Lock()
	terminating := g.terminating
	g.mu.Unlock()

	if terminating && killedBySignal(err) {
		err = nil
	}
	if err != nil {
		m.err = fmt.Errorf("%s: %w", m.spec.Name, err)
		g.logger.Warn("process exited", "name", m.spec.Name, "error", err)
	} else {
		g.logger.Info("process exited", "name", m.spec.Name)
	}
	close(m.exited)
}

func killedBySignal(err error) bool {
	var exitError *exec.ExitError
	if !errors.As(err, &exitError) {
		return false
	}
	status, ok := exitError.Sys().(syscall.WaitStatus)
	return ok && status.Signaled()
}

// Members returns the started processes in spec order.
func (g *Group) Members() []Member {
	result := make([]Member, len(g.members))
	for i, m := range g.members {
		result[i] = Member{Name: m.spec.Name, PID: m.command.Process.Pid}
	}
	return result
}

// Done is closed once every member has exited.
func (g *Group) Done() <-chan struct{} {
	return g.done
}

// Wait blocks until every member has exited and returns the members'
// failures joined. Members killed by Terminate are not failures.
func (g *Group) Wait() error {
	<-g.done
	var errs []error
	for _, m := range g.members {
		if m.err != nil {
			errs = append(errs, m.err)
		}
	}
	return errors.Join(errs...)
}

// Terminate sends SIGTERM to every running member's process group, waits
// up to grace for them to exit, then sends SIGKILL to the rest. Nested
// members get a further grace plus NestedMargin before they are killed.
// Returns once every member has exited.
func (g *Group) Terminate(grace time.Duration) error {
	g.mu.Lock()
	g.terminating = true
	g.mu.Unlock()

	errs := g.signalRunning(unix.SIGTERM, anyMember)

	select {
	case <-g.done:
		return errors.Join(errs...)
	case <-g.clock.After(grace):
	}

	errs = append(errs, g.kill(grace, notNested)...)

	if g.running(isNested) {
		select {
		case <-g.done:
			return errors.Join(errs...)
		case <-g.clock.After(grace + NestedMargin):
		}
		errs = append(errs, g.kill(2*grace+NestedMargin, anyMember)...)
	}

	<-g.done
	return errors.Join(errs...)
}

func (g *Group) kill(elapsed time.Duration, match func(*member) bool) []error {
	for _, m := range g.members {
		if !match(m) {
			continue
		}
		select {
		case <-m.exited:
		default:
			g.logger.Warn("process did not exit within grace period, killing",
				"name", m.spec.Name,
				"elapsed", elapsed,
			)
		}
	}
	return g.signalRunning(unix.SIGKILL, match)
}

func anyMember(*member) bool { return true }

func isNested(m *member) bool { return m.spec.Nested }

func notNested(m *member) bool { return !m.spec.Nested }

func (g *Group) running(match func(*member) bool) bool {
	for _, m := range g.members {
		if !match(m) {
			continue
		}
		select {
		case <-m.exited:
		default:
			return true
		}
	}
	return false
}

// Signal sends sig to every running member's process group.
func (g *Group) Signal(sig unix.Signal) error {
	return errors.Join(g.signalRunning(sig, anyMember)...)
}

func (g *Group) signalRunning(sig unix.Signal, match func(*member) bool) []error {
	var errs []error
	for _, m := range g.members {
		if !match(m) {
			continue
		}
		select {
		case <-m.exited:
			continue
		default:
		}
		if err := SignalGroup(m.command.Process.Pid, sig); err != nil {
			errs = append(errs, fmt.Errorf("signalling %s: %w", m.spec.Name, err))
		}
	}
	return errs
}

// SignalGroup sends sig to the process group led by pid. A group that
// no longer exists is not an error.
func SignalGroup(pid int, sig unix.Signal) error {
	err := unix.Kill(-pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

// GroupAlive reports whether any process remains in the group led by
// pid.
func GroupAlive(pid int) bool {
	err := unix.Kill(-pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// ProcessAlive reports whether a process with pid exists.
func ProcessAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
