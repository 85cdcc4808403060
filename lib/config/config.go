// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment identifies where the engine runs.
type Environment string

const (
	// Development is a workstation with a partial install.
	Development Environment = "development"
	// Simulation runs the stack against a simulator.
	Simulation Environment = "simulation"
	// Flight is the on-vehicle companion computer.
	Flight Environment = "flight"
)

// Config is the engine configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	Paths PathsConfig `yaml:"paths"`

	Launcher LauncherConfig `yaml:"launcher"`

	Development *ConfigOverrides `yaml:"development,omitempty"`
	Simulation  *ConfigOverrides `yaml:"simulation,omitempty"`
	Flight      *ConfigOverrides `yaml:"flight,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths    *PathsConfig    `yaml:"paths,omitempty"`
	Launcher *LauncherConfig `yaml:"launcher,omitempty"`
}

// PathsConfig configures where things live on disk.
type PathsConfig struct {
	// Prefixes are install prefixes with an ament layout
	// (share/<package>, lib/<package>/<executable>), searched in order.
	Prefixes []string `yaml:"prefixes"`

	// Run holds run-state records and generated component manifests.
	Run string `yaml:"run"`

	// Definitions is an optional directory of launch definition files
	// addressable by file name.
	Definitions string `yaml:"definitions,omitempty"`
}

// LauncherConfig configures process execution.
type LauncherConfig struct {
	// SelfBinary is the binary re-invoked for nested launches. Empty
	// means the running executable.
	SelfBinary string `yaml:"self_binary,omitempty"`

	// TerminateGrace is how long processes get between SIGTERM and
	// SIGKILL. Default: 10s (development), 3s (flight).
	TerminateGrace string `yaml:"terminate_grace"`

	// Output is where process stdout/stderr goes: "screen" or "log".
	Output string `yaml:"output"`

	// CompressLogs compresses member log files with zstd once a launch
	// ends. Default: off (development), on (flight).
	CompressLogs bool `yaml:"compress_logs,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := unexpandedDefault()
	cfg.expandVariables()
	return cfg
}

func unexpandedDefault() *Config {
	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Prefixes: []string{"${AMENT_PREFIX_PATH:-/opt/ros/humble}"},
			Run:      "${XDG_RUNTIME_DIR:-/tmp}/pegasus",
		},
		Launcher: LauncherConfig{
			TerminateGrace: "10s",
			Output:         "screen",
		},
	}
}

// Load loads the file named by PEGASUS_CONFIG, or returns Default when
// the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv("PEGASUS_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path over the defaults, applies the
// section for the configured environment, and expands variables.
func LoadFile(path string) (*Config, error) {
	cfg := unexpandedDefault()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Simulation:
		overrides = c.Simulation
	case Flight:
		overrides = c.Flight
		// On the vehicle a wedged process must not hold shutdown for long.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Launcher: &LauncherConfig{TerminateGrace: "3s", CompressLogs: true},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if len(overrides.Paths.Prefixes) > 0 {
			c.Paths.Prefixes = overrides.Paths.Prefixes
		}
		if overrides.Paths.Run != "" {
			c.Paths.Run = overrides.Paths.Run
		}
		if overrides.Paths.Definitions != "" {
			c.Paths.Definitions = overrides.Paths.Definitions
		}
	}

	if overrides.Launcher != nil {
		if overrides.Launcher.SelfBinary != "" {
			c.Launcher.SelfBinary = overrides.Launcher.SelfBinary
		}
		if overrides.Launcher.TerminateGrace != "" {
			c.Launcher.TerminateGrace = overrides.Launcher.TerminateGrace
		}
		if overrides.Launcher.Output != "" {
			c.Launcher.Output = overrides.Launcher.Output
		}
		if overrides.Launcher.CompressLogs {
			c.Launcher.CompressLogs = true
		}
	}
}

// expandVariables expands path fields. A prefix entry that expands to a
// colon-separated list (AMENT_PREFIX_PATH) contributes each element.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	var prefixes []string
	for _, prefix := range c.Paths.Prefixes {
		for _, element := range strings.Split(expandVars(prefix, vars), string(os.PathListSeparator)) {
			if element != "" {
				prefixes = append(prefixes, element)
			}
		}
	}
	c.Paths.Prefixes = prefixes

	c.Paths.Run = expandVars(c.Paths.Run, vars)
	c.Paths.Definitions = expandVars(c.Paths.Definitions, vars)
	c.Launcher.SelfBinary = expandVars(c.Launcher.SelfBinary, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name := parts[1]
		defaultValue := parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case Development, Simulation, Flight:
	default:
		errs = append(errs, fmt.Errorf("invalid environment: %q", c.Environment))
	}

	if len(c.Paths.Prefixes) == 0 {
		errs = append(errs, fmt.Errorf("paths.prefixes must name at least one install prefix"))
	}
	if c.Paths.Run == "" {
		errs = append(errs, fmt.Errorf("paths.run is required"))
	}

	if _, err := c.TerminateGracePeriod(); err != nil {
		errs = append(errs, err)
	}

	if c.Launcher.Output != "screen" && c.Launcher.Output != "log" {
		errs = append(errs, fmt.Errorf("launcher.output must be \"screen\" or \"log\", got %q", c.Launcher.Output))
	}

	return errors.Join(errs...)
}

// TerminateGracePeriod parses Launcher.TerminateGrace.
func (c *Config) TerminateGracePeriod() (time.Duration, error) {
	grace, err := time.ParseDuration(c.Launcher.TerminateGrace)
	if err != nil {
		return 0, fmt.Errorf("launcher.terminate_grace %q: %w", c.Launcher.TerminateGrace, err)
	}
	if grace < 0 {
		return 0, fmt.Errorf("launcher.terminate_grace %q must not be negative", c.Launcher.TerminateGrace)
	}
	return grace, nil
}

// EnsurePaths creates the run directory.
func (c *Config) EnsurePaths() error {
	if err := os.MkdirAll(c.Paths.Run, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Paths.Run, err)
	}
	return nil
}

// SharePath returns share/<pkg> under the first prefix that has it.
func (c *Config) SharePath(pkg string) (string, error) {
	var searched []string
	for _, prefix := range c.Paths.Prefixes {
		candidate := filepath.Join(prefix, "share", pkg)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		searched = append(searched, candidate)
	}
	return "", fmt.Errorf("package %q not found (searched %s)", pkg, strings.Join(searched, ", "))
}

// ExecutablePath resolves lib/<pkg>/<name> under the configured
// prefixes. The file must exist and be executable.
func (c *Config) ExecutablePath(pkg, name string) (string, error) {
	var searched []string
	for _, prefix := range c.Paths.Prefixes {
		candidate := filepath.Join(prefix, "lib", pkg, name)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return candidate, nil
		}
		searched = append(searched, candidate)
	}
	return "", fmt.Errorf("executable %q of package %q not found (searched %s)", name, pkg, strings.Join(searched, ", "))
}

// SelfPath returns the binary used for nested launches: SelfBinary when
// configured (looked up on PATH if not absolute), else the running
// executable.
func (c *Config) SelfPath() (string, error) {
	if c.Launcher.SelfBinary != "" {
		path, err := exec.LookPath(c.Launcher.SelfBinary)
		if err != nil {
			return "", fmt.Errorf("launcher.self_binary %q: %w", c.Launcher.SelfBinary, err)
		}
		return path, nil
	}
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating running executable: %w", err)
	}
	return path, nil
}
