// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Prefix is a temporary install prefix with an ament-style layout.
type Prefix struct {
	t    *testing.T
	Root string
}

// NewPrefix creates an empty prefix under t.TempDir().
func NewPrefix(t *testing.T) *Prefix {
	t.Helper()
	return &Prefix{t: t, Root: t.TempDir()}
}

// AddShareFile writes content to share/<pkg>/<relative> and returns the
// absolute path.
func (p *Prefix) AddShareFile(pkg, relative, content string) string {
	p.t.Helper()
	path := filepath.Join(p.Root, "share", pkg, relative)
	p.write(path, content, 0o644)
	return path
}

// AddExecutable writes a /bin/sh script to lib/<pkg>/<name> and returns
// the absolute path.
func (p *Prefix) AddExecutable(pkg, name, script string) string {
	p.t.Helper()
	path := filepath.Join(p.Root, "lib", pkg, name)
	p.write(path, "#!/bin/sh\n"+script+"\n", 0o755)
	return path
}

func (p *Prefix) write(path, content string, mode os.FileMode) {
	p.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		p.t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		p.t.Fatalf("writing %s: %v", path, err)
	}
}
