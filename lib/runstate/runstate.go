// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package runstate records which launches are running. Every engine that
// starts a process group writes one record into the run directory; the
// stop and status commands read them back, possibly from another
// terminal or after the launching engine has died.
//
// Records are CBOR (lib/codec) written atomically (temporary file,
// fsync, rename) so readers never see a partial record.
package runstate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pegasus-robotics/pegasus/lib/codec"
)

var (
	// ErrNoRecord is returned by Find when no run ID matches.
	ErrNoRecord = errors.New("no running launch matches")

	// ErrAmbiguous is returned by Find when several run IDs match.
	ErrAmbiguous = errors.New("run ID prefix is ambiguous")
)

// extension is the file suffix of run-state records.
const extension = ".run"

// Record describes one running launch.
type Record struct {
	// RunID is a random UUID naming this launch.
	RunID string `cbor:"run_id" json:"run_id"`

	// Definition is the located definition (built-in name or path).
	Definition string `cbor:"definition" json:"definition"`

	// Fingerprint is the hex launch graph fingerprint.
	Fingerprint string `cbor:"fingerprint" json:"fingerprint"`

	// Scopes are the vehicle scopes the launch covers, e.g. ["drone3"].
	Scopes []string `cbor:"scopes,omitempty" json:"scopes,omitempty"`

	// EnginePID is the pid of the engine process that wrote the record.
	EnginePID int `cbor:"engine_pid" json:"engine_pid"`

	// StartedAt is when the process group was started, in Unix
	// nanoseconds.
	StartedAt int64 `cbor:"started_at" json:"started_at"`

	// Members are the started processes. Each leads its own process
	// group.
	Members []Member `cbor:"members" json:"members"`
}

// Member is one started process.
type Member struct {
	Name string `cbor:"name" json:"name"`
	PID  int    `cbor:"pid" json:"pid"`

	// Kind is "container", "node", or "delegate".
	Kind string `cbor:"kind" json:"kind"`
}

// Started returns StartedAt as a time.
func (r Record) Started() time.Time {
	return time.Unix(0, r.StartedAt)
}

// NewRunID returns a fresh run ID.
func NewRunID() string {
	return uuid.NewString()
}

// Path returns the record file for runID in directory.
func Path(directory, runID string) string {
	return filepath.Join(directory, runID+extension)
}

// Write atomically writes record into directory. The directory must
// already exist. The file is created with mode 0600.
func Write(directory string, record Record) error {
	if _, err := uuid.Parse(record.RunID); err != nil {
		return fmt.Errorf("run ID %q: %w", record.RunID, err)
	}
	data, err := codec.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding run state: %w", err)
	}

	path := Path(directory, record.RunID)
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating temporary run state file: %w", err)
	}

	// Write, sync, close, in that order. If any step fails, remove the
	// temporary file and report the first error.
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary run state file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary run state file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary run state file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming run state file into place: %w", err)
	}

	parentDirectory, err := os.Open(directory)
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}
	return nil
}

// Read reads one record. When the file does not exist the returned error
// wraps os.ErrNotExist.
func Read(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	var record Record
	if err := codec.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("parsing run state %s: %w", path, err)
	}
	return record, nil
}

// List reads every record in directory, oldest first. A missing
// directory has no records. Unreadable records are reported in the
// joined error alongside the records that could be read.
func List(directory string) ([]Record, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading run directory %s: %w", directory, err)
	}

	var records []Record
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), extension) {
			continue
		}
		record, err := Read(filepath.Join(directory, entry.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].StartedAt != records[j].StartedAt {
			return records[i].StartedAt < records[j].StartedAt
		}
		return records[i].RunID < records[j].RunID
	})
	return records, errors.Join(errs...)
}

// Find returns the record whose run ID starts with prefix. An ambiguous
// or unknown prefix is an error.
func Find(directory, prefix string) (Record, error) {
	records, err := List(directory)
	if err != nil && len(records) == 0 {
		return Record{}, err
	}
	var matches []Record
	for _, record := range records {
		if strings.HasPrefix(record.RunID, prefix) {
			matches = append(matches, record)
		}
	}
	switch len(matches) {
	case 0:
		return Record{}, fmt.Errorf("%w %q", ErrNoRecord, prefix)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, match := range matches {
			ids[i] = match.RunID
		}
		return Record{}, fmt.Errorf("%w: %q matches %s", ErrAmbiguous, prefix, strings.Join(ids, ", "))
	}
}

// Remove deletes the record for runID. Removing a record that does not
// exist is not an error.
func Remove(directory, runID string) error {
	if err := os.Remove(Path(directory, runID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing run state %s: %w", runID, err)
	}
	return nil
}
