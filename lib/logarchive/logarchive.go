// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package logarchive compresses the member log files of a finished
// launch and reads them back, compressed or not.
//
// Companion computers log to small flash storage; a camera driver at
// debug level writes far more than it is worth keeping uncompressed.
// Archives are zstd streams, one per log file, named <name>.log.zst.
package logarchive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const (
	// LogExtension is the suffix of member log files.
	LogExtension = ".log"

	// ArchiveExtension is appended to a log file's name once compressed.
	ArchiveExtension = ".zst"
)

// CompressDirectory replaces every <name>.log in directory with
// <name>.log.zst and returns the archive paths. A missing directory has
// nothing to compress.
func CompressDirectory(directory string) ([]string, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading log directory: %w", err)
	}

	var archives []string
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), LogExtension) {
			continue
		}
		path := filepath.Join(directory, entry.Name())
		archive, err := compressFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		archives = append(archives, archive)
	}
	return archives, errors.Join(errs...)
}

// compressFile writes path+".zst" through a temporary file and removes
// path once the archive is durable.
func compressFile(path string) (string, error) {
	source, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer source.Close()

	archive := path + ArchiveExtension
	temporary, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(archive)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating archive for %s: %w", path, err)
	}
	temporaryPath := temporary.Name()
	success := false
	defer func() {
		if !success {
			temporary.Close()
			os.Remove(temporaryPath)
		}
	}()

	encoder, err := zstd.NewWriter(temporary, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return "", fmt.Errorf("creating zstd encoder: %w", err)
	}
	if _, err := io.Copy(encoder, source); err != nil {
		encoder.Close()
		return "", fmt.Errorf("compressing %s: %w", path, err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("compressing %s: %w", path, err)
	}
	if err := temporary.Sync(); err != nil {
		return "", fmt.Errorf("syncing archive of %s: %w", path, err)
	}
	if err := temporary.Close(); err != nil {
		return "", fmt.Errorf("closing archive of %s: %w", path, err)
	}
	if err := os.Rename(temporaryPath, archive); err != nil {
		return "", fmt.Errorf("renaming archive of %s: %w", path, err)
	}
	success = true

	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("removing %s after compression: %w", path, err)
	}
	return archive, nil
}

// Members lists the members with a log in directory, compressed or
// not, sorted.
func Members(directory string) ([]string, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("reading log directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ArchiveExtension)
		if member, ok := strings.CutSuffix(name, LogExtension); ok && !strings.HasPrefix(member, ".") {
			names = append(names, member)
		}
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// Open returns the log of member in directory, decompressing it when
// only the archive exists.
func Open(directory, member string) (io.ReadCloser, error) {
	path := filepath.Join(directory, member+LogExtension)
	file, err := os.Open(path)
	if err == nil {
		return file, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	file, err = os.Open(path + ArchiveExtension)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no log for %q in %s", member, directory)
		}
		return nil, err
	}
	decoder, err := zstd.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("reading %s: %w", file.Name(), err)
	}
	return &archiveReader{decoder: decoder, file: file}, nil
}

type archiveReader struct {
	decoder *zstd.Decoder
	file    *os.File
}

func (r *archiveReader) Read(p []byte) (int, error) {
	return r.decoder.Read(p)
}

func (r *archiveReader) Close() error {
	r.decoder.Close()
	return r.file.Close()
}
