// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package procgroup

import (
	"bytes"
	"io"
	"sync"

	"github.com/charmbracelet/x/ansi"
)

// prefixWriter writes complete lines to out, each prefixed with
// "[name] ". A partial trailing line is held until the next write or
// Flush. With strip set, ANSI escape sequences are removed from each
// line.
type prefixWriter struct {
	out    io.Writer
	prefix []byte
	lock   *sync.Mutex
	strip  bool

	pending []byte
}

func newPrefixWriter(out io.Writer, name string, lock *sync.Mutex) *prefixWriter {
	return &prefixWriter{out: out, prefix: []byte("[" + name + "] "), lock: lock}
}

// newLogWriter writes unprefixed lines to a member log file. Members
// that emulate a TTY colorize their output; the file gets plain text.
func newLogWriter(out io.Writer) *prefixWriter {
	return &prefixWriter{out: out, lock: &sync.Mutex{}, strip: true}
}

func (w *prefixWriter) line(buffer *bytes.Buffer, line []byte) {
	buffer.Write(w.prefix)
	if w.strip {
		buffer.WriteString(ansi.Strip(string(line)))
		return
	}
	buffer.Write(line)
}

func (w *prefixWriter) Write(data []byte) (int, error) {
	w.pending = append(w.pending, data...)

	var buffer bytes.Buffer
	for {
		index := bytes.IndexByte(w.pending, '\n')
		if index < 0 {
			break
		}
		w.line(&buffer, w.pending[:index+1])
		w.pending = w.pending[index+1:]
	}
	if buffer.Len() == 0 {
		return len(data), nil
	}

	w.lock.Lock()
	defer w.lock.Unlock()
	if _, err := w.out.Write(buffer.Bytes()); err != nil {
		return 0, err
	}
	return len(data), nil
}

// Flush writes any partial line, terminated with a newline.
func (w *prefixWriter) Flush() {
	if len(w.pending) == 0 {
		return
	}
	var buffer bytes.Buffer
	w.line(&buffer, w.pending)
	buffer.WriteByte('\n')
	w.pending = nil

	w.lock.Lock()
	defer w.lock.Unlock()
	_, _ = w.out.Write(buffer.Bytes())
}
