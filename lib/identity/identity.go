// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity resolves which vehicle a launch is for.
//
// Resolution is two-phase. The vehicle id must be known before the
// formal argument registry exists, because it becomes the *default* of
// the formal vehicle_id argument. [ScanRaw] is the raw phase: it reads
// the invocation arguments directly for id:=<int>. Once the registry has
// been declared (with that default) and resolved, [Resolve] is the
// formal phase and is the single source of truth for every downstream
// consumer.
package identity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pegasus-robotics/pegasus/lib/launcharg"
)

// DefaultID is the vehicle id used when none is given.
const DefaultID = 1

// DefaultNamespace is the namespace prefix used when none is given.
const DefaultNamespace = "drone"

// Identity is a resolved vehicle identity.
type Identity struct {
	ID        int    `json:"id"`
	Namespace string `json:"namespace"`
}

// Scope returns the namespace every process of this vehicle runs in:
// the namespace prefix followed directly by the id ("drone" + 3 is
// "drone3"). There is no separator; the external components address
// their topics with exactly this form.
func (i Identity) Scope() string {
	return i.Namespace + strconv.Itoa(i.ID)
}

// ParseError reports a malformed id override.
type ParseError struct {
	// Arg is the raw invocation argument, e.g. "vehicle_id:=abc".
	Arg   string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed vehicle id in %q: %v", e.Arg, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ScanRaw is the raw phase. It returns the integer given as key:=<int>
// in rawArgs (the last occurrence wins), or defaultID when the key is
// absent. A value that is not a non-negative integer is a *ParseError;
// it is never replaced by the default.
func ScanRaw(rawArgs []string, key string, defaultID int) (int, error) {
	id := defaultID
	prefix := key + launcharg.Separator
	for _, arg := range rawArgs {
		value, found := strings.CutPrefix(arg, prefix)
		if !found {
			continue
		}
		parsed, err := ParseID(value)
		if err != nil {
			return 0, &ParseError{Arg: arg, Value: value, Err: err}
		}
		id = parsed
	}
	return id, nil
}

// ParseID parses a vehicle id. The text must be the canonical decimal
// form of the id ("3", not "03" or "+3"): the same text is substituted
// into namespaces and delegate bindings, so it has to agree with
// [Identity.Scope].
func ParseID(value string) (int, error) {
	id, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", value)
	}
	if id < 0 {
		return 0, fmt.Errorf("%d is negative", id)
	}
	if canonical := strconv.Itoa(id); canonical != value {
		return 0, fmt.Errorf("%q is not in canonical form (write %s)", value, canonical)
	}
	return id, nil
}

// Resolve is the formal phase: it reads the id and namespace arguments
// from a completed resolution.
func Resolve(resolution *launcharg.Resolution, idArgument, namespaceArgument string) (Identity, error) {
	rawID, err := resolution.Get(idArgument)
	if err != nil {
		return Identity{}, fmt.Errorf("resolving vehicle id: %w", err)
	}
	id, err := ParseID(rawID)
	if err != nil {
		return Identity{}, &ParseError{Arg: idArgument + launcharg.Separator + rawID, Value: rawID, Err: err}
	}
	namespace, err := resolution.Get(namespaceArgument)
	if err != nil {
		return Identity{}, fmt.Errorf("resolving vehicle namespace: %w", err)
	}
	return Identity{ID: id, Namespace: namespace}, nil
}
