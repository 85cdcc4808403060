// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for code that waits on deadlines.
// Production code injects [Real]; tests inject [Fake] and advance time
// explicitly, so grace periods never make a test sleep.
package clock

import "time"

// Clock is the subset of the time package the engine waits on.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d has
	// elapsed. If d <= 0 the channel receives immediately.
	After(d time.Duration) <-chan time.Time
}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
