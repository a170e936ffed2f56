// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package stopflag provides the single write-once-by-the-controller,
// read-by-every-worker cancellation flag described in the flight control
// core's concurrency model: there are no per-task contexts, one flag signals
// every sampler and autosave task to stop appending and exit its loop.
package stopflag

import "sync/atomic"

// Flag is a cooperative stop signal. The zero value is unset.
type Flag struct {
	set atomic.Bool
}

// Assert raises the flag. Idempotent.
func (f *Flag) Assert() {
	f.set.Store(true)
}

// IsSet reports whether Assert has been called.
func (f *Flag) IsSet() bool {
	return f.set.Load()
}
