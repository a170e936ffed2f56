// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ring implements the append-only, per-sensor sample log with a
// moving "persisted up to" watermark. One Ring is written by exactly one
// SamplerTask and drained by exactly one AutosaveTask; the handoff between
// them is the save_end cursor.
package ring

import (
	"sync"

	"github.com/srp-avionics/flightcore/sensor"
)

// Sample is one sensor readout: a monotonically increasing per-sensor
// serial, a wall-clock timestamp in fractional seconds (for the CSV column
// and log correlation only — flight-logic timing uses time.Time elsewhere),
// and the readout value itself.
type Sample struct {
	Serial    int64
	Timestamp float64
	Reading   sensor.Reading
}

// Ring is the in-memory sample log for one sensor. The zero value is an
// empty ring ready to use.
//
// The spec's concurrency note asks for either a lock or a sequence-counter
// protocol between the single writer and single reader; this implementation
// uses a mutex, which is both simpler and sufficient given the low sample
// rates involved (tens of Hz, not Hz in the megahertz sense SamplerTask
// would need lock-free code for).
type Ring struct {
	mu      sync.Mutex
	samples []Sample
	saveEnd int
}

// New returns an empty Ring.
func New() *Ring {
	return &Ring{}
}

// Append adds a sample to the end of the log. Called only by the owning
// SamplerTask.
func (r *Ring) Append(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
}

// Len reports the number of samples appended so far.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// PeekTail returns a copy of the half-open range [save_end, length) without
// advancing save_end. AutosaveTask uses this so that a failed write can be
// retried on the next window instead of silently dropping samples: only a
// successful write should call Commit.
func (r *Ring) PeekTail() (start, end int, tail []Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	start = r.saveEnd
	end = len(r.samples)
	tail = append([]Sample(nil), r.samples[start:end]...)
	return start, end, tail
}

// Commit advances save_end to end, provided end is not behind the current
// cursor. Called after a PeekTail's samples have been durably written.
func (r *Ring) Commit(end int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if end > r.saveEnd {
		r.saveEnd = end
	}
}

// DrainTail is PeekTail immediately followed by Commit: it returns the
// unpersisted tail and advances save_end unconditionally, whether or not the
// caller goes on to persist the returned samples. The autosave task and
// autosave.FinalFlush use PeekTail and Commit instead.
func (r *Ring) DrainTail() (start, end int, tail []Sample) {
	start, end, tail = r.PeekTail()
	r.Commit(end)
	return start, end, tail
}

// SaveEnd reports the current persisted-prefix watermark.
func (r *Ring) SaveEnd() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveEnd
}
