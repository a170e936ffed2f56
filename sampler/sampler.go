// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sampler runs the periodic per-sensor readout task described in
// spec.md §4.3: absolute-deadline scheduling so a slow readout never causes
// the sampler to drift. After a missed deadline the loop reads again without
// sleeping until it is back on its original schedule.
package sampler

import (
	"log"
	"time"

	"github.com/srp-avionics/flightcore/altimetry"
	"github.com/srp-avionics/flightcore/ring"
	"github.com/srp-avionics/flightcore/sensor"
	"github.com/srp-avionics/flightcore/internal/stopflag"
)

// Task periodically reads one sensor and appends the result to its Ring. If
// Spec.Name is sensor.Baro, it additionally feeds Altimetry after every
// successful append, so the controller always sees altimetry derived from
// the freshest barometer sample.
type Task struct {
	Spec      sensor.Spec
	Ring      *ring.Ring
	Altimetry *altimetry.Estimator // nil unless Spec.Name == sensor.Baro
	Stop      *stopflag.Flag
	Log       *log.Logger

	// Now is the clock used for deadline scheduling and sample
	// timestamps; defaults to time.Now if nil. Exposed for tests that need
	// deterministic timing.
	Now func() time.Time
}

func (t *Task) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// Run executes the absolute-deadline sampling loop until Stop is asserted.
// It never returns an error: a readout failure is logged and that tick's
// sample is skipped, per spec.md §7 ("sensor readout errors during flight
// are not recovered ... the sample for that tick is skipped").
func (t *Task) Run() {
	var serial int64
	next := t.now()
	for !t.Stop.IsSet() {
		reading, err := t.Spec.Readout()
		if err != nil {
			t.Log.Printf("sampler %s: readout error, skipping tick: %v", t.Spec.Name, err)
		} else {
			serial++
			wallClock := t.now()
			t.Ring.Append(ring.Sample{
				Serial:    serial,
				Timestamp: float64(wallClock.UnixNano()) / 1e9,
				Reading:   reading,
			})
			if t.Altimetry != nil {
				if raw, ok := reading.AsScalar(); ok {
					if uerr := t.Altimetry.Update(raw); uerr != nil {
						t.Log.Printf("sampler %s: altimetry update: %v", t.Spec.Name, uerr)
					}
				} else {
					t.Log.Printf("sampler %s: expected a scalar barometer reading, got a triple", t.Spec.Name)
				}
			}
		}

		next = next.Add(t.Spec.Interval)
		if d := next.Sub(t.now()); d > 0 {
			time.Sleep(d)
		}
	}
}
