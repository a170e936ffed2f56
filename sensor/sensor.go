// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sensor declares the immutable descriptor for one logical sensor
// (name, sampling period, readout function handle) and the Reading value it
// produces: either a scalar integer (the barometer's raw pressure count) or
// a signed 3-tuple (accelerometer, gyro, and magnetometer axes).
//
// No failure is modeled at this layer beyond what Readout itself returns; a
// sensor that never responds is an unrecoverable fault the host's watchdog
// is expected to catch, not this package.
package sensor

import (
	"fmt"
	"strconv"
	"time"
)

// Reading is either a single scalar LSB value or a 3-axis tuple of them.
// The zero value is the scalar reading 0, matching the teacher's pattern of
// small value types with a String method for CSV/log rendering (see
// adxl345.Acceleration).
type Reading struct {
	triple   [3]int32
	isTriple bool
}

// Scalar builds a single-value Reading, e.g. a barometer's raw count.
func Scalar(v int32) Reading {
	return Reading{triple: [3]int32{v, 0, 0}}
}

// Triple builds a 3-axis Reading, e.g. accelerometer/gyro/magnetometer axes.
func Triple(x, y, z int32) Reading {
	return Reading{triple: [3]int32{x, y, z}, isTriple: true}
}

// AsScalar returns the reading's value and true if it was built with Scalar.
func (r Reading) AsScalar() (int32, bool) {
	if r.isTriple {
		return 0, false
	}
	return r.triple[0], true
}

// AsTriple returns the reading's three axes and true if it was built with Triple.
func (r Reading) AsTriple() ([3]int32, bool) {
	return r.triple, r.isTriple
}

// String renders the reading the way the persisted CSV expects it: a bare
// integer for a scalar, or a bracketed, comma-separated triple.
func (r Reading) String() string {
	if r.isTriple {
		return fmt.Sprintf("[%d, %d, %d]", r.triple[0], r.triple[1], r.triple[2])
	}
	return strconv.FormatInt(int64(r.triple[0]), 10)
}

// Spec is the immutable descriptor of one logical sensor. Interval must be
// positive and Name unique across the set it belongs to; both are enforced
// by NewSet, not by the zero-value constructor, so tests can build a bare
// Spec without going through validation.
type Spec struct {
	Name     string
	Interval time.Duration
	Readout  func() (Reading, error)
}

// Set is a validated, immutable collection of Specs keyed by name.
type Set struct {
	order []Spec
	byName map[string]Spec
}

// NewSet validates that every Spec has a positive interval and a name
// unique within specs, then returns an immutable Set preserving input order.
func NewSet(specs []Spec) (*Set, error) {
	byName := make(map[string]Spec, len(specs))
	order := make([]Spec, 0, len(specs))
	for _, s := range specs {
		if s.Interval <= 0 {
			return nil, fmt.Errorf("sensor: %q: interval must be positive, got %s", s.Name, s.Interval)
		}
		if s.Readout == nil {
			return nil, fmt.Errorf("sensor: %q: readout function is required", s.Name)
		}
		if _, dup := byName[s.Name]; dup {
			return nil, fmt.Errorf("sensor: duplicate sensor name %q", s.Name)
		}
		byName[s.Name] = s
		order = append(order, s)
	}
	return &Set{order: order, byName: byName}, nil
}

// All returns the Specs in the order they were declared.
func (s *Set) All() []Spec {
	out := make([]Spec, len(s.order))
	copy(out, s.order)
	return out
}

// ByName looks up a Spec by name.
func (s *Set) ByName(name string) (Spec, bool) {
	spec, ok := s.byName[name]
	return spec, ok
}

// Baro is the reserved name the spec gives the sensor that also feeds
// altimetry: whichever Spec carries this name has its AltimetryEstimator
// updated in-line by the sampler after every append.
const Baro = "baro"
