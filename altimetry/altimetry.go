// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package altimetry implements the recursive filter that turns raw
// barometer readings into smoothed pressure, altitude, and smoothed
// vertical velocity. It is written by exactly one goroutine (the baro
// SamplerTask) and read by exactly one other (the PhaseController); a
// Snapshot is published atomically after every Update so the reader never
// observes a torn (altitude, velocity) pair.
package altimetry

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNotCalibrated is returned by Update if Calibrate has not yet completed.
var ErrNotCalibrated = errors.New("altimetry: not calibrated")

// ErrInvalid marks a pressure excursion that produced a non-positive
// pressure or a non-finite altitude/velocity. The spec leaves open whether
// this should abort the flight to LANDED or ERROR; this package only
// reports the condition. sampler.Task logs it and keeps sampling, and
// phase.Controller keeps using the last good Snapshot (see DESIGN.md).
var ErrInvalid = errors.New("altimetry: invalid (non-positive pressure or non-finite altitude/velocity)")

// Config holds the physical constants and smoothing factors from spec.md §6.
type Config struct {
	ExpFactorP  float64 // exponential smoothing factor for pressure, in (0, 1]
	ExpFactorVV float64 // exponential smoothing factor for vertical velocity, in (0, 1]
	T0          float64 // reference temperature, Kelvin
	A           float64 // lapse rate, K/m
	R           float64 // specific gas constant, J/(kg*K)
	G0          float64 // standard gravity, m/s^2

	BaroInterval time.Duration // sampling period of the barometer, for the finite-difference vv_raw term
}

// Validate checks the numeric ranges spec.md §3 requires.
func (c Config) Validate() error {
	if c.ExpFactorP <= 0 || c.ExpFactorP > 1 {
		return fmt.Errorf("altimetry: exp_factor_p must be in (0, 1], got %v", c.ExpFactorP)
	}
	if c.ExpFactorVV <= 0 || c.ExpFactorVV > 1 {
		return fmt.Errorf("altimetry: exp_factor_vv must be in (0, 1], got %v", c.ExpFactorVV)
	}
	if c.BaroInterval <= 0 {
		return fmt.Errorf("altimetry: baro interval must be positive, got %s", c.BaroInterval)
	}
	return nil
}

// Snapshot is the consistent (altitude, vertical velocity) pair the
// controller consults. Valid is false until calibration has completed.
type Snapshot struct {
	Alt   float64
	VV    float64
	Valid bool
}

// Estimator holds the calibration reference pressure p0 and the two-element
// sliding windows of smoothed pressure, altitude, and vertical velocity
// described in spec.md §3/§4.5.
type Estimator struct {
	cfg Config

	mu         sync.Mutex
	p0         float64
	calibrated bool
	pPrev, p   float64
	altPrev    float64
	vvPrev     float64

	snap atomic.Pointer[Snapshot]
}

// New returns an uncalibrated Estimator. Calibrate must run before Update.
func New(cfg Config) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Estimator{cfg: cfg}
	e.snap.Store(&Snapshot{})
	return e, nil
}

// Calibrate takes n successive raw readings via readRaw, sleeping interval
// between them, converts each to Pascal, and sets p0 to their arithmetic
// mean. It then initializes p = p0, alt = 0, vv = 0 and publishes the first
// valid Snapshot. n defaults to 50 if non-positive, matching the source
// program's calibration count.
func (e *Estimator) Calibrate(n int, interval time.Duration, readRaw func() (int32, error)) error {
	if n <= 0 {
		n = 50
	}
	var sum float64
	for i := 0; i < n; i++ {
		raw, err := readRaw()
		if err != nil {
			return fmt.Errorf("altimetry: calibration reading %d/%d: %w", i+1, n, err)
		}
		sum += rawToPascal(raw)
		if interval > 0 {
			time.Sleep(interval)
		}
	}
	p0 := sum / float64(n)
	if p0 <= 0 {
		return fmt.Errorf("%w: calibration produced p0=%v", ErrInvalid, p0)
	}

	e.mu.Lock()
	e.p0 = p0
	e.pPrev, e.p = p0, p0
	e.altPrev = 0
	e.vvPrev = 0
	e.calibrated = true
	e.mu.Unlock()

	e.snap.Store(&Snapshot{Alt: 0, VV: 0, Valid: true})
	return nil
}

// Update feeds one new raw barometer reading through the filter described in
// spec.md §4.5, shifts the two-element windows, and publishes the new
// Snapshot. It returns ErrNotCalibrated before Calibrate completes, and
// ErrInvalid if the raw reading is a non-positive pressure or the result is
// numerically unusable; on either error the previous Snapshot stays published.
func (e *Estimator) Update(raw int32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.calibrated {
		return ErrNotCalibrated
	}

	pRaw := rawToPascal(raw)
	if pRaw <= 0 {
		return fmt.Errorf("%w: raw pressure %v Pa", ErrInvalid, pRaw)
	}
	pNew := e.cfg.ExpFactorP*pRaw + (1-e.cfg.ExpFactorP)*e.p
	if pNew <= 0 || e.p0 <= 0 {
		return fmt.Errorf("%w: p=%v p0=%v", ErrInvalid, pNew, e.p0)
	}

	exponent := -(e.cfg.R * e.cfg.A) / e.cfg.G0
	altNew := (e.cfg.T0 / e.cfg.A) * (math.Pow(pNew/e.p0, exponent) - 1)

	vvRaw := (altNew - e.altPrev) / e.cfg.BaroInterval.Seconds()
	vvNew := e.cfg.ExpFactorVV*vvRaw + (1-e.cfg.ExpFactorVV)*e.vvPrev

	if !isFinite(altNew) || !isFinite(vvNew) {
		return fmt.Errorf("%w: alt=%v vv=%v", ErrInvalid, altNew, vvNew)
	}

	e.pPrev, e.p = e.p, pNew
	e.altPrev = altNew
	e.vvPrev = vvNew

	e.snap.Store(&Snapshot{Alt: altNew, VV: vvNew, Valid: true})
	return nil
}

// Latest returns the most recently published Snapshot. Safe to call
// concurrently with Update.
func (e *Estimator) Latest() Snapshot {
	return *e.snap.Load()
}

// P0 returns the calibration reference pressure, or 0 before calibration.
func (e *Estimator) P0() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.p0
}

func rawToPascal(raw int32) float64 {
	return float64(raw) / 40.96
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
