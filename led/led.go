// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package led models the two status LEDs (green, red) as a small state
// machine driven by a single shared ticker, per spec.md §9's redesign note:
// the source spawned one goroutine per blinking LED; this implementation
// runs one Blinker goroutine regardless of how many LEDs are currently
// blinking.
package led

import (
	"log"
	"sync"
	"time"
)

// Output drives a single logical LED: Set(true) turns it on, Set(false)
// turns it off. Implementations translate this to the pin's actual active
// level (the LEDs are active-low per spec.md §6); Blinker only ever deals
// in the logical on/off sense.
type Output interface {
	Set(on bool) error
}

// Mode is one LED's current drive mode.
type Mode int

const (
	Off Mode = iota
	On
	Blinking
)

type ledState struct {
	out        Output
	mode       Mode
	halfPeriod time.Duration
	phase      time.Duration // offset added before the first toggle, used to make two LEDs alternate
	lastToggle time.Time
	lit        bool
}

// Pattern names the status indications spec.md and the original source's
// StatusLED assign to each phase, plus PatternOff (see SPEC_FULL.md,
// "Status LED semantics").
type Pattern int

const (
	PatternOff Pattern = iota
	PatternError               // red blinking
	PatternIdle                // green solid
	PatternArmedCalibrating    // green blinking slow (5x half period)
	PatternArmedRunning        // green blinking at half period
	PatternLaunchedAlternate   // green and red blinking out of phase
	PatternDeployed            // red solid
	PatternLanded              // green solid
)

// Blinker owns the green and red LED state and runs the single shared
// ticker that advances any LED currently in Blinking mode. mu guards every
// field below it: Run's goroutine toggles lit/lastToggle on every tick while
// Apply is called from the phase controller's goroutine.
type Blinker struct {
	resolution time.Duration
	log        *log.Logger
	tickerStop chan struct{}

	mu         sync.Mutex
	green, red ledState

	// applied and appliedHalfPeriod record the last pattern Apply actually
	// set, so a phase that calls Apply on every tick it remains in (e.g.
	// ErrorPhase, Landed) doesn't restart a blinking LED's toggle timer each
	// time; see setBlink's reset of lastToggle.
	applied           Pattern
	appliedHalfPeriod time.Duration
	hasApplied        bool

	Now func() time.Time
}

// NewBlinker returns a Blinker driving green and red. resolution is how
// often the shared ticker wakes to check whether a blinking LED is due to
// toggle; it should be well under the shortest half-period you intend to
// use (a few milliseconds is plenty for blink_half_period values measured
// in tenths of a second).
func NewBlinker(green, red Output, resolution time.Duration, log *log.Logger) *Blinker {
	return &Blinker{
		green:      ledState{out: green},
		red:        ledState{out: red},
		resolution: resolution,
		log:        log,
		tickerStop: make(chan struct{}),
	}
}

func (b *Blinker) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// Run drives the shared ticker loop. It returns when Stop is called.
func (b *Blinker) Run() {
	ticker := time.NewTicker(b.resolution)
	defer ticker.Stop()
	for {
		select {
		case <-b.tickerStop:
			return
		case <-ticker.C:
			b.mu.Lock()
			b.step(&b.green)
			b.step(&b.red)
			b.mu.Unlock()
		}
	}
}

// Stop halts the Run loop. Idempotent-unsafe: call it at most once.
func (b *Blinker) Stop() {
	close(b.tickerStop)
}

func (b *Blinker) step(s *ledState) {
	if s.mode != Blinking {
		return
	}
	now := b.now()
	if s.lastToggle.IsZero() {
		s.lastToggle = now.Add(-s.phase)
	}
	if now.Sub(s.lastToggle) >= s.halfPeriod {
		s.lit = !s.lit
		s.lastToggle = now
		if err := s.out.Set(s.lit); err != nil {
			b.log.Printf("led: set output: %v", err)
		}
	}
}

func (b *Blinker) setOff(s *ledState) {
	s.mode = Off
	s.lit = false
	if err := s.out.Set(false); err != nil {
		b.log.Printf("led: set output: %v", err)
	}
}

func (b *Blinker) setOn(s *ledState) {
	s.mode = On
	s.lit = true
	if err := s.out.Set(true); err != nil {
		b.log.Printf("led: set output: %v", err)
	}
}

func (b *Blinker) setBlink(s *ledState, halfPeriod, phaseOffset time.Duration) {
	s.mode = Blinking
	s.halfPeriod = halfPeriod
	s.phase = phaseOffset
	s.lastToggle = time.Time{}
	s.lit = true
	if err := s.out.Set(true); err != nil {
		b.log.Printf("led: set output: %v", err)
	}
}

// Apply sets both LEDs to the given Pattern. halfPeriod is the nominal
// blink_half_period from Config; patterns that slow the blink (e.g.
// calibrating) scale it themselves.
//
// Apply is a no-op if p and halfPeriod match the last applied pattern: a
// phase handler that calls Apply on every tick it remains in (ErrorPhase,
// Landed) must not restart a blinking LED's half-period timer every tick,
// or the LED never completes a toggle when the phase's own tick interval
// is shorter than or comparable to the blink half-period.
func (b *Blinker) Apply(p Pattern, halfPeriod time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.hasApplied && b.applied == p && b.appliedHalfPeriod == halfPeriod {
		return
	}
	b.applied = p
	b.appliedHalfPeriod = halfPeriod
	b.hasApplied = true

	switch p {
	case PatternOff:
		b.setOff(&b.green)
		b.setOff(&b.red)
	case PatternError:
		b.setOff(&b.green)
		b.setBlink(&b.red, halfPeriod, 0)
	case PatternIdle:
		b.setOff(&b.red)
		b.setOn(&b.green)
	case PatternArmedCalibrating:
		b.setOff(&b.red)
		b.setBlink(&b.green, 5*halfPeriod, 0)
	case PatternArmedRunning:
		b.setOff(&b.red)
		b.setBlink(&b.green, halfPeriod, 0)
	case PatternLaunchedAlternate:
		b.setBlink(&b.green, halfPeriod, 0)
		b.setBlink(&b.red, halfPeriod, halfPeriod)
	case PatternDeployed:
		b.setOff(&b.green)
		b.setOn(&b.red)
	case PatternLanded:
		b.setOff(&b.red)
		b.setOn(&b.green)
	}
}
