// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package led

import (
	"io"
	"log"
	"testing"
	"time"
)

type recordingOutput struct {
	sets []bool
}

func (r *recordingOutput) Set(on bool) error {
	r.sets = append(r.sets, on)
	return nil
}

func (r *recordingOutput) last() bool {
	if len(r.sets) == 0 {
		return false
	}
	return r.sets[len(r.sets)-1]
}

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestApplyIdleIsGreenSolid(t *testing.T) {
	green, red := &recordingOutput{}, &recordingOutput{}
	b := NewBlinker(green, red, time.Millisecond, discardLogger())
	b.Apply(PatternIdle, 100*time.Millisecond)

	if !green.last() {
		t.Error("green LED not on for PatternIdle")
	}
	if red.last() {
		t.Error("red LED on for PatternIdle, want off")
	}
}

func TestApplyErrorBlinksRed(t *testing.T) {
	green, red := &recordingOutput{}, &recordingOutput{}
	now := time.Now()
	b := NewBlinker(green, red, time.Millisecond, discardLogger())
	b.Now = func() time.Time { return now }
	b.Apply(PatternError, 10*time.Millisecond)

	b.step(&b.red)
	if !red.last() {
		t.Fatal("red LED not lit immediately on entering blink mode")
	}

	now = now.Add(15 * time.Millisecond)
	b.step(&b.red)
	if red.last() {
		t.Error("red LED still lit after half period elapsed, want toggled off")
	}

	if green.last() {
		t.Error("green LED on during PatternError, want off")
	}
}

func TestApplyLaunchedAlternatesGreenAndRed(t *testing.T) {
	green, red := &recordingOutput{}, &recordingOutput{}
	now := time.Now()
	b := NewBlinker(green, red, time.Millisecond, discardLogger())
	b.Now = func() time.Time { return now }
	b.Apply(PatternLaunchedAlternate, 10*time.Millisecond)

	// Immediately: green just entered blink (lit), red has a phase offset
	// equal to one half period so it should still read as due-to-toggle
	// sooner than green on the next step half a period later.
	if !green.last() {
		t.Fatal("green not lit at start of alternate pattern")
	}

	now = now.Add(10 * time.Millisecond)
	b.step(&b.green)
	b.step(&b.red)
	greenAfter := green.last()
	redAfter := red.last()
	if greenAfter == redAfter {
		t.Errorf("green (%v) and red (%v) in same state after one half period, want opposite (alternating)", greenAfter, redAfter)
	}
}

func TestApplyOffTurnsBothOff(t *testing.T) {
	green, red := &recordingOutput{}, &recordingOutput{}
	b := NewBlinker(green, red, time.Millisecond, discardLogger())
	b.Apply(PatternDeployed, 10*time.Millisecond)
	b.Apply(PatternOff, 10*time.Millisecond)

	if green.last() || red.last() {
		t.Errorf("green=%v red=%v after PatternOff, want both false", green.last(), red.last())
	}
}

func TestApplyRepeatedCallsDoNotRestartBlinkTimer(t *testing.T) {
	green, red := &recordingOutput{}, &recordingOutput{}
	now := time.Now()
	b := NewBlinker(green, red, time.Millisecond, discardLogger())
	b.Now = func() time.Time { return now }
	b.Apply(PatternError, 10*time.Millisecond)
	b.step(&b.red) // the shared ticker's first step starts the blink timer

	// Half the half-period elapses, then Apply is called again with the
	// same pattern every tick, the way a phase handler that stays in one
	// phase for many ticks does. This must not push lastToggle forward.
	now = now.Add(5 * time.Millisecond)
	b.Apply(PatternError, 10*time.Millisecond)
	b.Apply(PatternError, 10*time.Millisecond)

	now = now.Add(5 * time.Millisecond)
	b.step(&b.red)
	if red.last() {
		t.Error("red LED still lit after a full half period, want toggled off despite repeated Apply calls")
	}
}

func TestRunStopsCleanly(t *testing.T) {
	green, red := &recordingOutput{}, &recordingOutput{}
	b := NewBlinker(green, red, time.Millisecond, discardLogger())
	done := make(chan struct{})
	go func() {
		b.Run()
		close(done)
	}()
	b.Apply(PatternError, 2*time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	b.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after Stop()")
	}
}
