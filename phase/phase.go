// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package phase implements the flight phase state machine: the seven
// phases of spec.md §3, the transition table of §4.6, and the Controller
// that drives sampler and autosave tasks, the deploy vote, and the LED
// pattern as a function of discrete GPIO inputs and the latest altimetry.
package phase

import "fmt"

// Phase is one of the seven operational modes a rocket passes through from
// power-on to post-landing shutdown.
type Phase uint8

const (
	SystemsCheck Phase = iota
	ErrorPhase
	Idle
	Armed
	Launched
	Deployed
	Landed
)

var phaseNames = [...]string{
	SystemsCheck: "SYSTEMS_CHECK",
	ErrorPhase:   "ERROR",
	Idle:         "IDLE",
	Armed:        "ARMED",
	Launched:     "LAUNCHED",
	Deployed:     "DEPLOYED",
	Landed:       "LANDED",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", p)
}

// ParsePhase maps a config state_intervals key back to a Phase.
func ParsePhase(name string) (Phase, error) {
	for p, n := range phaseNames {
		if n == name {
			return Phase(p), nil
		}
	}
	return 0, fmt.Errorf("phase: unrecognized phase name %q", name)
}
