// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hw

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strings"
)

// DryRunInputs replaces the four discrete GPIO reads with stdin prompts,
// per spec.md §6 ("dry_run ... hardware GPIO ... replaced by stdin
// prompts"). Each prompt accepts "1"/"0", "true"/"false", or "y"/"n".
type DryRunInputs struct {
	r      *bufio.Reader
	w      io.Writer
	prompt func(label string) (bool, error)
}

// NewDryRunInputs builds a DryRunInputs reading from in and echoing prompts
// to out (typically os.Stdin and os.Stdout).
func NewDryRunInputs(in io.Reader, out io.Writer) *DryRunInputs {
	d := &DryRunInputs{r: bufio.NewReader(in), w: out}
	d.prompt = d.ask
	return d
}

func (d *DryRunInputs) ask(label string) (bool, error) {
	fmt.Fprintf(d.w, "%s (1/0): ", label)
	line, err := d.r.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("hw: dry-run prompt %q: %w", label, err)
	}
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "1", "true", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (d *DryRunInputs) BatteryFull() (bool, error)    { return d.prompt("battery level") }
func (d *DryRunInputs) SensorsPresent() (bool, error) { return d.prompt("sensors present") }
func (d *DryRunInputs) ArmSwitchOn() (bool, error)    { return d.prompt("arm switch") }
func (d *DryRunInputs) LiftoffSignal() (bool, error)  { return d.prompt("liftoff signal") }

// DryRunOutputs replaces GPIO writes with log lines; Shutdown is a no-op
// that lets main exit the process normally instead of invoking the OS
// shutdown command, matching spec.md §6's "the OS shutdown is invoked only
// in non-dry-run mode".
type DryRunOutputs struct {
	w io.Writer
}

// NewDryRunOutputs builds a DryRunOutputs echoing to w.
func NewDryRunOutputs(w io.Writer) *DryRunOutputs { return &DryRunOutputs{w: w} }

func (d *DryRunOutputs) VoteDeploy() error {
	fmt.Fprintln(d.w, "[dry-run] deploy vote asserted")
	return nil
}

func (d *DryRunOutputs) Shutdown() error {
	fmt.Fprintln(d.w, "[dry-run] shutdown requested, exiting instead")
	return nil
}

// dryRunOutput is a led.Output that writes one "[dry-run] <label> LED on/off"
// line to an io.Writer per state change; internal/ledsim supersedes it for the full console emulator, but
// this stays available as the minimal dependency-free fallback when stdout
// isn't a terminal.
type dryRunOutput struct {
	w     io.Writer
	label string
}

// NewDryRunLED returns a minimal led.Output that just logs state changes.
func NewDryRunLED(w io.Writer, label string) *dryRunOutput {
	return &dryRunOutput{w: w, label: label}
}

func (o *dryRunOutput) Set(on bool) error {
	state := "off"
	if on {
		state = "on"
	}
	fmt.Fprintf(o.w, "[dry-run] %s LED %s\n", o.label, state)
	return nil
}

// DryRunSensor returns a readout function producing the uniform [0, 100]
// integer PRNG spec.md §6 specifies for dry-run sensor data. Each sensor
// gets its own *rand.Rand so concurrent samplers never share mutable PRNG
// state.
func DryRunSensor(seed int64) func() (int32, error) {
	rng := rand.New(rand.NewSource(seed))
	return func() (int32, error) {
		return rng.Int31n(101), nil
	}
}
