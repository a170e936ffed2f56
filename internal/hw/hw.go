// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hw binds the flight control core's discrete GPIO contract (spec.md
// §6) to periph.io/x/conn/v3: pin resolution via gpioreg, pull-up
// configuration on every input, and the active-low/active-high polarity
// translation the core itself never has to know about.
package hw

import (
	"fmt"
	"os/exec"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// PinConfig names the six board pins of spec.md §6 (board numbering, as
// accepted by gpioreg.ByName - e.g. "GPIO17").
type PinConfig struct {
	BatteryLevel string
	ArmSwitch    string
	Liftoff      string
	DeployVote   string
	GreenLED     string
	RedLED       string
}

// Board resolves every configured pin once at startup and exposes the
// phase.Inputs/phase.Outputs contract plus a pair of led.Output adapters.
type Board struct {
	battery    gpio.PinIn
	armSwitch  gpio.PinIn
	liftoff    gpio.PinIn
	deployVote gpio.PinOut
	green      gpio.PinOut
	red        gpio.PinOut
}

// NewBoard resolves every pin in cfg, configures inputs with an internal
// pull-up and no edge detection (the core polls, it never waits on an
// interrupt), and drives deploy_vote_pin and both LEDs to their inactive
// level. Call this only after host.Init() has run.
func NewBoard(cfg PinConfig) (*Board, error) {
	resolve := func(name string) (gpio.PinIO, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("hw: no such pin %q", name)
		}
		return p, nil
	}

	battery, err := resolve(cfg.BatteryLevel)
	if err != nil {
		return nil, err
	}
	if err := battery.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("hw: configure battery_level_pin: %w", err)
	}

	armSwitch, err := resolve(cfg.ArmSwitch)
	if err != nil {
		return nil, err
	}
	if err := armSwitch.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("hw: configure arm_switch_pin: %w", err)
	}

	liftoff, err := resolve(cfg.Liftoff)
	if err != nil {
		return nil, err
	}
	if err := liftoff.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("hw: configure liftoff_pin: %w", err)
	}

	deployVote, err := resolve(cfg.DeployVote)
	if err != nil {
		return nil, err
	}
	if err := deployVote.Out(gpio.High); err != nil { // HIGH = not voting
		return nil, fmt.Errorf("hw: configure deploy_vote_pin: %w", err)
	}

	green, err := resolve(cfg.GreenLED)
	if err != nil {
		return nil, err
	}
	if err := green.Out(gpio.High); err != nil { // LEDs are active-low: HIGH = off
		return nil, fmt.Errorf("hw: configure green_LED_pin: %w", err)
	}

	red, err := resolve(cfg.RedLED)
	if err != nil {
		return nil, err
	}
	if err := red.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("hw: configure red_LED_pin: %w", err)
	}

	return &Board{
		battery:    battery,
		armSwitch:  armSwitch,
		liftoff:    liftoff,
		deployVote: deployVote.(gpio.PinOut),
		green:      green.(gpio.PinOut),
		red:        red.(gpio.PinOut),
	}, nil
}

// BatteryFull implements phase.Inputs. battery_level_pin is active-low.
func (b *Board) BatteryFull() (bool, error) {
	return b.battery.Read() == gpio.Low, nil
}

// ArmSwitchOn implements phase.Inputs. arm_switch_pin is active-low.
func (b *Board) ArmSwitchOn() (bool, error) {
	return b.armSwitch.Read() == gpio.Low, nil
}

// LiftoffSignal implements phase.Inputs. liftoff_pin is active-high.
func (b *Board) LiftoffSignal() (bool, error) {
	return b.liftoff.Read() == gpio.High, nil
}

// VoteDeploy implements phase.Outputs. Driving the pin low is idempotent:
// calling this more than once has no additional effect, matching spec.md
// §4.6's "the vote is never retracted" contract.
func (b *Board) VoteDeploy() error {
	return b.deployVote.Out(gpio.Low)
}

// Shutdown implements phase.Outputs for real hardware: it shells out to the
// same command the original flight software used.
func (b *Board) Shutdown() error {
	return exec.Command("sudo", "shutdown", "-h", "now").Run()
}

// GreenLED returns a led.Output wrapping the green LED pin.
func (b *Board) GreenLED() *ledPin { return &ledPin{pin: b.green} }

// RedLED returns a led.Output wrapping the red LED pin.
func (b *Board) RedLED() *ledPin { return &ledPin{pin: b.red} }

// ledPin adapts a gpio.PinOut (active-low) to led.Output's logical on/off.
type ledPin struct {
	pin gpio.PinOut
}

// Set implements led.Output. on=true drives the pin low (lit); active-low.
func (l *ledPin) Set(on bool) error {
	if on {
		return l.pin.Out(gpio.Low)
	}
	return l.pin.Out(gpio.High)
}
