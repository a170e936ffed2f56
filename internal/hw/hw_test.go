// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hw

import (
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// newTestBoard builds a Board directly from gpiotest.Pin fakes, bypassing
// gpioreg.ByName and host.Init() (NewBoard's resolve/configure path is
// exercised on real hardware only; the polarity translation it wires up is
// what's worth testing here).
func newTestBoard() (*Board, *gpiotest.Pin, *gpiotest.Pin, *gpiotest.Pin, *gpiotest.Pin, *gpiotest.Pin) {
	battery := &gpiotest.Pin{N: "battery", L: gpio.High}
	armSwitch := &gpiotest.Pin{N: "arm", L: gpio.High}
	liftoff := &gpiotest.Pin{N: "liftoff", L: gpio.Low}
	deployVote := &gpiotest.Pin{N: "deploy", L: gpio.High}
	green := &gpiotest.Pin{N: "green", L: gpio.High}

	b := &Board{
		battery:    battery,
		armSwitch:  armSwitch,
		liftoff:    liftoff,
		deployVote: deployVote,
		green:      green,
		red:        &gpiotest.Pin{N: "red", L: gpio.High},
	}
	return b, battery, armSwitch, liftoff, deployVote, green
}

func TestBoardBatteryFullIsActiveLow(t *testing.T) {
	b, battery, _, _, _, _ := newTestBoard()

	battery.L = gpio.Low
	full, err := b.BatteryFull()
	if err != nil || !full {
		t.Errorf("BatteryFull() = %v, %v, want true, nil when pin reads Low", full, err)
	}

	battery.L = gpio.High
	full, err = b.BatteryFull()
	if err != nil || full {
		t.Errorf("BatteryFull() = %v, %v, want false, nil when pin reads High", full, err)
	}
}

func TestBoardArmSwitchOnIsActiveLow(t *testing.T) {
	b, _, armSwitch, _, _, _ := newTestBoard()

	armSwitch.L = gpio.Low
	on, err := b.ArmSwitchOn()
	if err != nil || !on {
		t.Errorf("ArmSwitchOn() = %v, %v, want true, nil when pin reads Low", on, err)
	}

	armSwitch.L = gpio.High
	on, err = b.ArmSwitchOn()
	if err != nil || on {
		t.Errorf("ArmSwitchOn() = %v, %v, want false, nil when pin reads High", on, err)
	}
}

func TestBoardLiftoffSignalIsActiveHigh(t *testing.T) {
	b, _, _, liftoff, _, _ := newTestBoard()

	liftoff.L = gpio.High
	up, err := b.LiftoffSignal()
	if err != nil || !up {
		t.Errorf("LiftoffSignal() = %v, %v, want true, nil when pin reads High", up, err)
	}

	liftoff.L = gpio.Low
	up, err = b.LiftoffSignal()
	if err != nil || up {
		t.Errorf("LiftoffSignal() = %v, %v, want false, nil when pin reads Low", up, err)
	}
}

func TestBoardVoteDeployDrivesPinLowAndStaysLow(t *testing.T) {
	b, _, _, _, deployVote, _ := newTestBoard()

	if err := b.VoteDeploy(); err != nil {
		t.Fatalf("VoteDeploy() error = %v", err)
	}
	if deployVote.L != gpio.Low {
		t.Errorf("deploy_vote_pin = %v after VoteDeploy, want Low", deployVote.L)
	}

	// Voting again must not retract the vote (spec.md §4.6).
	if err := b.VoteDeploy(); err != nil {
		t.Fatalf("second VoteDeploy() error = %v", err)
	}
	if deployVote.L != gpio.Low {
		t.Errorf("deploy_vote_pin = %v after second VoteDeploy, want still Low", deployVote.L)
	}
}

func TestLEDPinSetIsActiveLow(t *testing.T) {
	b, _, _, _, _, green := newTestBoard()
	out := b.GreenLED()

	if err := out.Set(true); err != nil {
		t.Fatalf("Set(true) error = %v", err)
	}
	if green.L != gpio.Low {
		t.Errorf("green pin = %v after Set(true), want Low (lit)", green.L)
	}

	if err := out.Set(false); err != nil {
		t.Fatalf("Set(false) error = %v", err)
	}
	if green.L != gpio.High {
		t.Errorf("green pin = %v after Set(false), want High (off)", green.L)
	}
}
