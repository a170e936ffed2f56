// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hw

import (
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestProberSensorsPresentAllAcknowledge(t *testing.T) {
	addrs := []uint16{0x48, 0x60}
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: addrs[0], W: nil, R: []byte{0}},
			{Addr: addrs[1], W: nil, R: []byte{0}},
		},
		DontPanic: true,
	}
	defer bus.Close()

	p := NewProber(bus, addrs)
	present, err := p.SensorsPresent()
	if err != nil {
		t.Fatalf("SensorsPresent() error = %v", err)
	}
	if !present {
		t.Error("SensorsPresent() = false, want true when every address acknowledges")
	}
}

func TestProberSensorsPresentOneMissing(t *testing.T) {
	addrs := []uint16{0x48, 0x60}
	// Only the first address has a scripted response; the second Tx has
	// nothing left to play back and Playback (DontPanic) returns an error
	// instead, which SensorsPresent folds into a plain false.
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: addrs[0], W: nil, R: []byte{0}},
		},
		DontPanic: true,
	}
	defer bus.Close()

	p := NewProber(bus, addrs)
	present, err := p.SensorsPresent()
	if err != nil {
		t.Fatalf("SensorsPresent() error = %v, want nil (absence is reported via the bool)", err)
	}
	if present {
		t.Error("SensorsPresent() = true, want false when an address doesn't respond")
	}
}
