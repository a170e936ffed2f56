// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hw

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// The IMU/magnetometer driver itself is an explicitly out-of-scope external
// collaborator (spec.md §1: "the sensor driver library (exposes raw integer
// readings per axis)"). ScalarReadout and TripleReadout are the minimal
// generic raw-register reads that satisfy SensorSpec's readout() contract
// without committing to one vendor's register map; swapping in a real
// driver (e.g. an AltIMU-10 v5 equivalent) means replacing only these two
// functions.

// ScalarReadout returns a readout function that reads a two-byte,
// big-endian register pair at reg from addr and returns it as a signed
// 16-bit value widened to int32. Only those two bytes are read: a raw count
// wider than 16 bits (such as the pressure counts altimetry converts at
// 40.96 per Pa) is not read in full.
func ScalarReadout(bus i2c.Bus, addr uint16, reg byte) func() (int32, error) {
	dev := &i2c.Dev{Addr: addr, Bus: bus}
	return func() (int32, error) {
		v, err := readAxis(dev, reg)
		if err != nil {
			return 0, fmt.Errorf("hw: scalar readout at %#x reg %#x: %w", addr, reg, err)
		}
		return v, nil
	}
}

// TripleReadout returns a readout function reading three consecutive
// two-byte axis registers starting at reg, e.g. an accelerometer's X/Y/Z.
func TripleReadout(bus i2c.Bus, addr uint16, reg byte) func() (int32, int32, int32, error) {
	dev := &i2c.Dev{Addr: addr, Bus: bus}
	return func() (int32, int32, int32, error) {
		x, err := readAxis(dev, reg)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("hw: triple readout at %#x reg %#x (x): %w", addr, reg, err)
		}
		y, err := readAxis(dev, reg+2)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("hw: triple readout at %#x reg %#x (y): %w", addr, reg, err)
		}
		z, err := readAxis(dev, reg+4)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("hw: triple readout at %#x reg %#x (z): %w", addr, reg, err)
		}
		return x, y, z, nil
	}
}

func readAxis(dev *i2c.Dev, reg byte) (int32, error) {
	buf := make([]byte, 2)
	if err := dev.Tx([]byte{reg}, buf); err != nil {
		return 0, err
	}
	return int32(int16(uint16(buf[0])<<8 | uint16(buf[1]))), nil
}
