// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"periph.io/x/conn/v3/i2c"

	"github.com/srp-avionics/flightcore/config"
	"github.com/srp-avionics/flightcore/internal/hw"
)

// Register offsets for the generic raw reads in internal/hw. The real
// sensor driver library is out of scope (spec.md §1); these stand in for
// whatever register map it would otherwise own.
const (
	baroDataReg = 0x00
	accDataReg  = 0x28
	gyroDataReg = 0x10
	magDataReg  = 0x08
)

// dry-run PRNG seeds, one per sensor, so concurrent samplers never share a
// math/rand source.
const (
	baroSeed = 1
	accSeed  = 2
	gyroSeed = 3
	magSeed  = 4
)

// buildRawReadouts wires the barometer's scalar readout and the three
// triple-axis sensors' readouts, either against real I²C hardware or
// against the dry-run PRNG stand-ins.
func buildRawReadouts(cfg config.Config, bus i2c.Bus) (baro func() (int32, error), triples map[string]func() (int32, int32, int32, error)) {
	if cfg.DryRun {
		baroSingle := hw.DryRunSensor(baroSeed)
		return baroSingle, map[string]func() (int32, int32, int32, error){
			"acc":  dryRunTriple(accSeed),
			"gyro": dryRunTriple(gyroSeed),
			"mag":  dryRunTriple(magSeed),
		}
	}

	baro = hw.ScalarReadout(bus, cfg.SensorAddresses.Barometer, baroDataReg)
	triples = map[string]func() (int32, int32, int32, error){
		"acc":  hw.TripleReadout(bus, cfg.SensorAddresses.IMU, accDataReg),
		"gyro": hw.TripleReadout(bus, cfg.SensorAddresses.IMU, gyroDataReg),
		"mag":  hw.TripleReadout(bus, cfg.SensorAddresses.Magnetometer, magDataReg),
	}
	return baro, triples
}

// dryRunTriple combines three independently-seeded scalar PRNGs into one
// triple-axis readout, so each axis varies independently like a real IMU.
func dryRunTriple(seed int64) func() (int32, int32, int32, error) {
	x := hw.DryRunSensor(seed)
	y := hw.DryRunSensor(seed + 100)
	z := hw.DryRunSensor(seed + 200)
	return func() (int32, int32, int32, error) {
		xv, err := x()
		if err != nil {
			return 0, 0, 0, err
		}
		yv, err := y()
		if err != nil {
			return 0, 0, 0, err
		}
		zv, err := z()
		if err != nil {
			return 0, 0, 0, err
		}
		return xv, yv, zv, nil
	}
}
