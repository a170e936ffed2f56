// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command flightcore is the flight control core's process entrypoint. It
// takes no arguments (spec.md §6): it loads config.json from the working
// directory, opens a timestamped run directory under ./data, wires the
// hardware or dry-run backends, and hands control to the phase controller
// until LANDED triggers a shutdown.
package main

import (
	"io"
	"log"
	"os"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/srp-avionics/flightcore/altimetry"
	"github.com/srp-avionics/flightcore/autosave"
	"github.com/srp-avionics/flightcore/config"
	"github.com/srp-avionics/flightcore/internal/hw"
	"github.com/srp-avionics/flightcore/internal/ledsim"
	"github.com/srp-avionics/flightcore/internal/rundir"
	"github.com/srp-avionics/flightcore/internal/stopflag"
	"github.com/srp-avionics/flightcore/led"
	"github.com/srp-avionics/flightcore/phase"
	"github.com/srp-avionics/flightcore/ring"
	"github.com/srp-avionics/flightcore/sampler"
	"github.com/srp-avionics/flightcore/sensor"
)

func main() {
	cfg, err := config.LoadFile("config.json")
	if err != nil {
		log.Fatalf("flightcore: %v", err)
	}

	dir, err := rundir.New("data", time.Now())
	if err != nil {
		log.Fatalf("flightcore: %v", err)
	}
	if err := dir.SnapshotConfig(cfg); err != nil {
		log.Fatalf("flightcore: %v", err)
	}

	logFile, err := os.OpenFile(dir.LogPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalf("flightcore: %v", err)
	}
	defer logFile.Close()
	out := io.MultiWriter(logFile, os.Stdout)
	logger := log.New(out, "[flightcore] ", log.LstdFlags|log.Lmicroseconds)

	os.Exit(run(cfg, dir, logger))
}

// run wires every component and drives the controller to completion. It
// returns the process exit code: 0 on clean shutdown, 1 on any fault,
// including a panic recovered here. Its deferred cleanup stops the LED
// blinker and closes the I²C bus; no GPIO pin is released or reset on exit.
func run(cfg config.Config, dir *rundir.Dir, logger *log.Logger) (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("flightcore: fatal: %v", r)
			exitCode = 1
		}
	}()

	var in phase.Inputs
	var out phase.Outputs
	var greenOut, redOut led.Output
	var bus i2c.Bus

	if cfg.DryRun {
		in = hw.NewDryRunInputs(os.Stdin, os.Stdout)
		out = hw.NewDryRunOutputs(os.Stdout)
		if ledsim.IsTerminal() {
			console := ledsim.NewConsole()
			greenOut, redOut = console.GreenPixel(), console.RedPixel()
		} else {
			greenOut = hw.NewDryRunLED(os.Stdout, "green")
			redOut = hw.NewDryRunLED(os.Stdout, "red")
		}
	} else {
		if _, err := host.Init(); err != nil {
			logger.Printf("flightcore: host.Init: %v", err)
			return 1
		}
		var err error
		bus, err = i2creg.Open("")
		if err != nil {
			logger.Printf("flightcore: open i2c bus: %v", err)
			return 1
		}
		defer bus.Close()

		board, err := hw.NewBoard(hw.PinConfig{
			BatteryLevel: cfg.BatteryLevelPin,
			ArmSwitch:    cfg.ArmSwitchPin,
			Liftoff:      cfg.LiftoffPin,
			DeployVote:   cfg.DeployVotePin,
			GreenLED:     cfg.GreenLEDPin,
			RedLED:       cfg.RedLEDPin,
		})
		if err != nil {
			logger.Printf("flightcore: %v", err)
			return 1
		}
		prober := hw.NewProber(bus, []uint16{
			cfg.SensorAddresses.Magnetometer,
			cfg.SensorAddresses.Barometer,
			cfg.SensorAddresses.IMU,
		})
		in = hw.Inputs{Board: board, Prober: prober}
		out = board
		greenOut, redOut = board.GreenLED(), board.RedLED()
	}

	stop := &stopflag.Flag{}
	blinker := led.NewBlinker(greenOut, redOut, 10*time.Millisecond, logger)
	go blinker.Run()
	defer blinker.Stop()

	alt, err := altimetry.New(altimetry.Config{
		ExpFactorP:   cfg.ExpFactorP,
		ExpFactorVV:  cfg.ExpFactorVV,
		T0:           cfg.T0,
		A:            cfg.A,
		R:            cfg.R,
		G0:           cfg.G0,
		BaroInterval: cfg.BaroInterval(),
	})
	if err != nil {
		logger.Printf("flightcore: %v", err)
		return 1
	}

	const (
		acc  = "acc"
		gyro = "gyro"
		mag  = "mag"
	)
	names := []string{sensor.Baro, acc, gyro, mag}

	rings := make(map[string]*ring.Ring, len(names))
	for _, name := range names {
		rings[name] = ring.New()
	}

	baroRaw, tripleRaw := buildRawReadouts(cfg, bus)
	readouts := map[string]func() (sensor.Reading, error){
		sensor.Baro: func() (sensor.Reading, error) {
			v, err := baroRaw()
			return sensor.Scalar(v), err
		},
	}
	for _, name := range []string{acc, gyro, mag} {
		raw := tripleRaw[name]
		readouts[name] = func() (sensor.Reading, error) {
			x, y, z, err := raw()
			return sensor.Triple(x, y, z), err
		}
	}

	intervals := map[string]time.Duration{
		sensor.Baro: cfg.BaroInterval(),
		acc:         cfg.AccInterval(),
		gyro:        cfg.GyroInterval(),
		mag:         cfg.MagInterval(),
	}

	var samplers []*sampler.Task
	var autosaves []*autosave.Task
	for _, name := range names {
		r := rings[name]
		var estimator *altimetry.Estimator
		if name == sensor.Baro {
			estimator = alt
		}
		samplers = append(samplers, &sampler.Task{
			Spec: sensor.Spec{
				Name:     name,
				Interval: intervals[name],
				Readout:  readouts[name],
			},
			Ring:      r,
			Altimetry: estimator,
			Stop:      stop,
			Log:       logger,
		})

		sensorName := name
		autosaves = append(autosaves, &autosave.Task{
			SensorName: sensorName,
			Interval:   cfg.AutosaveInterval(),
			Ring:       r,
			OpenStream: func() (io.WriteCloser, error) { return dir.OpenSensorStream(sensorName) },
			Stop:       stop,
			Log:        logger,
		})
	}

	finalFlush := func() error {
		var firstErr error
		for _, name := range names {
			sensorName := name
			err := autosave.FinalFlush(rings[name], func() (io.WriteCloser, error) {
				return dir.OpenSensorStream(sensorName)
			}, time.Now())
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	stateIntervals, err := cfg.PhaseStateIntervals()
	if err != nil {
		logger.Printf("flightcore: %v", err)
		return 1
	}

	phaseCfg := phase.Config{
		StateIntervals:               stateIntervals,
		BlinkHalfPeriod:              cfg.BlinkHalfPeriodDuration(),
		MinDeployTime:                cfg.MinDeployTimeDuration(),
		MinFlightDuration:            cfg.MinFlightDurationDuration(),
		VVDeployThreshold:            cfg.VVDeployThreshold,
		LandingAltitudeRange:         cfg.LandingAltitudeRange,
		LandingVerticalVelocityRange: cfg.LandingVerticalVelocityRange,
		NCalib:                       cfg.NCalib,
		BaroInterval:                 cfg.BaroInterval(),
	}

	controller := phase.New(phaseCfg, in, out, blinker, alt, baroRaw, samplers, autosaves, finalFlush, stop, logger)
	if err := controller.Run(); err != nil {
		logger.Printf("flightcore: %v", err)
		return 1
	}
	return 0
}
