// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads and validates the flight control core's
// configuration, snapshotted once into the run directory and never consulted
// as a process-wide global again (spec.md §9: "reimplementations must pass
// an immutable configuration value explicitly to every component
// constructor; no implicit globals").
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/srp-avionics/flightcore/phase"
)

// Intervals holds the four sensors' sampling periods, in seconds, as they
// appear in the JSON config file.
type Intervals struct {
	Baro float64 `json:"baro"`
	Acc  float64 `json:"acc"`
	Gyro float64 `json:"gyro"`
	Mag  float64 `json:"mag"`
}

// StateIntervals holds the control-loop period for each phase, in seconds,
// keyed by the phase's GLOSSARY name.
type StateIntervals struct {
	SystemsCheck float64 `json:"SYSTEMS_CHECK"`
	Error        float64 `json:"ERROR"`
	Idle         float64 `json:"IDLE"`
	Armed        float64 `json:"ARMED"`
	Launched     float64 `json:"LAUNCHED"`
	Deployed     float64 `json:"DEPLOYED"`
	Landed       float64 `json:"LANDED"`
}

// SensorAddresses holds the I²C addresses (7-bit, board numbering) the
// sensors_present check must see acknowledge, supplementing spec.md's
// sensor-presence contract with the concrete address list the original
// flight software hardcoded from its IMU driver's constants.
type SensorAddresses struct {
	Magnetometer uint16 `json:"magnetometer"`
	Barometer    uint16 `json:"barometer"`
	IMU          uint16 `json:"imu"`
}

// Config is the full recognized option set of spec.md §6.
type Config struct {
	DryRun bool `json:"dry_run"`

	Intervals       Intervals       `json:"intervals"`
	StateIntervals  StateIntervals  `json:"state_intervals"`
	BlinkHalfPeriod float64         `json:"blink_half_period"`
	SensorAddresses SensorAddresses `json:"sensor_addresses"`

	BatteryLevelPin string `json:"battery_level_pin"`
	ArmSwitchPin    string `json:"arm_switch_pin"`
	LiftoffPin      string `json:"liftoff_pin"`
	DeployVotePin   string `json:"deploy_vote_pin"`
	GreenLEDPin     string `json:"green_LED_pin"`
	RedLEDPin       string `json:"red_LED_pin"`

	ExpFactorP  float64 `json:"exp_factor_p"`
	ExpFactorVV float64 `json:"exp_factor_vv"`
	T0          float64 `json:"T0"`
	A           float64 `json:"a"`
	R           float64 `json:"R"`
	G0          float64 `json:"g0"`
	NCalib      int     `json:"n_calib"`

	MinDeployTime                float64 `json:"min_deploy_time"`
	MinFlightDuration             float64 `json:"min_flight_duration"`
	VVDeployThreshold            float64 `json:"vv_deploy_threshold"`
	LandingAltitudeRange         float64 `json:"landing_altitude_range"`
	LandingVerticalVelocityRange float64 `json:"landing_vertical_velocity_range"`

	AutosaveIntervalS float64 `json:"autosave_interval_s"`
}

// Load reads and validates a Config from r.
func Load(r io.Reader) (Config, error) {
	var c Config
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadFile opens path and loads a Config from it.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks the numerical ranges and required fields spec.md §3 and §6
// document.
func (c Config) Validate() error {
	positive := func(name string, v float64) error {
		if v <= 0 {
			return fmt.Errorf("config: %s must be positive, got %v", name, v)
		}
		return nil
	}
	if err := positive("intervals.baro", c.Intervals.Baro); err != nil {
		return err
	}
	if err := positive("intervals.acc", c.Intervals.Acc); err != nil {
		return err
	}
	if err := positive("intervals.gyro", c.Intervals.Gyro); err != nil {
		return err
	}
	if err := positive("intervals.mag", c.Intervals.Mag); err != nil {
		return err
	}
	if err := positive("blink_half_period", c.BlinkHalfPeriod); err != nil {
		return err
	}
	if c.ExpFactorP <= 0 || c.ExpFactorP > 1 {
		return fmt.Errorf("config: exp_factor_p must be in (0, 1], got %v", c.ExpFactorP)
	}
	if c.ExpFactorVV <= 0 || c.ExpFactorVV > 1 {
		return fmt.Errorf("config: exp_factor_vv must be in (0, 1], got %v", c.ExpFactorVV)
	}
	if c.VVDeployThreshold >= 0 {
		return fmt.Errorf("config: vv_deploy_threshold must be negative, got %v", c.VVDeployThreshold)
	}
	if !c.DryRun {
		if c.BatteryLevelPin == "" || c.ArmSwitchPin == "" || c.LiftoffPin == "" ||
			c.DeployVotePin == "" || c.GreenLEDPin == "" || c.RedLEDPin == "" {
			return fmt.Errorf("config: all pin numbers are required outside dry_run")
		}
	}
	if c.AutosaveIntervalS <= 0 {
		return fmt.Errorf("config: autosave_interval_s must be positive, got %v", c.AutosaveIntervalS)
	}
	return nil
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// Duration helpers translate the JSON config's float-seconds fields into
// time.Duration for the components that want them directly.

func (c Config) BaroInterval() time.Duration { return seconds(c.Intervals.Baro) }
func (c Config) AccInterval() time.Duration  { return seconds(c.Intervals.Acc) }
func (c Config) GyroInterval() time.Duration { return seconds(c.Intervals.Gyro) }
func (c Config) MagInterval() time.Duration  { return seconds(c.Intervals.Mag) }

func (c Config) BlinkHalfPeriodDuration() time.Duration { return seconds(c.BlinkHalfPeriod) }
func (c Config) MinDeployTimeDuration() time.Duration    { return seconds(c.MinDeployTime) }
func (c Config) MinFlightDurationDuration() time.Duration {
	return seconds(c.MinFlightDuration)
}
func (c Config) AutosaveInterval() time.Duration { return seconds(c.AutosaveIntervalS) }

// PhaseStateIntervals builds the map phase.Config.StateIntervals expects,
// translating each named field of StateIntervals into its Phase key.
func (c Config) PhaseStateIntervals() (map[phase.Phase]time.Duration, error) {
	named := map[string]float64{
		"SYSTEMS_CHECK": c.StateIntervals.SystemsCheck,
		"ERROR":         c.StateIntervals.Error,
		"IDLE":          c.StateIntervals.Idle,
		"ARMED":         c.StateIntervals.Armed,
		"LAUNCHED":      c.StateIntervals.Launched,
		"DEPLOYED":      c.StateIntervals.Deployed,
		"LANDED":        c.StateIntervals.Landed,
	}
	out := make(map[phase.Phase]time.Duration, len(named))
	for name, secs := range named {
		p, err := phase.ParsePhase(name)
		if err != nil {
			return nil, err
		}
		if secs <= 0 {
			return nil, fmt.Errorf("config: state_intervals.%s must be positive, got %v", name, secs)
		}
		out[p] = seconds(secs)
	}
	return out, nil
}
