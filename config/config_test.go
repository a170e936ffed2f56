// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"strings"
	"testing"
)

const validJSON = `{
  "dry_run": true,
  "intervals": {"baro": 0.1, "acc": 0.01, "gyro": 0.01, "mag": 0.1},
  "state_intervals": {
    "SYSTEMS_CHECK": 0.5, "ERROR": 0.5, "IDLE": 0.2, "ARMED": 0.1,
    "LAUNCHED": 0.05, "DEPLOYED": 0.1, "LANDED": 0.5
  },
  "blink_half_period": 0.3,
  "sensor_addresses": {"magnetometer": 28, "barometer": 93, "imu": 107},
  "battery_level_pin": "", "arm_switch_pin": "", "liftoff_pin": "",
  "deploy_vote_pin": "", "green_LED_pin": "", "red_LED_pin": "",
  "exp_factor_p": 0.2, "exp_factor_vv": 0.2,
  "T0": 288.15, "a": 0.0065, "R": 287.05, "g0": 9.80665, "n_calib": 50,
  "min_deploy_time": 2, "min_flight_duration": 10,
  "vv_deploy_threshold": -5, "landing_altitude_range": 5,
  "landing_vertical_velocity_range": 1,
  "autosave_interval_s": 1
}`

func TestLoadValidConfig(t *testing.T) {
	c, err := Load(strings.NewReader(validJSON))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !c.DryRun {
		t.Error("DryRun = false, want true")
	}
	if c.Intervals.Baro != 0.1 {
		t.Errorf("Intervals.Baro = %v, want 0.1", c.Intervals.Baro)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	bad := strings.Replace(validJSON, `"dry_run": true,`, `"dry_run": true, "bogus_field": 1,`, 1)
	if _, err := Load(strings.NewReader(bad)); err == nil {
		t.Fatal("Load() with an unknown field returned nil error")
	}
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	bad := strings.Replace(validJSON, `"baro": 0.1`, `"baro": 0`, 1)
	if _, err := Load(strings.NewReader(bad)); err == nil {
		t.Fatal("Load() with a zero interval returned nil error")
	}
}

func TestLoadRejectsPositiveDeployThreshold(t *testing.T) {
	bad := strings.Replace(validJSON, `"vv_deploy_threshold": -5`, `"vv_deploy_threshold": 5`, 1)
	if _, err := Load(strings.NewReader(bad)); err == nil {
		t.Fatal("Load() with a non-negative vv_deploy_threshold returned nil error")
	}
}

func TestPhaseStateIntervalsCoversAllPhases(t *testing.T) {
	c, err := Load(strings.NewReader(validJSON))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	m, err := c.PhaseStateIntervals()
	if err != nil {
		t.Fatalf("PhaseStateIntervals() error = %v", err)
	}
	if len(m) != 7 {
		t.Errorf("PhaseStateIntervals() returned %d entries, want 7", len(m))
	}
}
