// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rundir lays out the per-run persisted state directory described in
// spec.md §6: one directory keyed by a DD-MM-YY_HH-MM-SS timestamp, holding
// a CSV file per sensor, a log file, and a JSON snapshot of the active
// configuration.
package rundir

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const timestampLayout = "02-01-06_15-04-05"

// Dir is an opened run directory; every path it returns is rooted under the
// same timestamped directory so a run's entire persisted state lives in one
// place.
type Dir struct {
	root string
	ts   string
}

// New creates (mkdir -p) a fresh run directory under base, named by at's
// DD-MM-YY_HH-MM-SS rendering.
func New(base string, at time.Time) (*Dir, error) {
	ts := at.Format(timestampLayout)
	root := filepath.Join(base, ts)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("rundir: create %s: %w", root, err)
	}
	return &Dir{root: root, ts: ts}, nil
}

// Root returns the run directory's path.
func (d *Dir) Root() string { return d.root }

// SensorCSVPath returns the path for one sensor's persisted CSV.
func (d *Dir) SensorCSVPath(sensorName string) string {
	return filepath.Join(d.root, fmt.Sprintf("%s_%s.csv", d.ts, sensorName))
}

// LogPath returns the path for the run's log file.
func (d *Dir) LogPath() string {
	return filepath.Join(d.root, d.ts+".log")
}

// ConfigSnapshotPath returns the path for the run's config.json snapshot.
func (d *Dir) ConfigSnapshotPath() string {
	return filepath.Join(d.root, fmt.Sprintf("%s_config.json", d.ts))
}

// SnapshotConfig writes cfg as indented JSON to ConfigSnapshotPath, so every
// run directory is self-describing even if the live config file later
// changes.
func (d *Dir) SnapshotConfig(cfg any) error {
	f, err := os.Create(d.ConfigSnapshotPath())
	if err != nil {
		return fmt.Errorf("rundir: snapshot config: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("rundir: snapshot config: %w", err)
	}
	return nil
}

// OpenSensorStream opens a sensor's CSV file in append mode, creating it if
// needed. Matches spec.md §4.4's "opens the sensor's output stream in append
// mode" - called fresh for every autosave window, never held open.
func (d *Dir) OpenSensorStream(sensorName string) (io.WriteCloser, error) {
	f, err := os.OpenFile(d.SensorCSVPath(sensorName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("rundir: open sensor stream %s: %w", sensorName, err)
	}
	return f, nil
}
