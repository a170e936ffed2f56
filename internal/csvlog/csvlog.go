// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package csvlog encodes and decodes the per-sensor CSV rows described in
// spec.md §6: one row per Sample (serial, timestamp, reading), a "####"
// header row marking each autosave window, a "#" trailer row recording how
// long the write took, and a final "#" row at shutdown. encoding/csv is
// used directly: the row format is mandated by the spec itself (it names
// the on-disk extension and exact comment-row shape), not a free choice of
// serialization library, so there is nothing a third-party CSV package
// would add here. See DESIGN.md.
package csvlog

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/srp-avionics/flightcore/ring"
	"github.com/srp-avionics/flightcore/sensor"
)

// WriteWindow appends one autosave window to w: a header row tagging seq and
// windowStart, one row per sample, and a trailer row recording how long the
// write itself took. Elapsed is measured here, spanning the header, sample,
// and flush writes, rather than accepted from the caller: a caller-computed
// duration is necessarily evaluated before this function's I/O runs (Go
// evaluates call arguments before the call), which would always report ~0.
func WriteWindow(w io.Writer, seq int, windowStart float64, samples []ring.Sample) error {
	start := time.Now()
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{fmt.Sprintf("#### %.6f autosave nr %d", windowStart, seq)}); err != nil {
		return fmt.Errorf("csvlog: write header: %w", err)
	}
	if err := writeSamples(cw, samples); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csvlog: flush samples: %w", err)
	}
	elapsed := time.Since(start)
	if err := cw.Write([]string{fmt.Sprintf("# autosave took %.6f", elapsed.Seconds())}); err != nil {
		return fmt.Errorf("csvlog: write trailer: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// WriteFinal appends the final-flush block at shutdown: every remaining
// sample followed by a "# final save at <ts>" trailer row.
func WriteFinal(w io.Writer, ts float64, samples []ring.Sample) error {
	cw := csv.NewWriter(w)
	if err := writeSamples(cw, samples); err != nil {
		return err
	}
	if err := cw.Write([]string{fmt.Sprintf("# final save at %.6f", ts)}); err != nil {
		return fmt.Errorf("csvlog: write final trailer: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

func writeSamples(cw *csv.Writer, samples []ring.Sample) error {
	for _, s := range samples {
		row := []string{
			strconv.FormatInt(s.Serial, 10),
			strconv.FormatFloat(s.Timestamp, 'f', 6, 64),
			s.Reading.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csvlog: write sample %d: %w", s.Serial, err)
		}
	}
	return nil
}

// ReadSamples parses data rows out of r, skipping every comment row (one
// whose first field starts with "#"). It exists to make the testable
// properties in spec.md §8 (monotone serials, non-decreasing timestamps,
// autosave coverage, final flush completeness) checkable directly against a
// written CSV file, without duplicating a parser in every test.
func ReadSamples(r io.Reader) ([]ring.Sample, error) {
	br := bufio.NewReader(r)
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	var out []ring.Sample
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvlog: read record: %w", err)
		}
		if len(record) == 0 || strings.HasPrefix(record[0], "#") {
			continue
		}
		if len(record) != 3 {
			return nil, fmt.Errorf("csvlog: data row has %d fields, want 3: %v", len(record), record)
		}
		serial, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("csvlog: parse serial %q: %w", record[0], err)
		}
		ts, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("csvlog: parse timestamp %q: %w", record[1], err)
		}
		reading, err := parseReading(record[2])
		if err != nil {
			return nil, fmt.Errorf("csvlog: parse reading %q: %w", record[2], err)
		}
		out = append(out, ring.Sample{Serial: serial, Timestamp: ts, Reading: reading})
	}
	return out, nil
}

func parseReading(s string) (sensor.Reading, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		parts := strings.Split(s[1:len(s)-1], ",")
		if len(parts) != 3 {
			return sensor.Reading{}, fmt.Errorf("triple reading %q does not have 3 axes", s)
		}
		var axes [3]int32
		for i, p := range parts {
			v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
			if err != nil {
				return sensor.Reading{}, err
			}
			axes[i] = int32(v)
		}
		return sensor.Triple(axes[0], axes[1], axes[2]), nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return sensor.Reading{}, err
	}
	return sensor.Scalar(int32(v)), nil
}
