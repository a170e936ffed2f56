// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package autosave

import (
	"bytes"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/srp-avionics/flightcore/internal/csvlog"
	"github.com/srp-avionics/flightcore/ring"
	"github.com/srp-avionics/flightcore/sensor"
	"github.com/srp-avionics/flightcore/internal/stopflag"
)

type fakeStream struct {
	*bytes.Buffer
}

func (f *fakeStream) Close() error { return nil }

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestFlushWritesOnlyUnpersistedTail(t *testing.T) {
	r := ring.New()
	r.Append(ring.Sample{Serial: 1, Timestamp: 1, Reading: sensor.Scalar(1)})
	r.Append(ring.Sample{Serial: 2, Timestamp: 2, Reading: sensor.Scalar(2)})

	var windows []*bytes.Buffer
	task := &Task{
		SensorName: "baro",
		Interval:   time.Millisecond,
		Ring:       r,
		OpenStream: func() (io.WriteCloser, error) {
			b := &bytes.Buffer{}
			windows = append(windows, b)
			return &fakeStream{b}, nil
		},
		Stop: &stopflag.Flag{},
		Log:  discardLogger(),
	}

	if err := task.flush(1, time.Now()); err != nil {
		t.Fatalf("flush() error = %v", err)
	}
	r.Append(ring.Sample{Serial: 3, Timestamp: 3, Reading: sensor.Scalar(3)})
	if err := task.flush(2, time.Now()); err != nil {
		t.Fatalf("flush() error = %v", err)
	}

	if len(windows) != 2 {
		t.Fatalf("opened %d streams, want 2 (one per window)", len(windows))
	}
	first, err := csvlog.ReadSamples(bytes.NewReader(windows[0].Bytes()))
	if err != nil {
		t.Fatalf("ReadSamples(first window) error = %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first window has %d samples, want 2", len(first))
	}
	second, err := csvlog.ReadSamples(bytes.NewReader(windows[1].Bytes()))
	if err != nil {
		t.Fatalf("ReadSamples(second window) error = %v", err)
	}
	if len(second) != 1 || second[0].Serial != 3 {
		t.Fatalf("second window = %+v, want exactly sample 3 (no duplicates)", second)
	}
}

func TestFlushLeavesTailUncommittedOnWriteFailure(t *testing.T) {
	r := ring.New()
	r.Append(ring.Sample{Serial: 1, Timestamp: 1, Reading: sensor.Scalar(1)})

	task := &Task{
		SensorName: "acc",
		Interval:   time.Millisecond,
		Ring:       r,
		OpenStream: func() (io.WriteCloser, error) {
			return nil, errors.New("disk full")
		},
		Stop: &stopflag.Flag{},
		Log:  discardLogger(),
	}

	if err := task.flush(1, time.Now()); err == nil {
		t.Fatal("flush() returned nil error, want the open-stream failure")
	}

	start, end, tail := r.PeekTail()
	if start != 0 || end != 1 || len(tail) != 1 {
		t.Fatalf("PeekTail() after failed flush = (%d, %d, len=%d), want (0, 1, len=1): sample must remain for retry", start, end, len(tail))
	}
}

func TestFinalFlushWritesRemainderAndCommits(t *testing.T) {
	r := ring.New()
	r.Append(ring.Sample{Serial: 1, Timestamp: 1, Reading: sensor.Scalar(1)})
	r.Append(ring.Sample{Serial: 2, Timestamp: 2, Reading: sensor.Scalar(2)})
	r.DrainTail() // simulate one prior successful autosave window

	r.Append(ring.Sample{Serial: 3, Timestamp: 3, Reading: sensor.Scalar(3)})

	var out bytes.Buffer
	err := FinalFlush(r, func() (io.WriteCloser, error) { return &fakeStream{&out}, nil }, time.Now())
	if err != nil {
		t.Fatalf("FinalFlush() error = %v", err)
	}

	got, err := csvlog.ReadSamples(&out)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if len(got) != 1 || got[0].Serial != 3 {
		t.Fatalf("final flush wrote %+v, want exactly sample 3", got)
	}
	if r.SaveEnd() != 3 {
		t.Errorf("SaveEnd() = %d after final flush, want 3 (fully persisted)", r.SaveEnd())
	}
}
