// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package autosave implements the periodic durable flush of one sensor's
// unpersisted tail to its output stream, described in spec.md §4.4. Every
// window it opens the stream, writes a header/rows/trailer, and closes it,
// which deliberately bounds the worst-case loss window on sudden power loss
// to one autosave interval.
package autosave

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/srp-avionics/flightcore/internal/csvlog"
	"github.com/srp-avionics/flightcore/ring"
	"github.com/srp-avionics/flightcore/internal/stopflag"
)

// Task drains one Ring's unpersisted tail every Interval and appends it to
// a freshly opened stream.
type Task struct {
	SensorName string
	Interval   time.Duration
	Ring       *ring.Ring
	// OpenStream opens the sensor's output stream in append mode. Called
	// fresh for every autosave window, matching spec.md's "opens ... in
	// append mode, writes, closes" cycle.
	OpenStream func() (io.WriteCloser, error)
	Stop       *stopflag.Flag
	Log        *log.Logger

	Now func() time.Time
}

func (t *Task) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// Run executes the autosave loop until Stop is asserted. A write failure is
// logged and the window's samples are left uncommitted in the Ring so the
// next window retries them (spec.md §7, PersistenceFailure).
func (t *Task) Run() {
	seq := 0
	for !t.Stop.IsSet() {
		windowStart := t.now()
		seq++
		if err := t.flush(seq, windowStart); err != nil {
			t.Log.Printf("autosave %s: window %d: %v", t.SensorName, seq, err)
		}
		elapsed := t.now().Sub(windowStart)
		if d := t.Interval - elapsed; d > 0 {
			time.Sleep(d)
		}
	}
}

func (t *Task) flush(seq int, windowStart time.Time) error {
	_, end, tail := t.Ring.PeekTail()

	w, err := t.OpenStream()
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer w.Close()

	if err := csvlog.WriteWindow(w, seq, float64(windowStart.UnixNano())/1e9, tail); err != nil {
		return fmt.Errorf("write window: %w", err)
	}
	t.Ring.Commit(end)
	return nil
}

// FinalFlush writes every sample still unpersisted in the Ring with a final
// trailer row, using a stream opened by openStream. It is best-effort: a
// write failure is returned to the caller (typically logged, not retried,
// since there is no further autosave window once the controller has
// decided to land).
func FinalFlush(ring *ring.Ring, openStream func() (io.WriteCloser, error), now time.Time) error {
	_, end, tail := ring.PeekTail()
	w, err := openStream()
	if err != nil {
		return fmt.Errorf("autosave: final flush: open stream: %w", err)
	}
	defer w.Close()

	if err := csvlog.WriteFinal(w, float64(now.UnixNano())/1e9, tail); err != nil {
		return fmt.Errorf("autosave: final flush: %w", err)
	}
	ring.Commit(end)
	return nil
}
