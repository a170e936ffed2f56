// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ring

import (
	"testing"

	"github.com/srp-avionics/flightcore/sensor"
)

func appendN(r *Ring, n int) {
	for i := 1; i <= n; i++ {
		r.Append(Sample{Serial: int64(i), Timestamp: float64(i), Reading: sensor.Scalar(int32(i))})
	}
}

func TestPeekTailDoesNotAdvance(t *testing.T) {
	r := New()
	appendN(r, 3)

	start, end, tail := r.PeekTail()
	if start != 0 || end != 3 || len(tail) != 3 {
		t.Fatalf("PeekTail() = (%d, %d, len=%d), want (0, 3, len=3)", start, end, len(tail))
	}
	if r.SaveEnd() != 0 {
		t.Errorf("SaveEnd() = %d after PeekTail, want 0 (unchanged)", r.SaveEnd())
	}

	// A second Peek without a Commit in between must see the same range:
	// this is exactly the retry path a failed autosave write relies on.
	start, end, tail = r.PeekTail()
	if start != 0 || end != 3 || len(tail) != 3 {
		t.Fatalf("second PeekTail() = (%d, %d, len=%d), want (0, 3, len=3)", start, end, len(tail))
	}
}

func TestCommitAdvancesMonotonically(t *testing.T) {
	r := New()
	appendN(r, 5)

	r.Commit(3)
	if r.SaveEnd() != 3 {
		t.Fatalf("SaveEnd() = %d, want 3", r.SaveEnd())
	}
	// Commit must never move the cursor backwards.
	r.Commit(1)
	if r.SaveEnd() != 3 {
		t.Fatalf("SaveEnd() = %d after Commit(1), want 3 (unchanged)", r.SaveEnd())
	}

	start, end, tail := r.PeekTail()
	if start != 3 || end != 5 || len(tail) != 2 {
		t.Fatalf("PeekTail() after partial commit = (%d, %d, len=%d), want (3, 5, len=2)", start, end, len(tail))
	}
}

func TestDrainTailAdvancesAndNeverDuplicates(t *testing.T) {
	r := New()
	appendN(r, 2)

	_, end, tail := r.DrainTail()
	if end != 2 || len(tail) != 2 {
		t.Fatalf("first DrainTail() = (end=%d, len=%d), want (2, 2)", end, len(tail))
	}

	appendN3 := func(offset int) {
		r.Append(Sample{Serial: int64(offset), Timestamp: float64(offset), Reading: sensor.Scalar(int32(offset))})
	}
	appendN3(3)

	start, end, tail := r.DrainTail()
	if start != 2 || end != 3 || len(tail) != 1 {
		t.Fatalf("second DrainTail() = (%d, %d, len=%d), want (2, 3, len=1)", start, end, len(tail))
	}
	if tail[0].Serial != 3 {
		t.Errorf("second DrainTail() serial = %d, want 3 (no duplicate of sample 1 or 2)", tail[0].Serial)
	}
}

func TestLenGrowsMonotonically(t *testing.T) {
	r := New()
	for i := 1; i <= 4; i++ {
		r.Append(Sample{Serial: int64(i)})
		if r.Len() != i {
			t.Fatalf("Len() = %d after %d appends, want %d", r.Len(), i, i)
		}
	}
}
