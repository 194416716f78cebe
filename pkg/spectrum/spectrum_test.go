// Spectrum tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package spectrum

import (
	"math"
	"testing"
)

// TestTruncationAtCapacity tests that appends beyond capacity are
// silently dropped and earlier samples retained.
func TestTruncationAtCapacity(t *testing.T) {
	s := New(5, 1)
	for i := 0; i < MaxSamples+20; i++ {
		s.Put(float64(i))
	}
	if s.Size() != MaxSamples {
		t.Fatalf("Size() = %d, want %d", s.Size(), MaxSamples)
	}
	// Earlier samples retained, later ones dropped.
	if got := s.Get(0).Gain; got != 0 {
		t.Errorf("Get(0).Gain = %v, want 0", got)
	}
	if got := s.Get(MaxSamples - 1).Gain; got != float64(MaxSamples-1) {
		t.Errorf("last gain = %v, want %v", got, MaxSamples-1)
	}
}

// TestImplicitFrequencyMapping tests frequency reconstruction.
func TestImplicitFrequencyMapping(t *testing.T) {
	s := New(5, 0.5)
	s.Put(1.0)
	s.Put(2.0)
	s.Put(3.0)

	fg := s.Get(2)
	if fg.Frequency != 6.0 || fg.Gain != 3.0 {
		t.Errorf("Get(2) = %+v, want {6 3}", fg)
	}
	if out := s.Get(3); out.Frequency != 0 || out.Gain != 0 {
		t.Errorf("out-of-range Get = %+v, want zero pair", out)
	}
}

// TestMax tests the maximum gain and the empty-spectrum floor.
func TestMax(t *testing.T) {
	s := New(5, 1)
	if s.Max() != math.SmallestNonzeroFloat64 {
		t.Errorf("empty Max() = %v", s.Max())
	}
	s.Put(0.5)
	s.Put(7.25)
	s.Put(3.0)
	if s.Max() != 7.25 {
		t.Errorf("Max() = %v, want 7.25", s.Max())
	}
}

// TestLimitEndFrequency tests the capacity clamp.
func TestLimitEndFrequency(t *testing.T) {
	// 5..500 Hz at 1 Hz needs 496 samples; clamped to 145 steps.
	if got := LimitEndFrequency(5, 500, 1, MaxSamples); got != 150 {
		t.Errorf("LimitEndFrequency(5, 500, 1) = %v, want 150", got)
	}
	// A sweep that already fits stays untouched.
	if got := LimitEndFrequency(5, 100, 1, MaxSamples); got != 100 {
		t.Errorf("LimitEndFrequency(5, 100, 1) = %v, want 100", got)
	}
}
