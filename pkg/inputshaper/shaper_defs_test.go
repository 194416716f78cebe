// Input shaper definition tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package inputshaper

import (
	"math"
	"testing"
)

// TestPulseCounts tests the impulse count of every family.
func TestPulseCounts(t *testing.T) {
	want := map[Type]int{
		TypeZV:      2,
		TypeZVD:     3,
		TypeMZV:     3,
		TypeEI:      3,
		Type2HumpEI: 4,
		Type3HumpEI: 5,
	}
	for typ := TypeFirst; typ <= TypeLast; typ++ {
		sh := Get(DefaultDampingRatio, 50, DefaultVibrationReduction, typ)
		if sh.NumPulses() != want[typ] {
			t.Errorf("%s: NumPulses() = %d, want %d", typ, sh.NumPulses(), want[typ])
		}
		if len(sh.T) != len(sh.A) {
			t.Errorf("%s: mismatched A/T lengths", typ)
		}
	}
}

// TestPulseInvariants tests monotone offsets and positive weights.
func TestPulseInvariants(t *testing.T) {
	for typ := TypeFirst; typ <= TypeLast; typ++ {
		sh := Get(DefaultDampingRatio, 50, DefaultVibrationReduction, typ)
		if sh.T[0] != 0 {
			t.Errorf("%s: first offset %v, want 0", typ, sh.T[0])
		}
		for i := 1; i < sh.NumPulses(); i++ {
			if sh.T[i] <= sh.T[i-1] {
				t.Errorf("%s: offsets not increasing at %d", typ, i)
			}
		}
		for i, a := range sh.A {
			if a <= 0 {
				t.Errorf("%s: non-positive weight %v at %d", typ, a, i)
			}
		}
	}
}

// TestZVKnownValues tests the ZV train against the closed form.
func TestZVKnownValues(t *testing.T) {
	const damping, freq = 0.1, 50.0
	sh := Get(damping, freq, DefaultVibrationReduction, TypeZV)

	df := math.Sqrt(1 - damping*damping)
	k := math.Exp(-damping * math.Pi / df)
	tD := 1 / (freq * df)

	if math.Abs(sh.A[0]-1) > 1e-12 || math.Abs(sh.A[1]-k) > 1e-12 {
		t.Errorf("ZV weights = %v", sh.A)
	}
	if math.Abs(sh.T[1]-0.5*tD) > 1e-12 {
		t.Errorf("ZV second offset = %v, want %v", sh.T[1], 0.5*tD)
	}
}

// TestVibrationReductionAffectsEI tests that the EI family honors the
// vibration-reduction target.
func TestVibrationReductionAffectsEI(t *testing.T) {
	loose := Get(DefaultDampingRatio, 50, 5, TypeEI)
	tight := Get(DefaultDampingRatio, 50, 100, TypeEI)
	if loose.A[0] == tight.A[0] {
		t.Error("EI weights should depend on vibration reduction")
	}

	// ZV ignores the target entirely.
	a := Get(DefaultDampingRatio, 50, 5, TypeZV)
	b := Get(DefaultDampingRatio, 50, 100, TypeZV)
	if a.A[1] != b.A[1] {
		t.Error("ZV weights should not depend on vibration reduction")
	}

	// A non-positive target falls back to the default.
	c := Get(DefaultDampingRatio, 50, 0, TypeEI)
	d := Get(DefaultDampingRatio, 50, DefaultVibrationReduction, TypeEI)
	if c.A[0] != d.A[0] {
		t.Error("zero vibration reduction should use the default")
	}
}

// TestParseType tests round-tripping family names.
func TestParseType(t *testing.T) {
	for typ := TypeFirst; typ <= TypeLast; typ++ {
		got, err := ParseType(typ.String())
		if err != nil || got != typ {
			t.Errorf("ParseType(%q) = (%v, %v)", typ.String(), got, err)
		}
	}
	if _, err := ParseType("sinc"); err == nil {
		t.Error("expected error for unknown type")
	}
}

// TestConfigSet tests per-axis commit semantics.
func TestConfigSet(t *testing.T) {
	cfg := NewConfig()
	if cfg.AxisX().Enabled || cfg.AxisY().Enabled {
		t.Fatal("new config should be disabled")
	}

	cfg.Set(true, false, 0.1, 48.6, 20, TypeMZV)

	x := cfg.AxisX()
	if !x.Enabled || x.Frequency != 48.6 || x.Type != TypeMZV {
		t.Errorf("X config = %+v", x)
	}
	if cfg.AxisY().Enabled {
		t.Error("Y axis should stay untouched")
	}
}
