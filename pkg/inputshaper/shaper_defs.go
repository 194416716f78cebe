// Input shaper impulse trains - port of the Buddy firmware
// input_shaper filter definitions
//
// Closed-form impulse trains for the supported shaper families. The
// EI family honors a vibration-reduction target; the tolerance used
// in the formulas is its reciprocal.
//
// Copyright (C) 2019-2020  Kevin O'Connor <kevin@koconnor.net>
// Copyright (C) 2020-2025  Dmitry Butyugin <dmbutyugin@google.com>
// Copyright (C) 2026  Go port
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package inputshaper

import (
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultVibrationReduction is the default vibration reduction
	// target for the EI shaper family.
	DefaultVibrationReduction = 20.0

	// DefaultDampingRatio is the damping ratio assumed when the
	// machine's true damping is unknown.
	DefaultDampingRatio = 0.1
)

// Type identifies a shaper family.
type Type int

const (
	TypeZV Type = iota
	TypeZVD
	TypeMZV
	TypeEI
	Type2HumpEI
	Type3HumpEI
)

// TypeFirst and TypeLast bound the iteration order of the fitting
// search.
const (
	TypeFirst = TypeZV
	TypeLast  = Type3HumpEI
)

// String returns the shaper family name.
func (t Type) String() string {
	switch t {
	case TypeZV:
		return "zv"
	case TypeZVD:
		return "zvd"
	case TypeMZV:
		return "mzv"
	case TypeEI:
		return "ei"
	case Type2HumpEI:
		return "2hump_ei"
	case Type3HumpEI:
		return "3hump_ei"
	default:
		return "unknown"
	}
}

// ParseType parses a shaper family name.
func ParseType(s string) (Type, error) {
	for t := TypeFirst; t <= TypeLast; t++ {
		if t.String() == strings.ToLower(s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("inputshaper: unknown shaper type %q", s)
}

// Shaper is an impulse train: weights A at time offsets T. Treated
// as opaque data by the fitter.
type Shaper struct {
	A []float64
	T []float64
}

// NumPulses returns the impulse count.
func (s Shaper) NumPulses() int { return len(s.A) }

// Get builds the impulse train of the given family for a damping
// ratio, target frequency and vibration-reduction target. A
// non-positive vibration reduction falls back to the default.
func Get(dampingRatio, shaperFreq, vibrationReduction float64, typ Type) Shaper {
	if vibrationReduction <= 0 {
		vibrationReduction = DefaultVibrationReduction
	}
	vTol := 1 / vibrationReduction

	df := math.Sqrt(1 - dampingRatio*dampingRatio)
	tD := 1 / (shaperFreq * df)

	switch typ {
	case TypeZV:
		k := math.Exp(-dampingRatio * math.Pi / df)
		return Shaper{
			A: []float64{1, k},
			T: []float64{0, 0.5 * tD},
		}
	case TypeZVD:
		k := math.Exp(-dampingRatio * math.Pi / df)
		return Shaper{
			A: []float64{1, 2 * k, k * k},
			T: []float64{0, 0.5 * tD, tD},
		}
	case TypeMZV:
		k := math.Exp(-0.75 * dampingRatio * math.Pi / df)
		a1 := 1 - 1/math.Sqrt2
		a2 := (math.Sqrt2 - 1) * k
		a3 := a1 * k * k
		return Shaper{
			A: []float64{a1, a2, a3},
			T: []float64{0, 0.375 * tD, 0.75 * tD},
		}
	case TypeEI:
		k := math.Exp(-dampingRatio * math.Pi / df)
		a1 := 0.25 * (1 + vTol)
		a2 := 0.5 * (1 - vTol) * k
		a3 := a1 * k * k
		return Shaper{
			A: []float64{a1, a2, a3},
			T: []float64{0, 0.5 * tD, tD},
		}
	case Type2HumpEI:
		k := math.Exp(-dampingRatio * math.Pi / df)
		v2 := vTol * vTol
		x := math.Pow(v2*(math.Sqrt(1-v2)+1), 1.0/3.0)
		a1 := (3*x*x + 2*x + 3*v2) / (16 * x)
		a2 := (0.5 - a1) * k
		a3 := a2 * k
		a4 := a1 * k * k * k
		return Shaper{
			A: []float64{a1, a2, a3, a4},
			T: []float64{0, 0.5 * tD, tD, 1.5 * tD},
		}
	case Type3HumpEI:
		k := math.Exp(-dampingRatio * math.Pi / df)
		k2 := k * k
		a1 := 0.0625 * (1 + 3*vTol + 2*math.Sqrt(2*(vTol+1)*vTol))
		a2 := 0.25 * (1 - vTol) * k
		a3 := (0.5*(1+vTol) - 2*a1) * k2
		a4 := a2 * k2
		a5 := a1 * k2 * k2
		return Shaper{
			A: []float64{a1, a2, a3, a4, a5},
			T: []float64{0, 0.5 * tD, tD, 1.5 * tD, 2 * tD},
		}
	default:
		// No shaping.
		return Shaper{A: []float64{1}, T: []float64{0}}
	}
}
