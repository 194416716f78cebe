// Kinematics helpers for harmonic excitation - port of the Buddy
// firmware M958 get_step_len and get_logical_axis
//
// Maps the set of vibrating motors to the effective toolhead step
// length and to the logical axis the vibration excites, for cartesian
// and CoreXY machines.
//
// Copyright (C) 2020-2024  Marek Bel, Prusa Research
// Copyright (C) 2026  Go port
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package kinematics

import (
	"fmt"
	"math"
	"strings"

	"buddy-go-migration/pkg/errors"
	"buddy-go-migration/pkg/stepqueue"
)

// Kind selects the machine kinematic type.
type Kind int

const (
	// Cartesian moves each motor on its own axis.
	Cartesian Kind = iota
	// CoreXY couples both motors through crossed belts.
	CoreXY
)

// String returns the kinematic type name.
func (k Kind) String() string {
	switch k {
	case Cartesian:
		return "cartesian"
	case CoreXY:
		return "corexy"
	default:
		return "unknown"
	}
}

// ParseKind parses a kinematic type name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "cartesian":
		return Cartesian, nil
	case "corexy":
		return CoreXY, nil
	default:
		return 0, errors.KinematicsError(fmt.Sprintf("unknown kind %q", s))
	}
}

// Geometry holds the motor configuration needed to derive the
// toolhead step length. Both axes are expected to share the same
// steps-per-mm and microstep settings, as on the original machines.
type Geometry struct {
	Kind Kind

	// StepsPerMM is the default full-resolution steps per millimeter.
	StepsPerMM float64

	// DefaultMicrosteps is the microstep resolution StepsPerMM is
	// quoted at.
	DefaultMicrosteps int

	// Microsteps is the resolution active while vibrating (the tuner
	// switches to 128 for fine amplitude quantization).
	Microsteps int
}

// StepLength returns the toolhead step length in meters for the
// motors selected by flags. Exciting with neither one nor two motors
// is an unrecoverable configuration fault.
func (g Geometry) StepLength(flags stepqueue.StepEventFlags) (float64, error) {
	if g.StepsPerMM <= 0 || g.DefaultMicrosteps <= 0 || g.Microsteps <= 0 {
		return 0, errors.KinematicsError(fmt.Sprintf("invalid geometry %+v", g))
	}

	const metersInMM = 0.001
	stepLen := (1 / g.StepsPerMM) * metersInMM
	stepLen *= float64(g.DefaultMicrosteps) / float64(g.Microsteps)

	motors := flags.MotorCount()
	switch g.Kind {
	case CoreXY:
		switch motors {
		case 1:
			return math.Sqrt2 / 2 * stepLen, nil
		case 2:
			return stepLen, nil
		}
	case Cartesian:
		switch motors {
		case 1:
			return stepLen, nil
		case 2:
			return math.Sqrt2 * stepLen, nil
		}
	}
	return 0, errors.KinematicsError(fmt.Sprintf("impossible motor count %d", motors))
}

// Logical identifies the machine axis a vibration excites.
type Logical struct {
	X bool
	Y bool
}

// LogicalAxis maps motor flags to the logical axis of the resulting
// motion. Diagonal movement (and no movement) excites neither axis
// alone, so both report false.
func LogicalAxis(kind Kind, flags stepqueue.StepEventFlags) Logical {
	xStep := flags&stepqueue.FlagStepX != 0
	yStep := flags&stepqueue.FlagStepY != 0

	switch kind {
	case CoreXY:
		// Both motors stepping together: equal initial directions
		// move along X, opposite along Y.
		if xStep == yStep && xStep {
			xDir := flags&stepqueue.FlagDirX != 0
			yDir := flags&stepqueue.FlagDirY != 0
			if xDir == yDir {
				return Logical{X: true}
			}
			return Logical{Y: true}
		}
		return Logical{}
	default:
		if xStep != yStep {
			return Logical{X: xStep, Y: yStep}
		}
		return Logical{}
	}
}
