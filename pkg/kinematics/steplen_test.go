// Kinematics helper tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package kinematics

import (
	"math"
	"testing"

	"buddy-go-migration/pkg/errors"
	"buddy-go-migration/pkg/stepqueue"
)

var testGeometry = Geometry{
	Kind:              Cartesian,
	StepsPerMM:        100,
	DefaultMicrosteps: 16,
	Microsteps:        128,
}

// TestStepLengthCartesian tests single and dual motor step lengths.
func TestStepLengthCartesian(t *testing.T) {
	base := (1.0 / 100) * 0.001 * 16 / 128

	single, err := testGeometry.StepLength(stepqueue.FlagStepX)
	if err != nil {
		t.Fatalf("single motor: %v", err)
	}
	if math.Abs(single-base) > 1e-15 {
		t.Errorf("single motor step length = %v, want %v", single, base)
	}

	dual, err := testGeometry.StepLength(stepqueue.FlagStepX | stepqueue.FlagStepY)
	if err != nil {
		t.Fatalf("dual motor: %v", err)
	}
	if math.Abs(dual-math.Sqrt2*base) > 1e-15 {
		t.Errorf("dual motor step length = %v, want %v", dual, math.Sqrt2*base)
	}
}

// TestStepLengthCoreXY tests the CoreXY belt coupling factors.
func TestStepLengthCoreXY(t *testing.T) {
	g := testGeometry
	g.Kind = CoreXY
	base := (1.0 / 100) * 0.001 * 16 / 128

	single, err := g.StepLength(stepqueue.FlagStepY)
	if err != nil {
		t.Fatalf("single motor: %v", err)
	}
	if math.Abs(single-math.Sqrt2/2*base) > 1e-15 {
		t.Errorf("single motor step length = %v, want %v", single, math.Sqrt2/2*base)
	}

	dual, err := g.StepLength(stepqueue.FlagStepX | stepqueue.FlagStepY)
	if err != nil {
		t.Fatalf("dual motor: %v", err)
	}
	if math.Abs(dual-base) > 1e-15 {
		t.Errorf("dual motor step length = %v, want %v", dual, base)
	}
}

// TestStepLengthNoMotors tests the unrecoverable configuration fault.
func TestStepLengthNoMotors(t *testing.T) {
	_, err := testGeometry.StepLength(0)
	if err == nil {
		t.Fatal("expected error for zero motors")
	}
	if !errors.Is(err, errors.ErrKinematics) {
		t.Errorf("err = %v, want KINEMATICS", err)
	}
}

// TestParseKind tests the kind names and the unknown-kind error.
func TestParseKind(t *testing.T) {
	if k, err := ParseKind("CoreXY"); err != nil || k != CoreXY {
		t.Errorf("ParseKind(CoreXY) = %v, %v", k, err)
	}
	if k, err := ParseKind("cartesian"); err != nil || k != Cartesian {
		t.Errorf("ParseKind(cartesian) = %v, %v", k, err)
	}
	_, err := ParseKind("delta")
	if !errors.Is(err, errors.ErrKinematics) {
		t.Errorf("ParseKind(delta) err = %v, want KINEMATICS", err)
	}
}

// TestLogicalAxisCartesian tests direct motor-to-axis mapping.
func TestLogicalAxisCartesian(t *testing.T) {
	if la := LogicalAxis(Cartesian, stepqueue.FlagStepX); !la.X || la.Y {
		t.Errorf("X motor: %+v", la)
	}
	if la := LogicalAxis(Cartesian, stepqueue.FlagStepY); la.X || !la.Y {
		t.Errorf("Y motor: %+v", la)
	}
	// Diagonal excites neither logical axis alone.
	if la := LogicalAxis(Cartesian, stepqueue.FlagStepX|stepqueue.FlagStepY); la.X || la.Y {
		t.Errorf("diagonal: %+v", la)
	}
}

// TestLogicalAxisCoreXY tests the belt-phase mapping.
func TestLogicalAxisCoreXY(t *testing.T) {
	both := stepqueue.FlagStepX | stepqueue.FlagStepY

	if la := LogicalAxis(CoreXY, both); !la.X || la.Y {
		t.Errorf("equal directions: %+v", la)
	}
	if la := LogicalAxis(CoreXY, both|stepqueue.FlagDirY); la.X || !la.Y {
		t.Errorf("opposite directions: %+v", la)
	}
	if la := LogicalAxis(CoreXY, both|stepqueue.FlagDirX|stepqueue.FlagDirY); !la.X || la.Y {
		t.Errorf("both reversed: %+v", la)
	}
	// A single CoreXY motor moves diagonally.
	if la := LogicalAxis(CoreXY, stepqueue.FlagStepX); la.X || la.Y {
		t.Errorf("single motor: %+v", la)
	}
}
