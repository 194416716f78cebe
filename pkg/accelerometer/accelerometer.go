// Vibration sensor capability interface
//
// The firmware compiles the accelerometer in or out; here the
// presence of a sensor is a runtime capability selected once at
// startup. Measurement passes degrade to pure excitation when no
// sensor is present.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package accelerometer

// NumAxes is the number of acceleration axes per sample.
const NumAxes = 3

// Sample is one 3-axis acceleration reading in m/s^2.
type Sample struct {
	X, Y, Z float64
}

// Axis returns one component by index. An invalid index is a logic
// fault, not a recoverable condition.
func (s Sample) Axis(i int) float64 {
	switch i {
	case 0:
		return s.X
	case 1:
		return s.Y
	case 2:
		return s.Z
	default:
		panic("accelerometer: invalid axis index")
	}
}

// Accelerometer is the non-blocking vibration sensor interface.
type Accelerometer interface {
	// Present reports whether a real (or simulated) sensor is
	// attached. Measurement code checks it once per pass.
	Present() bool

	// GetSample returns the next buffered sample, if any. It never
	// blocks; callers yield and retry.
	GetSample() (Sample, bool)

	// Clear discards buffered samples. Used after idle periods so a
	// stale backlog does not bias the next pass.
	Clear()

	// Close releases the underlying device.
	Close() error
}

// None is the absent-sensor variant.
type None struct{}

// Present always reports false.
func (None) Present() bool { return false }

// GetSample never yields a sample.
func (None) GetSample() (Sample, bool) { return Sample{}, false }

// Clear is a no-op.
func (None) Clear() {}

// Close is a no-op.
func (None) Close() error { return nil }
