// Step tick scheduler - port of the Buddy firmware M958 StepDir class
//
// Copyright (C) 2020-2024  Marek Bel, Prusa Research
// Copyright (C) 2026  Go port
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package harmonic

import "math"

// DefaultTicksPerSecond matches the firmware stepper timer rate.
const DefaultTicksPerSecond = 1000000.0

// StepTicker converts generator delays into hardware-timer ticks. The
// fractional remainder of each conversion is carried into the next
// one; without the carry the truncation error compounds over
// thousands of pulses and detunes the excitation frequency.
type StepTicker struct {
	gen            *Generator
	ticksPerSecond float64
	fraction       float64
}

// NewStepTicker wraps a generator with a tick converter running at
// the given timer rate. Rates at or below zero fall back to
// DefaultTicksPerSecond.
func NewStepTicker(gen *Generator, ticksPerSecond float64) *StepTicker {
	if ticksPerSecond <= 0 {
		ticksPerSecond = DefaultTicksPerSecond
	}
	return &StepTicker{gen: gen, ticksPerSecond: ticksPerSecond}
}

// Next returns the tick delay and direction bit of the next step.
func (t *StepTicker) Next() (uint32, bool) {
	delayDir := t.gen.NextDelayDir()
	dir := math.Signbit(delayDir)

	delayTicks := math.Abs(delayDir)*t.ticksPerSecond + t.fraction
	ticks := uint32(delayTicks)
	t.fraction = delayTicks - float64(ticks)
	return ticks, dir
}
