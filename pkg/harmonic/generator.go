// Harmonic step generator - port of the Buddy firmware M958
// HarmonicGenerator and StepDir classes
//
// Generates a deterministic, amplitude-quantized sinusoidal
// step/direction schedule for one excitation frequency.
//
// Copyright (C) 2020-2024  Marek Bel, Prusa Research
// Copyright (C) 2026  Go port
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package harmonic

import "math"

// Generator produces the infinite step/direction schedule of a
// sinusoidal axis oscillation. The displacement amplitude
// a/(4*pi^2*f^2) is rounded up to whole motor steps, so the quantized
// motion never undershoots the requested displacement; the achievable
// acceleration is correspondingly a little higher than requested and
// must be recomputed with Acceleration when precision matters.
//
// The sequence is exactly periodic with 4*amplitudeSteps pulses per
// period and is not restartable; construct a new Generator per pass.
type Generator struct {
	amplitudeSteps int
	stepLen        float64
	freq2PiInv     float64
	lastTime       float64
	lastStep       int
	dirForward     bool
}

// NewGenerator creates a generator for the given excitation frequency
// (Hz, >0), acceleration amplitude (m/s^2, >=0) and motor step length
// (m, >0). The step amplitude is always at least one step.
func NewGenerator(frequency, acceleration, stepLen float64) *Generator {
	amplitude := acceleration / (4 * math.Pi * math.Pi * frequency * frequency)
	steps := int(math.Ceil(amplitude / stepLen))
	if steps < 1 {
		steps = 1
	}
	return &Generator{
		amplitudeSteps: steps,
		stepLen:        stepLen,
		freq2PiInv:     1 / (frequency * 2 * math.Pi),
		lastTime:       1 / (frequency * 4),
		lastStep:       steps - 1,
		dirForward:     false,
	}
}

// NextDelayDir returns the time to the next step event. The sign
// encodes the direction bit: negative means reversed.
func (g *Generator) NextDelayDir() float64 {
	newTime := math.Asin(float64(g.lastStep)/float64(g.amplitudeSteps)) * g.freq2PiInv

	if g.dirForward {
		if g.lastStep < g.amplitudeSteps {
			g.lastStep++
		} else {
			g.lastStep--
			g.dirForward = false
		}
	} else {
		if g.lastStep > -g.amplitudeSteps {
			g.lastStep--
		} else {
			g.lastStep++
			g.dirForward = true
		}
	}

	delay := newTime - g.lastTime
	g.lastTime = newTime
	return delay
}

// AmplitudeSteps returns the displacement amplitude in whole steps.
func (g *Generator) AmplitudeSteps() int {
	return g.amplitudeSteps
}

// StepsPerPeriod returns the pulse count of one full oscillation
// period (quarter-wave symmetry, 4 times the step amplitude).
func (g *Generator) StepsPerPeriod() int {
	return g.amplitudeSteps * 4
}

// Frequency integrates one full period of the delay sequence and
// returns the frequency actually achieved after quantization. It
// advances the sequence by exactly one period, which leaves the
// generator state unchanged by periodicity.
func (g *Generator) Frequency() float64 {
	period := 0.0
	for i := 0; i < g.StepsPerPeriod(); i++ {
		period += math.Abs(g.NextDelayDir())
	}
	return 1 / period
}

// Acceleration returns the true acceleration amplitude for the
// quantized step count at the given achieved frequency.
func (g *Generator) Acceleration(frequency float64) float64 {
	return float64(g.amplitudeSteps) * g.stepLen * 4 * math.Pi * math.Pi * frequency * frequency
}
