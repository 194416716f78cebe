// Simulated resonant structure sensor
//
// Models the steady-state response of a damped single-degree-of-
// freedom structure to sinusoidal excitation. Used by tests and the
// dry-run mode so the whole tuning pipeline can run without hardware.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package accelerometer

import (
	"math"
	"sync"
)

// Simulated is an Accelerometer whose readings follow a second-order
// resonance transmissibility curve around a configured natural
// frequency. Samples are generated on demand at a fixed rate; the
// sensor is isochronous by construction.
type Simulated struct {
	mu sync.Mutex

	naturalFreq  float64
	dampingRatio float64
	sampleRate   float64

	exciteFreq  float64
	exciteAccel float64
	axis        int

	time float64
}

// NewSimulated creates a simulated structure with the given natural
// frequency (Hz), damping ratio and sample rate (Hz).
func NewSimulated(naturalFreq, dampingRatio, sampleRate float64) *Simulated {
	return &Simulated{
		naturalFreq:  naturalFreq,
		dampingRatio: dampingRatio,
		sampleRate:   sampleRate,
	}
}

// SampleRate returns the configured sample rate.
func (s *Simulated) SampleRate() float64 { return s.sampleRate }

// Excite sets the current excitation: frequency (Hz), acceleration
// amplitude (m/s^2) and the axis index the structure responds on.
func (s *Simulated) Excite(frequency, acceleration float64, axis int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exciteFreq = frequency
	s.exciteAccel = acceleration
	s.axis = axis
}

// Gain returns the transmissibility of the structure at the given
// excitation frequency; tests compare the measured gain against it.
func (s *Simulated) Gain(frequency float64) float64 {
	r := frequency / s.naturalFreq
	re := 1 - r*r
	im := 2 * s.dampingRatio * r
	return 1 / math.Sqrt(re*re+im*im)
}

// Present reports true.
func (s *Simulated) Present() bool { return true }

// GetSample returns the next steady-state response sample.
func (s *Simulated) GetSample() (Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out Sample
	if s.exciteFreq > 0 {
		r := s.exciteFreq / s.naturalFreq
		re := 1 - r*r
		im := 2 * s.dampingRatio * r
		gain := 1 / math.Sqrt(re*re+im*im)
		phase := math.Atan2(im, re)

		value := s.exciteAccel * gain * math.Sin(2*math.Pi*s.exciteFreq*s.time-phase)
		switch s.axis {
		case 0:
			out.X = value
		case 1:
			out.Y = value
		case 2:
			out.Z = value
		}
	}
	s.time += 1 / s.sampleRate
	return out, true
}

// Clear resets the internal clock.
func (s *Simulated) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.time = 0
}

// Close is a no-op.
func (s *Simulated) Close() error { return nil }
