// Power spectrum collector - port of the Buddy firmware M958
// Spectrum template
//
// Fixed-capacity ordered table of gain samples collected across a
// frequency sweep. The frequency of each bin is implicit:
// start + index*step.
//
// Copyright (C) 2020-2024  Marek Bel, Prusa Research
// Copyright (C) 2026  Go port
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package spectrum

import "math"

// MaxSamples is the fixed sweep capacity. Callers clamp the sweep
// range with LimitEndFrequency so it fits.
const MaxSamples = 146

const epsilon = 0.01

// FrequencyGain pairs a bin frequency with its recorded gain.
type FrequencyGain struct {
	Frequency float64
	Gain      float64
}

// Spectrum collects gain samples in sweep order.
type Spectrum struct {
	gain           [MaxSamples]float64
	startFrequency float64
	frequencyStep  float64
	size           int
}

// New creates an empty spectrum with the given implicit frequency
// mapping.
func New(startFrequency, frequencyStep float64) *Spectrum {
	return &Spectrum{
		startFrequency: startFrequency,
		frequencyStep:  frequencyStep,
	}
}

// MaxSize returns the capacity of the spectrum.
func (s *Spectrum) MaxSize() int { return MaxSamples }

// Size returns the number of recorded samples.
func (s *Spectrum) Size() int { return s.size }

// Put appends one gain sample. Appends beyond capacity are silently
// dropped; pre-clamp the sweep with LimitEndFrequency.
func (s *Spectrum) Put(gain float64) {
	if s.size >= MaxSamples {
		return
	}
	s.gain[s.size] = gain
	s.size++
}

// Get returns the (frequency, gain) pair at index. Out-of-range
// indices return a zero pair.
func (s *Spectrum) Get(index int) FrequencyGain {
	if index < 0 || index >= s.size {
		return FrequencyGain{}
	}
	return FrequencyGain{
		Frequency: s.startFrequency + float64(index)*s.frequencyStep,
		Gain:      s.gain[index],
	}
}

// Max returns the largest recorded gain, or the smallest positive
// float when the spectrum is empty. The result seeds the noise floor
// of the shaper fit.
func (s *Spectrum) Max() float64 {
	maximum := math.SmallestNonzeroFloat64
	for i := 0; i < s.size; i++ {
		if s.gain[i] > maximum {
			maximum = s.gain[i]
		}
	}
	return maximum
}

// LimitEndFrequency clamps a sweep's end frequency downward so the
// sample count never exceeds maxSamples.
func LimitEndFrequency(startFrequency, endFrequency, frequencyIncrement float64, maxSamples int) float64 {
	requestedSamples := int((endFrequency-startFrequency+epsilon)/frequencyIncrement) + 1
	if requestedSamples > maxSamples {
		endFrequency = startFrequency + float64(maxSamples-1)*frequencyIncrement
	}
	return endFrequency
}
