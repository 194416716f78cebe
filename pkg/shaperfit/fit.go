// Input shaper fitting - port of the Buddy firmware M958 shaper
// selection (fit_shaper / find_best_shaper), itself derived from the
// Klipper shaper_calibrate algorithm
//
// Copyright (C) 2020-2024  Dmitry Butyugin <dmbutyugin@google.com>
// Copyright (C) 2020-2024  Marek Bel, Prusa Research
// Copyright (C) 2026  Go port
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package shaperfit

import (
	"math"

	"buddy-go-migration/pkg/inputshaper"
	"buddy-go-migration/pkg/log"
	"buddy-go-migration/pkg/spectrum"
)

const (
	sweepStartFrequency = 5.0
	sweepEndFrequency   = 150.0
	sweepFrequencyStep  = 0.2

	epsilon = 0.01

	// Reference motion profile for the smoothing penalty.
	smoothingAccel = 5000.0
	smoothingSCV   = 5.0
)

// Action selects how far the per-family search goes.
type Action int

const (
	// ActionFindBest tracks the frequency minimizing pessimized
	// residual vibration.
	ActionFindBest Action = iota

	// ActionSelect additionally picks, among frequencies whose
	// residual is within 10% of the best, the one minimizing the
	// composite smoothing/vibration score.
	ActionSelect
)

// ActionLast is the full two-phase search.
const ActionLast = ActionSelect

// Result is the outcome of fitting one shaper family.
type Result struct {
	Frequency float64
	Score     float64
	Smoothing float64
}

// Selection is the winning family and frequency across all families.
type Selection struct {
	Frequency float64
	Type      inputshaper.Type
	Score     float64
	Smoothing float64
}

// Fitter evaluates shaper candidates against a collected spectrum.
type Fitter struct {
	logger             *log.Logger
	yield              func()
	maxSmoothing       float64
	dampingRatio       float64
	vibrationReduction float64
}

// NewFitter creates a fitter with the firmware defaults: no smoothing
// bound, candidate damping ratio 0.1, vibration reduction target 20.
func NewFitter(logger *log.Logger) *Fitter {
	if logger == nil {
		logger = log.Default()
	}
	return &Fitter{
		logger:             logger.Component("shaperfit"),
		yield:              func() {},
		maxSmoothing:       math.MaxFloat64,
		dampingRatio:       inputshaper.DefaultDampingRatio,
		vibrationReduction: inputshaper.DefaultVibrationReduction,
	}
}

// SetYield installs the cooperative yield invoked between candidate
// evaluations. The fit is not time critical, so every candidate
// yields once.
func (f *Fitter) SetYield(yield func()) {
	if yield != nil {
		f.yield = yield
	}
}

// SetMaxSmoothing bounds candidate smoothing; the descending sweep
// aborts once the bound is exceeded after a candidate exists, since
// smoothing only grows toward low frequencies.
func (f *Fitter) SetMaxSmoothing(max float64) {
	f.maxSmoothing = max
}

// invD returns the reciprocal of the impulse weight sum.
func invD(sh inputshaper.Shaper) float64 {
	d := 0.0
	for _, a := range sh.A {
		d += a
	}
	return 1 / d
}

// Smoothing computes the path-blur penalty of an impulse train from
// its time-weighted centroid against the reference acceleration and
// cruise-speed profile. Larger values delay and round motion more.
func Smoothing(sh inputshaper.Shaper) float64 {
	halfAccel := smoothingAccel / 2
	inv := invD(sh)

	ts := 0.0
	for i := range sh.A {
		ts += sh.A[i] * sh.T[i]
	}
	ts *= inv

	offset90 := 0.0
	offset180 := 0.0
	for i := range sh.A {
		if sh.T[i] >= ts {
			offset90 += sh.A[i] * (smoothingSCV + halfAccel*(sh.T[i]-ts)) * (sh.T[i] - ts)
		}
		offset180 += sh.A[i] * halfAccel * (sh.T[i] - ts) * (sh.T[i] - ts)
	}
	offset90 *= inv * math.Sqrt2
	offset180 *= inv

	return math.Max(offset90, offset180)
}

// VibrationReduction computes the closed-form frequency response of
// the impulse train against a damped single-degree-of-freedom
// oscillator and returns the attenuation factor.
func VibrationReduction(sh inputshaper.Shaper, systemDampingRatio, frequency float64) float64 {
	inv := invD(sh)
	omega := 2 * math.Pi * frequency
	damping := systemDampingRatio * omega
	omegaD := omega * math.Sqrt(1-systemDampingRatio*systemDampingRatio)

	last := sh.T[len(sh.T)-1]
	s := 0.0
	c := 0.0
	for i := range sh.A {
		w := sh.A[i] * math.Exp(-damping*(last-sh.T[i]))
		sc, cc := math.Sincos(omegaD * sh.T[i])
		s += w * sc
		c += w * cc
	}
	return math.Sqrt(s*s+c*c) * inv
}

// RemainingVibrations scores how much vibration survives the shaper
// across the recorded spectrum. Residuals below the noise floor
// (spectrum max / vibration reduction target) are ignored. A spectrum
// with no measurable gain returns zero: no motion means nothing left
// to damp, so tuning becomes a no-op rather than an error.
func RemainingVibrations(sh inputshaper.Shaper, systemDampingRatio float64, psd *spectrum.Spectrum) float64 {
	threshold := psd.Max() / inputshaper.DefaultVibrationReduction
	remaining := 0.0
	total := 0.0
	for i := 0; i < psd.Size(); i++ {
		fg := psd.Get(i)
		total += math.Max(fg.Gain, 0)
		vibration := fg.Gain*VibrationReduction(sh, systemDampingRatio, fg.Frequency) - threshold
		remaining += math.Max(vibration, 0)
	}
	if total == 0 {
		return 0
	}
	return remaining / total
}

type fitCandidate struct {
	frequency float64
	score     float64
	smoothing float64
	vibrs     float64
}

// FitShaper searches the descending frequency sweep for the given
// family. The machine's exact damping ratio is unknown, so residual
// vibration is pessimized over several assumed values.
func (f *Fitter) FitShaper(typ inputshaper.Type, psd *spectrum.Spectrum, final Action) Result {
	best := fitCandidate{vibrs: math.MaxFloat64}
	selected := fitCandidate{vibrs: math.MaxFloat64}

	for action := ActionFindBest; action <= final; action++ {
		for frequency := sweepEndFrequency; frequency >= sweepStartFrequency-epsilon; frequency -= sweepFrequencyStep {
			sh := inputshaper.Get(f.dampingRatio, frequency, f.vibrationReduction, typ)
			shaperSmoothing := Smoothing(sh)
			if action == ActionFindBest && best.frequency != 0 && shaperSmoothing > f.maxSmoothing {
				return Result{Frequency: best.frequency, Score: best.score, Smoothing: best.smoothing}
			}

			shaperVibrations := 0.0
			for dampingRatio := 0.05; dampingRatio <= 0.15+epsilon; dampingRatio += 0.05 {
				if vibrations := RemainingVibrations(sh, dampingRatio, psd); vibrations > shaperVibrations {
					shaperVibrations = vibrations
				}
			}

			// The score minimizes vibrations while accounting for the
			// growth of smoothing; the formula shows good results on
			// real user data.
			shaperScore := shaperSmoothing * (math.Pow(shaperVibrations, 1.5) + shaperVibrations*0.2 + 0.01)

			if action == ActionFindBest && shaperVibrations < best.vibrs {
				best = fitCandidate{frequency, shaperScore, shaperSmoothing, shaperVibrations}
				selected = best
			}
			if action == ActionSelect && shaperVibrations < best.vibrs*1.1 && shaperScore < selected.score {
				selected = fitCandidate{frequency, shaperScore, shaperSmoothing, shaperVibrations}
			}

			f.yield()
		}

		f.logger.Info("fit pass done",
			"shaper", typ.String(),
			"action", int(action),
			"frequency", selected.frequency,
			"score", selected.score,
			"vibrations", selected.vibrs,
			"smoothing", selected.smoothing)
	}

	return Result{Frequency: selected.frequency, Score: selected.score, Smoothing: selected.smoothing}
}

// challengerWins reports whether a fitted family displaces the
// incumbent: either decisively better on score, or moderately better
// on score with clearly lower smoothing.
func challengerWins(challenger, incumbent Result) bool {
	if challenger.Score*1.2 < incumbent.Score {
		return true
	}
	return challenger.Score*1.05 < incumbent.Score && challenger.Smoothing*1.1 < incumbent.Smoothing
}

// FindBestShaper fits every supported family and returns the winner.
// Selection is biased toward the incumbent: a competitor must be
// decisively or jointly superior to displace it.
func (f *Fitter) FindBestShaper(psd *spectrum.Spectrum, final Action) Selection {
	best := Selection{Type: inputshaper.TypeFirst}
	first := f.FitShaper(inputshaper.TypeFirst, psd, final)
	best.Frequency, best.Score, best.Smoothing = first.Frequency, first.Score, first.Smoothing

	for typ := inputshaper.TypeFirst + 1; typ <= inputshaper.TypeLast; typ++ {
		result := f.FitShaper(typ, psd, final)
		if challengerWins(result, Result{Frequency: best.Frequency, Score: best.Score, Smoothing: best.Smoothing}) {
			best = Selection{
				Frequency: result.Frequency,
				Type:      typ,
				Score:     result.Score,
				Smoothing: result.Smoothing,
			}
		}
	}
	return best
}
