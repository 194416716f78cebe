// Tuning orchestration - port of the Buddy firmware M958/M959
// handlers (naive_zv_tune / klipper_tune)
//
// Runs frequency sweeps through the measurement session, collects the
// response spectrum, fits an input shaper and commits the winning
// configuration. Reports go to a writer in the firmware's serial
// console formats.
//
// Copyright (C) 2020-2024  Marek Bel, Prusa Research
// Copyright (C) 2026  Go port
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package tune

import (
	"fmt"
	"io"
	"math"

	"buddy-go-migration/pkg/errors"
	"buddy-go-migration/pkg/harmonic"
	"buddy-go-migration/pkg/inputshaper"
	"buddy-go-migration/pkg/kinematics"
	"buddy-go-migration/pkg/log"
	"buddy-go-migration/pkg/measure"
	"buddy-go-migration/pkg/shaperfit"
	"buddy-go-migration/pkg/spectrum"
	"buddy-go-migration/pkg/stepqueue"
)

const epsilon = 0.01

// Params are the sweep parameters shared by the tuning modes, with
// the firmware defaults.
type Params struct {
	StartFrequency float64 // Hz
	EndFrequency   float64 // Hz
	FrequencyStep  float64 // Hz
	Acceleration   float64 // m/s^2
	Cycles         uint32  // excitation periods of active measurement
}

// DefaultParams returns the sweep defaults.
func DefaultParams() Params {
	return Params{
		StartFrequency: 5,
		EndFrequency:   150,
		FrequencyStep:  1,
		Acceleration:   2.5,
		Cycles:         50,
	}
}

// Tuner drives measurement sweeps and commits shaper selections.
type Tuner struct {
	session  *measure.Session
	geometry kinematics.Geometry
	shaper   *inputshaper.Config
	fitter   *shaperfit.Fitter
	logger   *log.Logger
	out      io.Writer
}

// NewTuner creates a tuner reporting to out.
func NewTuner(session *measure.Session, geometry kinematics.Geometry,
	shaper *inputshaper.Config, fitter *shaperfit.Fitter,
	logger *log.Logger, out io.Writer) *Tuner {
	if logger == nil {
		logger = log.Default()
	}
	return &Tuner{
		session:  session,
		geometry: geometry,
		shaper:   shaper,
		fitter:   fitter,
		logger:   logger.Component("tune"),
		out:      out,
	}
}

// zvShaperDampingRatio recommends a ZV shaper damping ratio that
// damps the measured resonant gain to one. Tabulated shaper gains
// were approximated by a quadratic in 1/resonantGain.
func zvShaperDampingRatio(resonantGain float64) float64 {
	shaperGain := 1 / resonantGain
	return 0.080145136132399*shaperGain*shaperGain + 0.616396503538947*shaperGain + 0.000807776046666
}

// calibrateAndReportHeader calibrates the accelerometer sample rate
// and prints the sweep report header.
func (t *Tuner) calibrateAndReportHeader(klipperMode bool) {
	t.session.CalibrateSampleRate()
	fmt.Fprintf(t.out, "Sample freq: %g\n", t.session.SampleRate())
	if klipperMode {
		fmt.Fprintln(t.out, "freq,psd_x,psd_y,psd_z,psd_xyz,mzv")
	} else {
		fmt.Fprintln(t.out, "frequency[Hz] excitation[m/s^2] X[m/s^2] Y[m/s^2] Z[m/s^2] X_gain Y_gain Z_gain")
	}
}

// reportMeasurement prints one sweep row in the selected format.
func (t *Tuner) reportMeasurement(result measure.Result, acceleration float64, klipperMode bool) {
	if klipperMode {
		x2 := result.Gain[0] * result.Gain[0]
		y2 := result.Gain[1] * result.Gain[1]
		z2 := result.Gain[2] * result.Gain[2]
		fmt.Fprintf(t.out, "%g,%.5f,%.5f,%.5f,%.5f\n", result.Frequency, x2, y2, z2, x2+y2+z2)
		return
	}
	fmt.Fprintf(t.out, "%g %g %.5f %.5f %.5f %.5f %.5f %.5f\n",
		result.Frequency, acceleration,
		result.Gain[0]*acceleration, result.Gain[1]*acceleration, result.Gain[2]*acceleration,
		result.Gain[0], result.Gain[1], result.Gain[2])
}

// ExciteMeasure excites a single frequency and reports the measured
// response. Maps to the one-shot excitation command.
func (t *Tuner) ExciteMeasure(flags stepqueue.StepEventFlags, klipperMode bool,
	frequency, acceleration float64, cycles uint32, calibrate bool) (measure.Result, error) {

	stepLen, err := t.geometry.StepLength(flags)
	if err != nil {
		return measure.Result{}, err
	}
	if calibrate {
		t.calibrateAndReportHeader(klipperMode)
	}
	result, ok := t.session.VibrateMeasure(flags, frequency, acceleration, stepLen, cycles)
	if ok {
		t.reportMeasurement(result, excitationAcceleration(frequency, result.Frequency, acceleration, stepLen), klipperMode)
	}
	return result, nil
}

// excitationAcceleration recomputes the quantized excitation
// acceleration actually generated at the achieved frequency.
func excitationAcceleration(frequencyRequested, frequencyAchieved, accelerationRequested, stepLen float64) float64 {
	gen := harmonic.NewGenerator(frequencyRequested, accelerationRequested, stepLen)
	return gen.Acceleration(frequencyAchieved)
}

// NaiveZVTune sweeps the frequency range, finds the resonant peak on
// the excited logical axis and commits a ZV shaper at that frequency
// with a damping ratio derived from the resonant gain.
//
// The damping computation assumes the filter should damp the resonant
// gain to one, which is a rough approximation: the system is excited
// by sine displacement, not force, so the true load is unknown.
func (t *Tuner) NaiveZVTune(flags stepqueue.StepEventFlags, params Params) error {
	stepLen, err := t.geometry.StepLength(flags)
	if err != nil {
		return err
	}
	logical := kinematics.LogicalAxis(t.geometry.Kind, flags)

	var maxFrequency, maxGain float64
	calibrate := true
	for frequency := params.StartFrequency; frequency <= params.EndFrequency+epsilon; frequency += params.FrequencyStep {
		if calibrate {
			t.calibrateAndReportHeader(false)
			calibrate = false
		}
		result, ok := t.session.VibrateMeasure(flags, frequency, params.Acceleration, stepLen, params.Cycles)
		if !ok {
			return errors.SensorError("accelerometer required for tuning")
		}
		t.reportMeasurement(result, excitationAcceleration(frequency, result.Frequency, params.Acceleration, stepLen), false)

		gain := result.Gain[1]
		if logical.X {
			gain = result.Gain[0]
		}
		if gain > maxGain {
			maxGain = gain
			maxFrequency = result.Frequency
		}
	}

	fmt.Fprintf(t.out, "Maximum resonant gain: %g at frequency: %g\n", maxGain, maxFrequency)

	if maxGain <= 0 {
		// A dead sensor yields all-zero gains; committing would
		// derive an infinite damping ratio at frequency zero.
		return errors.RuntimeError("no resonance response measured")
	}

	if logical.X || logical.Y {
		dampingRatio := zvShaperDampingRatio(maxGain)
		fmt.Fprintln(t.out, "ZV shaper selected")
		fmt.Fprintf(t.out, "Frequency: %g damping ratio: %.5f\n", maxFrequency, dampingRatio)
		t.shaper.Set(logical.X, logical.Y, dampingRatio, maxFrequency, 0, inputshaper.TypeZV)
		t.logger.Info("committed shaper",
			"type", inputshaper.TypeZV.String(),
			"frequency", maxFrequency,
			"damping_ratio", dampingRatio)
	}
	return nil
}

// SpectrumTune sweeps the frequency range collecting a power spectrum
// density, fits all shaper families against it and commits the best
// one with the default damping ratio and vibration reduction.
//
// The spectrum is indexed by requested frequency; the achieved
// frequency of each measurement is discarded, matching the fixed-bin
// spectrum layout.
//
// With subtractExcitation the excited logical axes have the unit
// excitation gain removed before squaring, and the fit stops at the
// lowest-vibration phase instead of the score-based selection phase.
func (t *Tuner) SpectrumTune(subtractExcitation bool, flags stepqueue.StepEventFlags, params Params) error {
	stepLen, err := t.geometry.StepLength(flags)
	if err != nil {
		return err
	}
	logical := kinematics.LogicalAxis(t.geometry.Kind, flags)

	psd := spectrum.New(params.StartFrequency, params.FrequencyStep)
	endFrequency := spectrum.LimitEndFrequency(params.StartFrequency, params.EndFrequency,
		params.FrequencyStep, psd.MaxSize())

	calibrate := true
	for frequency := params.StartFrequency; frequency <= endFrequency+epsilon; frequency += params.FrequencyStep {
		if calibrate {
			t.calibrateAndReportHeader(true)
			calibrate = false
		}
		result, ok := t.session.VibrateMeasure(flags, frequency, params.Acceleration, stepLen, params.Cycles)
		if !ok {
			return errors.SensorError("accelerometer required for tuning")
		}
		t.reportMeasurement(result, excitationAcceleration(frequency, result.Frequency, params.Acceleration, stepLen), true)

		if subtractExcitation {
			if logical.X {
				result.Gain[0] = math.Max(result.Gain[0]-1, 0)
			}
			if logical.Y {
				result.Gain[1] = math.Max(result.Gain[1]-1, 0)
			}
		}
		psdXYZ := result.Gain[0]*result.Gain[0] + result.Gain[1]*result.Gain[1] + result.Gain[2]*result.Gain[2]
		psd.Put(psdXYZ)
	}

	if subtractExcitation {
		fmt.Fprintln(t.out, "Excitation subtracted power spectrum density")
		fmt.Fprintln(t.out, "freq,psd_xyz")
		for i := 0; i < psd.Size(); i++ {
			fg := psd.Get(i)
			fmt.Fprintf(t.out, "%g,%.5f\n", fg.Frequency, fg.Gain)
		}
	}

	if logical.X || logical.Y {
		final := shaperfit.ActionLast
		if subtractExcitation {
			final = shaperfit.ActionFindBest
		}
		best := t.fitter.FindBestShaper(psd, final)
		t.shaper.Set(logical.X, logical.Y,
			inputshaper.DefaultDampingRatio, best.Frequency,
			inputshaper.DefaultVibrationReduction, best.Type)
		fmt.Fprintf(t.out, "Activated default damping and vibr. reduction shaper type: %s frequency: %g\n",
			best.Type.String(), best.Frequency)
		t.logger.Info("committed shaper",
			"type", best.Type.String(),
			"frequency", best.Frequency,
			"score", best.Score)
	}
	return nil
}
