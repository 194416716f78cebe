// Excite-and-measure session
//
// Drives one motor set with a harmonic step sequence while reading the
// accelerometer, and demodulates the response at the excitation
// frequency. The step producer and the sample consumer share one
// goroutine: steps are enqueued until the step event queue fills, and
// the full-queue wait is where accelerometer samples get drained and
// accumulated. Samples are only trusted once enough steps are queued
// for the motion to have settled.
//
// Port of Prusa-Firmware-Buddy src/gcode/calibrate/M958.cpp
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package measure

import (
	"math"
	"time"

	"buddy-go-migration/pkg/accelerometer"
	"buddy-go-migration/pkg/harmonic"
	"buddy-go-migration/pkg/log"
	"buddy-go-migration/pkg/reactor"
	"buddy-go-migration/pkg/stepqueue"
	"buddy-go-migration/pkg/telemetry"
)

// DefaultSamplePeriod is assumed until CalibrateSampleRate measures
// the real accelerometer rate.
const DefaultSamplePeriod = 1.0 / 1344.0

const (
	calibrationClearRounds = 96
	calibrationSamples     = 20000
)

// Result is the demodulated response at one excitation frequency.
type Result struct {
	// Frequency is the achieved excitation frequency, which differs
	// from the requested one because the amplitude is quantized to
	// whole steps.
	Frequency float64
	// Gain is measured acceleration amplitude over excitation
	// acceleration amplitude, per accelerometer axis.
	Gain [accelerometer.NumAxes]float64
}

// Exciter is implemented by sensors that model the structure being
// shaken and need the current excitation parameters, such as the
// simulated dry-run sensor. VibrateMeasure notifies it before the
// first step is queued.
type Exciter interface {
	Excite(frequency, acceleration float64, axis int)
}

// Session owns the moving parts of a tuning run: the step event
// queue feeding the motors, the accelerometer, and the cooperative
// idler that keeps background duties serviced while a measurement
// blocks on the queue.
type Session struct {
	queue          *stepqueue.Queue
	sensor         accelerometer.Accelerometer
	idler          *reactor.Idler
	recorder       *telemetry.Recorder
	logger         *log.Logger
	ticksPerSecond float64
	samplePeriod   float64
	now            func() time.Time
}

// NewSession creates a session. recorder may be nil to disable
// telemetry.
func NewSession(queue *stepqueue.Queue, sensor accelerometer.Accelerometer,
	idler *reactor.Idler, recorder *telemetry.Recorder, logger *log.Logger,
	ticksPerSecond float64) *Session {
	if logger == nil {
		logger = log.Default()
	}
	if ticksPerSecond <= 0 {
		ticksPerSecond = harmonic.DefaultTicksPerSecond
	}
	return &Session{
		queue:          queue,
		sensor:         sensor,
		idler:          idler,
		recorder:       recorder,
		logger:         logger.Component("measure"),
		ticksPerSecond: ticksPerSecond,
		samplePeriod:   DefaultSamplePeriod,
		now:            time.Now,
	}
}

// TicksPerSecond returns the step timer rate the session schedules
// against.
func (s *Session) TicksPerSecond() float64 { return s.ticksPerSecond }

// SamplePeriod returns the accelerometer sample period in use.
func (s *Session) SamplePeriod() float64 { return s.samplePeriod }

// SampleRate returns the accelerometer sample rate in use.
func (s *Session) SampleRate() float64 { return 1.0 / s.samplePeriod }

// CalibrateSampleRate measures the accelerometer sample rate by
// timing a fixed number of samples. The sensor backlog is cleared
// repeatedly first so stale FIFO contents do not skew the timing.
func (s *Session) CalibrateSampleRate() {
	if !s.sensor.Present() {
		return
	}
	for i := 0; i < calibrationClearRounds; i++ {
		s.idler.Yield()
		s.sensor.Clear()
	}

	start := s.now()
	for i := 0; i < calibrationSamples; {
		if _, ok := s.sensor.GetSample(); ok {
			i++
		} else {
			s.idler.Yield()
		}
	}
	duration := s.now().Sub(start)

	if duration < time.Millisecond {
		// A sensor that can deliver 20k samples instantly is not
		// paced by real time; keep the configured period.
		s.logger.Warn("sample rate calibration too fast, keeping period",
			"period", s.samplePeriod)
		return
	}
	s.samplePeriod = duration.Seconds() / float64(calibrationSamples)
	s.logger.Info("sample rate calibrated", "freq", 1.0/s.samplePeriod)
}

// excitedAxis maps the motor flags to the accelerometer axis the
// structure responds on. With both motors stepping the CoreXY
// convention applies: equal initial directions shake X, opposite
// directions shake Y.
func excitedAxis(flags stepqueue.StepEventFlags) int {
	xStep := flags&stepqueue.FlagStepX != 0
	yStep := flags&stepqueue.FlagStepY != 0
	switch {
	case xStep && yStep:
		xDir := flags&stepqueue.FlagDirX != 0
		yDir := flags&stepqueue.FlagDirY != 0
		if xDir == yDir {
			return 0
		}
		return 1
	case yStep:
		return 1
	default:
		return 0
	}
}

// VibrateMeasure excites the motors selected by flags at the
// requested frequency and acceleration for the given number of
// periods and returns the demodulated per-axis gain. The second
// return value is false when no accelerometer is present; excitation
// still runs in that case.
func (s *Session) VibrateMeasure(flags stepqueue.StepEventFlags, frequencyRequested,
	accelerationRequested, stepLen float64, cycles uint32) (Result, bool) {

	gen := harmonic.NewGenerator(frequencyRequested, accelerationRequested, stepLen)
	frequency := gen.Frequency()
	ticker := harmonic.NewStepTicker(gen, s.ticksPerSecond)

	hasSensor := s.sensor.Present()
	acceleration := gen.Acceleration(frequency)
	period := 1.0 / frequency

	if ex, ok := s.sensor.(Exciter); ok {
		ex.Excite(frequency, acceleration, excitedAxis(flags))
	}

	// Per-axis sin/cos accumulators for single-bin demodulation.
	var accum [accelerometer.NumAxes][2]float64
	freq2Pi := 2.0 * math.Pi * frequency
	periodTime := 0.0

	sampleNr := uint32(0)
	samplesToCollect := uint32(period * float64(cycles) / s.samplePeriod)
	enough := !hasSensor
	firstLoop := true

	stepNr := uint32(0)
	settleSteps := uint32(s.queue.Cap())
	stepsPerPeriod := uint32(gen.StepsPerPeriod())
	stepsToDo := stepsPerPeriod * cycles

	// Run until the requested periods are out AND the sample budget is
	// met, then finish the period in progress so the motor returns to
	// its start position.
	for stepNr < stepsToDo || !enough || stepNr%stepsPerPeriod != 0 {
		ticks, dir := ticker.Next()

		for s.queue.IsFull() {
			sampled := false
			if hasSensor {
				if firstLoop {
					s.sensor.Clear()
					firstLoop = false
				}
				smp, ok := s.sensor.GetSample()
				sampled = ok
				if ok && !enough && stepNr > settleSteps {
					if s.recorder != nil {
						s.recorder.Record(telemetry.MetricAccel, telemetry.Fields{
							"x": smp.X, "y": smp.Y, "z": smp.Z,
						})
					}
					phase := freq2Pi * periodTime
					sinP, cosP := math.Sin(phase), math.Cos(phase)
					for axis := 0; axis < accelerometer.NumAxes; axis++ {
						accum[axis][0] += sinP * smp.Axis(axis)
						accum[axis][1] += cosP * smp.Axis(axis)
					}
					sampleNr++
					enough = sampleNr >= samplesToCollect
					periodTime += s.samplePeriod
					if periodTime > period {
						periodTime -= period
					}
				}
			}
			if s.recorder != nil {
				s.recorder.RecordFloat(telemetry.MetricExciteFreq, frequency)
			}
			if !sampled {
				s.idler.Yield()
			}
		}

		f := flags
		if dir {
			f ^= stepqueue.FlagDirMask
		}
		s.queue.Enqueue(stepqueue.StepEvent{Ticks: ticks, Flags: f})
		stepNr++
	}

	if !hasSensor {
		return Result{Frequency: frequency}, false
	}

	result := Result{Frequency: frequency}
	norm := 2.0 / float64(sampleNr+1)
	for axis := 0; axis < accelerometer.NumAxes; axis++ {
		re := accum[axis][0] * norm
		im := accum[axis][1] * norm
		result.Gain[axis] = math.Sqrt(re*re+im*im) / acceleration
	}
	return result, true
}
