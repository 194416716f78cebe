// Measurement session tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package measure

import (
	"math"
	"sync/atomic"
	"testing"
	"time"

	"buddy-go-migration/pkg/accelerometer"
	"buddy-go-migration/pkg/harmonic"
	"buddy-go-migration/pkg/reactor"
	"buddy-go-migration/pkg/stepqueue"
)

const testStepLen = 0.0000125

// startDrainer consumes queue events slower than the producer fills
// them, so the queue-full sampling window stays open the way the real
// step interrupt keeps it open. Returns a stop func and a count of
// drained events.
func startDrainer(q *stepqueue.Queue) (func(), *atomic.Uint64) {
	done := make(chan struct{})
	stopped := make(chan struct{})
	var drained atomic.Uint64
	go func() {
		defer close(stopped)
		for {
			select {
			case <-done:
				return
			default:
			}
			if _, ok := q.Dequeue(); ok {
				drained.Add(1)
			}
			time.Sleep(20 * time.Microsecond)
		}
	}()
	return func() { close(done); <-stopped }, &drained
}

// TestVibrateMeasureTracksResonatorGain tests the full excite and
// demodulate path against a simulated resonant structure: the gain
// reported on the excited axis must match the resonator's transfer
// function at the achieved frequency.
func TestVibrateMeasureTracksResonatorGain(t *testing.T) {
	if testing.Short() {
		t.Skip("timing-paced measurement loop")
	}
	const (
		requested = 25.0
		accel     = 2.5
		cycles    = 50
	)

	// Same construction as the session's internal generator, so the
	// achieved frequency matches. The session itself tells the sensor
	// what excitation to respond to.
	ref := harmonic.NewGenerator(requested, accel, testStepLen)
	achieved := ref.Frequency()

	sim := accelerometer.NewSimulated(50, 0.1, 1.0/DefaultSamplePeriod)

	q := stepqueue.NewQueue(32)
	stop, _ := startDrainer(q)
	defer stop()

	session := NewSession(q, sim, reactor.NewIdler(), nil, nil, harmonic.DefaultTicksPerSecond)
	result, ok := session.VibrateMeasure(stepqueue.FlagStepX, requested, accel, testStepLen, cycles)
	if !ok {
		t.Fatal("measurement with a present sensor must report ok")
	}
	if result.Frequency != achieved {
		t.Errorf("achieved frequency = %v, want %v", result.Frequency, achieved)
	}

	want := sim.Gain(achieved)
	if math.Abs(result.Gain[0]-want)/want > 0.03 {
		t.Errorf("gain[0] = %v, want %v within 3%%", result.Gain[0], want)
	}
	// Axes without excitation must read near zero.
	for axis := 1; axis < accelerometer.NumAxes; axis++ {
		if result.Gain[axis] > want*0.01 {
			t.Errorf("gain[%d] = %v, want near zero", axis, result.Gain[axis])
		}
	}
}

// TestVibrateMeasureWithoutSensor tests that excitation still runs
// without an accelerometer: exactly the requested whole periods are
// queued and the wait loop yields.
func TestVibrateMeasureWithoutSensor(t *testing.T) {
	const (
		requested = 40.0
		accel     = 2.5
		cycles    = 8
	)
	ref := harmonic.NewGenerator(requested, accel, testStepLen)
	wantSteps := uint64(ref.StepsPerPeriod()) * cycles

	q := stepqueue.NewQueue(16)
	stop, drained := startDrainer(q)
	idler := reactor.NewIdler()

	session := NewSession(q, accelerometer.None{}, idler, nil, nil, harmonic.DefaultTicksPerSecond)
	result, ok := session.VibrateMeasure(stepqueue.FlagStepX|stepqueue.FlagStepY, requested, accel, testStepLen, cycles)
	stop()
	if ok {
		t.Fatal("measurement without a sensor must report not ok")
	}
	if result.Frequency <= 0 {
		t.Errorf("achieved frequency = %v, want positive", result.Frequency)
	}

	total := drained.Load()
	for {
		if _, ok := q.Dequeue(); !ok {
			break
		}
		total++
	}
	if total != wantSteps {
		t.Errorf("queued steps = %d, want %d (whole periods only)", total, wantSteps)
	}
	if idler.Yields() == 0 {
		t.Error("full-queue wait must yield to background duties")
	}
}

// notifiedSensor records the excitation notification it receives.
type notifiedSensor struct {
	freq  float64
	accel float64
	axis  int
	n     int
}

func (s *notifiedSensor) Present() bool { return true }

func (s *notifiedSensor) Excite(frequency, acceleration float64, axis int) {
	s.freq, s.accel, s.axis = frequency, acceleration, axis
	s.n++
}

func (s *notifiedSensor) GetSample() (accelerometer.Sample, bool) {
	return accelerometer.Sample{}, true
}

func (s *notifiedSensor) Clear()       {}
func (s *notifiedSensor) Close() error { return nil }

// TestVibrateMeasureNotifiesExciter tests that an excitation-aware
// sensor is told the achieved frequency, the quantized acceleration
// and the responding axis before sampling starts.
func TestVibrateMeasureNotifiesExciter(t *testing.T) {
	if testing.Short() {
		t.Skip("timing-paced measurement loop")
	}
	const (
		requested = 40.0
		accel     = 2.5
		cycles    = 3
	)
	ref := harmonic.NewGenerator(requested, accel, testStepLen)
	achieved := ref.Frequency()

	q := stepqueue.NewQueue(16)
	stop, _ := startDrainer(q)
	defer stop()

	sensor := &notifiedSensor{}
	session := NewSession(q, sensor, reactor.NewIdler(), nil, nil, harmonic.DefaultTicksPerSecond)
	flags := stepqueue.FlagStepX | stepqueue.FlagStepY | stepqueue.FlagDirY
	if _, ok := session.VibrateMeasure(flags, requested, accel, testStepLen, cycles); !ok {
		t.Fatal("measurement with a present sensor must report ok")
	}

	if sensor.n != 1 {
		t.Fatalf("sensor notified %d times, want 1", sensor.n)
	}
	if sensor.freq != achieved {
		t.Errorf("notified frequency = %v, want %v", sensor.freq, achieved)
	}
	if want := ref.Acceleration(achieved); sensor.accel != want {
		t.Errorf("notified acceleration = %v, want %v", sensor.accel, want)
	}
	if sensor.axis != 1 {
		t.Errorf("opposite initial directions must notify axis 1, got %d", sensor.axis)
	}
}

// TestExcitedAxis tests the motor-flag to response-axis mapping.
func TestExcitedAxis(t *testing.T) {
	cases := []struct {
		name  string
		flags stepqueue.StepEventFlags
		want  int
	}{
		{"x motor", stepqueue.FlagStepX, 0},
		{"y motor", stepqueue.FlagStepY, 1},
		{"both equal directions", stepqueue.FlagStepX | stepqueue.FlagStepY, 0},
		{"both reversed", stepqueue.FlagStepX | stepqueue.FlagStepY | stepqueue.FlagDirX | stepqueue.FlagDirY, 0},
		{"opposite directions", stepqueue.FlagStepX | stepqueue.FlagStepY | stepqueue.FlagDirX, 1},
	}
	for _, tc := range cases {
		if got := excitedAxis(tc.flags); got != tc.want {
			t.Errorf("%s: excitedAxis = %d, want %d", tc.name, got, tc.want)
		}
	}
}

// TestCalibrateSampleRate tests the timed calibration path with a
// stubbed clock.
func TestCalibrateSampleRate(t *testing.T) {
	sim := accelerometer.NewSimulated(50, 0.1, 1344)
	session := NewSession(stepqueue.NewQueue(16), sim, reactor.NewIdler(), nil, nil, 0)

	base := time.Unix(5000, 0)
	calls := 0
	session.now = func() time.Time {
		calls++
		if calls > 1 {
			return base.Add(20 * time.Second)
		}
		return base
	}

	session.CalibrateSampleRate()
	want := 20.0 / float64(calibrationSamples)
	if math.Abs(session.SamplePeriod()-want) > 1e-12 {
		t.Errorf("sample period = %v, want %v", session.SamplePeriod(), want)
	}
	if math.Abs(session.SampleRate()-1000) > 1e-6 {
		t.Errorf("sample rate = %v, want 1000", session.SampleRate())
	}
}

// TestCalibrateSampleRateRejectsInstant tests that an unpaced sensor
// does not produce a nonsense period.
func TestCalibrateSampleRateRejectsInstant(t *testing.T) {
	sim := accelerometer.NewSimulated(50, 0.1, 1344)
	session := NewSession(stepqueue.NewQueue(16), sim, reactor.NewIdler(), nil, nil, 0)

	session.CalibrateSampleRate()
	if session.SamplePeriod() != DefaultSamplePeriod {
		t.Errorf("sample period = %v, want default kept", session.SamplePeriod())
	}
}

// TestCalibrateSampleRateNoSensor tests the absent-sensor no-op.
func TestCalibrateSampleRateNoSensor(t *testing.T) {
	session := NewSession(stepqueue.NewQueue(16), accelerometer.None{}, reactor.NewIdler(), nil, nil, 0)
	session.CalibrateSampleRate()
	if session.SamplePeriod() != DefaultSamplePeriod {
		t.Errorf("sample period = %v, want default", session.SamplePeriod())
	}
}
