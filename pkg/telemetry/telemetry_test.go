// Telemetry tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package telemetry

import (
	"errors"
	"testing"
	"time"
)

type captureSink struct {
	emits  []string
	err    error
	closed bool
}

func (c *captureSink) Emit(name string, fields Fields) error {
	c.emits = append(c.emits, name)
	return c.err
}

func (c *captureSink) Close() error {
	c.closed = true
	return nil
}

// TestRecorderRateLimit tests that a metric is suppressed inside its
// minimum interval and passed through after it.
func TestRecorderRateLimit(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder(100*time.Millisecond, nil, sink)

	now := time.Unix(1000, 0)
	rec.now = func() time.Time { return now }

	rec.RecordFloat(MetricExciteFreq, 50)
	rec.RecordFloat(MetricExciteFreq, 51)
	if len(sink.emits) != 1 {
		t.Fatalf("emits = %d, want 1 (second record inside interval)", len(sink.emits))
	}

	now = now.Add(150 * time.Millisecond)
	rec.RecordFloat(MetricExciteFreq, 52)
	if len(sink.emits) != 2 {
		t.Fatalf("emits = %d, want 2 after interval elapsed", len(sink.emits))
	}
}

// TestRecorderPerMetricWindows tests that different metric names are
// rate limited independently.
func TestRecorderPerMetricWindows(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder(time.Hour, nil, sink)
	now := time.Unix(1000, 0)
	rec.now = func() time.Time { return now }

	rec.RecordFloat(MetricExciteFreq, 50)
	rec.Record(MetricAccel, Fields{"x": 1, "y": 2, "z": 3})
	if len(sink.emits) != 2 {
		t.Fatalf("emits = %d, want one per metric name", len(sink.emits))
	}
}

// TestRecorderSinkErrorSwallowed tests that a failing sink does not
// stop emission or panic.
func TestRecorderSinkErrorSwallowed(t *testing.T) {
	bad := &captureSink{err: errors.New("broken pipe")}
	good := &captureSink{}
	rec := NewRecorder(0, nil, bad, good)

	rec.RecordFloat(MetricExciteFreq, 50)
	if len(good.emits) != 1 {
		t.Error("error in one sink must not prevent delivery to others")
	}
}

// TestRecorderClose tests that Close reaches every sink and later
// records are dropped.
func TestRecorderClose(t *testing.T) {
	sink := &captureSink{}
	rec := NewRecorder(0, nil, sink)
	rec.Close()
	if !sink.closed {
		t.Error("Close must close sinks")
	}
	rec.RecordFloat(MetricExciteFreq, 50)
	if len(sink.emits) != 0 {
		t.Error("records after Close must be dropped")
	}
}

// TestLogSinkEmit tests that the log sink accepts records.
func TestLogSinkEmit(t *testing.T) {
	s := NewLogSink(nil)
	if err := s.Emit(MetricAccel, Fields{"x": 0.5}); err != nil {
		t.Errorf("Emit: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
