// Telemetry recording for tuning runs
//
// Best-effort, rate-limited emission of tuning metrics (current
// excitation frequency, raw accelerometer samples). Sinks are
// pluggable; emission failures are logged and never propagate into
// the measurement loop.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package telemetry

import (
	"sync"
	"time"

	"buddy-go-migration/pkg/log"
)

// Metric names emitted by the tuner.
const (
	MetricExciteFreq = "excite_freq"
	MetricAccel      = "tk_accel"
)

// Fields holds one metric's values.
type Fields map[string]float64

// Sink delivers metric records somewhere.
type Sink interface {
	Emit(name string, fields Fields) error
	Close() error
}

// Recorder rate-limits per-metric emission and fans records out to
// all sinks.
type Recorder struct {
	mu       sync.Mutex
	sinks    []Sink
	interval time.Duration
	last     map[string]time.Time
	logger   *log.Logger
	now      func() time.Time
}

// NewRecorder creates a recorder with the given minimum per-metric
// interval.
func NewRecorder(interval time.Duration, logger *log.Logger, sinks ...Sink) *Recorder {
	if logger == nil {
		logger = log.Default()
	}
	return &Recorder{
		sinks:    sinks,
		interval: interval,
		last:     make(map[string]time.Time),
		logger:   logger.Component("telemetry"),
		now:      time.Now,
	}
}

// Record emits one metric unless it was emitted within the minimum
// interval. Best effort: sink errors are logged and swallowed.
func (r *Recorder) Record(name string, fields Fields) {
	r.mu.Lock()
	now := r.now()
	if prev, ok := r.last[name]; ok && now.Sub(prev) < r.interval {
		r.mu.Unlock()
		return
	}
	r.last[name] = now
	sinks := r.sinks
	r.mu.Unlock()

	for _, sink := range sinks {
		if err := sink.Emit(name, fields); err != nil {
			r.logger.Debug("sink emit failed", "metric", name, "error", err)
		}
	}
}

// RecordFloat emits a single-value metric.
func (r *Recorder) RecordFloat(name string, value float64) {
	r.Record(name, Fields{"value": value})
}

// Close closes every sink.
func (r *Recorder) Close() {
	r.mu.Lock()
	sinks := r.sinks
	r.sinks = nil
	r.mu.Unlock()
	for _, sink := range sinks {
		if err := sink.Close(); err != nil {
			r.logger.Debug("sink close failed", "error", err)
		}
	}
}

// LogSink writes metrics to the structured logger at DEBUG level.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink creates a sink writing through the given logger.
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger.Component("metrics")}
}

// Emit logs the metric.
func (s *LogSink) Emit(name string, fields Fields) error {
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	s.logger.Debug(name, kv...)
	return nil
}

// Close is a no-op.
func (s *LogSink) Close() error { return nil }
