// Step event queue - port of the Buddy firmware PreciseStepping
// step-event queue producer/consumer contract
//
// The tuner is the sole producer; the step interrupt (modeled here as
// a separate goroutine) is the sole consumer. A slot is fully written
// before the head index is published, and fully read before the tail
// advances, so the consumer never observes a partial event.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package stepqueue

import (
	"context"
	"math/bits"
	"sync/atomic"
	"time"
)

// StepEventFlags carries the motors a step event pulses and the
// initial direction bit for each motor.
type StepEventFlags uint16

const (
	// FlagStepX pulses the X motor.
	FlagStepX StepEventFlags = 1 << iota
	// FlagStepY pulses the Y motor.
	FlagStepY
	// FlagDirX sets the X motor direction.
	FlagDirX
	// FlagDirY sets the Y motor direction.
	FlagDirY
)

// FlagAxisMask selects the step bits.
const FlagAxisMask = FlagStepX | FlagStepY

// FlagDirMask selects the direction bits.
const FlagDirMask = FlagDirX | FlagDirY

// MotorCount returns the number of motors the flags pulse.
func (f StepEventFlags) MotorCount() int {
	return bits.OnesCount16(uint16(f & FlagAxisMask))
}

// StepEvent is one hardware-timer step: a tick delay and the
// motor/direction flags.
type StepEvent struct {
	Ticks uint32
	Flags StepEventFlags
}

// DefaultSize is the step event queue depth used by the firmware.
const DefaultSize = 256

// Queue is a bounded single-producer/single-consumer ring of step
// events. One slot is kept open to distinguish full from empty.
type Queue struct {
	buf  []StepEvent
	head atomic.Uint32 // next write slot, owned by the producer
	tail atomic.Uint32 // next read slot, owned by the consumer
}

// NewQueue creates a queue holding up to size events. Sizes below one
// fall back to DefaultSize.
func NewQueue(size int) *Queue {
	if size < 1 {
		size = DefaultSize
	}
	return &Queue{buf: make([]StepEvent, size+1)}
}

// Cap returns the number of events the queue can hold.
func (q *Queue) Cap() int {
	return len(q.buf) - 1
}

// IsFull reports whether the queue has no free slot. Only the
// producer may rely on a false result staying false.
func (q *Queue) IsFull() bool {
	head := q.head.Load()
	next := (head + 1) % uint32(len(q.buf))
	return next == q.tail.Load()
}

// HasQueued reports whether any events are pending.
func (q *Queue) HasQueued() bool {
	return q.head.Load() != q.tail.Load()
}

// Enqueue publishes one event. The caller must check IsFull first;
// enqueueing into a full queue is a producer bug and the event is
// dropped with a false return so tests can catch it.
func (q *Queue) Enqueue(ev StepEvent) bool {
	head := q.head.Load()
	next := (head + 1) % uint32(len(q.buf))
	if next == q.tail.Load() {
		return false
	}
	q.buf[head] = ev
	q.head.Store(next)
	return true
}

// Dequeue consumes one event. Only the consumer side may call it.
func (q *Queue) Dequeue() (StepEvent, bool) {
	tail := q.tail.Load()
	if tail == q.head.Load() {
		return StepEvent{}, false
	}
	ev := q.buf[tail]
	q.tail.Store((tail + 1) % uint32(len(q.buf)))
	return ev, true
}

// RunDrainer consumes events at real-time pace until ctx is done,
// sleeping each event's tick delay. It stands in for the step
// interrupt when the tuner runs against simulated hardware.
func RunDrainer(ctx context.Context, q *Queue, ticksPerSecond float64) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		ev, ok := q.Dequeue()
		if !ok {
			time.Sleep(50 * time.Microsecond)
			continue
		}
		delay := time.Duration(float64(ev.Ticks) / ticksPerSecond * float64(time.Second))
		if delay > 0 {
			time.Sleep(delay)
		}
	}
}
