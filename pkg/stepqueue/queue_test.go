// Step event queue tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package stepqueue

import "testing"

// TestQueueFillDrain tests basic fill and drain ordering.
func TestQueueFillDrain(t *testing.T) {
	q := NewQueue(4)
	if q.Cap() != 4 {
		t.Fatalf("Cap() = %d, want 4", q.Cap())
	}

	for i := 0; i < 4; i++ {
		if q.IsFull() {
			t.Fatalf("queue full after %d events", i)
		}
		if !q.Enqueue(StepEvent{Ticks: uint32(i), Flags: FlagStepX}) {
			t.Fatalf("Enqueue %d failed", i)
		}
	}
	if !q.IsFull() {
		t.Error("queue should be full")
	}
	if q.Enqueue(StepEvent{Ticks: 99}) {
		t.Error("Enqueue into full queue should fail")
	}

	for i := 0; i < 4; i++ {
		ev, ok := q.Dequeue()
		if !ok {
			t.Fatalf("Dequeue %d failed", i)
		}
		if ev.Ticks != uint32(i) {
			t.Errorf("event %d has ticks %d, out of order", i, ev.Ticks)
		}
	}
	if q.HasQueued() {
		t.Error("queue should be empty")
	}
	if _, ok := q.Dequeue(); ok {
		t.Error("Dequeue from empty queue should fail")
	}
}

// TestQueueWrapAround tests index wrap-around across many cycles.
func TestQueueWrapAround(t *testing.T) {
	q := NewQueue(3)
	for i := 0; i < 100; i++ {
		if !q.Enqueue(StepEvent{Ticks: uint32(i)}) {
			t.Fatalf("Enqueue %d failed", i)
		}
		ev, ok := q.Dequeue()
		if !ok || ev.Ticks != uint32(i) {
			t.Fatalf("Dequeue %d = (%v, %v)", i, ev, ok)
		}
	}
}

// TestMotorCount tests the motor count derived from flags.
func TestMotorCount(t *testing.T) {
	cases := []struct {
		flags StepEventFlags
		want  int
	}{
		{0, 0},
		{FlagStepX, 1},
		{FlagStepY | FlagDirY, 1},
		{FlagStepX | FlagStepY, 2},
		{FlagStepX | FlagStepY | FlagDirX | FlagDirY, 2},
	}
	for _, c := range cases {
		if got := c.flags.MotorCount(); got != c.want {
			t.Errorf("MotorCount(%#x) = %d, want %d", c.flags, got, c.want)
		}
	}
}

// TestQueueDefaultSize tests the fallback capacity.
func TestQueueDefaultSize(t *testing.T) {
	q := NewQueue(0)
	if q.Cap() != DefaultSize {
		t.Errorf("Cap() = %d, want %d", q.Cap(), DefaultSize)
	}
}
