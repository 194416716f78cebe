// Package reactor provides the cooperative yield point used by the
// resonance-tuning control loop. The firmware runs a single-threaded,
// non-preemptive main loop; every spot where the tuner would otherwise
// busy-wait (step queue full, no sensor sample yet) calls Yield so
// pending system duties such as thermal and safety upkeep keep running.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package reactor

import (
	"sync"
	"time"
)

// Duty is a background task invoked at every yield point. Duties must
// be short and must not block; they run on the main control loop.
type Duty func()

// Idler collects registered duties and dispatches them whenever the
// control loop yields. It replaces the firmware's global idle()
// routine with an explicit per-session object.
type Idler struct {
	mu     sync.Mutex
	names  []string
	duties []Duty
	yields uint64

	// Relax, when non-zero, sleeps this long on every yield. Host
	// builds use it to avoid burning a core while the step queue
	// drains at real-time pace.
	Relax time.Duration
}

// NewIdler creates an empty idler.
func NewIdler() *Idler {
	return &Idler{}
}

// Register adds a named duty. Duties run in registration order.
func (idl *Idler) Register(name string, d Duty) {
	idl.mu.Lock()
	defer idl.mu.Unlock()
	idl.names = append(idl.names, name)
	idl.duties = append(idl.duties, d)
}

// Yield runs every registered duty once and optionally relaxes the
// CPU. It is the only suspension point in the tuning loop.
func (idl *Idler) Yield() {
	idl.mu.Lock()
	duties := idl.duties
	relax := idl.Relax
	idl.yields++
	idl.mu.Unlock()

	for _, d := range duties {
		d()
	}
	if relax > 0 {
		time.Sleep(relax)
	}
}

// Yields reports how many times Yield has been called. Used by tests
// to verify wait loops yield instead of spinning.
func (idl *Idler) Yields() uint64 {
	idl.mu.Lock()
	defer idl.mu.Unlock()
	return idl.yields
}

// Duties returns the names of registered duties.
func (idl *Idler) Duties() []string {
	idl.mu.Lock()
	defer idl.mu.Unlock()
	out := make([]string, len(idl.names))
	copy(out, idl.names)
	return out
}
