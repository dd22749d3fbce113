// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sampler

import "sync/atomic"

// Flags is the single-consumer event set of spec.md §4.3: four bit
// flags the fieldbus callback thread and the periodic timer post, and
// the sampler atomically reads-and-clears on each wake.
type Flags uint32

const (
	ReadyForData Flags = 1 << iota
	Timer
	Alarm
	Abort
)

// EventSet is a single-consumer set of pending Flags with a
// non-blocking wakeup channel. Posting a flag that is already pending
// is idempotent; no event is lost as long as the consumer keeps up
// (spec.md §4.3).
type EventSet struct {
	pending atomic.Uint32
	wake    chan struct{}
}

// NewEventSet returns an empty EventSet.
func NewEventSet() *EventSet {
	return &EventSet{wake: make(chan struct{}, 1)}
}

// Post ORs f into the pending set and wakes the consumer.
func (e *EventSet) Post(f Flags) {
	for {
		old := e.pending.Load()
		next := old | uint32(f)
		if old == next || e.pending.CompareAndSwap(old, next) {
			break
		}
	}
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// WaitChan exposes the wakeup channel for select-based waiting
// alongside a cancellation context.
func (e *EventSet) WaitChan() <-chan struct{} {
	return e.wake
}

// TakeAll atomically reads and clears every pending flag, returning
// what was pending.
func (e *EventSet) TakeAll() Flags {
	return Flags(e.pending.Swap(0))
}
