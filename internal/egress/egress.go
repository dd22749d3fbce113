// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package egress implements the dual-sink fan-out of spec.md §4.4:
// every change or raw measurement is delivered to both the
// line-protocol UDP sink and the pub/sub sink, either of which may be
// disabled at startup.
package egress

import (
	"sync/atomic"

	"github.com/historianio/pnbridge/internal/kind"
)

// Tags is the fixed tag block embedded in every emitted measurement,
// constant for the life of the process (spec.md §4.4.1's
// fixedTagBlock and §6.4's enumerated string tags).
type Tags struct {
	Prefix         string
	ControllerName string
	LineName       string
	ProgramName    string
}

// Change is the transient record produced by the sampler's change
// detector (spec.md §3). It has no identity beyond its Enqueue call.
type Change struct {
	Slot            int
	ElementIndex    int
	Kind            kind.VariableKind
	Text            string
	TimestampMicros int64
}

// Sink is one of the two egress transports.
type Sink interface {
	// EnqueueChange delivers one detected value change.
	EnqueueChange(c Change) error
	// EnqueueMeasurement delivers a raw statistics measurement
	// (spec.md §4.5 persist()), not tied to any slot/element.
	EnqueueMeasurement(measurement string, value string, timestampMicros int64) error
	// Close releases any resources held by the sink (sockets,
	// background workers).
	Close() error
}

// Egress fans every enqueue out to all configured sinks (spec.md
// §4.4). A nil sink slot means that sink is disabled.
type Egress struct {
	sinks            []Sink
	enqueueFailures  atomic.Uint64
}

// New returns an Egress fanning out to the given sinks. Pass a sink as
// nil to represent "disabled at startup by zero port" (spec.md §4.4).
func New(sinks ...Sink) *Egress {
	live := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	return &Egress{sinks: live}
}

// EnqueueChange delivers c to every configured sink. Per-sink failures
// are counted, not retried or propagated (spec.md §7 "Egress enqueue
// failures are ignored by design").
func (e *Egress) EnqueueChange(c Change) {
	for _, s := range e.sinks {
		if err := s.EnqueueChange(c); err != nil {
			e.enqueueFailures.Add(1)
		}
	}
}

// EnqueueMeasurement delivers a raw statistics measurement to every
// configured sink, with the same failure semantics as EnqueueChange.
func (e *Egress) EnqueueMeasurement(measurement string, value string, timestampMicros int64) {
	for _, s := range e.sinks {
		if err := s.EnqueueMeasurement(measurement, value, timestampMicros); err != nil {
			e.enqueueFailures.Add(1)
		}
	}
}

// EnqueueFailures returns the running count of per-sink enqueue
// failures since startup, surfaced on the health/metrics endpoint
// (SPEC_FULL.md §A.4).
func (e *Egress) EnqueueFailures() uint64 {
	return e.enqueueFailures.Load()
}

// Close closes every configured sink.
func (e *Egress) Close() {
	for _, s := range e.sinks {
		_ = s.Close()
	}
}
