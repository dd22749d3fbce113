// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package stats implements the Statistics Engine: five running-summary
// accumulators (one enqueue-latency accumulator per sink) flushed into Egress every ~10s as ordinary measurements
// (spec.md §4.5).
package stats

import "sync"

// Accumulator is the running tuple (sum, count, max, allTimeMax) of
// spec.md §3. Max resets on Flush; AllTimeMax never resets.
type Accumulator struct {
	mu         sync.Mutex
	sum        uint64
	count      uint64
	max        uint64
	allTimeMax uint64
}

// Collect folds x into the accumulator: sum += x; count++; max and
// allTimeMax track the running maxima (spec.md §4.5 collect()).
func (a *Accumulator) Collect(x uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sum += x
	a.count++
	if x > a.max {
		a.max = x
	}
	if x > a.allTimeMax {
		a.allTimeMax = x
	}
}

// Snapshot is the set of four derived measurements persist() emits,
// plus whether Avg is valid (count was > 0 at flush time).
type Snapshot struct {
	Avg        float64
	AvgValid   bool
	Count      uint64
	Max        uint64
	AllTimeMax uint64
}

// Flush returns a Snapshot of the accumulator and resets sum, count,
// and max (not allTimeMax) — spec.md §4.5 persist().
func (a *Accumulator) Flush() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		Count:      a.count,
		Max:        a.max,
		AllTimeMax: a.allTimeMax,
	}
	if a.count > 0 {
		snap.Avg = float64(a.sum) / float64(a.count)
		snap.AvgValid = true
	}

	a.sum = 0
	a.count = 0
	a.max = 0
	return snap
}

// Peek returns a Snapshot without resetting sum, count, or max. Used
// by the health/metrics HTTP surface, which must not perturb the
// sampler's own 10s flush cadence (SPEC_FULL.md §A.4).
func (a *Accumulator) Peek() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		Count:      a.count,
		Max:        a.max,
		AllTimeMax: a.allTimeMax,
	}
	if a.count > 0 {
		snap.Avg = float64(a.sum) / float64(a.count)
		snap.AvgValid = true
	}
	return snap
}

// Name identifies one of the five statistics tracked alongside the
// cyclic sampler (spec.md §4.5 table).
type Name string

const (
	Interval       Name = "interval"
	Duration       Name = "duration"
	InfluxPersist  Name = "influx_persist"
	InfluxEnqueue  Name = "influx_enqueue"
	ZmqEnqueue     Name = "zmq_enqueue"
)

// Engine owns one Accumulator per tracked Name.
type Engine struct {
	accumulators map[Name]*Accumulator
}

// New returns an Engine with an Accumulator for every spec.md §4.5 name.
func New() *Engine {
	e := &Engine{accumulators: make(map[Name]*Accumulator)}
	for _, n := range []Name{Interval, Duration, InfluxPersist, InfluxEnqueue, ZmqEnqueue} {
		e.accumulators[n] = &Accumulator{}
	}
	return e
}

// Accumulator returns the named accumulator, creating it on first use
// if it is not one of the built-in five (egress sinks may register
// their own per-sink enqueue-latency name).
func (e *Engine) Accumulator(name Name) *Accumulator {
	if a, ok := e.accumulators[name]; ok {
		return a
	}
	a := &Accumulator{}
	e.accumulators[name] = a
	return a
}

// Names returns the set of tracked accumulator names, for iteration
// during a flush.
func (e *Engine) Names() []Name {
	out := make([]Name, 0, len(e.accumulators))
	for n := range e.accumulators {
		out = append(out, n)
	}
	return out
}
