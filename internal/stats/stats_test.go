// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulatorAverage(t *testing.T) {
	a := &Accumulator{}
	a.Collect(10)
	a.Collect(20)
	a.Collect(30)

	snap := a.Flush()
	assert.True(t, snap.AvgValid)
	assert.InDelta(t, 20.0, snap.Avg, 0.0001)
	assert.Equal(t, uint64(3), snap.Count)
	assert.Equal(t, uint64(30), snap.Max)
	assert.Equal(t, uint64(30), snap.AllTimeMax)
}

func TestFlushResetsSumCountMaxNotAllTimeMax(t *testing.T) {
	a := &Accumulator{}
	a.Collect(100)
	_ = a.Flush()

	a.Collect(5)
	snap := a.Flush()
	assert.Equal(t, uint64(5), snap.Max)
	assert.Equal(t, uint64(100), snap.AllTimeMax)
}

func TestFlushWithNoSamplesIsAvgInvalid(t *testing.T) {
	a := &Accumulator{}
	snap := a.Flush()
	assert.False(t, snap.AvgValid)
	assert.Equal(t, uint64(0), snap.Count)
}

func TestPeekDoesNotReset(t *testing.T) {
	a := &Accumulator{}
	a.Collect(7)
	a.Collect(3)

	first := a.Peek()
	second := a.Peek()
	assert.Equal(t, first, second)
	assert.Equal(t, uint64(2), second.Count)

	flushed := a.Flush()
	assert.Equal(t, uint64(2), flushed.Count)
}

func TestEngineBuiltinNames(t *testing.T) {
	e := New()
	names := e.Names()
	assert.Contains(t, names, Interval)
	assert.Contains(t, names, Duration)
	assert.Contains(t, names, InfluxPersist)
	assert.Contains(t, names, InfluxEnqueue)
	assert.Contains(t, names, ZmqEnqueue)
	assert.Len(t, names, 5)
}

func TestEngineLazyAccumulatorCreation(t *testing.T) {
	e := New()
	a := e.Accumulator(Name("custom_enqueue"))
	a.Collect(42)
	assert.Same(t, a, e.Accumulator(Name("custom_enqueue")))
	assert.Len(t, e.Names(), 6)
}
