// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package influx

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/historianio/pnbridge/internal/egress"
	"github.com/historianio/pnbridge/internal/kind"
	"github.com/historianio/pnbridge/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender records every batch handed to Send instead of putting it
// on the wire, so the submitter loop can be exercised without a socket.
type fakeSender struct {
	mu      sync.Mutex
	batches [][]byte
	closed  bool
}

func (f *fakeSender) Send(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(b))
	copy(cp, b)
	f.batches = append(f.batches, cp)
	return nil
}

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// EnqueueChange only appends to the active batch buffer (spec.md
// §4.4.1); the submitter only sees a record once a later append
// overflows maxPacketSize and rotates it out. A second change, which
// does not fit beside the first in 300 bytes, forces that rotation here.
func TestEnqueueChangeProducesLineProtocolRecord(t *testing.T) {
	sender := &fakeSender{}
	statAcc := &stats.Accumulator{}
	sink := New(Config{
		Tags:          egress.Tags{Prefix: "", ControllerName: "PLC1", LineName: "Line1", ProgramName: "Prog1"},
		MaxPacketSize: 300,
	}, sender, statAcc, &stats.Accumulator{})
	defer sink.Close()

	require.NoError(t, sink.EnqueueChange(egress.Change{Slot: 1, ElementIndex: 2, Kind: kind.U16, Text: "7", TimestampMicros: 1234}))
	require.NoError(t, sink.EnqueueChange(egress.Change{Slot: 1, ElementIndex: 3, Kind: kind.U16, Text: "8", TimestampMicros: 1235}))

	waitUntil(t, time.Second, func() bool { return sender.count() == 1 })
	line := string(sender.batches[0])
	assert.True(t, strings.HasPrefix(line, "u16_1_2,"))
	assert.Contains(t, line, "ControllerName=PLC1")
	assert.Contains(t, line, "value=7u")
	assert.NotContains(t, line, "u16_1_3")
}

func TestEnqueueMeasurementProducesFloatField(t *testing.T) {
	sender := &fakeSender{}
	statAcc := &stats.Accumulator{}
	sink := New(Config{Tags: egress.Tags{Prefix: "x"}, MaxPacketSize: 100}, sender, statAcc, &stats.Accumulator{})
	defer sink.Close()

	require.NoError(t, sink.EnqueueMeasurement("stats_interval_avg", "12.5", 999))
	require.NoError(t, sink.EnqueueMeasurement("stats_interval_count", "3", 1000))

	waitUntil(t, time.Second, func() bool { return sender.count() == 1 })
	assert.Contains(t, string(sender.batches[0]), "value=12.5")
}

func TestCloseStopsSubmitLoopAndClosesSender(t *testing.T) {
	sender := &fakeSender{}
	statAcc := &stats.Accumulator{}
	sink := New(Config{}, sender, statAcc, &stats.Accumulator{})

	require.NoError(t, sink.Close())
	assert.True(t, sender.closed)
}
