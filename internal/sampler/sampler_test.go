// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sampler

import (
	"testing"
	"time"

	"github.com/historianio/pnbridge/internal/egress"
	"github.com/historianio/pnbridge/internal/fieldbus"
	"github.com/historianio/pnbridge/internal/mirror"
	"github.com/historianio/pnbridge/internal/registry"
	"github.com/historianio/pnbridge/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a fake egress.Sink that just remembers every call, for
// asserting against spec.md §8's concrete scenarios without a real
// transport.
type recorder struct {
	changes      []egress.Change
	measurements []measurement
}

type measurement struct {
	name, value string
	ts          int64
}

func (r *recorder) EnqueueChange(c egress.Change) error {
	r.changes = append(r.changes, c)
	return nil
}

func (r *recorder) EnqueueMeasurement(name, value string, ts int64) error {
	r.measurements = append(r.measurements, measurement{name, value, ts})
	return nil
}

func (r *recorder) Close() error { return nil }

func newTestWorker(t *testing.T) (*Worker, *recorder, *registry.Registry, *fieldbus.Simulator) {
	t.Helper()
	reg := registry.New()
	mir := mirror.New()
	sim := fieldbus.NewSimulator()
	rec := &recorder{}
	eg := egress.New(rec)
	statsEng := stats.New()
	events := NewEventSet()

	w := New(reg, mir, sim, eg, statsEng, events, "")
	w.Connect(1)
	return w, rec, reg, sim
}

// S1: connect with one U16 module, send image 01 00 02 00 03 00 04 00
// in the module's first 8 bytes. Expect 4 records with values 1..4.
func TestScenarioS1InitialChangesAllEmit(t *testing.T) {
	w, rec, reg, sim := newTestWorker(t)
	require.NoError(t, reg.Plug(1, registry.ModU16Ident))

	image := make([]byte, 256)
	copy(image, []byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x00})
	sim.SetImage(1, image)

	w.tick()

	require.Len(t, rec.changes, 4)
	want := []string{"1", "2", "3", "4"}
	for i, c := range want {
		assert.Equal(t, 1, rec.changes[i].Slot)
		assert.Equal(t, i, rec.changes[i].ElementIndex)
		assert.Equal(t, c, rec.changes[i].Text)
	}
}

// S2: resend the same image on the next tick; expect zero emissions.
func TestScenarioS2UnchangedImageEmitsNothing(t *testing.T) {
	w, rec, reg, sim := newTestWorker(t)
	require.NoError(t, reg.Plug(1, registry.ModU16Ident))

	image := make([]byte, 256)
	copy(image, []byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x00})
	sim.SetImage(1, image)
	w.tick()
	require.Len(t, rec.changes, 4)

	rec.changes = nil
	sim.SetImage(1, image)
	w.tick()
	assert.Empty(t, rec.changes)
}

// S3: change only byte offset 4 (element 2) from 03 to 07; expect one
// emission for (slot=1, element=2, value=7).
func TestScenarioS3SingleByteChangeEmitsOne(t *testing.T) {
	w, rec, reg, sim := newTestWorker(t)
	require.NoError(t, reg.Plug(1, registry.ModU16Ident))

	image := make([]byte, 256)
	copy(image, []byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x00})
	sim.SetImage(1, image)
	w.tick()

	rec.changes = nil
	image2 := make([]byte, 256)
	copy(image2, image)
	image2[4] = 0x07
	sim.SetImage(1, image2)
	w.tick()

	require.Len(t, rec.changes, 1)
	assert.Equal(t, 1, rec.changes[0].Slot)
	assert.Equal(t, 2, rec.changes[0].ElementIndex)
	assert.Equal(t, "7", rec.changes[0].Text)
}

// S4: Bool module, image 0xA5 in byte 0; expect emissions for elements
// {0,2,5,7} with value 1. Flipping bit 2 to 0 next tick emits exactly
// one change for element 2 with value 0.
func TestScenarioS4BoolPerBitChangeDetection(t *testing.T) {
	w, rec, reg, sim := newTestWorker(t)
	require.NoError(t, reg.Plug(2, registry.ModB01Ident))

	image := make([]byte, 256)
	image[0] = 0xA5
	sim.SetImage(2, image)
	w.tick()

	require.Len(t, rec.changes, 4)
	gotElements := map[int]string{}
	for _, c := range rec.changes {
		gotElements[c.ElementIndex] = c.Text
	}
	assert.Equal(t, map[int]string{0: "1", 2: "1", 5: "1", 7: "1"}, gotElements)

	rec.changes = nil
	image2 := make([]byte, 256)
	image2[0] = 0xA1 // bit 2 cleared
	sim.SetImage(2, image2)
	w.tick()

	require.Len(t, rec.changes, 1)
	assert.Equal(t, 2, rec.changes[0].Slot)
	assert.Equal(t, 2, rec.changes[0].ElementIndex)
	assert.Equal(t, "0", rec.changes[0].Text)
}

// Mirror consistency (spec.md §8 property 2): after handling a slot,
// the stored mirror bytes equal the bytes just observed.
func TestMirrorConsistencyAfterTick(t *testing.T) {
	w, _, reg, sim := newTestWorker(t)
	require.NoError(t, reg.Plug(1, registry.ModU16Ident))

	image := make([]byte, 256)
	image[0] = 0x42
	sim.SetImage(1, image)
	w.tick()

	assert.Equal(t, image, w.mirror.Get(1, 256))
}

// HandlePeriodic must be invoked exactly once per tick (spec.md §4.3
// step 6).
func TestHandlePeriodicCalledExactlyOncePerTick(t *testing.T) {
	w, _, _, sim := newTestWorker(t)
	w.tick()
	w.tick()
	w.tick()
	assert.Equal(t, 3, sim.PeriodicCalls())
}

// S6 (compressed): a full statistics flush emits 4 fields per tracked
// accumulator that has at least one sample, and allTimeMax survives
// the flush (spec.md §8 properties 5 and 6).
func TestStatsFlushEmitsFourFieldsPerAccumulator(t *testing.T) {
	w, rec, _, _ := newTestWorker(t)

	for _, name := range w.statsEng.Names() {
		w.statsEng.Accumulator(name).Collect(100)
	}

	w.flushStats(time.Now())
	assert.Len(t, rec.measurements, 5*4)

	rec.measurements = nil
	w.flushStats(time.Now())
	for _, m := range rec.measurements {
		if hasSuffix(m.name, "_count") || hasSuffix(m.name, "_avg") {
			continue
		}
		if hasSuffix(m.name, "_alltimemax") {
			assert.Equal(t, "100", m.value)
		}
	}
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
