// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sampler implements the cyclic worker of spec.md §4.3: the
// periodic sample / change-detect / encode loop that is the hard-
// engineering surface of the bridge.
package sampler

import (
	"context"
	"time"

	"github.com/historianio/pnbridge/internal/bridgelog"
	"github.com/historianio/pnbridge/internal/egress"
	"github.com/historianio/pnbridge/internal/fieldbus"
	"github.com/historianio/pnbridge/internal/mirror"
	"github.com/historianio/pnbridge/internal/registry"
	"github.com/historianio/pnbridge/internal/stats"
)

// FlushInterval is the statistics flush period (spec.md §4.3 step 2,
// "~10s").
const FlushInterval = 10 * time.Second

// state is the worker's connection state machine (spec.md §4.3).
type state int

const (
	stateIdle state = iota
	stateArmed
)

// Worker is the cyclic sampler / change detector / encoder.
type Worker struct {
	registry *registry.Registry
	mirror   *mirror.Mirror
	provider fieldbus.Provider
	egress   *egress.Egress
	statsEng *stats.Engine
	events   *EventSet
	prefix   string

	state      state
	connection fieldbus.ArHandle // 0 means invalid

	lastFlush time.Time
	lastTick  time.Time
	haveTick  bool
}

// New returns a Worker ready to Run. prefix is prepended to every
// stats measurement name emitted through egress (spec.md §6.4 "prefix").
func New(reg *registry.Registry, mir *mirror.Mirror, provider fieldbus.Provider, eg *egress.Egress, statsEng *stats.Engine, events *EventSet, prefix string) *Worker {
	return &Worker{
		registry: reg,
		mirror:   mir,
		provider: provider,
		egress:   eg,
		statsEng: statsEng,
		events:   events,
		prefix:   prefix,
	}
}

// Connect is invoked when the fieldbus stack indicates PRMEND/armed
// (spec.md §4.1/§6.1's connect/state_ind callback contract). It is
// the external stack's analogue of saving main_arep.
func (w *Worker) Connect(ar fieldbus.ArHandle) {
	w.connection = ar
	w.events.Post(ReadyForData)
}

// SignalAlarm posts ALARM for the worker to acknowledge on its next wake.
func (w *Worker) SignalAlarm() {
	w.events.Post(Alarm)
}

// SignalAbort posts ABORT, causing the worker to drop its connection
// handle on its next wake.
func (w *Worker) SignalAbort() {
	w.events.Post(Abort)
}

// SignalTick posts TIMER; intended to be called by a periodic timer
// at TICK_INTERVAL_US (spec.md §4.3 "Trigger").
func (w *Worker) SignalTick() {
	w.events.Post(Timer)
}

// Run drives the worker's event loop until ctx is cancelled. It
// blocks only in the event-set wait, per spec.md §5's suspension-
// point rule.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.events.WaitChan():
		}

		flags := w.events.TakeAll()

		if flags&Abort != 0 {
			w.connection = 0
			w.state = stateIdle
			continue
		}

		if flags&ReadyForData != 0 {
			if err := w.provider.ApplicationReady(w.connection); err != nil {
				bridgelog.Warnf("sampler: application_ready failed: %v", err)
			}
			w.state = stateArmed
		}

		if flags&Alarm != 0 {
			if err := w.provider.AlarmSendAck(w.connection); err != nil {
				bridgelog.Warnf("sampler: alarm_send_ack failed: %v", err)
			}
		}

		if flags&Timer != 0 && w.connection != 0 {
			w.tick()
		}
	}
}

// tick runs the per-tick algorithm of spec.md §4.3.
func (w *Worker) tick() {
	tNow := time.Now()

	if w.lastFlush.IsZero() {
		w.lastFlush = tNow
	} else if tNow.Sub(w.lastFlush) >= FlushInterval {
		w.flushStats(tNow)
		w.lastFlush = tNow
	}

	if w.haveTick {
		w.statsEng.Accumulator(stats.Interval).Collect(uint64(tNow.Sub(w.lastTick).Microseconds()))
	}

	for _, occ := range w.registry.IterOccupied() {
		w.sampleSlot(occ, tNow)
	}

	tAfter := time.Now()
	w.statsEng.Accumulator(stats.Duration).Collect(uint64(tAfter.Sub(tNow).Microseconds()))
	w.lastTick = tNow
	w.haveTick = true

	w.provider.HandlePeriodic()
}

func (w *Worker) sampleSlot(occ registry.Occupied, tNow time.Time) {
	slot := occ.Slot
	mt := occ.Type
	totalBytes := int(mt.TotalOutputBytes)

	image, _, err := w.provider.OutputGet(slot)
	if err != nil {
		// Fieldbus read failures are silent per-tick skips (spec.md
		// §4.3 step 4.a, §7): the mirror is not updated, so the next
		// successful read re-detects any change.
		return
	}
	if len(image) < totalBytes {
		return
	}

	if w.mirror.Equal(slot, image, totalBytes) {
		return
	}

	ts := tNow.UnixMicro()
	decodeSlot(mt, w.mirror.Get(slot, totalBytes), image, func(elementIndex int, text string) {
		w.egress.EnqueueChange(egress.Change{
			Slot:            slot,
			ElementIndex:    elementIndex,
			Kind:            mt.Kind,
			Text:            text,
			TimestampMicros: ts,
		})
	})

	w.mirror.Update(slot, image, totalBytes)
}

// flushStats emits the four derived measurements for every tracked
// accumulator (spec.md §4.5 persist()).
func (w *Worker) flushStats(t time.Time) {
	ts := t.UnixMicro()
	for _, name := range w.statsEng.Names() {
		snap := w.statsEng.Accumulator(name).Flush()
		base := w.prefix + "stats_" + string(name)
		if snap.AvgValid {
			w.egress.EnqueueMeasurement(base+"_avg", formatFloat(snap.Avg), ts)
		}
		w.egress.EnqueueMeasurement(base+"_count", formatUint(snap.Count), ts)
		w.egress.EnqueueMeasurement(base+"_max", formatUint(snap.Max), ts)
		w.egress.EnqueueMeasurement(base+"_alltimemax", formatUint(snap.AllTimeMax), ts)
	}
}
