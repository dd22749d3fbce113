// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package influx implements the batched, asynchronous line-protocol
// UDP sink of spec.md §4.4.1: a ring of N=5 batch buffers appended to
// by the sampler, drained by a dedicated submitter goroutine.
package influx

import (
	"fmt"
	"strconv"
	"time"

	"github.com/historianio/pnbridge/internal/egress"
	"github.com/historianio/pnbridge/internal/kind"
	"github.com/historianio/pnbridge/internal/stats"
	"github.com/influxdata/line-protocol/v2/lineprotocol"
)

// Sink is the line-protocol UDP egress sink. Append happens on the
// sampler goroutine; a background goroutine submits handed-off
// buffers (spec.md §5).
type Sink struct {
	tags   egress.Tags
	ring   *ring
	sender Sender
	enc    lineprotocol.Encoder

	persistStat *stats.Accumulator
	enqueueStat *stats.Accumulator
	done        chan struct{}
}

// Config configures the influx sink.
type Config struct {
	Tags          egress.Tags
	MaxPacketSize int // defaults to BufferCap if <= 0
}

// New returns a running Sink that submits batches via sender, and
// records submit latency into persistStat (spec.md §4.5
// "influx_persist") and per-call append latency into enqueueStat
// (spec.md §4.5 "influx_enqueue"). The submitter goroutine runs until
// Close is called.
func New(cfg Config, sender Sender, persistStat, enqueueStat *stats.Accumulator) *Sink {
	s := &Sink{
		tags:        cfg.Tags,
		ring:        newRing(cfg.MaxPacketSize),
		sender:      sender,
		persistStat: persistStat,
		enqueueStat: enqueueStat,
		done:        make(chan struct{}),
	}
	s.enc.SetPrecision(lineprotocol.Microsecond)
	go s.submitLoop()
	return s
}

// Overruns returns the running count of ring-buffer overruns (spec.md
// §7 "Egress overrun").
func (s *Sink) Overruns() uint64 {
	return s.ring.Overruns()
}

// EnqueueChange encodes c as one line-protocol record and appends it
// to the ring's active buffer (spec.md §4.4.1).
func (s *Sink) EnqueueChange(c egress.Change) error {
	start := time.Now()
	defer func() { s.enqueueStat.Collect(uint64(time.Since(start).Microseconds())) }()

	measurement := fmt.Sprintf("%s%s_%d_%d", s.tags.Prefix, c.Kind.String(), c.Slot, c.ElementIndex)
	refName := measurement

	s.enc.Reset()
	s.enc.StartLine(measurement)
	s.enc.AddTag("ControllerName", s.tags.ControllerName)
	s.enc.AddTag("DataType", c.Kind.String())
	s.enc.AddTag("Global1", "0")
	s.enc.AddTag("Global2", "0")
	s.enc.AddTag("LineMode", "0")
	s.enc.AddTag("LineName", s.tags.LineName)
	s.enc.AddTag("LineState", "0")
	s.enc.AddTag("ProgramName", s.tags.ProgramName)
	s.enc.AddTag("ReferenceName", refName)
	s.enc.AddTag("TagDescription", refName)
	s.enc.AddTag("TimeShift1", "0")
	s.enc.AddTag("TimeShift2", "0")
	s.enc.AddTag("UserFilter1", "Reserved1")
	s.enc.AddTag("UserFilter2", "Reserved2")

	val, err := fieldValue(c.Kind, c.Text)
	if err != nil {
		return err
	}
	s.enc.AddField("value", val)
	s.enc.EndLine(time.UnixMicro(c.TimestampMicros))
	if err := s.enc.Err(); err != nil {
		return err
	}

	s.ring.append(s.enc.Bytes())
	return nil
}

// EnqueueMeasurement encodes a raw statistics measurement (spec.md
// §4.5 persist()) and appends it the same way.
func (s *Sink) EnqueueMeasurement(measurement string, value string, timestampMicros int64) error {
	start := time.Now()
	defer func() { s.enqueueStat.Collect(uint64(time.Since(start).Microseconds())) }()

	s.enc.Reset()
	s.enc.StartLine(measurement)
	s.enc.AddTag("ControllerName", s.tags.ControllerName)
	s.enc.AddTag("LineName", s.tags.LineName)
	s.enc.AddTag("ProgramName", s.tags.ProgramName)

	fv, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	s.enc.AddField("value", lineprotocol.FloatValue(fv))
	s.enc.EndLine(time.UnixMicro(timestampMicros))
	if err := s.enc.Err(); err != nil {
		return err
	}

	s.ring.append(s.enc.Bytes())
	return nil
}

// Close stops the submitter goroutine and closes the sender.
func (s *Sink) Close() error {
	close(s.done)
	return s.sender.Close()
}

func (s *Sink) submitLoop() {
	for {
		select {
		case <-s.done:
			return
		case <-s.ring.ready:
		}

		for {
			buf, ok := s.ring.drain()
			if !ok {
				break
			}
			start := time.Now()
			_ = s.sender.Send(buf) // fire-and-forget, spec.md §7
			s.persistStat.Collect(uint64(time.Since(start).Microseconds()))
			s.ring.release()
		}
	}
}

// fieldValue reinterprets an already-decoded text value back into a
// typed line-protocol field, matching the kind it was decoded from.
func fieldValue(k kind.VariableKind, text string) (lineprotocol.Value, error) {
	switch k {
	case kind.Bool, kind.U8, kind.U16, kind.U32, kind.U64:
		u, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return lineprotocol.Value{}, err
		}
		return lineprotocol.UintValue(u), nil
	case kind.I8, kind.I16, kind.I32, kind.I64:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return lineprotocol.Value{}, err
		}
		return lineprotocol.IntValue(i), nil
	case kind.F32, kind.F64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return lineprotocol.Value{}, err
		}
		return lineprotocol.FloatValue(f), nil
	default:
		return lineprotocol.Value{}, fmt.Errorf("influx: %w", kind.ErrUnknownKind)
	}
}
