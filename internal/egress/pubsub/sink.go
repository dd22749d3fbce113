// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pubsub implements the topic-based, synchronous pub/sub
// egress sink of spec.md §4.4.2. The spec's two-frame PUB message
// (topic frame, JSON frame) is carried here as a NATS (subject,
// payload) publish, the teacher's existing pub/sub transport
// (pkg/nats) and the only topic-based messaging dependency present
// anywhere in the example pack — see SPEC_FULL.md §4.4 and DESIGN.md
// for the full rationale.
package pubsub

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/historianio/pnbridge/internal/egress"
	"github.com/historianio/pnbridge/internal/stats"
	"github.com/nats-io/nats.go"
)

// body is the JSON object published as the second frame. Of the
// influx sink's fixed tag block it carries ControllerName, LineName and
// ProgramName only; the constant Global1, Global2, LineMode,
// TimeShift1, TimeShift2, UserFilter1 and UserFilter2 tags are not
// included.
type body struct {
	Measurement    string `json:"Measurement"`
	Timestamp      int64  `json:"Timestamp"`
	Value          string `json:"value"`
	ControllerName string `json:"ControllerName"`
	LineName       string `json:"LineName"`
	ProgramName    string `json:"ProgramName"`
}

// Sink publishes one (topic, JSON) message per change or measurement
// on a single NATS connection (spec.md §4.4.2 "single PUB socket").
// Emission is synchronous: Publish returns only once the message has
// been handed to the NATS client library, so within a single caller
// goroutine delivery order matches call order.
type Sink struct {
	conn        *nats.Conn
	tags        egress.Tags
	enqueueStat *stats.Accumulator
}

// Config configures the pub/sub sink. Username/Password and
// CredsFilePath are alternative, mutually exclusive authentication
// methods against the NATS server (the teacher's pkg/nats client
// supports the same pair).
type Config struct {
	Address       string // e.g. "nats://localhost:4222"
	Username      string
	Password      string
	CredsFilePath string
	Tags          egress.Tags
}

// New connects to the configured NATS server and returns a ready Sink.
func New(cfg Config, enqueueStat *stats.Accumulator) (*Sink, error) {
	var opts []nats.Option
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}

	conn, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, err
	}
	return &Sink{conn: conn, tags: cfg.Tags, enqueueStat: enqueueStat}, nil
}

// EnqueueChange publishes one detected change as topic
// "<prefix><kind>.<slot>.<elementIndex>" (spec.md §4.4.2).
func (s *Sink) EnqueueChange(c egress.Change) error {
	start := time.Now()
	defer func() { s.enqueueStat.Collect(uint64(time.Since(start).Microseconds())) }()

	topic := topicFor(s.tags.Prefix, c.Kind.String(), c.Slot, c.ElementIndex)
	measurement := topic
	payload, err := json.Marshal(body{
		Measurement:    measurement,
		Timestamp:      c.TimestampMicros,
		Value:          c.Text,
		ControllerName: s.tags.ControllerName,
		LineName:       s.tags.LineName,
		ProgramName:    s.tags.ProgramName,
	})
	if err != nil {
		return err
	}
	return s.conn.Publish(topic, payload)
}

// EnqueueMeasurement publishes a raw statistics measurement under the
// topic "<prefix><measurement>".
func (s *Sink) EnqueueMeasurement(measurement string, value string, timestampMicros int64) error {
	start := time.Now()
	defer func() { s.enqueueStat.Collect(uint64(time.Since(start).Microseconds())) }()

	topic := s.tags.Prefix + measurement
	payload, err := json.Marshal(body{
		Measurement:    measurement,
		Timestamp:      timestampMicros,
		Value:          value,
		ControllerName: s.tags.ControllerName,
		LineName:       s.tags.LineName,
		ProgramName:    s.tags.ProgramName,
	})
	if err != nil {
		return err
	}
	return s.conn.Publish(topic, payload)
}

// Close flushes and closes the NATS connection.
func (s *Sink) Close() error {
	s.conn.Close()
	return nil
}

func topicFor(prefix, kindTag string, slot, element int) string {
	return prefix + kindTag + "." + strconv.Itoa(slot) + "." + strconv.Itoa(element)
}
