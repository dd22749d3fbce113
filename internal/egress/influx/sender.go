// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package influx

import (
	"fmt"
	"net"
)

// Sender transmits one already-framed batch as a single datagram.
// Abstracted behind an interface so tests can substitute an in-memory
// recorder for the real UDP socket.
type Sender interface {
	Send(batch []byte) error
	Close() error
}

// udpSender is the production Sender: a connected UDP socket, fire-
// and-forget per spec.md §6.2. Plain net.Conn is used rather than a
// third-party UDP client because none of the teacher's or the pack's
// example repos wrap bare datagram sends with a dedicated library.
type udpSender struct {
	conn net.Conn
}

// NewUDPSender dials host:port over UDP. The teacher's fire-and-forget
// sinks never retry a failed send (spec.md §7 "Egress send failure —
// ignored by design"), so Send below deliberately does not retry.
func NewUDPSender(host string, port int) (Sender, error) {
	conn, err := net.Dial("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, err
	}
	return &udpSender{conn: conn}, nil
}

func (s *udpSender) Send(batch []byte) error {
	_, err := s.conn.Write(batch)
	return err
}

func (s *udpSender) Close() error {
	return s.conn.Close()
}

// noopSender discards every batch. Nothing in this module constructs
// it: a sink disabled by a zero port is left out of the egress fan-out
// altogether (cmd/pnbridge buildSinks).
type noopSender struct{}

func (noopSender) Send([]byte) error { return nil }
func (noopSender) Close() error      { return nil }
