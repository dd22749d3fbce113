// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package influx

import (
	"sync/atomic"

	"github.com/historianio/pnbridge/internal/bridgelog"
)

const (
	// RingSize is the number of batch buffers in the ring (spec.md §3,
	// BufferRing, N=5).
	RingSize = 5
	// BufferCap is the fixed size of each ring buffer in bytes
	// (spec.md §3).
	BufferCap = 65535
)

// DefaultMaxPacketSize derives the maximum size of one UDP datagram
// from an interface MTU, subtracting Ethernet+UDP framing (spec.md
// §6.2: "Max datagram size = loopback MTU - 14 - 8 bytes").
func DefaultMaxPacketSize(mtu int) int {
	n := mtu - 14 - 8
	if n <= 0 || n > BufferCap {
		return BufferCap
	}
	return n
}

// ring is a fixed array of BufferCap-sized batch buffers with a
// write-cursor and read-cursor (spec.md §3, §4.4.1). The sampler
// thread is the sole writer of the active buffer and of the write
// cursor; the submitter thread is the sole reader of a handed-off
// buffer and the sole writer of the read cursor. Because each cursor
// has exactly one writer, and the data in a buffer is only read after
// the write cursor that hands it off has been observed to move past
// it, plain atomics on the two cursors suffice and no lock is needed
// (spec.md §5).
type ring struct {
	buffers       [RingSize][BufferCap]byte
	lengths       [RingSize]int // only ever touched by the writer goroutine
	write         atomic.Uint32
	read          atomic.Uint32
	maxPacketSize int
	overruns      atomic.Uint64
	ready         chan struct{}
}

func newRing(maxPacketSize int) *ring {
	if maxPacketSize <= 0 || maxPacketSize > BufferCap {
		maxPacketSize = BufferCap
	}
	return &ring{
		maxPacketSize: maxPacketSize,
		ready:         make(chan struct{}, 1),
	}
}

// append writes record into the active buffer, advancing the write
// cursor first if record would overflow maxPacketSize in the current
// active buffer (spec.md §3 BufferRing invariant, §4.4.1 append
// contract). It returns true if a buffer was handed off (and
// READY_FOR_SUBMIT should be considered raised).
func (r *ring) append(record []byte) (handedOff bool) {
	active := r.write.Load()

	if r.lengths[active]+len(record) > r.maxPacketSize {
		next := (active + 1) % RingSize
		if next == r.read.Load() {
			// Overrun: the buffer we are about to reuse has not been
			// drained yet. Per spec.md §9 this silently overwrites
			// unsent data; we log and count it.
			r.overruns.Add(1)
			bridgelog.Warnf("influx: ring overrun, unsent batch in buffer %d overwritten", next)
		}
		r.lengths[next] = 0
		r.write.Store(next)
		active = next
		handedOff = true
	}

	n := copy(r.buffers[active][r.lengths[active]:], record)
	r.lengths[active] += n

	if handedOff {
		select {
		case r.ready <- struct{}{}:
		default:
		}
	}
	return handedOff
}

// drain returns the buffer at the read cursor (without copying), if
// read != write. It returns ok=false if the ring is empty. The read
// cursor is not advanced: the caller must call release once it is
// done with buf (spec.md §4.4.1 "send the buffer at read … and
// advances read" — the advance happens after the send, not before, so
// the writer never reuses a buffer still being sent).
func (r *ring) drain() (buf []byte, ok bool) {
	readIdx := r.read.Load()
	if readIdx == r.write.Load() {
		return nil, false
	}
	n := r.lengths[readIdx]
	buf = r.buffers[readIdx][:n]
	return buf, true
}

// release advances the read cursor past the buffer last returned by
// drain, freeing it for the writer to reuse.
func (r *ring) release() {
	r.read.Store((r.read.Load() + 1) % RingSize)
}

// Overruns returns the running count of buffer-ring overruns.
func (r *ring) Overruns() uint64 {
	return r.overruns.Load()
}
