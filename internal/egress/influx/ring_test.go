// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package influx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendWithinCapacityDoesNotHandOff(t *testing.T) {
	r := newRing(64)
	handedOff := r.append([]byte("short\n"))
	assert.False(t, handedOff)

	_, ok := r.drain()
	assert.False(t, ok, "the active buffer is not submitted until it is handed off")

	r.append(bytes.Repeat([]byte("x"), 60)) // 6+60 > 64: hands off "short\n"
	buf, ok := r.drain()
	require.True(t, ok)
	assert.Equal(t, "short\n", string(buf))
	r.release()

	_, ok = r.drain()
	assert.False(t, ok)
}

func TestAppendOverflowAdvancesWriteCursor(t *testing.T) {
	r := newRing(10)
	r.append([]byte("12345"))
	handedOff := r.append([]byte("67890ab")) // would exceed 10 bytes in buffer 0
	assert.True(t, handedOff)

	buf, ok := r.drain()
	require.True(t, ok)
	assert.Equal(t, "12345", string(buf))
	r.release()

	r.append([]byte("cdef")) // 7+4 > 10: hands off buffer 1
	buf, ok = r.drain()
	require.True(t, ok)
	assert.Equal(t, "67890ab", string(buf))
	r.release()
}

// drain must not advance the read cursor on its own: the buffer it
// returns stays valid (and reachable by a second drain call) until the
// caller explicitly releases it, so a concurrent writer never reuses
// a buffer still being sent (spec.md §4.4.1).
func TestDrainDoesNotAdvanceUntilRelease(t *testing.T) {
	r := newRing(10)
	r.append([]byte("12345"))
	r.append([]byte("67890ab"))

	buf1, ok := r.drain()
	require.True(t, ok)
	assert.Equal(t, "12345", string(buf1))

	buf2, ok := r.drain()
	require.True(t, ok)
	assert.Equal(t, "12345", string(buf2), "drain without release must return the same unreleased buffer")

	r.release()
	r.append([]byte("cdef")) // hands off buffer 1
	buf3, ok := r.drain()
	require.True(t, ok)
	assert.Equal(t, "67890ab", string(buf3))
}

// S5: produce enough changes in one tick to fill one maxPacketSize
// buffer twice; expect the write cursor to advance twice and
// READY_FOR_SUBMIT (the ready channel) to have fired at least twice.
func TestScenarioS5RingAdvancesTwiceOnSustainedWrites(t *testing.T) {
	r := newRing(16)
	record := bytes.Repeat([]byte("a"), 10)

	handoffs := 0
	for i := 0; i < 4; i++ {
		if r.append(record) {
			handoffs++
		}
	}
	assert.GreaterOrEqual(t, handoffs, 2)

	drained := 0
	for {
		if _, ok := r.drain(); !ok {
			break
		}
		r.release()
		drained++
	}
	assert.GreaterOrEqual(t, drained, 2)
}

func TestOverrunIsCountedNotPanicked(t *testing.T) {
	r := newRing(4)
	for i := 0; i < RingSize+2; i++ {
		r.append([]byte("xxxx"))
	}
	assert.Greater(t, r.Overruns(), uint64(0))
}

func TestNewRingClampsInvalidMaxPacketSize(t *testing.T) {
	r := newRing(0)
	assert.Equal(t, BufferCap, r.maxPacketSize)

	r = newRing(BufferCap + 1)
	assert.Equal(t, BufferCap, r.maxPacketSize)
}

func TestDefaultMaxPacketSize(t *testing.T) {
	assert.Equal(t, 1500-14-8, DefaultMaxPacketSize(1500))
	assert.Equal(t, BufferCap, DefaultMaxPacketSize(0))
}
