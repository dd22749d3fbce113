// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kind

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUnsignedLittleEndian(t *testing.T) {
	text, err := U16.Decode([]byte{0x02, 0x00}, 0)
	require.NoError(t, err)
	assert.Equal(t, "2", text)

	text, err = U32.Decode([]byte{0xFF, 0xFF, 0xFF, 0xFF}, 0)
	require.NoError(t, err)
	assert.Equal(t, "4294967295", text)
}

func TestDecodeSigned(t *testing.T) {
	text, err := I16.Decode([]byte{0xFF, 0xFF}, 0)
	require.NoError(t, err)
	assert.Equal(t, "-1", text)

	text, err = I8.Decode([]byte{0x80}, 0)
	require.NoError(t, err)
	assert.Equal(t, "-128", text)
}

func TestDecodeBoolSelectsBit(t *testing.T) {
	text, err := Bool.Decode([]byte{0b00000100}, 2)
	require.NoError(t, err)
	assert.Equal(t, "1", text)

	text, err = Bool.Decode([]byte{0b00000100}, 3)
	require.NoError(t, err)
	assert.Equal(t, "0", text)
}

// TestDecodeF32PreservesByteSwapQuirk locks in the deliberately
// preserved 32-bit byte-swap behavior (spec.md §9).
func TestDecodeF32PreservesByteSwapQuirk(t *testing.T) {
	var wire [4]byte
	bits := math.Float32bits(1.5)
	wire[0] = byte(bits >> 24)
	wire[1] = byte(bits >> 16)
	wire[2] = byte(bits >> 8)
	wire[3] = byte(bits)

	text, err := F32.Decode(wire[:], 0)
	require.NoError(t, err)
	assert.Equal(t, "1.5", text)
}

// TestDecodeF64UsesCorrectedSwap locks in the corrected full 8-byte
// swap for F64 (spec.md §9, option b).
func TestDecodeF64UsesCorrectedSwap(t *testing.T) {
	var wire [8]byte
	bits := math.Float64bits(-2.25)
	for i := 0; i < 8; i++ {
		wire[i] = byte(bits >> (56 - 8*i))
	}

	text, err := F64.Decode(wire[:], 0)
	require.NoError(t, err)
	assert.Equal(t, "-2.25", text)
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := None.Decode(nil, 0)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestBitWidth(t *testing.T) {
	assert.Equal(t, uint32(1), Bool.BitWidth())
	assert.Equal(t, uint32(8), U8.BitWidth())
	assert.Equal(t, uint32(64), F64.BitWidth())
	assert.Equal(t, uint32(0), None.BitWidth())
}

func TestString(t *testing.T) {
	assert.Equal(t, "u16", U16.String())
	assert.Equal(t, "f32", F32.String())
	assert.Equal(t, "b", Bool.String())
}
