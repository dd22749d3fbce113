// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mirror implements the State Mirror: the last-seen raw
// process-image bytes for every occupied slot, the reference the
// sampler diffs the next cycle's image against.
package mirror

import "github.com/historianio/pnbridge/internal/registry"

// MaxOutputLen bounds a single slot's process image (spec.md §3,
// PNET_MAX_OUTPUT_LEN).
const MaxOutputLen = 1440

// Mirror is a flat MaxSlots x MaxOutputLen byte array, zero-initialized.
// It is written only by the sampler and read only by the sampler; no
// synchronization is required (spec.md §4.2).
type Mirror struct {
	data [registry.MaxSlots][MaxOutputLen]byte
}

// New returns a zero-initialized Mirror. Zero-init implies that on
// first connect every non-zero element of an occupied slot reports a
// change (spec.md §3).
func New() *Mirror {
	return &Mirror{}
}

// Get returns the stored image for slot, truncated to length bytes.
func (m *Mirror) Get(slot int, length int) []byte {
	return m.data[slot][:length]
}

// Update overwrites the stored image for slot with the first length
// bytes of newImage.
func (m *Mirror) Update(slot int, newImage []byte, length int) {
	copy(m.data[slot][:length], newImage[:length])
}

// Equal reports whether the stored image for slot exactly matches
// image[:length] (the byte-wise memcmp of spec.md §4.3, preserved
// instead of trusting the fieldbus provider's "updated" flag —
// spec.md §9).
func (m *Mirror) Equal(slot int, image []byte, length int) bool {
	stored := m.data[slot][:length]
	for i := 0; i < length; i++ {
		if stored[i] != image[i] {
			return false
		}
	}
	return true
}
