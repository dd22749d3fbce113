// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sampler

import (
	"strconv"

	"github.com/historianio/pnbridge/internal/kind"
	"github.com/historianio/pnbridge/internal/registry"
)

// decodeSlot compares oldImage against newImage element by element and
// invokes emit for every element whose wire bytes changed, decoded per
// mt.Kind (spec.md §4.3 step 4.b-d). Bool modules pack eight elements
// per byte; every other kind occupies BitWidth()/8 bytes per element.
func decodeSlot(mt registry.ModuleType, oldImage, newImage []byte, emit func(elementIndex int, text string)) {
	if mt.Kind.BitWidth() == 0 {
		return
	}

	if mt.Kind == kind.Bool {
		for byteIdx := 0; byteIdx < len(newImage); byteIdx++ {
			if oldImage[byteIdx] == newImage[byteIdx] {
				continue
			}
			for bit := uint(0); bit < 8; bit++ {
				mask := byte(1) << bit
				if oldImage[byteIdx]&mask == newImage[byteIdx]&mask {
					continue
				}
				elementIndex := byteIdx*8 + int(bit)
				if uint32(elementIndex) >= mt.ElementCount {
					continue
				}
				text, err := mt.Kind.Decode(newImage[byteIdx:byteIdx+1], bit)
				if err != nil {
					continue
				}
				emit(elementIndex, text)
			}
		}
		return
	}

	width := int(mt.Kind.BitWidth() / 8)
	for i := 0; i < int(mt.ElementCount); i++ {
		off := i * width
		if off+width > len(newImage) {
			break
		}
		if bytesEqual(oldImage[off:off+width], newImage[off:off+width]) {
			continue
		}
		text, err := mt.Kind.Decode(newImage[off:off+width], 0)
		if err != nil {
			continue
		}
		emit(i, text)
	}
}

func bytesEqual(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
