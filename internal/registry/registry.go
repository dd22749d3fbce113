// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package registry implements the Slot Registry: the declared catalog
// of supported module types, and the runtime slot -> module-id map
// populated as the fieldbus stack plugs and pulls modules.
package registry

import (
	"fmt"

	"github.com/historianio/pnbridge/internal/kind"
)

// MaxSlots bounds the number of slots the registry tracks. Slot 0 is
// reserved for the access-point (DAP) module.
const MaxSlots = 256

// Direction is the I/O direction of a module's data.
type Direction uint8

const (
	NoIO Direction = iota
	Input
	Output
)

// ModuleType is an immutable catalog entry describing one supported
// module/submodule pair.
type ModuleType struct {
	ModuleID         uint32
	SubmoduleID      uint32
	Direction        Direction
	TotalOutputBytes uint16
	Kind             kind.VariableKind
	ElementCount     uint32
}

// Access-point (DAP) idents, mirrored from the original C cfg table.
const (
	ModDAPIdent                     = 0x00000001
	SubmodDAPIdent                  = 0x00000001
	SubmodDAPInterface1Ident        = 0x00008000
	SubmodDAPInterface1Port0Ident   = 0x00008001
	submodCustomIdent        uint32 = 0x00000001
)

// I/O module idents, mirrored from the original C cfg table.
const (
	ModB01Ident = 0x00000100
	ModU08Ident = 0x00000200
	ModU16Ident = 0x00000210
	ModU32Ident = 0x00000220
	ModU64Ident = 0x00000230
	ModI08Ident = 0x00000300
	ModI16Ident = 0x00000310
	ModI32Ident = 0x00000320
	ModI64Ident = 0x00000330
	ModF32Ident = 0x00000420
	ModF64Ident = 0x00000430
)

// catalog is the static, declared table of supported module types. It
// reproduces original_source/historian_io/historian_io.c's
// cfg_available_submodule_types exactly: 3 no-I/O access-point
// submodules, and 11 typed I/O modules.
var catalog = []ModuleType{
	{ModDAPIdent, SubmodDAPIdent, NoIO, 0, kind.None, 0},
	{ModDAPIdent, SubmodDAPInterface1Ident, NoIO, 0, kind.None, 0},
	{ModDAPIdent, SubmodDAPInterface1Port0Ident, NoIO, 0, kind.None, 0},
	{ModB01Ident, submodCustomIdent, Output, 256, kind.Bool, 2048},
	{ModU08Ident, submodCustomIdent, Output, 256, kind.U8, 256},
	{ModU16Ident, submodCustomIdent, Output, 256, kind.U16, 128},
	{ModU32Ident, submodCustomIdent, Output, 256, kind.U32, 64},
	{ModU64Ident, submodCustomIdent, Output, 256, kind.U64, 32},
	{ModI08Ident, submodCustomIdent, Output, 256, kind.I8, 256},
	{ModI16Ident, submodCustomIdent, Output, 256, kind.I16, 128},
	{ModI32Ident, submodCustomIdent, Output, 256, kind.I32, 64},
	{ModI64Ident, submodCustomIdent, Output, 256, kind.I64, 32},
	{ModF32Ident, submodCustomIdent, Output, 256, kind.F32, 64},
	{ModF64Ident, submodCustomIdent, Output, 256, kind.F64, 32},
}

func init() {
	// Invariant (spec.md §3): for every I/O module,
	// totalOutputBytes*8 >= elementCount*bitWidth(kind).
	for _, m := range catalog {
		if m.Direction == NoIO {
			continue
		}
		if uint32(m.TotalOutputBytes)*8 < m.ElementCount*m.Kind.BitWidth() {
			panic(fmt.Sprintf("registry: catalog entry for module 0x%x violates size invariant", m.ModuleID))
		}
	}
}

var (
	// ErrSlotOutOfRange is returned by Plug when slot is negative or
	// >= MaxSlots (Pull ignores such a slot).
	ErrSlotOutOfRange = fmt.Errorf("registry: slot out of range")
	// ErrUnknownModule is returned by Plug when the module id is not
	// in the catalog.
	ErrUnknownModule = fmt.Errorf("registry: unknown module id")
)

// Registry holds the static catalog lookup plus the runtime
// slot -> module-id map. All mutations happen from the fieldbus
// callback thread only (spec.md §4.1); Registry is not otherwise
// internally synchronized.
type Registry struct {
	plugged [MaxSlots]uint32 // 0 = empty
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

// Lookup performs a linear scan of the static catalog (spec.md §4.1:
// ~14 entries, a linear scan is acceptable).
func Lookup(moduleID, submoduleID uint32) (ModuleType, bool) {
	for _, m := range catalog {
		if m.ModuleID == moduleID && m.SubmoduleID == submoduleID {
			return m, true
		}
	}
	return ModuleType{}, false
}

// lookupByModule finds a catalog entry by module id alone, used when
// the submodule is implicitly the module's single custom submodule.
func lookupByModule(moduleID uint32) (ModuleType, bool) {
	for _, m := range catalog {
		if m.ModuleID == moduleID {
			return m, true
		}
	}
	return ModuleType{}, false
}

// Plug records that moduleID occupies slot. It fails with
// ErrSlotOutOfRange or ErrUnknownModule; on success it overwrites
// whatever was previously plugged in that slot.
func (r *Registry) Plug(slot int, moduleID uint32) error {
	if slot < 0 || slot >= MaxSlots {
		return ErrSlotOutOfRange
	}
	if _, ok := lookupByModule(moduleID); !ok {
		return ErrUnknownModule
	}
	r.plugged[slot] = moduleID
	return nil
}

// Pull clears whatever is plugged into slot. Pulling an empty or
// out-of-range slot is a no-op.
func (r *Registry) Pull(slot int) {
	if slot < 0 || slot >= MaxSlots {
		return
	}
	r.plugged[slot] = 0
}

// Occupied is one entry of Registry's occupied-slot iteration.
type Occupied struct {
	Slot int
	Type ModuleType
}

// IterOccupied returns the occupied slots in ascending slot order,
// each resolved to its ModuleType. A slot whose plugged module id is
// no longer in the catalog (should not happen in practice) is
// skipped.
func (r *Registry) IterOccupied() []Occupied {
	out := make([]Occupied, 0, 8)
	for slot, moduleID := range r.plugged {
		if moduleID == 0 {
			continue
		}
		mt, ok := lookupByModule(moduleID)
		if !ok {
			continue
		}
		out = append(out, Occupied{Slot: slot, Type: mt})
	}
	return out
}
