// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package fieldbus declares the external collaborator interface the
// core consumes from a PROFINET-IO (or compatible cyclic fieldbus)
// stack, plus a deterministic in-memory simulator implementing it for
// tests and for -demo mode (spec.md §6.1).
package fieldbus

// ArHandle identifies an established application relationship
// (connection) with a controller. The zero value means "no
// connection".
type ArHandle uint32

// Provider is the set of operations the sampler needs from an
// external fieldbus stack. It is the core's only dependency on the
// out-of-scope protocol stack (spec.md §1, §6.1).
type Provider interface {
	// OutputGet pulls the current process-image bytes for a slot,
	// along with whether the provider believes it changed since the
	// last call. The sampler ignores the updated flag by design
	// (spec.md §9) but the interface still carries it for providers
	// that want it for other purposes.
	OutputGet(slot int) (data []byte, updated bool, err error)

	// ApplicationReady signals the stack that the application has
	// finished arming output/input data for the given connection.
	ApplicationReady(ar ArHandle) error

	// AlarmSendAck acknowledges a pending alarm on the given connection.
	AlarmSendAck(ar ArHandle) error

	// HandlePeriodic must be invoked exactly once per sampler tick,
	// after the slot scan (spec.md §4.3 step 6).
	HandlePeriodic()
}
