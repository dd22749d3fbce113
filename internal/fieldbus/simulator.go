// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fieldbus

import "sync"

// Simulator is a deterministic in-memory Provider implementation. It
// lets the sampler be driven without a real fieldbus stack attached —
// used by the package test suites (spec.md §8 scenarios) and by
// -demo mode. This is a supplemented feature: the original C program
// has no such mode, but nothing in spec.md's Non-goals excludes it.
type Simulator struct {
	mu       sync.Mutex
	images   map[int][]byte
	periodic int
	handlePeriodicHook func()
}

// NewSimulator returns an empty Simulator with no images set.
func NewSimulator() *Simulator {
	return &Simulator{images: make(map[int][]byte)}
}

// SetImage installs the process image the next OutputGet(slot) call
// will return. Intended to be called by tests between sampler ticks.
func (s *Simulator) SetImage(slot int, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.images[slot] = cp
}

// OnHandlePeriodic installs a hook invoked from HandlePeriodic, useful
// for tests that want to observe the "exactly once per tick" contract.
func (s *Simulator) OnHandlePeriodic(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlePeriodicHook = fn
}

func (s *Simulator) OutputGet(slot int) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[slot]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(img))
	copy(out, img)
	return out, true, nil
}

func (s *Simulator) ApplicationReady(ArHandle) error { return nil }

func (s *Simulator) AlarmSendAck(ArHandle) error { return nil }

func (s *Simulator) HandlePeriodic() {
	s.mu.Lock()
	s.periodic++
	hook := s.handlePeriodicHook
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// PeriodicCalls returns how many times HandlePeriodic has been invoked.
func (s *Simulator) PeriodicCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.periodic
}
