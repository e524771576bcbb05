// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chip tracks the configuration-register state of LArPix
// readout chips, as observed from configuration-write packets.
package chip // import "github.com/larpix-daq/larconv/chip"

const (
	// NumChannels is the number of input channels per chip. Registers
	// 0 to NumChannels-1 hold the per-channel trim thresholds, with
	// the register address equal to the channel id.
	NumChannels = 32

	// GlobalThresholdReg is the global comparator threshold register.
	GlobalThresholdReg = 32
)

// Unset marks a register value that has not been observed.
const Unset = -1

type regs struct {
	trims  [NumChannels]int32
	global int32
}

// State records the last written trim and global-threshold register
// values, per chip. Chips are tracked lazily on first observation.
type State struct {
	chips map[uint8]*regs
}

// NewState returns an empty State.
func NewState() *State {
	return &State{chips: make(map[uint8]*regs)}
}

// Observe records a configuration write of value v to register reg of
// the given chip. Registers other than the trim and global-threshold
// ones are ignored.
func (st *State) Observe(chip, reg, v uint8) {
	switch {
	case reg < NumChannels:
		st.get(chip).trims[reg] = int32(v)
	case reg == GlobalThresholdReg:
		st.get(chip).global = int32(v)
	}
}

func (st *State) get(chip uint8) *regs {
	r, ok := st.chips[chip]
	if !ok {
		r = &regs{global: Unset}
		for i := range r.trims {
			r.trims[i] = Unset
		}
		st.chips[chip] = r
	}
	return r
}

// Lookup returns the last-seen trim threshold of (chip, channel) and
// the chip's global threshold. Values never written are Unset; so are
// both values for never-seen chips and the trim for out-of-range
// channels.
func (st *State) Lookup(chip, channel uint8) (trim, global int32) {
	r, ok := st.chips[chip]
	if !ok {
		return Unset, Unset
	}
	if channel >= NumChannels {
		return Unset, r.global
	}
	return r.trims[channel], r.global
}
