// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package clock reconstructs absolute timestamps from the truncated
// counters carried on the wire by LArPix packets.
package clock // import "github.com/larpix-daq/larconv/clock"

const (
	// PacketBits is the width of the timestamp counter of data packets.
	PacketBits = 24

	// WordBits is the width of the word timestamps of fixed-word
	// (.lpx) captures.
	WordBits = 10

	// LateWindow is the reject window for out-of-order packets: a
	// truncated timestamp less than LateWindow counts behind its
	// reference is treated as a late arrival, not a rollover.
	LateWindow = 10

	// NumChips is the number of chip ids addressable on the wire.
	NumChips = 256
)

// Reconstruct corrects the truncated nbits-wide counter value trunc
// for rollovers with respect to the reference timestamp ref, the last
// reconstructed value. A negative ref means no reference exists yet.
//
// Reconstruct returns -1 when trunc trails ref by less than window
// counts: such a packet is almost certainly a late arrival of an
// already-seen time window and correcting it would guess wrong.
//
// The result is only meaningful as long as ref is known to trail the
// true timestamp by less than 2^nbits-window counts; this precondition
// is not verified at runtime.
func Reconstruct(trunc uint32, ref int64, nbits uint, window int64) int64 {
	t := int64(trunc)
	if ref <= t {
		// no rollover yet (or no reference at all)
		return t
	}
	d := ref - t
	if d < window {
		return -1
	}
	rollover := int64(1) << nbits
	n := (d + rollover - 1) / rollover
	return n*rollover + t
}

// Tracker reconstructs per-chip absolute timestamps from the 24-bit
// counters of data packets, keeping the last reconstructed timestamp
// of each chip as the rollover reference for the next one.
//
// The first successfully reconstructed timestamp of the run seeds the
// reference of every chip, not only the observed one, so that chips
// first seen later in the run do not restart from a cold reference.
type Tracker struct {
	last   [NumChips]int64
	seeded bool
}

// NewTracker returns a Tracker with no reference for any chip.
func NewTracker() *Tracker {
	tk := new(Tracker)
	for i := range tk.last {
		tk.last[i] = -1
	}
	return tk
}

// Timestamp reconstructs the absolute timestamp of a data packet from
// chip with truncated counter trunc, and updates the chip's reference.
// It returns -1 for packets rejected as late, leaving all references
// untouched.
func (tk *Tracker) Timestamp(chip uint8, trunc uint32) int64 {
	ts := Reconstruct(trunc, tk.last[chip], PacketBits, LateWindow)
	if ts < 0 {
		return -1
	}
	if !tk.seeded {
		for i := range tk.last {
			tk.last[i] = ts
		}
		tk.seeded = true
		return ts
	}
	tk.last[chip] = ts
	return ts
}
