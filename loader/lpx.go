// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"encoding/binary"
	"io"

	"github.com/larpix-daq/larconv/clock"
	"github.com/larpix-daq/larconv/packet"
)

const lpxWordSize = 8

// Lpx reads transmission frames from a fixed-word capture: a raw
// sequence of 8-byte little-endian words with the 54 packet bits in
// the low bits and a truncated 10-bit word timestamp in the high bits.
//
// Every word is exposed as a synthetic data-read frame whose payload
// carries the usual serial framing, and whose capture time is invalid
// (the format has none). The source corrects the 10-bit word
// timestamps for rollover on its own: at this stage the packets have
// not been decoded yet, so no per-chip reference exists.
type Lpx struct {
	r    io.Reader
	prev int64 // rollover reference, last corrected word timestamp
	seq  int64
	buf  [lpxWordSize]byte
	c    io.Closer
}

// NewLpx returns a frame source reading fixed-word data from r, with
// the word-timestamp reference starting at zero.
func NewLpx(r io.Reader) *Lpx {
	return &Lpx{r: r}
}

// Next returns the next frame of the capture. A trailing partial word
// ends the stream, it is not an error.
func (src *Lpx) Next() (Frame, error) {
	var frame Frame

	_, err := io.ReadFull(src.r, src.buf[:])
	if err != nil {
		return frame, eosOf(err, "capture word")
	}

	var (
		word = binary.LittleEndian.Uint64(src.buf[:])
		ts   = uint32(word >> packet.NumBits)
		pkt  = packet.Packet(word & packet.Mask)
	)

	wt := clock.Reconstruct(ts, src.prev, clock.WordBits, clock.LateWindow)
	if wt >= 0 {
		src.prev = wt
	}

	frame = Frame{
		Kind:        KindDataRead,
		Payload:     packet.AppendWord(nil, pkt),
		CaptureTime: -1,
		WordTime:    wt,
		Seq:         src.seq,
	}
	src.seq++
	return frame, nil
}

func (src *Lpx) Close() error { return closeOf(src.c) }
