// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packet

// Decoder extracts packets from the serial-framed payload of a
// transmission frame. Bytes that do not line up with the start/stop
// framing are skipped until the framing is recovered, and packets
// with an invalid parity bit are dropped; both conditions are counted
// but are not errors.
type Decoder struct {
	BadParity int // packets dropped on parity mismatch
	Skipped   int // bytes skipped while searching for framing
}

// Decode returns the packets framed inside data, in order.
func (dec *Decoder) Decode(data []byte) []Packet {
	var pkts []Packet
	i := 0
	for i+WordSize <= len(data) {
		if data[i] != startByte || data[i+WordSize-1] != stopByte {
			i++
			dec.Skipped++
			continue
		}
		p := FromBytes(data[i+1 : i+1+PayloadSize])
		i += WordSize
		if !p.ValidParity() {
			dec.BadParity++
			continue
		}
		pkts = append(pkts, p)
	}
	dec.Skipped += len(data) - i
	return pkts
}

// FromBytes decodes a packet from its 7 payload bytes, LSB first.
func FromBytes(p []byte) Packet {
	var w uint64
	for i, v := range p[:PayloadSize] {
		w |= uint64(v) << (8 * i)
	}
	return Packet(w & Mask)
}
