// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package packet

// Bytes returns the 7 payload bytes of the packet, LSB first.
func (p Packet) Bytes() [PayloadSize]byte {
	var buf [PayloadSize]byte
	w := uint64(p) & Mask
	for i := range buf {
		buf[i] = byte(w >> (8 * i))
	}
	return buf
}

// AppendWord appends the serial-framed UART word carrying p to dst.
func AppendWord(dst []byte, p Packet) []byte {
	buf := p.Bytes()
	dst = append(dst, startByte)
	dst = append(dst, buf[:]...)
	return append(dst, 0x00, stopByte)
}

// Frame returns the serial-framed byte stream carrying pkts, as found
// in the payload of a capture-log transmission.
func Frame(pkts ...Packet) []byte {
	buf := make([]byte, 0, len(pkts)*WordSize)
	for _, p := range pkts {
		buf = AppendWord(buf, p)
	}
	return buf
}
