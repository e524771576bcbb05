// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package packet describes and handles LArPix UART packets.
//
// A packet is 54 bits long, transmitted LSB first:
//
//	bits  0-1   packet type
//	bits  2-9   chip id
//	bits 10-16  channel id          (data packets)
//	bits 17-40  24-bit timestamp    (data packets)
//	bits 41-50  10-bit dataword     (data packets, ADC in the low 8 bits)
//	bits 10-17  register address    (config packets)
//	bits 18-25  register data       (config packets)
//	bit  51     FIFO half-full flag
//	bit  52     FIFO full flag
//	bit  53     odd parity
//
// On the serial line each packet travels inside a 10-byte UART word
// delimited by start/stop markers.
package packet // import "github.com/larpix-daq/larconv/packet"

import (
	"fmt"
	"math/bits"
)

const (
	startByte = 0x73 // 's', start of a framed UART word
	stopByte  = 0x71 // 'q', end of a framed UART word

	// WordSize is the size of a framed UART word on the serial line:
	// start marker, 7 payload bytes, one padding byte, stop marker.
	WordSize = 10

	// PayloadSize is the number of payload bytes inside a UART word.
	PayloadSize = 7

	// NumBits is the number of packet bits inside the payload.
	NumBits = 54

	// Mask selects the packet bits of a payload word.
	Mask = 1<<NumBits - 1
)

// Type is the type tag of a packet.
type Type uint8

const (
	TypeData Type = iota
	TypeTest
	TypeConfigWrite
	TypeConfigRead
)

func (t Type) String() string {
	switch t {
	case TypeData:
		return "data"
	case TypeTest:
		return "test"
	case TypeConfigWrite:
		return "config-write"
	case TypeConfigRead:
		return "config-read"
	}
	return "invalid"
}

// Packet is one LArPix UART packet, stored in the low 54 bits of a
// uint64 in transmission bit order.
type Packet uint64

func (p Packet) Type() Type     { return Type(p & 0x3) }
func (p Packet) Chip() uint8    { return uint8(p >> 2) }
func (p Packet) Channel() uint8 { return uint8(p>>10) & 0x7f }
func (p Packet) Timestamp() uint32 {
	return uint32(p>>17) & 0xffffff
}

// Dataword returns the 10-bit ADC dataword of a data packet.
func (p Packet) Dataword() uint16 { return uint16(p>>41) & 0x3ff }

// Register returns the register address of a config packet.
func (p Packet) Register() uint8 { return uint8(p >> 10) }

// RegisterData returns the register value of a config packet.
func (p Packet) RegisterData() uint8 { return uint8(p >> 18) }

func (p Packet) FIFOHalf() bool { return p>>51&1 == 1 }
func (p Packet) FIFOFull() bool { return p>>52&1 == 1 }

// ValidParity reports whether the packet carries a valid odd-parity
// bit, ie. whether the total number of set bits is odd.
func (p Packet) ValidParity() bool {
	return bits.OnesCount64(uint64(p)&Mask)&1 == 1
}

// withParity returns p with the parity bit set for odd parity.
func withParity(p Packet) Packet {
	if bits.OnesCount64(uint64(p))&1 == 0 {
		p |= 1 << 53
	}
	return p
}

// NewData builds a data packet.
func NewData(chip, channel uint8, ts uint32, word uint16) Packet {
	p := Packet(TypeData) |
		Packet(chip)<<2 |
		Packet(channel&0x7f)<<10 |
		Packet(ts&0xffffff)<<17 |
		Packet(word&0x3ff)<<41
	return withParity(p)
}

// NewConfigWrite builds a configuration-write packet.
func NewConfigWrite(chip, reg, data uint8) Packet {
	return withParity(newConfig(TypeConfigWrite, chip, reg, data))
}

// NewConfigRead builds a configuration-read packet.
func NewConfigRead(chip, reg, data uint8) Packet {
	return withParity(newConfig(TypeConfigRead, chip, reg, data))
}

func newConfig(t Type, chip, reg, data uint8) Packet {
	return Packet(t) |
		Packet(chip)<<2 |
		Packet(reg)<<10 |
		Packet(data)<<18
}

func (p Packet) String() string {
	switch p.Type() {
	case TypeData:
		return fmt.Sprintf("data         chip=%3d ch=%3d ts=%8d adc=%4d",
			p.Chip(), p.Channel(), p.Timestamp(), p.Dataword(),
		)
	case TypeConfigWrite, TypeConfigRead:
		return fmt.Sprintf("%-12s chip=%3d reg=%3d val=%3d",
			p.Type(), p.Chip(), p.Register(), p.RegisterData(),
		)
	}
	return fmt.Sprintf("%-12s chip=%3d", p.Type(), p.Chip())
}

// ADC6 converts the 8-bit ADC value held in word to the derived 6-bit
// value, formed by dropping the MSB and the LSB.
func ADC6(word uint16) int32 {
	return (int32(word) - 128) >> 1
}
