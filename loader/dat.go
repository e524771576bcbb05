// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic identifies structured-block capture files.
var Magic = [8]byte{'L', 'A', 'r', 'P', 'd', 'a', 't', 1}

const (
	blkData = 'D' // data block

	dataRead  = 'R' // chip-to-host transmission
	dataWrite = 'W' // host-to-chip transmission

	datHdrSize = 14 // type (1) + kind (1) + capture time (8) + length (4)
)

// Dat reads transmission frames from a structured-block capture.
//
// A capture starts with Magic and holds a sequence of blocks:
//
//	u8  block type  ('D' for data blocks)
//	u8  data kind   ('R' read, 'W' write)
//	i64 capture time, milliseconds; -1 when invalid
//	u32 payload length
//	... payload
//
// all little-endian. Blocks of unknown type are yielded as KindOther.
type Dat struct {
	r   io.Reader
	seq int64
	buf [datHdrSize]byte
	c   io.Closer
}

// NewDat returns a frame source reading structured-block data from r.
func NewDat(r io.Reader) (*Dat, error) {
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("loader: could not read capture magic: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("loader: invalid capture magic %q", magic[:])
	}
	return &Dat{r: r}, nil
}

// Next returns the next frame of the capture. A capture truncated
// mid-block ends the stream, it is not an error.
func (src *Dat) Next() (Frame, error) {
	var frame Frame

	_, err := io.ReadFull(src.r, src.buf[:])
	if err != nil {
		return frame, eosOf(err, "block header")
	}

	var (
		btype = src.buf[0]
		bkind = src.buf[1]
		ctime = int64(binary.LittleEndian.Uint64(src.buf[2:10]))
		size  = binary.LittleEndian.Uint32(src.buf[10:14])
	)

	payload := make([]byte, size)
	_, err = io.ReadFull(src.r, payload)
	if err != nil {
		return frame, eosOf(err, "block payload")
	}

	kind := KindOther
	if btype == blkData {
		switch bkind {
		case dataRead:
			kind = KindDataRead
		case dataWrite:
			kind = KindDataWrite
		}
	}

	frame = Frame{
		Kind:        kind,
		Payload:     payload,
		CaptureTime: ctime,
		WordTime:    -1,
		Seq:         src.seq,
	}
	src.seq++
	return frame, nil
}

func (src *Dat) Close() error { return closeOf(src.c) }

// eosOf maps short reads to a clean end-of-stream and wraps anything
// else.
func eosOf(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return io.EOF
	}
	return fmt.Errorf("loader: could not read %s: %w", what, err)
}
