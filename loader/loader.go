// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package loader reads raw transmission frames from LArPix capture
// files.
//
// Two container formats are supported, selected by file extension:
// the structured-block format written by the serial capture scripts
// (.dat) and the fixed 8-byte-word format (.lpx). Both yield the same
// Frame stream, so downstream decoding is format-agnostic.
package loader // import "github.com/larpix-daq/larconv/loader"

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/larpix-daq/larconv/internal/mmap"
)

// Kind classifies a transmission frame.
type Kind uint8

const (
	KindOther     Kind = iota
	KindDataRead       // chip-to-host data transmission
	KindDataWrite      // host-to-chip configuration transmission
)

func (k Kind) String() string {
	switch k {
	case KindDataRead:
		return "data-read"
	case KindDataWrite:
		return "data-write"
	}
	return "other"
}

// Frame is one transmission unit from a capture log. A Frame is
// immutable once produced.
type Frame struct {
	Kind    Kind
	Payload []byte // serial-framed packet bytes

	// CaptureTime is the host-side capture time of the transmission,
	// in milliseconds. -1 means no capture time exists for this frame.
	CaptureTime int64

	// WordTime is the rollover-corrected word timestamp of fixed-word
	// captures, -1 when absent or rejected as out-of-order.
	WordTime int64

	// Seq is the sequence index of the frame within the capture,
	// assigned by the source.
	Seq int64
}

// Source yields the frames of a capture in arrival order.
type Source interface {
	// Next returns the next frame, or io.EOF at end of stream.
	Next() (Frame, error)
	Close() error
}

// Open opens the capture file at path, selecting the container format
// from the file extension.
func Open(path string) (Source, error) {
	ext := filepath.Ext(path)
	switch ext {
	case ".dat", ".lpx":
		// ok
	default:
		return nil, fmt.Errorf("loader: unrecognized capture format %q", ext)
	}

	h, err := mmap.Map(path)
	if err != nil {
		return nil, fmt.Errorf("loader: could not map capture file: %w", err)
	}

	r := bytes.NewReader(h.Bytes())
	switch ext {
	case ".dat":
		src, err := NewDat(r)
		if err != nil {
			_ = h.Close()
			return nil, err
		}
		src.c = h
		return src, nil
	default:
		src := NewLpx(r)
		src.c = h
		return src, nil
	}
}

func closeOf(c io.Closer) error {
	if c == nil {
		return nil
	}
	return c.Close()
}
