// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/larpix-daq/larconv/packet"
)

func datBlock(btype, bkind byte, ctime int64, payload []byte) []byte {
	buf := make([]byte, datHdrSize, datHdrSize+len(payload))
	buf[0] = btype
	buf[1] = bkind
	binary.LittleEndian.PutUint64(buf[2:10], uint64(ctime))
	binary.LittleEndian.PutUint32(buf[10:14], uint32(len(payload)))
	return append(buf, payload...)
}

func datCapture(blocks ...[]byte) []byte {
	raw := append([]byte{}, Magic[:]...)
	for _, blk := range blocks {
		raw = append(raw, blk...)
	}
	return raw
}

func TestDat(t *testing.T) {
	var (
		cfg  = packet.Frame(packet.NewConfigWrite(3, 32, 16))
		data = packet.Frame(packet.NewData(3, 1, 100, 150))
	)

	raw := datCapture(
		datBlock(blkData, dataWrite, 1000, cfg),
		datBlock('X', 0, 1001, []byte{1, 2, 3}),
		datBlock(blkData, dataRead, 1002, data),
		datBlock(blkData, dataRead, -1, data),
	)

	src, err := NewDat(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("could not open capture: %+v", err)
	}
	defer src.Close()

	want := []Frame{
		{Kind: KindDataWrite, Payload: cfg, CaptureTime: 1000, WordTime: -1, Seq: 0},
		{Kind: KindOther, Payload: []byte{1, 2, 3}, CaptureTime: 1001, WordTime: -1, Seq: 1},
		{Kind: KindDataRead, Payload: data, CaptureTime: 1002, WordTime: -1, Seq: 2},
		{Kind: KindDataRead, Payload: data, CaptureTime: -1, WordTime: -1, Seq: 3},
	}
	for i, w := range want {
		frame, err := src.Next()
		if err != nil {
			t.Fatalf("block %d: could not read frame: %+v", i, err)
		}
		if frame.Kind != w.Kind || frame.CaptureTime != w.CaptureTime ||
			frame.WordTime != w.WordTime || frame.Seq != w.Seq ||
			!bytes.Equal(frame.Payload, w.Payload) {
			t.Fatalf("block %d: invalid frame:\ngot = %+v\nwant= %+v", i, frame, w)
		}
	}

	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("invalid end-of-stream error: %+v", err)
	}
}

func TestDatBadMagic(t *testing.T) {
	_, err := NewDat(bytes.NewReader([]byte("not-a-capture-file")))
	if err == nil {
		t.Fatalf("expected an error for invalid magic")
	}
}

func TestDatTruncated(t *testing.T) {
	data := packet.Frame(packet.NewData(3, 1, 100, 150))

	for _, tc := range []struct {
		name string
		raw  []byte
	}{
		{
			name: "empty capture",
			raw:  datCapture(),
		},
		{
			name: "mid-header",
			raw:  datCapture(datBlock(blkData, dataRead, 0, data)[:datHdrSize-4]),
		},
		{
			name: "mid-payload",
			raw:  datCapture(datBlock(blkData, dataRead, 0, data)[:datHdrSize+5]),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			src, err := NewDat(bytes.NewReader(tc.raw))
			if err != nil {
				t.Fatalf("could not open capture: %+v", err)
			}
			if _, err := src.Next(); !errors.Is(err, io.EOF) {
				t.Fatalf("invalid end-of-stream error: %+v", err)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	tmp := t.TempDir()

	t.Run("dat", func(t *testing.T) {
		fname := filepath.Join(tmp, "run.dat")
		raw := datCapture(datBlock(blkData, dataRead, 5, packet.Frame(packet.NewData(1, 2, 3, 140))))
		if err := os.WriteFile(fname, raw, 0644); err != nil {
			t.Fatal(err)
		}

		src, err := Open(fname)
		if err != nil {
			t.Fatalf("could not open capture: %+v", err)
		}
		defer src.Close()

		frame, err := src.Next()
		if err != nil {
			t.Fatalf("could not read frame: %+v", err)
		}
		if got, want := frame.Kind, KindDataRead; got != want {
			t.Fatalf("invalid kind: got=%v, want=%v", got, want)
		}
		if err := src.Close(); err != nil {
			t.Fatalf("could not close source: %+v", err)
		}
	})

	t.Run("lpx", func(t *testing.T) {
		fname := filepath.Join(tmp, "run.lpx")
		if err := os.WriteFile(fname, lpxWord(packet.NewData(1, 2, 3, 140), 7), 0644); err != nil {
			t.Fatal(err)
		}

		src, err := Open(fname)
		if err != nil {
			t.Fatalf("could not open capture: %+v", err)
		}
		defer src.Close()

		frame, err := src.Next()
		if err != nil {
			t.Fatalf("could not read frame: %+v", err)
		}
		if got, want := frame.WordTime, int64(7); got != want {
			t.Fatalf("invalid word time: got=%d, want=%d", got, want)
		}
	})

	t.Run("unknown-extension", func(t *testing.T) {
		_, err := Open(filepath.Join(tmp, "run.txt"))
		if err == nil {
			t.Fatalf("expected an error for unknown extension")
		}
	})

	t.Run("missing-file", func(t *testing.T) {
		_, err := Open(filepath.Join(tmp, "no-such.dat"))
		if err == nil {
			t.Fatalf("expected an error for missing file")
		}
	})
}
