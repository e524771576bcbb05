// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/larpix-daq/larconv/packet"
)

func lpxWord(p packet.Packet, ts uint32) []byte {
	buf := make([]byte, lpxWordSize)
	binary.LittleEndian.PutUint64(buf, uint64(p)&packet.Mask|uint64(ts)<<packet.NumBits)
	return buf
}

func TestLpx(t *testing.T) {
	var (
		p1 = packet.NewData(3, 1, 100, 150)
		p2 = packet.NewData(3, 2, 200, 151)
		p3 = packet.NewData(4, 1, 300, 152)

		raw []byte
	)
	// word timestamps roll over between the 2nd and 3rd word
	raw = append(raw, lpxWord(p1, 1000)...)
	raw = append(raw, lpxWord(p2, 1005)...)
	raw = append(raw, lpxWord(p3, 3)...)

	src := NewLpx(bytes.NewReader(raw))
	defer src.Close()

	var (
		wantPkts  = []packet.Packet{p1, p2, p3}
		wantTimes = []int64{1000, 1005, 1027}
	)
	for i := range wantPkts {
		frame, err := src.Next()
		if err != nil {
			t.Fatalf("word %d: could not read frame: %+v", i, err)
		}
		if got, want := frame.Kind, KindDataRead; got != want {
			t.Fatalf("word %d: invalid kind: got=%v, want=%v", i, got, want)
		}
		if got, want := frame.Seq, int64(i); got != want {
			t.Fatalf("word %d: invalid seq: got=%d, want=%d", i, got, want)
		}
		if got, want := frame.CaptureTime, int64(-1); got != want {
			t.Fatalf("word %d: invalid capture time: got=%d, want=%d", i, got, want)
		}
		if got, want := frame.WordTime, wantTimes[i]; got != want {
			t.Fatalf("word %d: invalid word time: got=%d, want=%d", i, got, want)
		}

		var dec packet.Decoder
		got := dec.Decode(frame.Payload)
		if want := []packet.Packet{wantPkts[i]}; !reflect.DeepEqual(got, want) {
			t.Fatalf("word %d: invalid re-framed payload:\ngot = %v\nwant= %v", i, got, want)
		}
	}

	_, err := src.Next()
	if !errors.Is(err, io.EOF) {
		t.Fatalf("invalid end-of-stream error: %+v", err)
	}
}

func TestLpxLateWord(t *testing.T) {
	p := packet.NewData(1, 1, 0, 128)

	var raw []byte
	raw = append(raw, lpxWord(p, 1000)...)
	raw = append(raw, lpxWord(p, 995)...) // late arrival, rejected
	raw = append(raw, lpxWord(p, 1001)...)

	src := NewLpx(bytes.NewReader(raw))
	defer src.Close()

	for i, want := range []int64{1000, -1, 1001} {
		frame, err := src.Next()
		if err != nil {
			t.Fatalf("word %d: could not read frame: %+v", i, err)
		}
		if got := frame.WordTime; got != want {
			t.Fatalf("word %d: invalid word time: got=%d, want=%d", i, got, want)
		}
	}
}

func TestLpxTruncated(t *testing.T) {
	p := packet.NewData(1, 1, 0, 128)

	raw := append(lpxWord(p, 42), 0xde, 0xad, 0xbe)

	src := NewLpx(bytes.NewReader(raw))
	defer src.Close()

	if _, err := src.Next(); err != nil {
		t.Fatalf("could not read frame: %+v", err)
	}
	// trailing partial word is a clean end of stream
	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("invalid end-of-stream error: %+v", err)
	}
}
