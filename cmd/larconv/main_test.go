// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/larpix-daq/larconv/geom"
	"github.com/larpix-daq/larconv/internal/xcnv"
	"github.com/larpix-daq/larconv/loader"
	"github.com/larpix-daq/larconv/packet"
)

func datFile(t *testing.T, fname string) {
	t.Helper()

	block := func(kind byte, ctime int64, payload []byte) []byte {
		hdr := make([]byte, 14)
		hdr[0] = 'D'
		hdr[1] = kind
		binary.LittleEndian.PutUint64(hdr[2:10], uint64(ctime))
		binary.LittleEndian.PutUint32(hdr[10:14], uint32(len(payload)))
		return append(hdr, payload...)
	}

	raw := append([]byte(nil), loader.Magic[:]...)
	raw = append(raw, block('W', 1000, packet.Frame(
		packet.NewConfigWrite(246, 0, 16),
		packet.NewConfigWrite(246, 32, 40),
	))...)
	raw = append(raw, block('R', 1001, packet.Frame(
		packet.NewData(246, 0, 100, 130),
		packet.NewData(246, 31, 105, 0),
	))...)

	err := os.WriteFile(fname, raw, 0644)
	if err != nil {
		t.Fatalf("could not write capture file: %+v", err)
	}
}

func lpxFile(t *testing.T, fname string) {
	t.Helper()

	word := func(ts uint64, pkt packet.Packet) []byte {
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, ts<<packet.NumBits|uint64(pkt)&packet.Mask)
		return buf
	}

	var raw []byte
	raw = append(raw, word(1000, packet.NewData(246, 0, 100, 130))...)
	raw = append(raw, word(1005, packet.NewData(246, 1, 101, 131))...)
	raw = append(raw, word(3, packet.NewData(246, 2, 102, 132))...)

	err := os.WriteFile(fname, raw, 0644)
	if err != nil {
		t.Fatalf("could not write capture file: %+v", err)
	}
}

func TestProcessDat(t *testing.T) {
	tmp, err := os.MkdirTemp("", "larconv-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	fname := filepath.Join(tmp, "run0.dat")
	oname := filepath.Join(tmp, "run0.root")
	datFile(t, fname)

	src, err := loader.Open(fname)
	if err != nil {
		t.Fatalf("could not open capture file: %+v", err)
	}

	plane, err := geom.Load("4chip")
	if err != nil {
		t.Fatalf("could not load layout: %+v", err)
	}

	err = process(oname, "root", fname, src, plane, xcnv.Config{MaxFrames: -1})
	if err != nil {
		t.Fatalf("could not process capture file: %+v", err)
	}

	f, err := groot.Open(oname)
	if err != nil {
		t.Fatalf("could not open output file: %+v", err)
	}
	defer f.Close()

	obj, err := f.Get("larpixdata")
	if err != nil {
		t.Fatalf("could not get output tree: %+v", err)
	}
	tree := obj.(rtree.Tree)
	if got, want := tree.Entries(), int64(2); got != want {
		t.Fatalf("invalid number of entries: got=%d, want=%d", got, want)
	}

	var row struct {
		chip int32
		ch   int32
		trim int32
		pix  int32
	}
	r, err := rtree.NewReader(tree, []rtree.ReadVar{
		{Name: "chipid", Value: &row.chip},
		{Name: "channelid", Value: &row.ch},
		{Name: "pixel_trim", Value: &row.trim},
		{Name: "pixelid", Value: &row.pix},
	})
	if err != nil {
		t.Fatalf("could not create reader: %+v", err)
	}
	defer r.Close()

	want := []struct {
		chip, ch, trim, pix int32
	}{
		{246, 0, 16, 0},
		{246, 31, -1, -1},
	}
	err = r.Read(func(ctx rtree.RCtx) error {
		w := want[ctx.Entry]
		if row.chip != w.chip || row.ch != w.ch || row.trim != w.trim || row.pix != w.pix {
			t.Fatalf("entry %d: invalid row: got=%+v, want=%+v", ctx.Entry, row, w)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("could not read output tree: %+v", err)
	}
}

func TestProcessLpx(t *testing.T) {
	tmp, err := os.MkdirTemp("", "larconv-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	fname := filepath.Join(tmp, "run1.lpx")
	oname := filepath.Join(tmp, "run1.root")
	lpxFile(t, fname)

	src, err := loader.Open(fname)
	if err != nil {
		t.Fatalf("could not open capture file: %+v", err)
	}

	plane, err := geom.Load("4chip")
	if err != nil {
		t.Fatalf("could not load layout: %+v", err)
	}

	err = process(oname, "root", fname, src, plane, xcnv.Config{MaxFrames: -1})
	if err != nil {
		t.Fatalf("could not process capture file: %+v", err)
	}

	f, err := groot.Open(oname)
	if err != nil {
		t.Fatalf("could not open output file: %+v", err)
	}
	defer f.Close()

	obj, err := f.Get("larpixdata")
	if err != nil {
		t.Fatalf("could not get output tree: %+v", err)
	}
	tree := obj.(rtree.Tree)

	var ts uint64
	r, err := rtree.NewReader(tree, []rtree.ReadVar{
		{Name: "timestamp", Value: &ts},
	})
	if err != nil {
		t.Fatalf("could not create reader: %+v", err)
	}
	defer r.Close()

	want := []uint64{1000, 1005, 1027}
	err = r.Read(func(ctx rtree.RCtx) error {
		if got := ts; got != want[ctx.Entry] {
			t.Fatalf("entry %d: invalid timestamp: got=%d, want=%d", ctx.Entry, got, want[ctx.Entry])
		}
		return nil
	})
	if err != nil {
		t.Fatalf("could not read output tree: %+v", err)
	}
}

func TestOutputName(t *testing.T) {
	for _, tc := range []struct {
		fname  string
		format string
		want   string
	}{
		{"run0.dat", "h5", "run0.h5"},
		{"run0.lpx", "root", "run0.root"},
		{"/data/runs/run1.dat", "root", "/data/runs/run1.root"},
	} {
		t.Run(tc.fname, func(t *testing.T) {
			if got := outputName(tc.fname, tc.format); got != tc.want {
				t.Fatalf("invalid output name: got=%q, want=%q", got, tc.want)
			}
		})
	}
}

func TestNewSinkUnknownFormat(t *testing.T) {
	_, err := newSink("out.csv", "csv")
	if err == nil {
		t.Fatalf("expected an error for unknown format")
	}
}
