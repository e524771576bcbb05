// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package record

import (
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
)

// rootRow mirrors one record with the branch types of the original
// analysis tree: coordinates and voltages as float64, timestamps as
// uint64, the rest as int32.
type rootRow struct {
	channelid int32
	chipid    int32
	pixelid   int32
	pixelx    float64
	pixely    float64
	rawADC    int32
	rawTime   uint64
	adc       int32
	time      uint64
	serial    int32
	v         float64
	pdstV     float64
	trim      int32
	threshold int32
	cpuTime   uint64
}

// RootSink writes records to a ROOT tree named "larpixdata".
type RootSink struct {
	f   *riofs.File
	w   rtree.Writer
	row rootRow
}

// NewRootSink creates the ROOT output file at path.
func NewRootSink(path string) (*RootSink, error) {
	f, err := groot.Create(path)
	if err != nil {
		return nil, fmt.Errorf("record: could not create ROOT file: %w", err)
	}

	snk := &RootSink{f: f}
	wvars := []rtree.WriteVar{
		{Name: "channelid", Value: &snk.row.channelid},
		{Name: "chipid", Value: &snk.row.chipid},
		{Name: "pixelid", Value: &snk.row.pixelid},
		{Name: "pixelx", Value: &snk.row.pixelx},
		{Name: "pixely", Value: &snk.row.pixely},
		{Name: "raw_adc", Value: &snk.row.rawADC},
		{Name: "raw_timestamp", Value: &snk.row.rawTime},
		{Name: "adc", Value: &snk.row.adc},
		{Name: "timestamp", Value: &snk.row.time},
		{Name: "serialblock", Value: &snk.row.serial},
		{Name: "v", Value: &snk.row.v},
		{Name: "pdst_v", Value: &snk.row.pdstV},
		{Name: "pixel_trim", Value: &snk.row.trim},
		{Name: "global_threshold", Value: &snk.row.threshold},
		{Name: "cpu_timestamp", Value: &snk.row.cpuTime},
	}

	w, err := rtree.NewWriter(f, "larpixdata", wvars, rtree.WithTitle("LArPixData"))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("record: could not create ROOT tree: %w", err)
	}
	snk.w = w
	return snk, nil
}

func (snk *RootSink) Write(rec Record) error {
	snk.row = rootRow{
		channelid: rec.ChannelID,
		chipid:    rec.ChipID,
		pixelid:   rec.PixelID,
		pixelx:    rec.PixelX,
		pixely:    rec.PixelY,
		rawADC:    rec.RawADC,
		rawTime:   uint64(rec.RawTimestamp),
		adc:       rec.ADC,
		time:      uint64(rec.Timestamp),
		serial:    int32(rec.Seq),
		v:         rec.V,
		pdstV:     rec.PdstV,
		trim:      rec.Trim,
		threshold: rec.GlobalThreshold,
		cpuTime:   uint64(rec.CaptureTime),
	}
	_, err := snk.w.Write()
	if err != nil {
		return fmt.Errorf("record: could not fill ROOT tree: %w", err)
	}
	return nil
}

// Close flushes the tree and closes the output file.
func (snk *RootSink) Close() error {
	err := snk.w.Close()
	if e := snk.f.Close(); err == nil {
		err = e
	}
	return err
}
