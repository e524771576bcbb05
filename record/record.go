// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package record assembles and stores the output rows of a conversion
// run, one row per decoded data packet.
package record // import "github.com/larpix-daq/larconv/record"

// NumCols is the number of columns of the flat-table layout.
const NumCols = 15

// Record is one output row. The value -1 marks unknown or unavailable
// fields.
type Record struct {
	ChannelID       int32
	ChipID          int32
	PixelID         int32   // -1 for unconnected channels
	PixelX          float64 // mm
	PixelY          float64 // mm
	RawADC          int32   // raw dataword
	RawTimestamp    int64   // truncated on-wire timestamp
	ADC             int32   // derived 6-bit value
	Timestamp       int64   // reconstructed absolute timestamp, -1 when unknown
	Seq             int64   // frame sequence index
	V               float64 // calibrated voltage, mV
	PdstV           float64 // calibrated pedestal voltage, mV
	Trim            int32   // channel trim threshold
	GlobalThreshold int32   // chip global threshold
	CaptureTime     int64   // host capture time, ms
}

// Flat returns the record as the NumCols int64 columns of the flat
// table layout:
//
//	channel id | chip id | pixel id | int(10*pixel x) | int(10*pixel y) |
//	raw ADC | raw timestamp | 6-bit ADC | full timestamp | serial index |
//	voltage (mV) | pedestal voltage (mV) | channel trim |
//	global threshold | capture time
//
// Pixel coordinates are scaled by 10 and truncated, to keep some
// precision in the integer table; unconnected pixels store -1 for id
// and both coordinates.
func (rec Record) Flat() [NumCols]int64 {
	row := [NumCols]int64{
		0:  int64(rec.ChannelID),
		1:  int64(rec.ChipID),
		2:  -1,
		3:  -1,
		4:  -1,
		5:  int64(rec.RawADC),
		6:  rec.RawTimestamp,
		7:  int64(rec.ADC),
		8:  rec.Timestamp,
		9:  rec.Seq,
		10: int64(rec.V),
		11: int64(rec.PdstV),
		12: int64(rec.Trim),
		13: int64(rec.GlobalThreshold),
		14: rec.CaptureTime,
	}
	if rec.PixelID >= 0 {
		row[2] = int64(rec.PixelID)
		row[3] = int64(10 * rec.PixelX)
		row[4] = int64(10 * rec.PixelY)
	}
	return row
}

// Sink consumes the records of a conversion run.
type Sink interface {
	Write(rec Record) error
	Close() error
}

// TableSink collects records in memory.
type TableSink struct {
	Records []Record
}

func (snk *TableSink) Write(rec Record) error {
	snk.Records = append(snk.Records, rec)
	return nil
}

func (snk *TableSink) Close() error { return nil }

var (
	_ Sink = (*TableSink)(nil)
	_ Sink = (*H5Sink)(nil)
	_ Sink = (*RootSink)(nil)
)
