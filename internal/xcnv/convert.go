// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/larpix-daq/larconv/calib"
	"github.com/larpix-daq/larconv/chip"
	"github.com/larpix-daq/larconv/clock"
	"github.com/larpix-daq/larconv/geom"
	"github.com/larpix-daq/larconv/loader"
	"github.com/larpix-daq/larconv/packet"
	"github.com/larpix-daq/larconv/record"
)

// Config holds the options of a conversion.
type Config struct {
	// MaxFrames bounds the frame sequence index, counted from the
	// start of the stream, skipped frames included (-1: no bound).
	MaxFrames int64
	Skip      int64       // number of leading frames to skip
	Calib     calib.Table // per-channel calibration (may be nil)
	Msg       *log.Logger // progress logger (may be nil)
}

// Stats summarizes a conversion.
type Stats struct {
	Frames       int64 // frames processed
	Packets      int64 // packets decoded
	ConfigWrites int64 // configuration writes observed
	Records      int64 // records written
	Late         int64 // data words with an unrecoverable timestamp
	BadParity    int64 // packets dropped for bad parity
}

// Convert drains src, reconstructs timestamps and chip configuration
// state, annotates data words with pixel geometry and calibration and
// writes one record per data word to dst.
//
// Configuration writes observed in the stream update the running chip
// state; data words read before any write for their channel carry -1
// for trim and threshold.
func Convert(dst record.Sink, src loader.Source, plane *geom.PixelPlane, cfg Config) (Stats, error) {
	var (
		stats Stats
		state = chip.NewState()
		clk   = clock.NewTracker()
		dec   packet.Decoder
	)

loop:
	for {
		frame, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break loop
			}
			return stats, fmt.Errorf("xcnv: could not read frame: %w", err)
		}
		if cfg.MaxFrames >= 0 && frame.Seq >= cfg.MaxFrames {
			break loop
		}
		if frame.Seq < cfg.Skip {
			continue
		}
		if cfg.Msg != nil && stats.Frames%100 == 0 {
			cfg.Msg.Printf("processing block %d...", frame.Seq)
		}
		stats.Frames++

		switch frame.Kind {
		case loader.KindDataWrite:
			pkts := dec.Decode(frame.Payload)
			stats.Packets += int64(len(pkts))
			for _, pkt := range pkts {
				if pkt.Type() != packet.TypeConfigWrite {
					continue
				}
				state.Observe(pkt.Chip(), pkt.Register(), pkt.RegisterData())
				stats.ConfigWrites++
			}

		case loader.KindDataRead:
			pkts := dec.Decode(frame.Payload)
			stats.Packets += int64(len(pkts))
			for _, pkt := range pkts {
				if pkt.Type() != packet.TypeData {
					continue
				}
				rec := makeRecord(pkt, frame, plane, state, clk, cfg.Calib)
				if rec.Timestamp < 0 {
					stats.Late++
				}
				if err := dst.Write(rec); err != nil {
					return stats, fmt.Errorf("xcnv: could not write record: %w", err)
				}
				stats.Records++
			}
		}
	}

	stats.BadParity = int64(dec.BadParity)
	return stats, nil
}

func makeRecord(pkt packet.Packet, frame loader.Frame, plane *geom.PixelPlane, state *chip.State, clk *clock.Tracker, tbl calib.Table) record.Record {
	var (
		id   = pkt.Chip()
		ch   = pkt.Channel()
		word = pkt.Dataword()
	)

	trim, global := state.Lookup(id, ch)
	px := plane.Lookup(id, ch)

	v, pdst := -1.0, -1.0
	if e, ok := tbl.Lookup(id, ch); ok {
		v = 1e3 * (float64(word)*e.GainV + e.GainVCM)
		pdst = 1e3 * e.PedestalV
	}

	ts := frame.WordTime
	if frame.CaptureTime >= 0 {
		ts = clk.Timestamp(id, pkt.Timestamp())
	}

	return record.Record{
		ChannelID:       int32(ch),
		ChipID:          int32(id),
		PixelID:         px.ID,
		PixelX:          px.X,
		PixelY:          px.Y,
		RawADC:          int32(word),
		RawTimestamp:    int64(pkt.Timestamp()),
		ADC:             packet.ADC6(word),
		Timestamp:       ts,
		Seq:             frame.Seq,
		V:               v,
		PdstV:           pdst,
		Trim:            trim,
		GlobalThreshold: global,
		CaptureTime:     frame.CaptureTime,
	}
}
