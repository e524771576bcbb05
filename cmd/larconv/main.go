// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command larconv converts LArPix capture files (.dat, .lpx) to flat
// HDF5 or ROOT files, one row per data word, annotated with pixel
// geometry, chip configuration state and optional calibration.
package main // import "github.com/larpix-daq/larconv/cmd/larconv"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/larpix-daq/larconv/calib"
	"github.com/larpix-daq/larconv/geom"
	"github.com/larpix-daq/larconv/internal/xcnv"
	"github.com/larpix-daq/larconv/loader"
	"github.com/larpix-daq/larconv/record"
)

var (
	msg = log.New(os.Stdout, "larconv: ", 0)
)

func main() {
	xmain(os.Args[1:])
}

func xmain(args []string) {
	var (
		fset = flag.NewFlagSet("larconv", flag.ExitOnError)

		oname   = fset.String("o", "", "path to output file (single input file only)")
		format  = fset.String("format", "", "output file format (h5 or root)")
		layout  = fset.String("g", "", "pixel geometry layout ("+strings.Join(geom.Layouts(), ", ")+")")
		cname   = fset.String("calib", "", "path to a JSON calibration file")
		cdb     = fset.String("calib-db", "", "DSN of the conditions database (user:pass@tcp(host)/dbname)")
		ctag    = fset.String("calib-tag", "latest", "calibration tag in the conditions database")
		nmax    = fset.Int64("n", -1, "stop after the first N transmissions of the stream, skipped ones included (-1: all)")
		skip    = fset.Int64("s", 0, "number of leading transmissions to skip")
		verbose = fset.Bool("v", false, "enable verbose mode")
	)

	fset.Usage = func() {
		fmt.Printf(`Usage: larconv [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

ex:
 $> larconv -format=h5 -g=4chip ./run0.dat
 $> larconv -format=root -g=28chip -calib=./calib.json -o out.root ./run0.lpx

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		msg.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		msg.Fatalf("missing input capture file")
	}

	switch *format {
	case "h5", "root":
		// ok
	default:
		fset.Usage()
		msg.Fatalf("invalid output format %q", *format)
	}

	if *layout == "" {
		fset.Usage()
		msg.Fatalf("missing pixel geometry layout")
	}

	if *cname != "" && *cdb != "" {
		fset.Usage()
		msg.Fatalf("-calib and -calib-db are mutually exclusive")
	}

	if *oname != "" && fset.NArg() > 1 {
		fset.Usage()
		msg.Fatalf("-o cannot be used with multiple input files")
	}

	if *skip < 0 {
		fset.Usage()
		msg.Fatalf("invalid number of transmissions to skip (s=%d)", *skip)
	}

	plane, err := geom.Load(*layout)
	if err != nil {
		msg.Fatalf("could not load pixel geometry: %+v", err)
	}

	var tbl calib.Table
	switch {
	case *cname != "":
		tbl, err = calib.Load(*cname)
		if err != nil {
			msg.Fatalf("could not load calibration file: %+v", err)
		}
	case *cdb != "":
		tbl, err = calib.FromDB(context.Background(), *cdb, *ctag)
		if err != nil {
			msg.Fatalf("could not load calibration from conditions db: %+v", err)
		}
	}

	cfg := xcnv.Config{
		MaxFrames: *nmax,
		Skip:      *skip,
		Calib:     tbl,
	}
	if *verbose {
		cfg.Msg = msg
	}

	// open every input before any conversion starts, so that a bad
	// input aborts the whole run up-front.
	srcs := make([]loader.Source, fset.NArg())
	for i, fname := range fset.Args() {
		srcs[i], err = loader.Open(fname)
		if err != nil {
			msg.Fatalf("could not open capture file %q: %+v", fname, err)
		}
	}

	var grp errgroup.Group
	for i, fname := range fset.Args() {
		i, fname := i, fname
		out := *oname
		if out == "" {
			out = outputName(fname, *format)
		}
		grp.Go(func() error {
			return process(out, *format, fname, srcs[i], plane, cfg)
		})
	}

	err = grp.Wait()
	if err != nil {
		msg.Fatalf("could not convert capture file(s): %+v", err)
	}
}

func outputName(fname, format string) string {
	return strings.TrimSuffix(fname, filepath.Ext(fname)) + "." + format
}

func process(oname, format, fname string, src loader.Source, plane *geom.PixelPlane, cfg xcnv.Config) error {
	defer src.Close()

	snk, err := newSink(oname, format)
	if err != nil {
		return fmt.Errorf("could not create output file %q: %w", oname, err)
	}

	stats, err := xcnv.Convert(snk, src, plane, cfg)
	if err != nil {
		_ = snk.Close()
		return fmt.Errorf("could not convert %q: %w", fname, err)
	}

	err = snk.Close()
	if err != nil {
		return fmt.Errorf("could not close output file %q: %w", oname, err)
	}

	if cfg.Msg != nil {
		cfg.Msg.Printf(
			"%s: %d frames, %d packets, %d records (%d config writes, %d late, %d bad parity)",
			fname, stats.Frames, stats.Packets, stats.Records,
			stats.ConfigWrites, stats.Late, stats.BadParity,
		)
	}

	return nil
}

func newSink(oname, format string) (record.Sink, error) {
	switch format {
	case "h5":
		return record.NewH5Sink(oname)
	case "root":
		return record.NewRootSink(oname)
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}
