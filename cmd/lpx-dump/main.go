// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// lpx-dump decodes and displays LArPix capture files (.dat, .lpx).
//
// Usage: lpx-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> lpx-dump ./testdata/run0.dat
//	=== block 0 (data-write) t=1624000123 ===
//	  config-write chip=246 reg=  0 val= 16
//	  config-write chip=246 reg= 32 val= 40
//	=== block 1 (data-read) t=1624000124 ===
//	  data         chip=246 ch=  0 ts=     100 adc= 130
//	[...]
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/larpix-daq/larconv/loader"
	"github.com/larpix-daq/larconv/packet"
)

func main() {
	log.SetPrefix("lpx-dump: ")
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Printf(`lpx-dump decodes and displays LArPix capture files.

Usage: lpx-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> lpx-dump ./testdata/run0.dat
 === block 0 (data-write) t=1624000123 ===
   config-write chip=246 reg=  0 val= 16
   config-write chip=246 reg= 32 val= 40
 === block 1 (data-read) t=1624000124 ===
   data         chip=246 ch=  0 ts=     100 adc= 130
 [...]

`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing path to input capture file")
	}

	for _, fname := range flag.Args() {
		err := process(os.Stdout, fname)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	src, err := loader.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer src.Close()

	var dec packet.Decoder
loop:
	for {
		frame, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break loop
			}
			return fmt.Errorf("could not read frame: %w", err)
		}

		fmt.Fprintf(wbuf, "=== block %d (%v) t=%d ===\n",
			frame.Seq, frame.Kind, frame.CaptureTime,
		)
		for _, pkt := range dec.Decode(frame.Payload) {
			fmt.Fprintf(wbuf, "  %v\n", pkt)
		}
	}

	if dec.BadParity > 0 || dec.Skipped > 0 {
		fmt.Fprintf(wbuf, "dropped: %d bad-parity packets, %d stray bytes\n",
			dec.BadParity, dec.Skipped,
		)
	}

	return nil
}
