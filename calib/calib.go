// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package calib provides the per-channel calibration constants used to
// convert raw ADC words to voltages.
package calib // import "github.com/larpix-daq/larconv/calib"

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Entry holds the calibration constants of one channel, in volts.
type Entry struct {
	GainV     float64 `json:"gain_v"`
	GainVCM   float64 `json:"gain_vcm"`
	PedestalV float64 `json:"pedestal_v"`
}

// Table maps stringified chip ids to stringified channel ids to
// calibration entries, mirroring the layout of the calibration JSON
// files. A nil Table is valid and holds no entries.
type Table map[string]map[string]Entry

// Load reads a calibration table from the JSON file at path.
func Load(path string) (Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("calib: could not read calibration file: %w", err)
	}

	var tbl Table
	err = json.Unmarshal(raw, &tbl)
	if err != nil {
		return nil, fmt.Errorf("calib: could not parse calibration file %q: %w", path, err)
	}
	return tbl, nil
}

// Lookup returns the calibration entry of (chip, channel), if any.
func (tbl Table) Lookup(chip, channel uint8) (Entry, bool) {
	chans, ok := tbl[strconv.Itoa(int(chip))]
	if !ok {
		return Entry{}, false
	}
	e, ok := chans[strconv.Itoa(int(channel))]
	return e, ok
}

func (tbl Table) set(chip, channel int32, e Entry) Table {
	if tbl == nil {
		tbl = make(Table)
	}
	key := strconv.Itoa(int(chip))
	chans, ok := tbl[key]
	if !ok {
		chans = make(map[string]Entry)
		tbl[key] = chans
	}
	chans[strconv.Itoa(int(channel))] = e
	return tbl
}
