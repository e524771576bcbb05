// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package geom maps (chip, channel) pairs to the physical pixels of a
// LArPix sensor plane.
package geom // import "github.com/larpix-daq/larconv/geom"

// Pixel is one physical sensor pad, with its position on the plane
// in millimeters.
type Pixel struct {
	ID   int32
	X, Y float64
}

// Unconnected is the sentinel pixel returned for channels that do not
// map to a pad.
var Unconnected = Pixel{ID: -1, X: -1, Y: -1}

// PixelPlane is the pixel geometry of a sensor plane.
type PixelPlane struct {
	Name  string
	chips map[uint8][]Pixel // channel -> pixel, Unconnected for holes
}

// Lookup resolves (chip, channel) to its pixel. Unknown chips,
// out-of-range channels and channels without a pad all resolve to
// Unconnected.
func (pl *PixelPlane) Lookup(chip, channel uint8) Pixel {
	pads, ok := pl.chips[chip]
	if !ok || int(channel) >= len(pads) {
		return Unconnected
	}
	return pads[channel]
}

// Chips returns the number of chips in the plane.
func (pl *PixelPlane) Chips() int { return len(pl.chips) }
