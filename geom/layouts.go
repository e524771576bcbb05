// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import (
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed layouts/*.yaml
var layoutFS embed.FS

var presets = map[string]string{
	"4chip":  "layouts/sensor_plane_28_4chip.yaml",
	"8chip":  "layouts/sensor_plane_28_8chip.yaml",
	"28chip": "layouts/sensor_plane_28_full.yaml",
}

// Layouts returns the names of the known layout presets, sorted.
func Layouts() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type layoutFile struct {
	Name   string `yaml:"name"`
	Pixels []struct {
		ID int32   `yaml:"id"`
		X  float64 `yaml:"x"`
		Y  float64 `yaml:"y"`
	} `yaml:"pixels"`
	Chips []struct {
		ID       uint8   `yaml:"id"`
		Channels []int32 `yaml:"channels"`
	} `yaml:"chips"`
}

// Load returns the pixel plane of the named layout preset.
func Load(name string) (*PixelPlane, error) {
	fname, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("geom: unknown layout %q (choose from %v)", name, Layouts())
	}

	raw, err := layoutFS.ReadFile(fname)
	if err != nil {
		return nil, fmt.Errorf("geom: could not read layout %q: %w", name, err)
	}

	var lay layoutFile
	err = yaml.Unmarshal(raw, &lay)
	if err != nil {
		return nil, fmt.Errorf("geom: could not parse layout %q: %w", name, err)
	}

	pixels := make(map[int32]Pixel, len(lay.Pixels))
	for _, px := range lay.Pixels {
		pixels[px.ID] = Pixel{ID: px.ID, X: px.X, Y: px.Y}
	}

	plane := &PixelPlane{
		Name:  lay.Name,
		chips: make(map[uint8][]Pixel, len(lay.Chips)),
	}
	for _, c := range lay.Chips {
		pads := make([]Pixel, len(c.Channels))
		for ch, pid := range c.Channels {
			if pid < 0 {
				pads[ch] = Unconnected
				continue
			}
			px, ok := pixels[pid]
			if !ok {
				return nil, fmt.Errorf(
					"geom: layout %q: chip %d channel %d references unknown pixel %d",
					name, c.ID, ch, pid,
				)
			}
			pads[ch] = px
		}
		plane.chips[c.ID] = pads
	}

	return plane, nil
}
