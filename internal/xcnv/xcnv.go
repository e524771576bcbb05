// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv converts LArPix capture files to flat record sinks.
package xcnv // import "github.com/larpix-daq/larconv/internal/xcnv"
