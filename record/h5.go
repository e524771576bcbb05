// Copyright 2026 The larconv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package record

import (
	"fmt"
	"sync"

	hdf5 "github.com/next-exp/hdf5-go"
)

const (
	h5Chunk   = 4096 // rows per HDF5 chunk
	h5Deflate = 4    // gzip compression level
)

// h5Descr documents the column layout, stored as the "description"
// attribute of the dataset.
const h5Descr = `
    channel id | chip id | pixel id | int(10*pixel x) | int(10*pixel y) | raw ADC | raw
    timestamp | 6-bit ADC | full timestamp | serial index | converted voltage (mV) | calib
    pedestal voltage (mV) | channel trim threshold | chip global threshold | cpu timestamp (ms)`

// h5mu serializes all calls into libhdf5: serial builds of the C
// library must not be entered from two threads at once, even for
// distinct files.
var h5mu sync.Mutex

// H5Sink writes records to a single (N, NumCols) int64 dataset named
// "data", grown chunk by chunk as records arrive.
type H5Sink struct {
	f    *hdf5.File
	dset *hdf5.Dataset
	rows []int64 // buffered rows, flushed every h5Chunk rows
	n    uint    // rows already written to the dataset
}

// NewH5Sink creates the HDF5 output file at path.
func NewH5Sink(path string) (*H5Sink, error) {
	h5mu.Lock()
	defer h5mu.Unlock()

	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, fmt.Errorf("record: could not create HDF5 file: %w", err)
	}

	dims := []uint{0, NumCols}
	unlimited := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimited), NumCols}
	space, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("record: could not create dataspace: %w", err)
	}

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("record: could not create property list: %w", err)
	}
	plist.SetChunk([]uint{h5Chunk, NumCols})
	plist.SetDeflate(h5Deflate)

	dset, err := f.CreateDatasetWith("data", hdf5.T_NATIVE_INT64, space, plist)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("record: could not create dataset: %w", err)
	}

	err = writeDescr(dset)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &H5Sink{
		f:    f,
		dset: dset,
		rows: make([]int64, 0, h5Chunk*NumCols),
	}, nil
}

// writeDescr stores the column layout as the "description" attribute
// of dset. The caller holds h5mu.
func writeDescr(dset *hdf5.Dataset) error {
	space, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return fmt.Errorf("record: could not create attribute dataspace: %w", err)
	}
	defer space.Close()

	attr, err := dset.CreateAttribute("description", hdf5.T_GO_STRING, space)
	if err != nil {
		return fmt.Errorf("record: could not create description attribute: %w", err)
	}
	defer attr.Close()

	descr := h5Descr
	err = attr.Write(&descr, hdf5.T_GO_STRING)
	if err != nil {
		return fmt.Errorf("record: could not write description attribute: %w", err)
	}
	return nil
}

func (snk *H5Sink) Write(rec Record) error {
	row := rec.Flat()
	snk.rows = append(snk.rows, row[:]...)
	if len(snk.rows) >= h5Chunk*NumCols {
		h5mu.Lock()
		defer h5mu.Unlock()
		return snk.flush()
	}
	return nil
}

// flush writes the buffered rows to the dataset. The caller holds h5mu.
func (snk *H5Sink) flush() error {
	n := uint(len(snk.rows) / NumCols)
	if n == 0 {
		return nil
	}

	dims := []uint{n, NumCols}
	mspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("record: could not create memory dataspace: %w", err)
	}
	defer mspace.Close()

	err = snk.dset.Resize([]uint{snk.n + n, NumCols})
	if err != nil {
		return fmt.Errorf("record: could not grow dataset: %w", err)
	}

	fspace := snk.dset.Space()
	defer fspace.Close()
	err = fspace.SelectHyperslab([]uint{snk.n, 0}, nil, dims, nil)
	if err != nil {
		return fmt.Errorf("record: could not select hyperslab: %w", err)
	}

	err = snk.dset.WriteSubset(&snk.rows, mspace, fspace)
	if err != nil {
		return fmt.Errorf("record: could not write rows: %w", err)
	}

	snk.n += n
	snk.rows = snk.rows[:0]
	return nil
}

// Close flushes buffered rows and closes the output file.
func (snk *H5Sink) Close() error {
	h5mu.Lock()
	defer h5mu.Unlock()

	err := snk.flush()
	if e := snk.dset.Close(); err == nil {
		err = e
	}
	if e := snk.f.Close(); err == nil {
		err = e
	}
	return err
}
