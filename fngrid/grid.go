// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package fngrid owns the storage backing a Type 0 sampled function's
// dense quantised-sample grid (spec.md §3: "a contiguous sample grid
// of total length N·∏Size[i]").
//
// Small grids are plain heap slices. Grids at or above largeThreshold
// samples are backed by an anonymous mmap on platforms that support
// it (see grid_linux.go), grounded on tenant/dcache's mmap/unmap/resize
// trio: this lets the low-memory purge handler actually return pages
// to the OS via munmap instead of merely dropping a Go reference that
// the garbage collector may not reclaim promptly.
package fngrid

// largeThreshold is the sample count at or above which a grid is
// mmap-backed instead of heap-allocated, on platforms where that's
// supported.
const largeThreshold = 1 << 20

// Grid owns a dense []uint32 sample grid and knows how to release its
// backing storage.
type Grid struct {
	Data    []uint32
	release func()
}

// Alloc returns a new Grid able to hold n uint32 samples.
func Alloc(n int) (Grid, error) {
	if n >= largeThreshold {
		if g, ok := allocMapped(n); ok {
			return g, nil
		}
	}
	return Grid{Data: make([]uint32, n)}, nil
}

// Release returns the grid's backing storage. A Grid must not be used
// after Release; a zero-value Grid's Release is a no-op.
func (g *Grid) Release() {
	if g.release != nil {
		g.release()
		g.release = nil
	}
	g.Data = nil
}
