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

//go:build linux

package fngrid

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// allocMapped backs a grid with an anonymous, zero-filled mmap region
// so that Release can hand the pages back to the kernel with munmap
// rather than waiting on the garbage collector.
func allocMapped(n int) (Grid, bool) {
	size := n * 4
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return Grid{}, false
	}
	data := unsafe.Slice((*uint32)(unsafe.Pointer(&buf[0])), n)
	return Grid{
		Data: data,
		release: func() {
			unix.Munmap(buf)
		},
	}, true
}
