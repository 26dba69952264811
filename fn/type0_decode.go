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

package fn

import "io"

// validBitsPerSample enumerates the eight allowed BitsPerSample
// values (spec.md §3 invariant).
var validBitsPerSample = map[int64]bool{
	1: true, 2: true, 4: true, 8: true,
	12: true, 16: true, 24: true, 32: true,
}

// decodeSamples bulk-decodes count big-endian, bps-bits-wide unsigned
// samples out of r into out (len(out) == count). The 8-bits-per-sample
// case is a straight byte copy; anything else is packed through a
// 32-bit (well, 64-bit headroom) shift register one byte at a time,
// per spec.md §4.3.
func decodeSamples(r io.Reader, count, bps int, out []uint32) error {
	if bps == 8 {
		buf := make([]byte, count)
		if _, err := io.ReadFull(r, buf); err != nil {
			return wrapf(ErrIOError, "type0: reading %d 8-bit samples: %v", count, err)
		}
		for i, b := range buf {
			out[i] = uint32(b)
		}
		return nil
	}

	totalBits := count * bps
	nbytes := (totalBits + 7) / 8
	buf := make([]byte, nbytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return wrapf(ErrIOError, "type0: reading %d %d-bit samples: %v", count, bps, err)
	}

	var reg uint64
	var regBits uint
	bi := 0
	mask := (uint64(1) << uint(bps)) - 1
	for i := 0; i < count; i++ {
		for regBits < uint(bps) {
			if bi >= len(buf) {
				return wrapf(ErrIOError, "type0: sample stream truncated at sample %d of %d", i, count)
			}
			reg = reg<<8 | uint64(buf[bi])
			bi++
			regBits += 8
		}
		shift := regBits - uint(bps)
		out[i] = uint32((reg >> shift) & mask)
		regBits -= uint(bps)
	}
	return nil
}
