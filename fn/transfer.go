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

import (
	"github.com/google/uuid"
)

// transferTableSize is the number of entries baked from a continuous
// [0,1]->[0,1] transfer function (spec.md §4.8/§5, the original
// gsctable.c "table based colour spaces" device quantization
// granularity; gsctable.c stores these as `uint16 *table_data`, which
// is why Entries below is fixed-point rather than float64).
const transferTableSize = 256

// fixedMax is the largest representable fixed-point value, used both
// to quantize a baked entry into [0,0xFFFF] and as the full-scale
// value of a 16-bit query (spec.md §6 evaluate_table's query_16bit /
// value_16bit).
const fixedMax = 0xFFFF

// queryStep is the 16-bit query distance between adjacent table
// entries: 0xFFFF spans transferTableSize-1 equal steps, so
// queryStep = 0xFFFF/255 = 0x101 (spec.md §8's round-trip law names
// this constant directly: "evaluate_table(i*0x0101) equals entry[i]").
const queryStep = 0x101

// TransferTable is a 256-entry monotone fixed-point quantization of a
// UsageTransfer function, baked once and reused across all subsequent
// lookups instead of re-evaluating the underlying Function per pixel.
type TransferTable struct {
	ID      uuid.UUID
	Entries [transferTableSize]uint16
	Source  *Function
}

// quantize maps a Range-clamped [0,1] sample to its fixed-point
// representation, rounding to the nearest representable value
// (spec.md §4.8 "quantise to the fixed-point representation").
func quantize(x float64) uint16 {
	v := x*fixedMax + 0.5
	if v < 0 {
		return 0
	}
	if v > fixedMax {
		return fixedMax
	}
	return uint16(v)
}

// BakeTransferTable samples f at transferTableSize evenly spaced
// Domain points, quantizes each to fixed point, and forces the result
// monotone non-decreasing (spec.md §5 "transfer tables must not
// introduce reversals the device cannot reproduce").
//
// f's fast identity path is checked first: a Type 2 function with
// C0=0, C1=1, N=1, no active spread, and Domain=Range=[0,1]
// (Header.IsIdentityTransfer) skips sampling entirely and bakes the
// ramp directly, grounded on the original's table-bypass optimisation
// for the default (no-op) transfer function.
func BakeTransferTable(f *Function) (*TransferTable, error) {
	if f.M != 1 || f.N != 1 {
		return nil, wrapf(ErrRangeCheck, "transfer: requires arity 1->1, got %d->%d", f.M, f.N)
	}
	t := &TransferTable{ID: uuid.New(), Source: f}

	if t2, ok := f.eng.(*Type2); ok && f.IsIdentityTransfer() &&
		(f.Spread == SpreadNone || f.SpreadFactor <= 1) &&
		t2.Exponent == 1 && t2.C0[0] == 0 && t2.C1[0] == 1 {
		for i := 0; i < transferTableSize; i++ {
			t.Entries[i] = quantize(float64(i) / float64(transferTableSize-1))
		}
		return t, nil
	}

	domain := f.Domain()
	lo, hi := domain[0], domain[1]
	var in, out [1]float64
	for i := 0; i < transferTableSize; i++ {
		u := float64(i) / float64(transferTableSize-1)
		in[0] = lo + u*(hi-lo)
		if err := f.Evaluate(in[:], out[:], true); err != nil {
			return nil, wrapf(ErrUndefinedResult, "transfer: baking entry %d: %v", i, err)
		}
		t.Entries[i] = quantize(out[0])
	}
	monotonicClamp(t.Entries[:])
	return t, nil
}

// monotonicClamp forces s to be non-decreasing in place by clamping
// every entry up to the running maximum seen so far, matching the
// original implementation's treatment of a transfer function that
// dips below a previous sample (spec.md §9, supplemented from
// gsctable.c: device transfer tables are assumed monotone).
func monotonicClamp(s []uint16) {
	if len(s) == 0 {
		return
	}
	max := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] < max {
			s[i] = max
		} else {
			max = s[i]
		}
	}
}

// Lookup evaluates the baked table at a 16-bit query (spec.md §6
// evaluate_table), interpolating linearly between the two adjacent
// entries the query falls between, using rounding rather than
// truncation (spec.md §4.8 "with rounding"). query and the result both
// span the full uint16 range, independent of the source function's
// Domain/Range, which were already folded in at bake time.
//
// queryStep (0x101) divides the 16-bit query space into exactly
// transferTableSize-1 equal spans, so a query of the form i*0x0101
// lands exactly on entry i with zero remainder, satisfying the
// round-trip law of spec.md §8 without needing any special-casing
// here.
func (t *TransferTable) Lookup(query uint16) uint16 {
	q := int(query)
	idx := q / queryStep
	if idx >= transferTableSize-1 {
		return t.Entries[transferTableSize-1]
	}
	rem := q % queryStep
	if rem == 0 {
		return t.Entries[idx]
	}
	a := int(t.Entries[idx])
	b := int(t.Entries[idx+1])
	num := a*(queryStep-rem) + b*rem
	return uint16((num + queryStep/2) / queryStep)
}
