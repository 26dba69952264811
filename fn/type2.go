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
	"math"

	"github.com/corefn/functions/host"
)

// Type2 is the exponential interpolation function of spec.md §4.4:
// C0 + t^N(C1 - C0), a single-input function.
type Type2 struct {
	C0, C1   []float64
	Exponent float64
}

func (t *Type2) kind() Kind { return Kind2 }

// unpackType2 reads C0, C1, and N from d and builds the header +
// engine. Range is optional when C0/C1 fix the output arity.
func unpackType2(d host.Dict, h *Header) (*Function, error) {
	c0, hasC0 := d.Float64Array("C0")
	c1, hasC1 := d.Float64Array("C1")
	n, ok := readFloat(d, "N")
	if !ok {
		return nil, wrapf(ErrTypeCheck, "type2: missing N")
	}

	switch {
	case hasC0 && hasC1:
		if len(c0) != len(c1) {
			return nil, wrapf(ErrRangeCheck, "type2: C0/C1 length mismatch (%d vs %d)", len(c0), len(c1))
		}
	case hasC0:
		c1 = make([]float64, len(c0))
		for i := range c1 {
			c1[i] = 1
		}
	case hasC1:
		c0 = make([]float64, len(c1))
	default:
		c0 = []float64{0}
		c1 = []float64{1}
	}

	if !h.hasRange {
		h.setRange(nil)
		h.N = len(c0)
	}
	if h.N != len(c0) {
		return nil, wrapf(ErrRangeCheck, "type2: output arity %d does not match C0/C1 length %d", h.N, len(c0))
	}

	domain := h.Domain()
	if n < 0 && domain[0] <= 0 && domain[1] >= 0 {
		return nil, wrapf(ErrRangeCheck, "type2: negative exponent requires domain excluding 0")
	}
	if n != math.Trunc(n) && domain[0] < 0 {
		return nil, wrapf(ErrRangeCheck, "type2: non-integer exponent requires domain >= 0")
	}

	eng := &Type2{C0: c0, C1: c1, Exponent: n}
	f := &Function{Header: *h, eng: eng}
	return f, nil
}

func (t *Type2) evaluate(f *Function, in, out []float64, upwards bool) error {
	domain := f.Domain()
	x := clip1(in[0], domain[0], domain[1])
	p := math.Pow(x, t.Exponent)
	for i := range out {
		out[i] = t.C0[i] + p*(t.C1[i]-t.C0[i])
	}
	clipRange(f.Range(), out)
	return nil
}

func (t *Type2) findDiscontinuity(f *Function, axis int, bounds [2]float64) (Discontinuity, error) {
	return edgeDiscontinuity(f, axis, bounds), nil
}

// edgeDiscontinuity reports a value discontinuity at whichever domain
// edge falls strictly inside bounds, or "none" if bounds doesn't
// straddle an edge. Used by Type 2's findDiscontinuity; Type 0 does
// not call it.
func edgeDiscontinuity(f *Function, axis int, bounds [2]float64) Discontinuity {
	domain := f.Domain()
	lo, hi := domain[2*axis], domain[2*axis+1]
	if lo > bounds[0] && lo < bounds[1] {
		return Discontinuity{At: lo, Order: OrderValue}
	}
	if hi > bounds[0] && hi < bounds[1] {
		return Discontinuity{At: hi, Order: OrderValue}
	}
	return noDiscontinuity()
}

func readFloat(d host.Dict, key string) (float64, bool) {
	if v, ok := d.Float64Array(key); ok && len(v) == 1 {
		return v[0], true
	}
	if v, ok := d.Int64(key); ok {
		return float64(v), true
	}
	return 0, false
}
