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
	"fmt"

	"github.com/corefn/functions/host"
)

// Type3 is the stitching function of spec.md §4.5: k single-input
// sub-functions glued end to end across Domain, each mapped through its
// own Encode pair before being evaluated.
type Type3 struct {
	Functions []*Function
	Bounds    []float64
	Encode    []float64
}

func (t *Type3) kind() Kind { return Kind3 }

func unpackType3(d host.Dict, h *Header, depth int) (*Function, error) {
	if h.M != 1 {
		return nil, wrapf(ErrRangeCheck, "type3: Domain must have exactly one input, got %d", h.M)
	}

	subDicts, ok := d.DictArray("Functions")
	if !ok || len(subDicts) == 0 {
		return nil, wrapf(ErrTypeCheck, "type3: missing or empty Functions")
	}
	k := len(subDicts)

	bounds, ok := d.Float64Array("Bounds")
	if !ok {
		if k != 1 {
			return nil, wrapf(ErrTypeCheck, "type3: missing Bounds")
		}
		bounds = nil
	}
	if len(bounds) != k-1 {
		return nil, wrapf(ErrRangeCheck, "type3: Bounds has %d entries, want %d (=k-1)", len(bounds), k-1)
	}
	domain := h.Domain()
	prev := domain[0]
	for i, b := range bounds {
		if b < prev || b > domain[1] {
			return nil, wrapf(ErrRangeCheck, "type3: Bounds[%d]=%v out of monotone range", i, b)
		}
		prev = b
	}

	encode, ok := d.Float64Array("Encode")
	if !ok || len(encode) != 2*k {
		return nil, wrapf(ErrRangeCheck, "type3: Encode must have %d entries, got %d", 2*k, len(encode))
	}

	subs := make([]*Function, k)
	for i, sd := range subDicts {
		sf, err := unpack(sd, h.Usage, depth+1)
		if err != nil {
			return nil, fmt.Errorf("type3: sub-function %d: %w", i, err)
		}
		if sf.M != 1 {
			return nil, wrapf(ErrRangeCheck, "type3: sub-function %d takes %d inputs, want 1", i, sf.M)
		}
		subs[i] = sf
	}

	if !h.hasRange {
		h.N = subs[0].N
	}

	eng := &Type3{Functions: subs, Bounds: bounds, Encode: encode}
	return &Function{Header: *h, eng: eng}, nil
}

// segment returns the index of the sub-function covering x, the local
// sub-domain [lo,hi) (half-open except for the last segment), and
// biases the choice at an exact boundary by upwards: evaluating from
// below a shared bound selects the segment ending there, evaluating
// from above selects the segment starting there. Adjacent equal
// Bounds entries (lb==ub) are a legal Adobe degenerate case; the
// zero-width segment between two equal interior bounds is never
// selected (upward evaluation passes over it, downward stops before
// it). A zero-width first or last segment, where a bound equals a
// domain edge, is selected only for an input exactly at that edge.
func (t *Type3) segment(x float64, upwards bool) (idx int, lo, hi float64) {
	k := len(t.Functions)
	i := 0
	for i < len(t.Bounds) {
		b := t.Bounds[i]
		if x < b || (x == b && !upwards) {
			break
		}
		i++
	}
	if i >= k {
		i = k - 1
	}
	lo = t.boundLo(i)
	hi = t.boundHi(i)
	return i, lo, hi
}

func (t *Type3) boundLo(i int) float64 {
	if i == 0 {
		return 0 // overwritten by caller with Domain[0] where needed
	}
	return t.Bounds[i-1]
}

func (t *Type3) boundHi(i int) float64 {
	if i == len(t.Bounds) {
		return 0 // overwritten by caller with Domain[1] where needed
	}
	return t.Bounds[i]
}

func (t *Type3) evaluate(f *Function, in, out []float64, upwards bool) error {
	domain := f.Domain()
	x := clip1(in[0], domain[0], domain[1])
	i, lo, hi := t.segment(x, upwards)
	if i == 0 {
		lo = domain[0]
	}
	if i == len(t.Bounds) {
		hi = domain[1]
	}
	e0, e1 := t.Encode[2*i], t.Encode[2*i+1]
	var encoded float64
	if hi == lo {
		encoded = e0
	} else {
		encoded = e0 + (x-lo)/(hi-lo)*(e1-e0)
	}
	sub := t.Functions[i]
	subIn := [1]float64{encoded}
	if err := sub.Evaluate(subIn[:], out, upwards); err != nil {
		return err
	}
	clipRange(f.Range(), out)
	return nil
}

// findDiscontinuity reports the nearest Bounds crossing inside the
// search interval, or defers to the owning sub-function's own
// discontinuities mapped back through Encode when no Bounds crossing
// is closer.
func (t *Type3) findDiscontinuity(f *Function, axis int, bounds [2]float64) (Discontinuity, error) {
	domain := f.Domain()
	lo, hi := bounds[0], bounds[1]

	best := noDiscontinuity()
	consider := func(d Discontinuity) {
		if d.Order == OrderNone {
			return
		}
		if best.Order == OrderNone || d.At < best.At {
			best = d
		}
	}

	for _, b := range t.Bounds {
		if b > lo && b < hi {
			consider(Discontinuity{At: b, Order: OrderValue})
		}
	}

	i, segLo, segHi := t.segment(lo, true)
	for i < len(t.Functions) {
		lowBound := segLo
		if i == 0 {
			lowBound = domain[0]
		}
		highBound := segHi
		if i == len(t.Bounds) {
			highBound = domain[1]
		}
		segStart := lowBound
		if segStart < lo {
			segStart = lo
		}
		segEnd := highBound
		if segEnd > hi {
			segEnd = hi
		}
		if segStart >= segEnd {
			if highBound >= hi {
				break
			}
			i++
			segLo, segHi = highBound, t.boundHi(i)
			continue
		}

		e0, e1 := t.Encode[2*i], t.Encode[2*i+1]
		mapFwd := func(x float64) float64 {
			if highBound == lowBound {
				return e0
			}
			return e0 + (x-lowBound)/(highBound-lowBound)*(e1-e0)
		}
		subBounds := [2]float64{mapFwd(segStart), mapFwd(segEnd)}
		sd, err := t.Functions[i].FindDiscontinuity(axis, subBounds)
		if err != nil {
			return Discontinuity{Order: OrderNone}, err
		}
		if sd.Order != OrderNone && e1 != e0 {
			x := lowBound + (sd.At-e0)/(e1-e0)*(highBound-lowBound)
			if x > lo && x < hi {
				consider(Discontinuity{At: x, Order: sd.Order})
			}
		}

		if highBound >= hi {
			break
		}
		i++
		segLo, segHi = highBound, t.boundHi(i)
	}

	return best, nil
}
