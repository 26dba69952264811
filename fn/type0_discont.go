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

import "sort"

// type0Discont precomputes the axis-0 grid-node breakpoints of a 1-input
// Type 0 function, sorted ascending in domain space, for findDiscontinuity
// (spec.md §4.3 "discontinuity search"). Sample reconstruction is always
// linear between nodes, so every interior node is a candidate slope
// discontinuity; buildType0Discont merges adjacent nodes whose slope
// actually agrees across the full sample grid (spec.md §9 "approximate
// equality after quantization").
type type0Discont struct {
	breaks []float64
}

func buildType0Discont(t *Type0, f *Function) type0Discont {
	size := t.Size[0]
	if size < 2 {
		return type0Discont{}
	}
	domain := f.Domain()
	lo, hi := domain[0], domain[1]
	e0, e1 := t.Encode[0], t.Encode[1]

	breaks := make([]float64, 0, size)
	for k := 1; k < size-1; k++ {
		if !nodeIsBend(t, k) {
			continue
		}
		var e float64
		if e1 == e0 {
			e = e0
		} else {
			e = float64(k)
		}
		var x float64
		if e1 == e0 {
			x = lo
		} else {
			u := (e - e0) / (e1 - e0)
			x = lo + u*(hi-lo)
		}
		breaks = append(breaks, x)
	}
	sort.Float64s(breaks)
	return type0Discont{breaks: breaks}
}

// nodeIsBend reports whether the sample grid's slope changes across
// node k along axis 0, for any output channel, beyond quantization
// noise (two quantization steps, matching the encoder's own rounding
// error budget).
func nodeIsBend(t *Type0, k int) bool {
	N := t.channels
	if N <= 0 {
		return true
	}
	tol := 2.0
	for c := 0; c < N; c++ {
		prev := float64(t.grid.Data[(k-1)*N+c])
		cur := float64(t.grid.Data[k*N+c])
		next := float64(t.grid.Data[(k+1)*N+c])
		slopeA := cur - prev
		slopeB := next - cur
		if slopeA-slopeB > tol || slopeB-slopeA > tol {
			return true
		}
	}
	return false
}

func (t *Type0) findDiscontinuity(f *Function, axis int, bounds [2]float64) (Discontinuity, error) {
	if f.M != 1 || axis != 0 || len(t.discont.breaks) == 0 {
		return noDiscontinuity(), nil
	}
	lo, hi := bounds[0], bounds[1]
	breaks := t.discont.breaks
	i := sort.SearchFloat64s(breaks, lo)
	for ; i < len(breaks); i++ {
		x := breaks[i]
		if x <= lo {
			continue
		}
		if x >= hi {
			break
		}
		return Discontinuity{At: x, Order: OrderSlope}, nil
	}
	return noDiscontinuity(), nil
}
