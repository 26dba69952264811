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

import "math"

// spreadEpsilon is the relative bias applied to the scaled input
// before taking its integer/fractional parts, so that an input
// landing exactly on a wrap boundary deterministically resolves to
// one side of it (spec.md §4.7, mirroring the Type 3 boundary bias of
// §4.5).
const spreadEpsilon = 1e-9

// mod2 returns n mod 2 in {0,1} for any sign of n.
func mod2(n int64) int64 {
	r := n % 2
	if r < 0 {
		r += 2
	}
	return r
}

// evaluateSpread applies the repeat/reflect transform to axis 0 of in,
// then evaluates the underlying engine directly (bypassing
// Function.Evaluate's own spread dispatch, since the wrapped value is
// the "real" input once spread has resolved it -- unlike Type 3, the
// bias here is not merely a selector).
func (f *Function) evaluateSpread(in, out []float64, upwards bool) error {
	domain := f.Domain()
	lo, hi := domain[0], domain[1]
	width := hi - lo
	u := (in[0] - lo) / width
	z := u * float64(f.SpreadFactor)
	if upwards {
		z += spreadEpsilon * math.Abs(z)
	} else {
		z -= spreadEpsilon * math.Abs(z)
	}
	n := math.Floor(z)
	frac := z - n
	if f.Spread == SpreadReflect && mod2(int64(n)) == 1 && frac != 0 {
		frac = 1 - frac
	}
	wrapped := lo + frac*width
	in2 := in
	if in[0] != wrapped {
		in2 = append([]float64(nil), in...)
		in2[0] = wrapped
	}
	return f.eng.evaluate(f, in2, out, upwards)
}

// findDiscontinuitySpread inverts the spread mapping: it reports the
// smaller of the next wrap boundary inside bounds, and the underlying
// function's own discontinuity mapped back through whichever wrap
// segment(s) overlap bounds. Only axis 0 is spread-transformed; any
// other axis falls through to the plain engine search.
func (f *Function) findDiscontinuitySpread(axis int, bounds [2]float64) (Discontinuity, error) {
	if axis != 0 {
		return f.eng.findDiscontinuity(f, axis, bounds)
	}
	domain := f.Domain()
	lo, hi := domain[0], domain[1]
	width := hi - lo
	k := float64(f.SpreadFactor)

	za := (bounds[0] - lo) / width * k
	zb := (bounds[1] - lo) / width * k

	var best *Discontinuity
	consider := func(x float64, order Order) {
		if x <= bounds[0] || x >= bounds[1] {
			return
		}
		if best == nil || x < best.At {
			c := Discontinuity{At: x, Order: order}
			best = &c
		}
	}

	// (a) the next wrap boundary strictly inside bounds.
	for n := math.Floor(za) + 1; n < zb; n++ {
		if n > za {
			consider(lo+(n/k)*width, OrderValue)
		}
	}

	// (b) the sub-function's own discontinuity, mapped back through
	// each wrap segment that bounds touches.
	nStart := int64(math.Floor(za))
	nEnd := int64(math.Ceil(zb))
	for n := nStart; n <= nEnd; n++ {
		segLo, segHi := float64(n), float64(n+1)
		lo2, hi2 := math.Max(za, segLo), math.Min(zb, segHi)
		if lo2 >= hi2 {
			continue
		}
		fracLo, fracHi := lo2-segLo, hi2-segLo
		reflect := f.Spread == SpreadReflect && mod2(n) == 1
		if reflect {
			fracLo, fracHi = 1-fracHi, 1-fracLo
		}
		subBounds := [2]float64{lo + fracLo*width, lo + fracHi*width}
		d, err := f.eng.findDiscontinuity(f, axis, subBounds)
		if err != nil {
			return Discontinuity{}, err
		}
		if d.Order == OrderNone {
			continue
		}
		uLocal := (d.At - lo) / width
		if reflect {
			uLocal = 1 - uLocal
		}
		nGlobal := float64(n) + uLocal
		consider(lo+(nGlobal/k)*width, d.Order)
	}

	if best == nil {
		return noDiscontinuity(), nil
	}
	return *best, nil
}
