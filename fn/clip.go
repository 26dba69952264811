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

import "github.com/corefn/functions/internal/ints"

// clipDomain clips in-place against the M-axis domain box, in order,
// axis 0 first (spec.md §3 ordering: "evaluation observes domain
// clipping before encoding").
func clipDomain(domain []float64, in []float64) {
	for i := range in {
		in[i] = ints.Clamp(in[i], domain[2*i], domain[2*i+1])
	}
}

// clipRange clips out in-place against the N-axis range box. A nil
// range (Type 2/3 without one) is a no-op.
func clipRange(rng []float64, out []float64) {
	if rng == nil {
		return
	}
	for i := range out {
		out[i] = ints.Clamp(out[i], rng[2*i], rng[2*i+1])
	}
}

// clip1 clips a single scalar to [lo, hi].
func clip1(x, lo, hi float64) float64 {
	return ints.Clamp(x, lo, hi)
}
