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

// TintData is the usage-specific "data" a caller passes for the Tint
// (non-CIE) validator: the supplied output arity, which a tint
// transform's N must match exactly (spec.md §4.9).
type TintData struct {
	N int
}

// ShadingData is the usage-specific "data" for the Shading validator:
// the sub-domain the shading decomposition actually intends to
// evaluate over, which must lie within the function's own Domain.
type ShadingData struct {
	SubDomain []float64
}

// Validate runs the usage-specific predicate of spec.md §4.9 against
// an already-unpacked Function. data carries whatever extra context a
// usage's validator needs (TintData, ShadingData); it is ignored by
// usages that don't need it and may be nil for those.
func Validate(f *Function, data interface{}) error {
	switch f.Usage {
	case UsageTransfer, UsageHalftone, UsageSoftMask:
		return validateUnitSquare(f, 0, 1)
	case UsageBlackGen:
		return validateUnitSquare(f, 0, 1)
	case UsageUCR:
		return validateFixed(f, 1, 1, []float64{0, 1}, []float64{-1, 1})
	case UsageSpot:
		return validateFixed(f, 2, 1, []float64{-1, 1, -1, 1}, []float64{-1, 1})
	case UsageShadingOpacity:
		return validateUnitSquare(f, 0, 1)
	case UsageShading:
		return validateShading(f, data)
	case UsageTint:
		return validateTint(f, data)
	case UsageCIETint, UsageEvalOperator:
		return nil
	default:
		return wrapf(ErrRangeCheck, "validate: unknown usage %v", f.Usage)
	}
}

// validateUnitSquare checks M=1, N=1, Domain=[lo,hi], and (if present)
// Range=[lo,hi]. Used by transfer/halftone/softmask/black-gen, which
// all share the same [0,1]->[0,1] shape.
func validateUnitSquare(f *Function, lo, hi float64) error {
	if f.M != 1 || f.N != 1 {
		return wrapf(ErrRangeCheck, "validate: usage %v requires arity 1->1, got %d->%d", f.Usage, f.M, f.N)
	}
	d := f.Domain()
	if d[0] != lo || d[1] != hi {
		return wrapf(ErrRangeCheck, "validate: usage %v requires Domain=[%v,%v]", f.Usage, lo, hi)
	}
	if r := f.Range(); r != nil && (r[0] != lo || r[1] != hi) {
		return wrapf(ErrRangeCheck, "validate: usage %v requires Range=[%v,%v] when present", f.Usage, lo, hi)
	}
	return nil
}

// validateFixed checks a fixed arity and exact domain/range boxes
// (Range optional), used by UCR and Spot.
func validateFixed(f *Function, m, n int, domain, rng []float64) error {
	if f.M != m || f.N != n {
		return wrapf(ErrRangeCheck, "validate: usage %v requires arity %d->%d, got %d->%d", f.Usage, m, n, f.M, f.N)
	}
	got := f.Domain()
	for i := range domain {
		if got[i] != domain[i] {
			return wrapf(ErrRangeCheck, "validate: usage %v requires Domain=%v", f.Usage, domain)
		}
	}
	if r := f.Range(); r != nil {
		for i := range rng {
			if r[i] != rng[i] {
				return wrapf(ErrRangeCheck, "validate: usage %v requires Range=%v when present", f.Usage, rng)
			}
		}
	}
	return nil
}

func validateShading(f *Function, data interface{}) error {
	sd, _ := data.(ShadingData)
	if sd.SubDomain == nil {
		return nil
	}
	domain := f.Domain()
	if len(sd.SubDomain) != len(domain) {
		return wrapf(ErrRangeCheck, "validate: shading sub-domain arity mismatch")
	}
	for i := 0; i < len(domain); i += 2 {
		if sd.SubDomain[i] < domain[i] || sd.SubDomain[i+1] > domain[i+1] {
			return wrapf(ErrRangeCheck, "validate: shading sub-domain %v exceeds function domain %v on axis %d", sd.SubDomain, domain, i/2)
		}
	}
	return nil
}

func validateTint(f *Function, data interface{}) error {
	td, ok := data.(TintData)
	if ok && td.N != 0 && f.N != td.N {
		return wrapf(ErrRangeCheck, "validate: tint requires output arity %d, got %d", td.N, f.N)
	}
	domain := f.Domain()
	for i := 0; i < f.M; i++ {
		if !(domain[2*i] < domain[2*i+1]) {
			return wrapf(ErrRangeCheck, "validate: tint domain axis %d not strictly monotone", i)
		}
	}
	if r := f.Range(); r != nil {
		for i := 0; i < f.N; i++ {
			if r[2*i] > r[2*i+1] {
				return wrapf(ErrRangeCheck, "validate: tint range axis %d not non-decreasing", i)
			}
		}
	}
	return nil
}
