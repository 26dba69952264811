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

import "github.com/corefn/functions/host"

// Unpack validates the common function header in d and dispatches to
// the type-specific unpacker. usage is recorded on the header but its
// validator (§4.9) is not run here: per spec.md §4.1 the cache calls
// Validate separately, after Unpack succeeds, with whatever
// usage-specific data the caller supplied.
func Unpack(d host.Dict, usage Usage) (*Function, error) {
	return unpack(d, usage, 0)
}

func unpack(d host.Dict, usage Usage, depth int) (*Function, error) {
	if depth > maxRecursionDepth {
		return nil, wrapf(ErrUndefinedResult, "unpack: recursion depth %d exceeds limit %d", depth, maxRecursionDepth)
	}

	ft, ok := d.Int64("FunctionType")
	if !ok {
		return nil, wrapf(ErrTypeCheck, "unpack: missing FunctionType")
	}

	domain, ok := d.Float64Array("Domain")
	if !ok {
		return nil, wrapf(ErrTypeCheck, "unpack: missing Domain")
	}
	if len(domain) < 2 || len(domain)%2 != 0 {
		return nil, wrapf(ErrRangeCheck, "unpack: Domain length %d must be even and >= 2", len(domain))
	}
	for i := 0; i < len(domain); i += 2 {
		if !(domain[i] < domain[i+1]) {
			return nil, wrapf(ErrRangeCheck, "unpack: Domain[%d]=%v must be strictly less than Domain[%d]=%v", i, domain[i], i+1, domain[i+1])
		}
	}

	h := &Header{Usage: usage}
	h.setDomain(domain)

	rng, hasRange := d.Float64Array("Range")
	if hasRange {
		if len(rng) < 2 || len(rng)%2 != 0 {
			return nil, wrapf(ErrRangeCheck, "unpack: Range length %d must be even and >= 2", len(rng))
		}
		h.setRange(rng)
	} else if ft == 0 || ft == 4 {
		return nil, wrapf(ErrTypeCheck, "unpack: Range is required for type %d", ft)
	}

	h.Spread, h.SpreadFactor = SpreadNone, 1
	if name, ok := d.Name("HqnSpreadMethod"); ok {
		switch name {
		case "Repeat":
			h.Spread = SpreadRepeat
		case "Reflect":
			h.Spread = SpreadReflect
		default:
			return nil, wrapf(ErrRangeCheck, "unpack: unknown HqnSpreadMethod %q", name)
		}
		factor := int64(1)
		if v, ok := d.Int64("HqnSpreadFactor"); ok {
			factor = v
		}
		if factor < 1 {
			return nil, wrapf(ErrRangeCheck, "unpack: HqnSpreadFactor must be >= 1, got %d", factor)
		}
		h.SpreadFactor = int(factor)
	}

	var (
		f   *Function
		err error
	)
	switch ft {
	case 0:
		f, err = unpackType0(d, h)
	case 2:
		f, err = unpackType2(d, h)
	case 3:
		f, err = unpackType3(d, h, depth)
	case 4:
		f, err = unpackType4(d, h)
	default:
		return nil, wrapf(ErrRangeCheck, "unpack: unsupported FunctionType %d", ft)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}
