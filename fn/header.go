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

// Package fn implements the PDF/PostScript function evaluation core:
// unpack, evaluate, and find-discontinuity for the four Function types
// (sampled, exponential, stitching, calculator), plus the spread
// transform and the 1-D transfer-table materialiser.
//
// The source this is ported from represents a function as an opaque
// struct with three function pointers (evaluate, free,
// find-discontinuity) cast through a void* type-specific payload. Here
// that becomes a tagged variant: Function embeds a Header and an
// engine interface implemented by exactly one of *Type0, *Type2,
// *Type3, *Type4.
package fn

import "github.com/corefn/functions/host"

// Kind identifies which of the four function types a Function was
// unpacked as.
type Kind int

const (
	KindInvalid Kind = iota
	Kind0
	Kind2
	Kind3
	Kind4
)

func (k Kind) String() string {
	switch k {
	case Kind0:
		return "type0"
	case Kind2:
		return "type2"
	case Kind3:
		return "type3"
	case Kind4:
		return "type4"
	default:
		return "invalid"
	}
}

// maxRecursionDepth bounds Type 3's recursive unpack, matching the
// reference implementation's magic constant (spec.md §4.2, §9).
const maxRecursionDepth = 32

// Header is the common state every function carries regardless of
// type: input/output arity, domain/range boxes, spread transform, and
// the usage this instance was unpacked for.
//
// Domain and Range are stored inline for the common case (M,N <= 4)
// to avoid a heap allocation per function, falling back to a plain
// slice above that; callers never need to know which storage is in
// use since both are exposed as []float64 through Domain()/Range().
type Header struct {
	M, N int

	domainInline [8]float64
	domainHeap   []float64
	rangeInline  [8]float64
	rangeHeap    []float64
	hasRange     bool

	Spread       SpreadMethod
	SpreadFactor int

	Usage Usage
}

// Domain returns the 2M-length domain box [lo0,hi0,lo1,hi1,...].
func (h *Header) Domain() []float64 {
	if 2*h.M <= len(h.domainInline) {
		return h.domainInline[:2*h.M]
	}
	return h.domainHeap
}

// Range returns the 2N-length range box, or nil if the function has
// no Range (only possible for Type 2 and Type 3 when not required).
func (h *Header) Range() []float64 {
	if !h.hasRange {
		return nil
	}
	if 2*h.N <= len(h.rangeInline) {
		return h.rangeInline[:2*h.N]
	}
	return h.rangeHeap
}

// HasRange reports whether a Range box is present.
func (h *Header) HasRange() bool { return h.hasRange }

func (h *Header) setDomain(d []float64) {
	h.M = len(d) / 2
	if len(d) <= len(h.domainInline) {
		copy(h.domainInline[:], d)
		h.domainHeap = nil
		return
	}
	h.domainHeap = append([]float64(nil), d...)
}

func (h *Header) setRange(r []float64) {
	h.hasRange = r != nil
	if r == nil {
		h.N = 0
		return
	}
	h.N = len(r) / 2
	if len(r) <= len(h.rangeInline) {
		copy(h.rangeInline[:], r)
		h.rangeHeap = nil
		return
	}
	h.rangeHeap = append([]float64(nil), r...)
}

// IsIdentityTransfer reports whether this is a 1-input, 1-output
// function whose Domain and Range are both exactly [0,1] -- the
// common case for a default (no-op) transfer function. Carried over
// from the original gsctable.c fast path (see SPEC_FULL.md §3).
func (h *Header) IsIdentityTransfer() bool {
	if h.M != 1 || h.N != 1 || !h.hasRange {
		return false
	}
	d, r := h.Domain(), h.Range()
	return d[0] == 0 && d[1] == 1 && r[0] == 0 && r[1] == 1
}

// engine is the tagged-variant dispatch surface; exactly one concrete
// type (*Type0, *Type2, *Type3, *Type4) implements it for any given
// Function.
type engine interface {
	kind() Kind
	evaluate(f *Function, in, out []float64, upwards bool) error
	findDiscontinuity(f *Function, axis int, bounds [2]float64) (Discontinuity, error)
}

// Function is a fully unpacked function instance: a Header plus the
// type-specific engine that implements Evaluate and FindDiscontinuity.
type Function struct {
	Header
	eng engine
}

// Kind reports which of the four function types this instance is.
func (f *Function) Kind() Kind {
	if f.eng == nil {
		return KindInvalid
	}
	return f.eng.kind()
}

// Evaluate maps in (length M) to out (length N). upwards selects the
// bias direction used by Type 3 boundary selection and by the spread
// transform; ordinary (non-stitched, non-spread) evaluation ignores
// it.
func (f *Function) Evaluate(in, out []float64, upwards bool) error {
	if len(in) != f.M {
		return wrapf(ErrTypeCheck, "evaluate: got %d inputs, want %d", len(in), f.M)
	}
	if len(out) != f.N {
		return wrapf(ErrTypeCheck, "evaluate: got %d outputs, want %d", len(out), f.N)
	}
	if f.eng == nil {
		return wrapf(ErrUndefinedResult, "evaluate: function not unpacked")
	}
	if f.Spread != SpreadNone && f.SpreadFactor > 1 {
		return f.evaluateSpread(in, out, upwards)
	}
	return f.eng.evaluate(f, in, out, upwards)
}

// FindDiscontinuity locates the next discontinuity of axis within
// bounds (bounds need not be ordered; spec.md §4.3 normalises
// bounds[0] <= bounds[1] internally, since Type 3 may invert them).
func (f *Function) FindDiscontinuity(axis int, bounds [2]float64) (Discontinuity, error) {
	if f.eng == nil {
		return Discontinuity{Order: OrderNone}, wrapf(ErrUndefinedResult, "find-discontinuity: function not unpacked")
	}
	if bounds[0] > bounds[1] {
		bounds[0], bounds[1] = bounds[1], bounds[0]
	}
	if f.Spread != SpreadNone && f.SpreadFactor > 1 {
		return f.findDiscontinuitySpread(axis, bounds)
	}
	return f.eng.findDiscontinuity(f, axis, bounds)
}

// SpreadMethod is the outer repeat/reflect transform of spec.md §4.7.
type SpreadMethod int

const (
	SpreadNone SpreadMethod = iota
	SpreadRepeat
	SpreadReflect
)

// Usage partitions the function cache and selects the validator
// applied after unpack (spec.md §4.1, §4.9).
type Usage int

const (
	UsageHalftone Usage = iota
	UsageBlackGen
	UsageUCR
	UsageTransfer
	UsageSpot
	UsageShading
	UsageShadingOpacity
	UsageCIETint
	UsageTint
	UsageSoftMask
	UsageEvalOperator
	usageCount
)

func (u Usage) String() string {
	switch u {
	case UsageHalftone:
		return "halftone"
	case UsageBlackGen:
		return "black-gen"
	case UsageUCR:
		return "ucr"
	case UsageTransfer:
		return "transfer"
	case UsageSpot:
		return "spot"
	case UsageShading:
		return "shading"
	case UsageShadingOpacity:
		return "shading-opacity"
	case UsageCIETint:
		return "cie-tint"
	case UsageTint:
		return "tint"
	case UsageSoftMask:
		return "softmask"
	case UsageEvalOperator:
		return "eval-operator"
	default:
		return "unknown"
	}
}

// Info is the arity summary spec.md §6's get_info operation yields
// after a successful unpack.
type Info struct {
	M, N int
}

// GetInfo reports f's input/output arity (spec.md §6
// "get_info(...) -> ok/err. Yields M and N after a successful
// unpack."). A thin wrapper over the exported M/N fields, kept as its
// own named operation so callers driving the core purely off spec.md's
// operation list (evaluate, find_discontinuity, get_info, ...) have a
// direct counterpart to call rather than reaching into Header.
func (f *Function) GetInfo() Info {
	return Info{M: f.M, N: f.N}
}

// ProbeType reads only the FunctionType key, without unpacking the
// rest of the dictionary. Grounded on the original's fn_type(obj)
// accessor (SPEC_FULL.md §3): callers that only need to know whether
// an object is a function at all use this instead of paying for a
// full cache_entry/unpack round trip.
func ProbeType(d host.Dict) (Kind, bool) {
	v, ok := d.Int64("FunctionType")
	if !ok {
		return KindInvalid, false
	}
	switch v {
	case 0:
		return Kind0, true
	case 2:
		return Kind2, true
	case 3:
		return Kind3, true
	case 4:
		return Kind4, true
	default:
		return KindInvalid, false
	}
}
