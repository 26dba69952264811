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

	"github.com/corefn/functions/fngrid"
	"github.com/corefn/functions/host"
)

// DowngradeLogger, if non-nil, is called whenever a Type 0 function
// requests cubic (Order=3) interpolation, which this package always
// silently downgrades to linear (spec.md §1 non-goal, §9 open
// question). Left nil by default; nothing in this module sets it, so
// an embedder that wants the notice assigns it.
var DowngradeLogger func(format string, args ...interface{})

type sampleSpecialization int

const (
	specGeneral sampleSpecialization = iota
	spec1x1
	spec1xN
	spec2x1
	spec2xN
)

// Type0 is the sampled function of spec.md §4.3: an M->N function
// represented as a dense grid of quantised samples with linear
// reconstruction.
type Type0 struct {
	BitsPerSample  int
	RequestedOrder int
	Order          int
	Size           []int
	Encode         []float64
	Decode         []float64

	grid     fngrid.Grid
	stride   []int
	channels int
	spec     sampleSpecialization
	discont  type0Discont
}

func (t *Type0) kind() Kind { return Kind0 }

func unpackType0(d host.Dict, h *Header) (*Function, error) {
	sizeF, ok := d.Float64Array("Size")
	if !ok {
		return nil, wrapf(ErrTypeCheck, "type0: missing Size")
	}
	if len(sizeF) != h.M {
		return nil, wrapf(ErrRangeCheck, "type0: Size has %d entries, want %d (=M)", len(sizeF), h.M)
	}
	size := make([]int, h.M)
	for i, s := range sizeF {
		if s < 1 {
			return nil, wrapf(ErrRangeCheck, "type0: Size[%d]=%v must be >= 1", i, s)
		}
		size[i] = int(s)
	}

	bpsV, ok := d.Int64("BitsPerSample")
	if !ok {
		return nil, wrapf(ErrTypeCheck, "type0: missing BitsPerSample")
	}
	if !validBitsPerSample[bpsV] {
		return nil, wrapf(ErrRangeCheck, "type0: BitsPerSample=%d is not one of the 8 allowed values", bpsV)
	}
	bps := int(bpsV)

	order := int64(1)
	if v, ok := d.Int64("Order"); ok {
		order = v
	}
	requestedOrder := int(order)
	effectiveOrder := requestedOrder
	if effectiveOrder != 1 {
		if DowngradeLogger != nil {
			DowngradeLogger("type0: Order=%d requested, downgrading to linear (cubic unsupported)", requestedOrder)
		}
		effectiveOrder = 1
	}

	domain := h.Domain()
	encode, hasEncode := d.Float64Array("Encode")
	if hasEncode {
		if len(encode) != 2*h.M {
			return nil, wrapf(ErrRangeCheck, "type0: Encode has %d entries, want %d", len(encode), 2*h.M)
		}
	} else {
		encode = make([]float64, 2*h.M)
		for i := 0; i < h.M; i++ {
			encode[2*i] = 0
			encode[2*i+1] = float64(size[i] - 1)
		}
	}
	_ = domain

	decode, hasDecode := d.Float64Array("Decode")
	if hasDecode {
		if len(decode) != 2*h.N {
			return nil, wrapf(ErrRangeCheck, "type0: Decode has %d entries, want %d", len(decode), 2*h.N)
		}
	} else {
		rng := h.Range()
		if rng == nil {
			return nil, wrapf(ErrTypeCheck, "type0: Range is required (Decode defaults to it)")
		}
		decode = append([]float64(nil), rng...)
	}

	total := h.N
	for _, s := range size {
		total *= s
	}
	grid, err := fngrid.Alloc(total)
	if err != nil {
		return nil, wrapf(ErrVMError, "type0: allocating %d-sample grid: %v", total, err)
	}

	src, hasStream := d.Stream()
	if !hasStream {
		return nil, wrapf(ErrTypeCheck, "type0: missing sample data stream")
	}
	if err := src.Rewind(); err != nil {
		return nil, wrapf(ErrIOError, "type0: rewinding sample stream: %v", err)
	}
	if err := decodeSamples(src, total, bps, grid.Data); err != nil {
		return nil, err
	}

	stride := make([]int, h.M)
	s := 1
	for i := 0; i < h.M; i++ {
		stride[i] = s
		s *= size[i]
	}

	spec := specGeneral
	switch {
	case h.M == 1 && h.N == 1:
		spec = spec1x1
	case h.M == 1:
		spec = spec1xN
	case h.M == 2 && h.N == 1:
		spec = spec2x1
	case h.M == 2:
		spec = spec2xN
	}

	eng := &Type0{
		BitsPerSample:  bps,
		RequestedOrder: requestedOrder,
		Order:          effectiveOrder,
		Size:           size,
		Encode:         encode,
		Decode:         decode,
		grid:           grid,
		stride:         stride,
		channels:       h.N,
		spec:           spec,
	}
	f := &Function{Header: *h, eng: eng}

	if h.M == 1 && h.Usage == UsageShading {
		eng.discont = buildType0Discont(eng, f)
	}

	return f, nil
}

// encodeAxis maps x (already to be clipped to [lo,hi]) through Encode
// into grid-index space, returning the integer corner index and the
// interpolation fraction (spec.md §4.3 "Input encoding").
func (t *Type0) encodeAxis(axis int, lo, hi, x float64) (int, float64) {
	x = clip1(x, lo, hi)
	size := t.Size[axis]
	e0, e1 := t.Encode[2*axis], t.Encode[2*axis+1]
	var e float64
	if hi == lo {
		e = e0
	} else {
		e = e0 + (x-lo)/(hi-lo)*(e1-e0)
	}
	e = clip1(e, 0, float64(size-1))
	if size == 1 {
		return 0, 0
	}
	k := int(math.Floor(e))
	if k > size-2 {
		k = size - 2
	}
	if k < 0 {
		k = 0
	}
	return k, e - float64(k)
}

func (t *Type0) decodeChannel(c int, sample float64) float64 {
	maxVal := float64((uint64(1) << uint(t.BitsPerSample)) - 1)
	dlo, dhi := t.Decode[2*c], t.Decode[2*c+1]
	return dlo + sample/maxVal*(dhi-dlo)
}

func (t *Type0) pointIndex(idx []int) int {
	p := 0
	for i, k := range idx {
		p += k * t.stride[i]
	}
	return p
}

func (t *Type0) evaluate(f *Function, in, out []float64, upwards bool) error {
	domain := f.Domain()
	switch t.spec {
	case spec1x1:
		t.eval1x1(domain, in, out)
	case spec1xN:
		t.eval1xN(domain, in, out)
	case spec2x1:
		t.eval2x1(domain, in, out)
	case spec2xN:
		t.eval2xN(domain, in, out)
	default:
		t.evalGeneral(f, domain, in, out)
	}
	clipRange(f.Range(), out)
	return nil
}

func (t *Type0) eval1x1(domain, in, out []float64) {
	k, frac := t.encodeAxis(0, domain[0], domain[1], in[0])
	s0 := float64(t.grid.Data[k])
	s1 := s0
	if frac != 0 {
		s1 = float64(t.grid.Data[k+1])
	}
	out[0] = t.decodeChannel(0, (1-frac)*s0+frac*s1)
}

func (t *Type0) eval1xN(domain, in, out []float64) {
	k, frac := t.encodeAxis(0, domain[0], domain[1], in[0])
	N := len(out)
	for c := 0; c < N; c++ {
		s0 := float64(t.grid.Data[k*N+c])
		s1 := s0
		if frac != 0 {
			s1 = float64(t.grid.Data[(k+1)*N+c])
		}
		out[c] = t.decodeChannel(c, (1-frac)*s0+frac*s1)
	}
}

func (t *Type0) eval2x1(domain, in, out []float64) {
	k0, f0 := t.encodeAxis(0, domain[0], domain[1], in[0])
	k1, f1 := t.encodeAxis(1, domain[2], domain[3], in[1])
	stride1 := t.stride[1]
	base := k0*t.stride[0] + k1*stride1
	d0 := 0
	if f0 != 0 {
		d0 = t.stride[0]
	}
	d1 := 0
	if f1 != 0 {
		d1 = stride1
	}
	v00 := float64(t.grid.Data[base])
	v10 := float64(t.grid.Data[base+d0])
	v01 := float64(t.grid.Data[base+d1])
	v11 := float64(t.grid.Data[base+d0+d1])
	s := (1-f1)*((1-f0)*v00+f0*v10) + f1*((1-f0)*v01+f0*v11)
	out[0] = t.decodeChannel(0, s)
}

func (t *Type0) eval2xN(domain, in, out []float64) {
	k0, f0 := t.encodeAxis(0, domain[0], domain[1], in[0])
	k1, f1 := t.encodeAxis(1, domain[2], domain[3], in[1])
	stride1 := t.stride[1]
	basePoint := k0*t.stride[0] + k1*stride1
	d0 := 0
	if f0 != 0 {
		d0 = t.stride[0]
	}
	d1 := 0
	if f1 != 0 {
		d1 = stride1
	}
	N := len(out)
	for c := 0; c < N; c++ {
		v00 := float64(t.grid.Data[(basePoint+0)*N+c])
		v10 := float64(t.grid.Data[(basePoint+d0)*N+c])
		v01 := float64(t.grid.Data[(basePoint+d1)*N+c])
		v11 := float64(t.grid.Data[(basePoint+d0+d1)*N+c])
		s := (1-f1)*((1-f0)*v00+f0*v10) + f1*((1-f0)*v01+f0*v11)
		out[c] = t.decodeChannel(c, s)
	}
}

// evalGeneral implements the M->N interpolation workspace of
// spec.md §4.3 steps 1-5, used whenever M > 2.
func (t *Type0) evalGeneral(f *Function, domain, in, out []float64) {
	M := f.M
	idx := make([]int, M)
	frac := make([]float64, M)
	for i := 0; i < M; i++ {
		idx[i], frac[i] = t.encodeAxis(i, domain[2*i], domain[2*i+1], in[i])
	}
	var axes []int
	for i := 0; i < M; i++ {
		if frac[i] != 0 {
			axes = append(axes, i)
		}
	}
	nz := len(axes)
	corners := 1 << uint(nz)
	basePoint := t.pointIndex(idx)
	N := len(out)

	vals := make([]float64, corners)
	for c := 0; c < N; c++ {
		for m := 0; m < corners; m++ {
			p := basePoint
			for b, axis := range axes {
				if m&(1<<uint(b)) != 0 {
					p += t.stride[axis]
				}
			}
			vals[m] = float64(t.grid.Data[p*N+c])
		}
		for bit := nz - 1; bit >= 0; bit-- {
			fr := frac[axes[bit]]
			half := 1 << uint(bit)
			for k := 0; k < half; k++ {
				vals[k] = (1-fr)*vals[k] + fr*vals[k+half]
			}
		}
		out[c] = t.decodeChannel(c, vals[0])
	}
}
