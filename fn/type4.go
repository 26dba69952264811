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
	"github.com/corefn/functions/fn/calc"
	"github.com/corefn/functions/host"
)

// Type4 is the PostScript calculator function of spec.md §4.6: a
// whitelisted procedure that pushes M inputs and expects to leave
// exactly N outputs on the stack.
type Type4 struct {
	proc host.Procedure
}

func (t *Type4) kind() Kind { return Kind4 }

func unpackType4(d host.Dict, h *Header) (*Function, error) {
	proc, ok := d.Procedure()
	if !ok {
		return nil, wrapf(ErrTypeCheck, "type4: missing calculator procedure")
	}
	if !h.hasRange {
		return nil, wrapf(ErrTypeCheck, "type4: Range is required")
	}
	if err := calc.ValidateProcedure(proc); err != nil {
		return nil, wrapf(ErrInvalidAccess, "type4: %v", err)
	}
	eng := &Type4{proc: proc}
	return &Function{Header: *h, eng: eng}, nil
}

func (t *Type4) evaluate(f *Function, in, out []float64, upwards bool) error {
	domain := f.Domain()
	vm := calc.New()
	for i, x := range in {
		if err := vm.Push(clip1(x, domain[2*i], domain[2*i+1])); err != nil {
			return wrapf(ErrVMError, "type4: %v", err)
		}
	}
	if err := vm.Run(t.proc); err != nil {
		return wrapf(ErrVMError, "type4: %v", err)
	}
	n := len(out)
	if vm.Depth() < n {
		return wrapf(ErrStackUnderflow, "type4: procedure left %d values, need %d outputs", vm.Depth(), n)
	}
	if vm.Depth() > n {
		return wrapf(ErrRangeCheck, "type4: procedure left %d values, want exactly %d outputs", vm.Depth(), n)
	}
	for i := n - 1; i >= 0; i-- {
		v, err := vm.Pop()
		if err != nil {
			return wrapf(ErrVMError, "type4: %v", err)
		}
		out[i] = v
	}
	clipRange(f.Range(), out)
	return nil
}

// findDiscontinuity always reports "none": a calculator procedure is
// an opaque black box with no way to introspect its structure for
// piecewise boundaries (spec.md §4.6 Non-goals).
func (t *Type4) findDiscontinuity(f *Function, axis int, bounds [2]float64) (Discontinuity, error) {
	return noDiscontinuity(), nil
}
