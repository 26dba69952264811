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
	"errors"
	"math"
	"testing"

	"github.com/corefn/functions/host"
)

// calcDict builds a Type 4 dictionary with domain/range [0,1] and the
// given procedure, e.g. "{ 2 mul }".
func calcDict(proc host.Procedure) *host.MemDict {
	d := host.NewMemDict()
	d.Ints["FunctionType"] = 4
	d.Floats["Domain"] = []float64{0, 1}
	d.Floats["Range"] = []float64{0, 1}
	d.SetProcedure(proc)
	return d
}

func TestType4Halving(t *testing.T) {
	proc := host.Procedure{
		{Kind: host.TokReal, Real: 0.5},
		{Kind: host.TokName, Name: "mul"},
	}
	d := calcDict(proc)
	f, err := Unpack(d, UsageEvalOperator)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	var out [1]float64
	if err := f.Evaluate([]float64{0.8}, out[:], true); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if math.Abs(out[0]-0.4) > 1e-9 {
		t.Errorf("0.8 0.5 mul = %v, want 0.4", out[0])
	}
}

func TestType4ClipsOutputToRange(t *testing.T) {
	proc := host.Procedure{
		{Kind: host.TokName, Name: "pop"},
		{Kind: host.TokReal, Real: 10},
	}
	d := calcDict(proc)
	f, err := Unpack(d, UsageEvalOperator)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	var out [1]float64
	if err := f.Evaluate([]float64{0}, out[:], true); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if out[0] != 1 {
		t.Errorf("evaluate produced %v, want clipped to 1", out[0])
	}
}

func TestType4RequiresRange(t *testing.T) {
	d := host.NewMemDict()
	d.Ints["FunctionType"] = 4
	d.Floats["Domain"] = []float64{0, 1}
	d.SetProcedure(host.Procedure{{Kind: host.TokReal, Real: 1}})
	if _, err := Unpack(d, UsageEvalOperator); err == nil {
		t.Fatal("expected error for missing Range")
	}
}

func TestType4RejectsNonWhitelistedOperatorAtUnpack(t *testing.T) {
	proc := host.Procedure{
		{Kind: host.TokReal, Real: 1},
		{Kind: host.TokName, Name: "systemdict"},
	}
	d := calcDict(proc)
	_, err := Unpack(d, UsageEvalOperator)
	if err == nil {
		t.Fatal("expected unpack to reject a non-whitelisted operator")
	}
	if !errors.Is(err, ErrInvalidAccess) {
		t.Errorf("got %v, want ErrInvalidAccess", err)
	}
}

func TestType4RejectsNonWhitelistedOperatorInsideIfElse(t *testing.T) {
	proc := host.Procedure{
		{Kind: host.TokReal, Real: 1},
		{Kind: host.TokProc, Sub: host.Procedure{{Kind: host.TokName, Name: "exec"}}},
		{Kind: host.TokProc, Sub: host.Procedure{{Kind: host.TokReal, Real: 0}}},
		{Kind: host.TokName, Name: "ifelse"},
	}
	d := calcDict(proc)
	_, err := Unpack(d, UsageEvalOperator)
	if err == nil {
		t.Fatal("expected unpack to reject a non-whitelisted operator nested in an ifelse branch")
	}
	if !errors.Is(err, ErrInvalidAccess) {
		t.Errorf("got %v, want ErrInvalidAccess", err)
	}
}

func TestFunctionGetInfoReportsArity(t *testing.T) {
	proc := host.Procedure{
		{Kind: host.TokReal, Real: 0.5},
		{Kind: host.TokName, Name: "mul"},
	}
	d := calcDict(proc)
	f, err := Unpack(d, UsageEvalOperator)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	info := f.GetInfo()
	if info.M != 1 || info.N != 1 {
		t.Errorf("GetInfo() = %+v, want {1 1}", info)
	}
}

func TestType4NoDiscontinuity(t *testing.T) {
	proc := host.Procedure{{Kind: host.TokReal, Real: 1}}
	d := calcDict(proc)
	f, err := Unpack(d, UsageEvalOperator)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	disc, err := f.FindDiscontinuity(0, [2]float64{0, 1})
	if err != nil {
		t.Fatalf("find-discontinuity: %v", err)
	}
	if disc.Order != OrderNone {
		t.Errorf("find-discontinuity = %+v, want OrderNone", disc)
	}
}
