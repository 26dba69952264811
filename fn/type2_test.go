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
	"testing"

	"github.com/corefn/functions/host"
)

func linearDict() *host.MemDict {
	d := host.NewMemDict()
	d.Ints["FunctionType"] = 2
	d.Floats["Domain"] = []float64{0, 1}
	d.Floats["N"] = []float64{1}
	return d
}

func TestType2Identity(t *testing.T) {
	d := linearDict()
	f, err := Unpack(d, UsageEvalOperator)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	var out [1]float64
	for _, x := range []float64{0, 0.25, 0.5, 1} {
		if err := f.Evaluate([]float64{x}, out[:], true); err != nil {
			t.Fatalf("evaluate(%v): %v", x, err)
		}
		if math.Abs(out[0]-x) > 1e-12 {
			t.Errorf("evaluate(%v) = %v, want %v", x, out[0], x)
		}
	}
}

func TestType2Exponent(t *testing.T) {
	d := host.NewMemDict()
	d.Ints["FunctionType"] = 2
	d.Floats["Domain"] = []float64{0, 1}
	d.Floats["C0"] = []float64{0}
	d.Floats["C1"] = []float64{1}
	d.Floats["N"] = []float64{2}

	f, err := Unpack(d, UsageEvalOperator)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	var out [1]float64
	if err := f.Evaluate([]float64{0.5}, out[:], true); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if want := 0.25; math.Abs(out[0]-want) > 1e-12 {
		t.Errorf("evaluate(0.5) = %v, want %v", out[0], want)
	}
}

func TestType2NegativeExponentRequiresNonZeroDomain(t *testing.T) {
	d := host.NewMemDict()
	d.Ints["FunctionType"] = 2
	d.Floats["Domain"] = []float64{-1, 1}
	d.Floats["N"] = []float64{-1}
	if _, err := Unpack(d, UsageEvalOperator); err == nil {
		t.Fatal("expected error for negative exponent with domain including 0")
	}
}

func TestType2EdgeDiscontinuity(t *testing.T) {
	d := linearDict()
	f, err := Unpack(d, UsageEvalOperator)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	disc, err := f.FindDiscontinuity(0, [2]float64{-1, 2})
	if err != nil {
		t.Fatalf("find-discontinuity: %v", err)
	}
	if disc.Order == OrderNone {
		t.Fatal("expected a domain-edge discontinuity")
	}
}
