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

func identityFn(t *testing.T, spread string, factor int64) *Function {
	t.Helper()
	d := host.NewMemDict()
	d.Ints["FunctionType"] = 2
	d.Floats["Domain"] = []float64{0, 1}
	d.Floats["C0"] = []float64{0}
	d.Floats["C1"] = []float64{1}
	d.Floats["N"] = []float64{1}
	if spread != "" {
		d.Names["HqnSpreadMethod"] = spread
		d.Ints["HqnSpreadFactor"] = factor
	}
	f, err := Unpack(d, UsageEvalOperator)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	return f
}

func TestSpreadRepeat(t *testing.T) {
	f := identityFn(t, "Repeat", 2)
	var out [1]float64
	cases := []struct{ x, want float64 }{
		{0.25, 0.5},
		{0.75, 0.5},
		{1.25, 0.5},
	}
	for _, c := range cases {
		if err := f.Evaluate([]float64{c.x}, out[:], true); err != nil {
			t.Fatalf("evaluate(%v): %v", c.x, err)
		}
		if math.Abs(out[0]-c.want) > 1e-6 {
			t.Errorf("repeat evaluate(%v) = %v, want %v", c.x, out[0], c.want)
		}
	}
}

func TestSpreadReflect(t *testing.T) {
	f := identityFn(t, "Reflect", 2)
	var out [1]float64
	cases := []struct{ x, want float64 }{
		{0.25, 0.5},
		{0.75, 0.5},
	}
	for _, c := range cases {
		if err := f.Evaluate([]float64{c.x}, out[:], true); err != nil {
			t.Fatalf("evaluate(%v): %v", c.x, err)
		}
		if math.Abs(out[0]-c.want) > 1e-6 {
			t.Errorf("reflect evaluate(%v) = %v, want %v", c.x, out[0], c.want)
		}
	}
	if err := f.Evaluate([]float64{0.5}, out[:], true); err != nil {
		t.Fatalf("evaluate(0.5): %v", err)
	}
	if math.Abs(out[0]-1.0) > 1e-3 {
		t.Errorf("reflect evaluate(0.5) upwards = %v, want ~1.0", out[0])
	}
}

func TestSpreadNoneIsUnaffected(t *testing.T) {
	f := identityFn(t, "", 1)
	var out [1]float64
	if err := f.Evaluate([]float64{1.5}, out[:], true); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if out[0] != 1 {
		t.Errorf("evaluate(1.5) with no spread = %v, want 1 (clipped)", out[0])
	}
}
