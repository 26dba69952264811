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

// ramp1x1 builds a 4-sample, 1->1 Type 0 function whose samples are
// 0, 85, 170, 255 -- an exact linear ramp across an 8-bit grid.
func ramp1x1(t *testing.T) *Function {
	t.Helper()
	d := host.NewMemDict()
	d.Ints["FunctionType"] = 0
	d.Floats["Domain"] = []float64{0, 1}
	d.Floats["Range"] = []float64{0, 1}
	d.Floats["Size"] = []float64{4}
	d.Ints["BitsPerSample"] = 8
	d.Data = []byte{0, 85, 170, 255}
	f, err := Unpack(d, UsageEvalOperator)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	return f
}

func TestType0Ramp1x1(t *testing.T) {
	f := ramp1x1(t)
	var out [1]float64
	cases := []struct {
		x, want float64
	}{
		{0, 0},
		{1, 1},
		{1.0 / 3, 85.0 / 255},
	}
	for _, c := range cases {
		if err := f.Evaluate([]float64{c.x}, out[:], true); err != nil {
			t.Fatalf("evaluate(%v): %v", c.x, err)
		}
		if math.Abs(out[0]-c.want) > 1e-3 {
			t.Errorf("evaluate(%v) = %v, want ~%v", c.x, out[0], c.want)
		}
	}
}

func TestType0ClipsOutOfDomain(t *testing.T) {
	f := ramp1x1(t)
	var lo, hi [1]float64
	if err := f.Evaluate([]float64{-5}, lo[:], true); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if err := f.Evaluate([]float64{5}, hi[:], true); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if lo[0] != 0 {
		t.Errorf("evaluate(-5) = %v, want 0", lo[0])
	}
	if hi[0] != 1 {
		t.Errorf("evaluate(5) = %v, want 1", hi[0])
	}
}

func TestType0BitsPerSample4Bit(t *testing.T) {
	d := host.NewMemDict()
	d.Ints["FunctionType"] = 0
	d.Floats["Domain"] = []float64{0, 1}
	d.Floats["Range"] = []float64{0, 1}
	d.Floats["Size"] = []float64{3}
	d.Ints["BitsPerSample"] = 4
	// 3 4-bit samples: 0x0, 0xF, 0x0 packed as 0F 0_
	d.Data = []byte{0x0F, 0x00}
	f, err := Unpack(d, UsageEvalOperator)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	var out [1]float64
	if err := f.Evaluate([]float64{0.5}, out[:], true); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if math.Abs(out[0]-1) > 1e-9 {
		t.Errorf("evaluate(0.5) = %v, want 1 (max sample)", out[0])
	}
}

func TestType0InvalidBitsPerSample(t *testing.T) {
	d := host.NewMemDict()
	d.Ints["FunctionType"] = 0
	d.Floats["Domain"] = []float64{0, 1}
	d.Floats["Range"] = []float64{0, 1}
	d.Floats["Size"] = []float64{2}
	d.Ints["BitsPerSample"] = 7
	d.Data = []byte{0, 0}
	if _, err := Unpack(d, UsageEvalOperator); err == nil {
		t.Fatal("expected error for BitsPerSample=7")
	}
}

func Test2x1Bilinear(t *testing.T) {
	d := host.NewMemDict()
	d.Ints["FunctionType"] = 0
	d.Floats["Domain"] = []float64{0, 1, 0, 1}
	d.Floats["Range"] = []float64{0, 1}
	d.Floats["Size"] = []float64{2, 2}
	d.Ints["BitsPerSample"] = 8
	// grid[0,0]=0 grid[1,0]=255 grid[0,1]=0 grid[1,1]=255 (stride0=1,stride1=2)
	d.Data = []byte{0, 255, 0, 255}
	f, err := Unpack(d, UsageEvalOperator)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	var out [1]float64
	if err := f.Evaluate([]float64{0.5, 0.5}, out[:], true); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if math.Abs(out[0]-0.5) > 1e-3 {
		t.Errorf("evaluate(0.5,0.5) = %v, want ~0.5", out[0])
	}
}
