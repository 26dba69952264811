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

package fngrid

import "testing"

func TestAllocSmallIsHeapBacked(t *testing.T) {
	g, err := Alloc(16)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if len(g.Data) != 16 {
		t.Fatalf("len(Data) = %d, want 16", len(g.Data))
	}
	g.Data[0] = 1
	g.Data[15] = 2
	g.Release()
	if g.Data != nil {
		t.Error("Release should clear Data")
	}
}

func TestReleaseOnZeroValueIsNoOp(t *testing.T) {
	var g Grid
	g.Release() // must not panic
}

func TestAllocLargeStillUsable(t *testing.T) {
	g, err := Alloc(largeThreshold + 1024)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if len(g.Data) != largeThreshold+1024 {
		t.Fatalf("len(Data) = %d, want %d", len(g.Data), largeThreshold+1024)
	}
	g.Data[0] = 0xDEADBEEF
	if g.Data[0] != 0xDEADBEEF {
		t.Error("large grid did not retain a written value")
	}
	g.Release()
}
