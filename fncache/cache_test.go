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

package fncache

import (
	"testing"

	"github.com/corefn/functions/fn"
	"github.com/corefn/functions/host"
)

func identityDict() *host.MemDict {
	d := host.NewMemDict()
	d.Ints["FunctionType"] = 2
	d.Floats["Domain"] = []float64{0, 1}
	d.Floats["C0"] = []float64{0}
	d.Floats["C1"] = []float64{1}
	d.Floats["N"] = []float64{1}
	return d
}

func TestCacheEntryMissThenHit(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d := identityDict()

	f1, err := c.CacheEntry(d, fn.UsageEvalOperator, 0, 1, 1, nil)
	if err != nil {
		t.Fatalf("CacheEntry (miss): %v", err)
	}
	if c.Misses() != 1 || c.Hits() != 0 {
		t.Errorf("after first call: hits=%d misses=%d, want 0,1", c.Hits(), c.Misses())
	}

	f2, err := c.CacheEntry(d, fn.UsageEvalOperator, 0, 1, 1, nil)
	if err != nil {
		t.Fatalf("CacheEntry (hit): %v", err)
	}
	if f1 != f2 {
		t.Errorf("hit returned a different *fn.Function than the miss")
	}
	if c.Hits() != 1 {
		t.Errorf("hits=%d, want 1", c.Hits())
	}
}

func TestCacheEntryGenerationChangeReunpacks(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d := identityDict()

	f1, err := c.CacheEntry(d, fn.UsageEvalOperator, 0, 1, 1, nil)
	if err != nil {
		t.Fatalf("CacheEntry: %v", err)
	}
	f2, err := c.CacheEntry(d, fn.UsageEvalOperator, 0, 2, 1, nil)
	if err != nil {
		t.Fatalf("CacheEntry (new gen): %v", err)
	}
	if f1 == f2 {
		t.Errorf("generation bump should force a fresh *fn.Function")
	}
	if c.Misses() != 2 {
		t.Errorf("misses=%d, want 2", c.Misses())
	}
}

func TestCacheEntryInvalidDictionaryCountsFailure(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d := host.NewMemDict()
	d.Ints["FunctionType"] = 2
	// missing Domain
	if _, err := c.CacheEntry(d, fn.UsageEvalOperator, 0, 1, 1, nil); err == nil {
		t.Fatal("expected unpack error")
	}
	if c.Invalidations() != 1 {
		t.Errorf("invalidations=%d, want 1", c.Invalidations())
	}
}

func TestCacheTruncatedSlotCollapsesAndResetsOnUnlock(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d := identityDict()

	// UsageTransfer has 4 slots (indices 0-3); slot 50 collapses onto
	// the last slot (index 3 within the transfer partition).
	if _, err := c.CacheEntry(d, fn.UsageTransfer, 50, 1, 1, nil); err != nil {
		t.Fatalf("CacheEntry (truncated): %v", err)
	}
	idx, truncated := c.layout.slotIndex(fn.UsageTransfer, 50)
	if !truncated {
		t.Fatal("expected slotIndex to report truncation for out-of-range slot")
	}
	if c.slots[idx].f == nil {
		t.Fatal("expected the truncated slot to hold a live entry before Unlock")
	}
	c.Unlock(fn.UsageTransfer, 50)
	if c.slots[idx].f != nil {
		t.Error("Unlock on a truncated-offset slot should reset the entry")
	}
}

func TestCacheEntryValidateFailureCountsInvalidation(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d := identityDict() // 1->1, but UsageSpot requires 2->1
	if _, err := c.CacheEntry(d, fn.UsageSpot, 0, 1, 1, nil); err == nil {
		t.Fatal("expected validate error for wrong arity under UsageSpot")
	}
	if c.Invalidations() != 1 {
		t.Errorf("invalidations=%d, want 1 after validate failure", c.Invalidations())
	}
}

func TestCacheLockSetsFlag(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d := identityDict()
	if _, err := c.CacheEntry(d, fn.UsageEvalOperator, 0, 1, 1, nil); err != nil {
		t.Fatalf("CacheEntry: %v", err)
	}
	c.Lock(fn.UsageEvalOperator, 0)
	idx, _ := c.layout.slotIndex(fn.UsageEvalOperator, 0)
	if !c.slots[idx].locked {
		t.Error("Lock did not set the entry's locked flag")
	}
	c.Unlock(fn.UsageEvalOperator, 0)
	if c.slots[idx].locked {
		t.Error("Unlock did not clear the entry's locked flag")
	}
}

func TestInvalidateForcesReunpackWithoutFreeing(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d := identityDict()
	if _, err := c.CacheEntry(d, fn.UsageEvalOperator, 0, 5, 5, nil); err != nil {
		t.Fatalf("CacheEntry: %v", err)
	}
	c.Invalidate(fn.UsageEvalOperator, 0)
	if _, err := c.CacheEntry(d, fn.UsageEvalOperator, 0, 5, 5, nil); err != nil {
		t.Fatalf("CacheEntry (post-invalidate): %v", err)
	}
	if c.Misses() != 2 {
		t.Errorf("misses=%d, want 2 (second call must re-unpack despite matching gens)", c.Misses())
	}
}
