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

// Package fncache implements the bounded function cache of spec.md
// §4.1: a statically partitioned, fixed-slot table keyed by
// (usage, slot, gen1, gen2), with an explicit per-entry lock bit and a
// low-memory purge policy. Grounded on tenant/dcache.Cache's
// concurrency idiom (a Logger interface, atomic hit/miss counters, a
// single guarding mutex) adapted from dcache's disk-backed mmap
// entries to fixed in-memory *fn.Function entries.
package fncache

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/corefn/functions/fn"
	"github.com/corefn/functions/host"

	"github.com/dchest/siphash"
)

// Logger receives diagnostic messages from the cache, same contract
// as tenant/dcache.Logger.
type Logger interface {
	Printf(f string, args ...interface{})
}

// genInvalid is the sentinel generation pair an entry holds after a
// reset (a miss, a failed fill, a purge) and after invalidate() -- it
// can never match a real request since callers are expected to use
// non-negative generations. A slot that has never been filled holds
// zero generations and is recognised as empty by its nil function.
const genInvalid = -1

// entry is one FunctionCache slot (spec.md §3 "FunctionCache").
type entry struct {
	locked   bool
	gen1     int64
	gen2     int64
	usage    fn.Usage
	truncate bool // this index was reached via truncated-offset collapse
	f        *fn.Function
	scratch  []float64 // shared in/out scratch, arity > 4 only
	pooled   []byte    // accounting-only backing from a host.MemoryPool, if configured
}

func (e *entry) valid(gen1, gen2 int64) bool {
	return e.f != nil && e.gen1 == gen1 && e.gen2 == gen2
}

func (c *Cache) resetEntry(e *entry) {
	if c.Pool != nil && e.pooled != nil {
		c.Pool.Free("fncache.scratch", e.pooled)
	}
	e.gen1, e.gen2 = genInvalid, genInvalid
	e.f = nil
	e.scratch = nil
	e.pooled = nil
}

// Cache is the bounded function cache. The zero value is not usable;
// construct with New.
type Cache struct {
	Logger Logger
	Pool   host.MemoryPool

	mu      sync.Mutex
	layout  layout
	slots   []entry
	hits    int64
	misses  int64
	invalid int64

	fingerprintKey0, fingerprintKey1 uint64
}

// New builds a Cache from an optional YAML/JSON partition override
// (nil or empty uses spec.md's stock partitioning).
func New(partitionConfig []byte) (*Cache, error) {
	entries, err := loadPartition(partitionConfig)
	if err != nil {
		return nil, err
	}
	l := buildLayout(entries)
	return &Cache{
		layout:          l,
		slots:           make([]entry, l.total),
		fingerprintKey0: 0x736e656c6c657200,
		fingerprintKey1: 0x66756e6374696f6e,
	}, nil
}

func (c *Cache) errorf(f string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Printf(f, args...)
	}
}

// Hits, Misses, Invalidations report running totals, for telemetry.
func (c *Cache) Hits() int64          { return atomic.LoadInt64(&c.hits) }
func (c *Cache) Misses() int64        { return atomic.LoadInt64(&c.misses) }
func (c *Cache) Invalidations() int64 { return atomic.LoadInt64(&c.invalid) }

// fingerprint computes a diagnostic siphash of a dictionary's FunctionType
// and arity, logged alongside unpack failures so that repeated failures on
// the same dictionary shape are recognisable across log lines without
// hashing (and thus leaking) the dictionary's actual numeric content.
func (c *Cache) fingerprint(d host.Dict) uint64 {
	ft, _ := d.Int64("FunctionType")
	domain, _ := d.Float64Array("Domain")
	buf := make([]byte, 0, 16)
	buf = append(buf, byte(ft))
	buf = append(buf, byte(len(domain)))
	return siphash.Hash(c.fingerprintKey0, c.fingerprintKey1, buf)
}

// CacheEntry implements spec.md §4.1's cache_entry operation: resolve
// (usage, slot) to a table index, re-unpack and re-validate if the
// stored generations are stale, and hand back the live *fn.Function.
//
// data is forwarded verbatim to fn.Validate; it is the usage-specific
// payload (fn.TintData, fn.ShadingData, or nil) the caller already
// has in hand from the surrounding evaluation context.
func (c *Cache) CacheEntry(obj host.Dict, usage fn.Usage, slot int, gen1, gen2 int64, data interface{}) (*fn.Function, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, truncated := c.layout.slotIndex(usage, slot)
	e := &c.slots[idx]
	e.usage = usage
	e.truncate = truncated

	if e.valid(gen1, gen2) {
		atomic.AddInt64(&c.hits, 1)
		return e.f, nil
	}
	atomic.AddInt64(&c.misses, 1)

	c.resetEntry(e)
	f, err := fn.Unpack(obj, usage)
	if err != nil {
		atomic.AddInt64(&c.invalid, 1)
		c.errorf("fncache: unpack usage=%s slot=%d fingerprint=%x: %v", usage, slot, c.fingerprint(obj), err)
		return nil, err
	}
	if err := fn.Validate(f, data); err != nil {
		atomic.AddInt64(&c.invalid, 1)
		c.errorf("fncache: validate usage=%s slot=%d fingerprint=%x: %v", usage, slot, c.fingerprint(obj), err)
		return nil, err
	}

	if f.M > 4 || f.N > 4 {
		if err := c.allocScratch(e, f); err != nil {
			atomic.AddInt64(&c.invalid, 1)
			return nil, err
		}
	}

	e.gen1, e.gen2 = gen1, gen2
	e.f = f
	return f, nil
}

// allocScratch reserves the in/out scratch buffer for a wide-arity
// entry (M>4 or N>4). When a host MemoryPool is configured, its
// Alloc/Free pair is used purely for accounting against the host's
// memory budget; the scratch values themselves still need a typed
// []float64, which the pool's []byte return can't provide directly.
func (c *Cache) allocScratch(e *entry, f *fn.Function) error {
	n := f.M + f.N
	if c.Pool != nil {
		buf, err := c.Pool.Alloc("fncache.scratch", n*8)
		if err != nil {
			return fmt.Errorf("fncache: allocating scratch buffer: %w", err)
		}
		e.pooled = buf
	}
	e.scratch = make([]float64, n)
	return nil
}

// Lock and Unlock set/clear an entry's lock bit (spec.md §4.1
// lock/unlock): a locked entry is never purged.
func (c *Cache) Lock(usage fn.Usage, slot int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, _ := c.layout.slotIndex(usage, slot)
	c.slots[idx].locked = true
}

func (c *Cache) Unlock(usage fn.Usage, slot int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, truncated := c.layout.slotIndex(usage, slot)
	e := &c.slots[idx]
	e.locked = false
	if truncated {
		// truncated-offset mode: this index is shared by every slot
		// number beyond the partition's count, so it cannot be trusted
		// to still describe the next caller's request.
		c.resetEntry(e)
	}
}

// Invalidate marks an entry stale without freeing its storage (spec.md
// §4.1 invalidate): the next CacheEntry call re-unpacks it.
func (c *Cache) Invalidate(usage fn.Usage, slot int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, _ := c.layout.slotIndex(usage, slot)
	e := &c.slots[idx]
	e.gen1, e.gen2 = genInvalid, genInvalid
}
