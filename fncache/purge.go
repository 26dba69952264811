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
	"github.com/corefn/functions/fn"
)

// HalftoneType5 and HalftoneType195 are the two PDF halftone
// dictionary types whose transfer entries survive a purge as long as
// their generation still matches (spec.md §4.1 purge rules).
const (
	HalftoneType5   = 5
	HalftoneType195 = 195
)

// PurgeContext carries the host state the purge rules of spec.md §4.1
// need but the cache itself doesn't track: the active halftone type,
// and the "current id" each of halftone/black-gen/UCR/transfer
// compares its stored first-generation against.
type PurgeContext struct {
	HalftoneType int
	CurrentID    map[fn.Usage]int64
}

func (p *PurgeContext) currentID(usage fn.Usage) (int64, bool) {
	if p == nil || p.CurrentID == nil {
		return 0, false
	}
	v, ok := p.CurrentID[usage]
	return v, ok
}

// preserve reports whether e must survive a purge under ctx, per the
// per-usage rules of spec.md §4.1.
func preserve(e *entry, ctx *PurgeContext) bool {
	if e.f == nil {
		return false // nothing to purge
	}
	switch e.usage {
	case fn.UsageHalftone:
		if ctx == nil {
			return e.locked
		}
		if ctx.HalftoneType != HalftoneType5 && ctx.HalftoneType != HalftoneType195 {
			return e.locked
		}
		id, ok := ctx.currentID(fn.UsageHalftone)
		return e.locked || (ok && e.gen1 == id)
	case fn.UsageBlackGen, fn.UsageUCR, fn.UsageTransfer:
		id, ok := ctx.currentID(e.usage)
		return e.locked || (ok && e.gen1 == id)
	case fn.UsageSpot, fn.UsageShading, fn.UsageTint, fn.UsageCIETint, fn.UsageSoftMask, fn.UsageEvalOperator:
		return e.locked
	default:
		return e.locked
	}
}

// Purge implements spec.md §4.1's purge(do_free): it returns the
// number of purgeable entries and, if doFree, invalidates and frees
// them. A locked entry (or one preserve() otherwise protects) is never
// touched.
func (c *Cache) Purge(ctx *PurgeContext, doFree bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for i := range c.slots {
		e := &c.slots[i]
		if e.f == nil || preserve(e, ctx) {
			continue
		}
		n++
		if doFree {
			c.resetEntry(e)
		}
	}
	return n
}

// purgeableOfferBytes is the notional saving a purge offer reports to
// the memory manager (spec.md §4.1 "a purge offer of 64 KiB and cost
// 1.0").
const purgeableOfferBytes = 64 * 1024

// LowMemoryHandler is the solicit/release collaborator registered with
// the host's memory manager at startup (spec.md §4.1, §4.2
// "configuration-error ... failure to register the low-memory
// handler").
type LowMemoryHandler struct {
	cache      *Cache
	betweenOps func() bool
	ctx        *PurgeContext
}

// NewLowMemoryHandler builds a handler. betweenOps reports whether the
// host is currently between operator executions -- purge offers are
// withheld otherwise, per spec.md §4.1.
func NewLowMemoryHandler(c *Cache, ctx *PurgeContext, betweenOps func() bool) *LowMemoryHandler {
	return &LowMemoryHandler{cache: c, betweenOps: betweenOps, ctx: ctx}
}

// Solicit offers purgeableOfferBytes at cost 1.0 iff the host is
// between operators and at least one entry is purgeable; ok is false
// otherwise, meaning the offer is withheld.
func (h *LowMemoryHandler) Solicit() (offerBytes int, cost float64, ok bool) {
	if h.betweenOps != nil && !h.betweenOps() {
		return 0, 0, false
	}
	if h.cache.Purge(h.ctx, false) == 0 {
		return 0, 0, false
	}
	return purgeableOfferBytes, 1.0, true
}

// Release actually frees the purgeable entries identified by the most
// recent Solicit, returning the number of entries freed.
func (h *LowMemoryHandler) Release() int {
	return h.cache.Purge(h.ctx, true)
}
