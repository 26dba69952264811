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
	"fmt"

	"github.com/corefn/functions/fn"

	"sigs.k8s.io/yaml"
)

// partitionEntry is one row of the compile-time usage-partition table
// (spec.md §4.1 "Layout"): base offset and slot count within the flat
// cache array.
type partitionEntry struct {
	Usage fn.Usage
	Count int
}

// defaultPartition is the fixed partitioning of spec.md §4.1:
// halftones 20, black-gen 1, UCR 1, transfer 4, spot 1, shading 10,
// shading-opacity 1, CIE-tint 1, tint 2, softmask 1, eval-operator 1.
var defaultPartition = []partitionEntry{
	{fn.UsageHalftone, 20},
	{fn.UsageBlackGen, 1},
	{fn.UsageUCR, 1},
	{fn.UsageTransfer, 4},
	{fn.UsageSpot, 1},
	{fn.UsageShading, 10},
	{fn.UsageShadingOpacity, 1},
	{fn.UsageCIETint, 1},
	{fn.UsageTint, 2},
	{fn.UsageSoftMask, 1},
	{fn.UsageEvalOperator, 1},
}

// partitionOverride is the optional YAML shape used to resize one or
// more usage partitions at startup without touching code -- useful for
// embedders that know they'll open far more shading functions per page
// than the stock 10-slot allowance. Fields are matched by usage name
// (fn.Usage.String()); unmentioned usages keep the default count.
type partitionOverride struct {
	Slots map[string]int `json:"slots"`
}

// loadPartition starts from defaultPartition and applies a YAML
// override document, if cfg is non-empty. sigs.k8s.io/yaml round-trips
// through JSON so a YAML or JSON document both work.
func loadPartition(cfg []byte) ([]partitionEntry, error) {
	out := append([]partitionEntry(nil), defaultPartition...)
	if len(cfg) == 0 {
		return out, nil
	}
	var ov partitionOverride
	if err := yaml.Unmarshal(cfg, &ov); err != nil {
		return nil, fmt.Errorf("fncache: parsing partition override: %w", err)
	}
	for i := range out {
		if n, ok := ov.Slots[out[i].Usage.String()]; ok {
			if n < 1 {
				return nil, fmt.Errorf("fncache: usage %s: slot count must be >= 1, got %d", out[i].Usage, n)
			}
			out[i].Count = n
		}
	}
	return out, nil
}

// layout is the resolved, flattened partition: per-usage base offset
// and count, plus the total slot count.
type layout struct {
	base  [usageCount]int
	count [usageCount]int
	total int
}

const usageCount = int(fn.UsageEvalOperator) + 1

func buildLayout(entries []partitionEntry) layout {
	var l layout
	off := 0
	for _, e := range entries {
		l.base[e.Usage] = off
		l.count[e.Usage] = e.Count
		off += e.Count
	}
	l.total = off
	return l
}

// slotIndex resolves (usage, slot) to a flat array index, collapsing
// out-of-range slots to the partition's last slot ("truncated-offset"
// mode, spec.md §4.1) and reporting that collapse via truncated.
func (l *layout) slotIndex(usage fn.Usage, slot int) (idx int, truncated bool) {
	base := l.base[usage]
	count := l.count[usage]
	if slot < 0 || slot >= count {
		return base + count - 1, true
	}
	return base + slot, false
}
