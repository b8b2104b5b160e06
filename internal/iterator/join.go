// Copyright 2024 The Graphd Authors
// This file is part of graphd.
//
// graphd is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// graphd is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with graphd. If not, see <http://www.gnu.org/licenses/>.

package iterator

import (
	"sort"

	"github.com/graphd-project/graphd/internal/gmap"
	"github.com/graphd-project/graphd/internal/idarray"
	"github.com/graphd-project/graphd/internal/primitive"
)

// PrimitiveLookup resolves an ID to its primitive record, the accessor the
// one-hop joins need to read a linkage field (spec §4.3 "isa").
type PrimitiveLookup func(id primitive.ID) (*primitive.Primitive, error)

// NewLinksTo builds "primitives that have source as their linkage field"
// (spec §4.3 "linksto"): a plain GMap lookup keyed by source, reported
// under the linksto wire tag rather than gmap/bgmap.
func NewLinksTo(m *gmap.Map, linkage primitive.Linkage, source primitive.ID, dir Direction) (*LinksTo, error) {
	g, err := NewGMap(m, source, dir)
	if err != nil {
		return nil, err
	}
	g.tag = "linksto"
	return &LinksTo{GMap: g, linkage: linkage}, nil
}

// LinksTo wraps GMap purely to report the linksto/fixed-linksto wire tag
// spec §6 distinguishes from a bare gmap/bgmap lookup.
type LinksTo struct {
	*GMap
	linkage primitive.Linkage
}

func (l *LinksTo) TypeTag() string { return "linksto" }

func (l *LinksTo) Clone() Iterator {
	return &LinksTo{GMap: l.GMap.Clone().(*GMap), linkage: l.linkage}
}

// NewIsa builds "primitives that are the linkage-field value of some
// primitive matching sub" (spec §4.3 "isa"): for every id sub produces,
// resolve its primitive record and collect the linkage field's ID, then
// present the deduplicated, sorted result as a Fixed. sub is driven to
// completion at construction time using an unbounded local budget; the
// planner is expected to reserve isa for sub-iterators already known to be
// small (this mirrors the fixed-isa wire variant, the materialized form of
// the lazy isa/and couple spec §6 also names).
func NewIsa(sub Iterator, lookup PrimitiveLookup, linkage primitive.Linkage, dir Direction) (*Fixed, error) {
	seen := map[primitive.ID]struct{}{}
	var out idarray.Slice
	local := unboundedBudget()
	for {
		res, err := sub.Next(local)
		if err != nil {
			return nil, err
		}
		if res.Outcome == Done {
			break
		}
		if res.Outcome == Suspend {
			local = unboundedBudget()
			continue
		}
		p, err := lookup(res.ID)
		if err != nil {
			return nil, err
		}
		if p == nil || !p.HasLinkage(linkage) {
			continue
		}
		target := p.LinkageID(linkage)
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	f := NewFixed(out, dir)
	f.tag = "fixed-isa"
	return f, nil
}
