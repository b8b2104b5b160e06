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
	"fmt"

	"github.com/graphd-project/graphd/internal/budget"
	"github.com/graphd-project/graphd/internal/gmap"
	"github.com/graphd-project/graphd/internal/primitive"
)

// Vip is the "value in position" composite index: the intersection of a
// linkage value with a typeguid value, maintained as its own GMAP keyed by
// the pair rather than computed by intersecting two separate indices at
// query time (spec §4.3 "vip", §4.3 step 4 rewrite rule, GLOSSARY "VIP").
//
// composite is the Map indexed by (linkage, typeguid) pair sources; callers
// are expected to have already folded the pair into a single source key the
// same way they would for any other GMAP (spec leaves the exact pairing
// scheme to the implementation — this mirrors the dense-ID packing idiom
// internal/gmap already uses for array slots).
type Vip struct {
	*GMap
}

// PackVipKey folds a linkage ID and a typeguid ID into the single dense
// source key the vip composite index is keyed by.
func PackVipKey(linkageID, typeguidID primitive.ID) primitive.ID {
	return primitive.ID(uint64(linkageID)<<34 | (uint64(typeguidID) & (1<<34 - 1)))
}

// NewVip builds a vip iterator over composite's members for the packed key.
func NewVip(composite *gmap.Map, linkageID, typeguidID primitive.ID, dir Direction) (*Vip, error) {
	g, err := NewGMap(composite, PackVipKey(linkageID, typeguidID), dir)
	if err != nil {
		return nil, err
	}
	g.tag = "vip"
	return &Vip{GMap: g}, nil
}

func (v *Vip) TypeTag() string { return "vip" }

func (v *Vip) Clone() Iterator {
	return &Vip{GMap: v.GMap.Clone().(*GMap)}
}

// VRange restricts a Vip (or any sorted source) to IDs within [lo, hi), the
// "vrange" wire variant (spec §6) used when a sub-constraint additionally
// pins a numeric range on top of a vip lookup.
type VRange struct {
	inner  Iterator
	lo, hi primitive.ID
	dir    Direction
}

func NewVRange(inner Iterator, lo, hi primitive.ID, dir Direction) *VRange {
	return &VRange{inner: inner, lo: lo, hi: hi, dir: dir}
}

func (r *VRange) inRange(id primitive.ID) bool { return id >= r.lo && id < r.hi }

func (r *VRange) Next(b *budget.Budget) (NextResult, error) {
	for {
		res, err := r.inner.Next(b)
		if err != nil || res.Outcome != Found {
			return res, err
		}
		if r.inRange(res.ID) {
			return res, nil
		}
		if r.dir == Forward && res.ID >= r.hi {
			return doneResult, nil
		}
		if r.dir == Reverse && res.ID < r.lo {
			return doneResult, nil
		}
	}
}

func (r *VRange) Find(b *budget.Budget, id primitive.ID) (NextResult, error) {
	if id < r.lo {
		id = r.lo
	}
	res, err := r.inner.Find(b, id)
	if err != nil || res.Outcome != Found {
		return res, err
	}
	if !r.inRange(res.ID) {
		return doneResult, nil
	}
	return res, nil
}

func (r *VRange) Check(b *budget.Budget, id primitive.ID) (CheckOutcome, error) {
	if !r.inRange(id) {
		return No, nil
	}
	return r.inner.Check(b, id)
}

func (r *VRange) Statistics(b *budget.Budget) (Stats, bool, error) {
	return r.inner.Statistics(b)
}

func (r *VRange) Clone() Iterator {
	return &VRange{inner: r.inner.Clone(), lo: r.lo, hi: r.hi, dir: r.dir}
}
func (r *VRange) Reset() { r.inner.Reset() }
func (r *VRange) Freeze(scope FreezeScope) (string, error) {
	inner, err := r.inner.Freeze(scope)
	if err != nil {
		return "", err
	}
	bounds := fmt.Sprintf("%d,%d", r.lo, r.hi)
	return "vrange:" + frameJoin([]string{bounds, inner}), nil
}
func (r *VRange) PrimitiveSummary() Summary   { return r.inner.PrimitiveSummary() }
func (r *VRange) Beyond(id primitive.ID) bool { return r.inner.Beyond(id) }
func (r *VRange) Direction() Direction        { return r.dir }
func (r *VRange) TypeTag() string             { return "vrange" }
func (r *VRange) Close()                      { r.inner.Close() }
