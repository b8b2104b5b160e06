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

// Package idarray provides the uniform sorted-sequence view the iterator
// layer uses over any GMAP backend (spec §2 "ID array" row, §3.3). Whatever
// physical representation a GMAP key currently has, callers see the same
// Array interface: length, random access, and binary search.
package idarray

import "github.com/graphd-project/graphd/internal/primitive"

// Array is a strictly ascending, duplicate-free sequence of IDs.
type Array interface {
	Len() int
	At(i int) primitive.ID
	// Find returns the index of the smallest element >= id (forward) and
	// whether it equals id exactly. If no such element exists, returns
	// (Len(), false).
	Find(id primitive.ID) (index int, exact bool)
}

// Slice adapts a plain, already-sorted []primitive.ID to Array.
type Slice []primitive.ID

func (s Slice) Len() int { return len(s) }

func (s Slice) At(i int) primitive.ID { return s[i] }

func (s Slice) Find(id primitive.ID) (int, bool) {
	lo, hi := 0, len(s)
	for lo < hi {
		mid := (lo + hi) / 2
		if s[mid] < id {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, lo < len(s) && s[lo] == id
}

// Intersect computes sort(unique(a ∩ b)) using the recursive divide-and-
// conquer algorithm of spec §4.3: recurse on the smaller array's midpoint
// against the larger array's matching span, tail-calling into the larger
// remainder. Both a and b must already be ascending and duplicate-free.
func Intersect(a, b Array) []primitive.ID {
	var out []primitive.ID
	intersectInto(&out, a, 0, a.Len(), b, 0, b.Len())
	return out
}

func intersectInto(out *[]primitive.ID, a Array, aLo, aHi int, b Array, bLo, bHi int) {
	for aLo < aHi && bLo < bHi {
		aLen := aHi - aLo
		bLen := bHi - bLo
		if aLen > bLen {
			a, aLo, aHi, b, bLo, bHi = b, bLo, bHi, a, aLo, aHi
			continue
		}
		mid := aLo + aLen/2
		pivot := a.At(mid)
		bIdx, exact := findWithin(b, bLo, bHi, pivot)
		if exact {
			intersectInto(out, a, aLo, mid, b, bLo, bIdx)
			*out = append(*out, pivot)
			aLo, bLo = mid+1, bIdx+1
			continue
		}
		intersectInto(out, a, aLo, mid, b, bLo, bIdx)
		aLo, bLo = mid+1, bIdx
	}
}

func findWithin(a Array, lo, hi int, id primitive.ID) (int, bool) {
	origHi := hi
	for lo < hi {
		mid := (lo + hi) / 2
		if a.At(mid) < id {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, lo < origHi && a.At(lo) == id
}
