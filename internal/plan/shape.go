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

package plan

import (
	"sort"

	"github.com/graphd-project/graphd/internal/budget"
	"github.com/graphd-project/graphd/internal/constraint"
	"github.com/graphd-project/graphd/internal/idarray"
	"github.com/graphd-project/graphd/internal/iterator"
	"github.com/graphd-project/graphd/internal/primitive"
)

// FastIntersectMax is the default fast-path threshold (spec §4.3 step 5,
// §9's GRAPHD_ITERATOR_FIXED_FAST_INTERSECT_MAX): when both operands of an
// intersection have a known ID array at most this large, materialize the
// intersection as a fixed iterator directly rather than building an And.
const FastIntersectMax = 1 << 15

// Catalog resolves the raw index sources a Predicate names into
// iterators. A live server backs this with its open gmap.Maps; tests can
// supply a stub.
type Catalog interface {
	// LinkGUID returns the iterator over primitives whose linkage field
	// equals the primitive identified by guidHex.
	LinkGUID(linkage primitive.Linkage, guidHex string, dir iterator.Direction) (iterator.Iterator, error)
	// Vip returns the composite linkage+typeguid iterator, or
	// (nil, false, nil) if the catalog has no such composite index (the
	// caller falls back to intersecting the two plain indices instead).
	Vip(linkage primitive.Linkage, guidHex string, typeguidHex string, dir iterator.Direction) (iterator.Iterator, bool, error)
	// All returns the full primitive-ID range iterator.
	All(dir iterator.Direction) (iterator.Iterator, error)
}

// ConstraintPlan is the opaque payload stashed in Constraint.Plan: the
// compiled iterator for this constraint plus its precomputed pattern-frame
// (spec §3.4 "planning-time caches").
type ConstraintPlan struct {
	Iter        iterator.Iterator
	ProducerIdx int
	Frame       *Frame
}

func constraintPlanOf(c *constraint.Constraint) *ConstraintPlan {
	if cp, ok := c.Plan.(*ConstraintPlan); ok {
		return cp
	}
	cp := &ConstraintPlan{}
	c.Plan = cp
	return cp
}

// BuildIteratorShape is spec §4.3 steps 1-5 for a single constraint:
//  1. build a candidate And from the constraint's atomic predicates,
//  2-3. compute each sub's cost as a producer, pick the minimum, reshuffle
//       the rest as checkers (resolved here via Statistics().N, ties broken
//       sorted > unsorted then smaller n > larger, per spec §4.3 step 3),
//  4. rewrite to vip when both a linkage and a typeguid are pinned and the
//     catalog exposes a composite index for them,
//  5. fast-path: if both of two operands have a known array <= FastIntersectMax,
//     materialize the intersection as a fixed iterator directly.
func BuildIteratorShape(req *constraint.Request, c *constraint.Constraint, cat Catalog, dir iterator.Direction) error {
	subs, err := atomicIterators(c, cat, dir)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		all, err := cat.All(dir)
		if err != nil {
			return err
		}
		subs = []iterator.Iterator{all}
	}

	if rewritten, ok, err := tryVipRewrite(c, cat, dir); err != nil {
		return err
	} else if ok {
		subs = []iterator.Iterator{rewritten}
	}

	it, producerIdx, err := combine(subs, dir)
	if err != nil {
		return err
	}

	if c.SortRoot || c.SortPattern >= 0 {
		it, err = ensureSorted(it, dir)
		if err != nil {
			return err
		}
	}

	plan := constraintPlanOf(c)
	plan.Iter = it
	plan.ProducerIdx = producerIdx
	return nil
}

// ensureSorted wraps it in a Sort when its natural order doesn't already
// satisfy dir (spec §4.6: "when sort is not free from the iterator's
// natural order, a sort wrapper is inserted"). Statistics is the planner's
// only signal for this; it's non-consuming for every producer shape combine
// can hand back (And/Or report Sorted/Direction from their actual driving
// sub, not unconditionally — see their Statistics doc comments).
func ensureSorted(it iterator.Iterator, dir iterator.Direction) (iterator.Iterator, error) {
	st, _, err := it.Statistics(budget.New(1 << 20))
	if err != nil {
		return nil, err
	}
	if st.Sorted && st.Direction == dir {
		return it, nil
	}
	return iterator.NewSort(it, dir), nil
}

func atomicIterators(c *constraint.Constraint, cat Catalog, dir iterator.Direction) ([]iterator.Iterator, error) {
	var subs []iterator.Iterator
	linkages := sortedLinkageKeys(c.Predicate.LinkGUIDs)
	for _, l := range linkages {
		it, err := cat.LinkGUID(primitive.Linkage(l), c.Predicate.LinkGUIDs[l], dir)
		if err != nil {
			return nil, err
		}
		subs = append(subs, it)
	}
	return subs, nil
}

func sortedLinkageKeys(m map[int]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// tryVipRewrite implements step 4: when exactly one linkage and a typeguid
// are both pinned, ask the catalog for a composite vip index.
func tryVipRewrite(c *constraint.Constraint, cat Catalog, dir iterator.Direction) (iterator.Iterator, bool, error) {
	typeguid, hasType := c.Predicate.LinkGUIDs[int(primitive.LinkageTypeguid)]
	if !hasType || len(c.Predicate.LinkGUIDs) != 2 {
		return nil, false, nil
	}
	for l, guid := range c.Predicate.LinkGUIDs {
		if l == int(primitive.LinkageTypeguid) {
			continue
		}
		it, ok, err := cat.Vip(primitive.Linkage(l), guid, typeguid, dir)
		if err != nil || !ok {
			return nil, ok, err
		}
		return it, true, nil
	}
	return nil, false, nil
}

// combine performs steps 2/3/5: pick the cheapest sub as producer, fast-path
// a two-operand small intersection into a materialized Fixed, otherwise
// build an And.
func combine(subs []iterator.Iterator, dir iterator.Direction) (iterator.Iterator, int, error) {
	if len(subs) == 1 {
		return subs[0], 0, nil
	}

	b := budget.New(1 << 20)
	stats := make([]iterator.Stats, len(subs))
	for i, s := range subs {
		st, _, err := s.Statistics(b)
		if err != nil {
			return nil, 0, err
		}
		stats[i] = st
	}

	if len(subs) == 2 && stats[0].N <= FastIntersectMax && stats[1].N <= FastIntersectMax {
		a := drainSorted(subs[0], b)
		bb := drainSorted(subs[1], b)
		merged := idarray.Intersect(idarray.Slice(a), idarray.Slice(bb))
		return iterator.NewFixed(merged, dir), 0, nil
	}

	producer := cheapestProducer(stats)
	return iterator.NewAnd(subs, producer, dir), producer, nil
}

func drainSorted(it iterator.Iterator, b *budget.Budget) []primitive.ID {
	var out []primitive.ID
	for {
		res, err := it.Next(b)
		if err != nil || res.Outcome != iterator.Found {
			break
		}
		out = append(out, res.ID)
	}
	it.Reset()
	return out
}

// cheapestProducer picks the sub with the smallest N, resolving ties
// sorted > unsorted (spec §4.3 step 3).
func cheapestProducer(stats []iterator.Stats) int {
	best := 0
	for i := 1; i < len(stats); i++ {
		if better(stats[i], stats[best]) {
			best = i
		}
	}
	return best
}

func better(a, b iterator.Stats) bool {
	if a.N != b.N {
		return a.N < b.N
	}
	return a.Sorted && !b.Sorted
}
