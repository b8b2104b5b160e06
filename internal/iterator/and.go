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
	"strconv"

	"github.com/graphd-project/graphd/internal/budget"
	"github.com/graphd-project/graphd/internal/primitive"
)

// And intersects N sub-iterators: one producer drives Next, the rest check
// each candidate (spec §4.3 "compute cost as a producer; pick the minimum;
// reshuffle others as checkers"). The producer is the sub NewAnd was given
// and stays fixed for the iterator's lifetime (Statistics does not re-select
// it), which keeps Beyond/Freeze coherent.
type And struct {
	subs     []Iterator
	producer int
	dir      Direction
	done     bool
}

// NewAnd builds an intersection. producerIdx selects which sub drives Next;
// the planner (spec §4.3 step 3) is expected to have already chosen it by
// comparing Statistics across subs.
func NewAnd(subs []Iterator, producerIdx int, dir Direction) *And {
	return &And{subs: subs, producer: producerIdx, dir: dir}
}

func (a *And) checkAll(b *budget.Budget, id primitive.ID, skip int) (CheckOutcome, error) {
	for i, s := range a.subs {
		if i == skip {
			continue
		}
		outcome, err := s.Check(b, id)
		if err != nil {
			return No, err
		}
		if outcome != Yes {
			return outcome, nil
		}
	}
	return Yes, nil
}

func (a *And) Next(b *budget.Budget) (NextResult, error) {
	if a.done {
		return doneResult, nil
	}
	prod := a.subs[a.producer]
	for {
		res, err := prod.Next(b)
		if err != nil {
			return NextResult{}, err
		}
		switch res.Outcome {
		case Suspend:
			return suspendResult, nil
		case Done:
			a.done = true
			return doneResult, nil
		}
		outcome, err := a.checkAll(b, res.ID, a.producer)
		if err != nil {
			return NextResult{}, err
		}
		switch outcome {
		case Yes:
			return found(res.ID), nil
		case CheckSuspend:
			return suspendResult, nil
		}
		if b.Exhausted() {
			return suspendResult, nil
		}
	}
}

func (a *And) Find(b *budget.Budget, id primitive.ID) (NextResult, error) {
	if a.done {
		return doneResult, nil
	}
	prod := a.subs[a.producer]
	res, err := prod.Find(b, id)
	if err != nil {
		return NextResult{}, err
	}
	for {
		switch res.Outcome {
		case Suspend:
			return suspendResult, nil
		case Done:
			a.done = true
			return doneResult, nil
		}
		outcome, err := a.checkAll(b, res.ID, a.producer)
		if err != nil {
			return NextResult{}, err
		}
		switch outcome {
		case Yes:
			return found(res.ID), nil
		case CheckSuspend:
			return suspendResult, nil
		}
		if b.Exhausted() {
			return suspendResult, nil
		}
		res, err = prod.Next(b)
		if err != nil {
			return NextResult{}, err
		}
	}
}

func (a *And) Check(b *budget.Budget, id primitive.ID) (CheckOutcome, error) {
	return a.checkAll(b, id, -1)
}

// Statistics reports N as the smallest sub's estimate (for the planner's
// cost comparisons) but Sorted/Direction from a.subs[a.producer] specifically,
// since Next only ever walks that one sub — the output order is whatever the
// producer's order is, regardless of which sub happens to be cheapest.
func (a *And) Statistics(b *budget.Budget) (Stats, bool, error) {
	min := Stats{N: ^uint64(0)}
	allDone := true
	var prodStats Stats
	for i, s := range a.subs {
		st, done, err := s.Statistics(b)
		if err != nil {
			return Stats{}, false, err
		}
		if !done {
			allDone = false
		}
		if st.N < min.N {
			min = st
		}
		if i == a.producer {
			prodStats = st
		}
	}
	min.Sorted = prodStats.Sorted
	min.Direction = prodStats.Direction
	return min, allDone, nil
}

func (a *And) Clone() Iterator {
	clones := make([]Iterator, len(a.subs))
	for i, s := range a.subs {
		clones[i] = s.Clone()
	}
	return &And{subs: clones, producer: a.producer, dir: a.dir}
}

func (a *And) Reset() {
	for _, s := range a.subs {
		s.Reset()
	}
	a.done = false
}

func (a *And) Freeze(scope FreezeScope) (string, error) {
	parts := make([]string, 0, len(a.subs)+1)
	parts = append(parts, strconv.Itoa(a.producer))
	for _, s := range a.subs {
		sub, err := s.Freeze(scope)
		if err != nil {
			return "", err
		}
		parts = append(parts, sub)
	}
	return "and:" + frameJoin(parts), nil
}

func (a *And) PrimitiveSummary() Summary {
	locked := map[primitive.Linkage]primitive.ID{}
	for _, s := range a.subs {
		sum := s.PrimitiveSummary()
		for k, v := range sum.LockedLinkages {
			locked[k] = v
		}
	}
	return Summary{LockedLinkages: locked, Complete: false}
}

func (a *And) Beyond(id primitive.ID) bool {
	return a.subs[a.producer].Beyond(id)
}

func (a *And) Direction() Direction { return a.dir }
func (a *And) TypeTag() string      { return "and" }

func (a *And) Close() {
	for _, s := range a.subs {
		s.Close()
	}
}
