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
	"github.com/graphd-project/graphd/internal/primitive"
)

// Or unions N sub-iterators, each independently advanced and merged by a
// k-way sorted merge with duplicate suppression (spec §4.3 "or"). Subs are
// expected to share direction; Next always returns the smallest (Forward)
// or largest (Reverse) pending candidate across subs not yet exhausted.
type Or struct {
	subs     []Iterator
	dir      Direction
	pending  []NextResult // one slot per sub: cached look-ahead value
	have     []bool
	lastID   primitive.ID
	lastSeen bool
}

// NewOr builds a union over subs, which must all share dir.
func NewOr(subs []Iterator, dir Direction) *Or {
	return &Or{
		subs:    subs,
		dir:     dir,
		pending: make([]NextResult, len(subs)),
		have:    make([]bool, len(subs)),
	}
}

func (o *Or) fill(b *budget.Budget, i int) (bool, error) {
	if o.have[i] {
		return true, nil
	}
	res, err := o.subs[i].Next(b)
	if err != nil {
		return false, err
	}
	switch res.Outcome {
	case Suspend:
		return false, nil
	case Done:
		o.have[i] = false
		return true, nil // "filled" with nothing further to offer
	}
	o.pending[i] = res
	o.have[i] = true
	return true, nil
}

func (o *Or) best() (int, bool) {
	best := -1
	for i := range o.subs {
		if !o.have[i] || o.pending[i].Outcome != Found {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		if o.dir == Forward {
			if o.pending[i].ID < o.pending[best].ID {
				best = i
			}
		} else if o.pending[i].ID > o.pending[best].ID {
			best = i
		}
	}
	return best, best != -1
}

func (o *Or) Next(b *budget.Budget) (NextResult, error) {
	for {
		allFilled := true
		for i := range o.subs {
			ok, err := o.fill(b, i)
			if err != nil {
				return NextResult{}, err
			}
			if !ok {
				allFilled = false
			}
		}
		if !allFilled {
			return suspendResult, nil
		}
		idx, ok := o.best()
		if !ok {
			return doneResult, nil
		}
		id := o.pending[idx].ID
		// Consume this value from every sub currently parked on it
		// (duplicate suppression across subs).
		for i := range o.subs {
			if o.have[i] && o.pending[i].Outcome == Found && o.pending[i].ID == id {
				o.have[i] = false
			}
		}
		if o.lastSeen && id == o.lastID {
			continue
		}
		o.lastID = id
		o.lastSeen = true
		return found(id), nil
	}
}

func (o *Or) Find(b *budget.Budget, id primitive.ID) (NextResult, error) {
	for i, s := range o.subs {
		res, err := s.Find(b, id)
		if err != nil {
			return NextResult{}, err
		}
		if res.Outcome == Suspend {
			return suspendResult, nil
		}
		if res.Outcome == Found {
			o.pending[i] = res
			o.have[i] = true
		} else {
			o.have[i] = false
		}
	}
	idx, ok := o.best()
	if !ok {
		return doneResult, nil
	}
	got := o.pending[idx].ID
	for i := range o.subs {
		if o.have[i] && o.pending[i].Outcome == Found && o.pending[i].ID == got {
			o.have[i] = false
		}
	}
	o.lastID = got
	o.lastSeen = true
	return found(got), nil
}

// Check probes subs in listed order (they are not reordered by cost) and
// the first Yes short-circuits.
func (o *Or) Check(b *budget.Budget, id primitive.ID) (CheckOutcome, error) {
	anySuspend := false
	for _, s := range o.subs {
		outcome, err := s.Check(b, id)
		if err != nil {
			return No, err
		}
		switch outcome {
		case Yes:
			return Yes, nil
		case CheckSuspend:
			anySuspend = true
		}
	}
	if anySuspend {
		return CheckSuspend, nil
	}
	return No, nil
}

// Statistics reports Sorted true only when every sub is itself sorted in
// o.dir: best() merges by comparing each sub's current head, which yields a
// globally sorted stream only if each head advances in order. An Or with even
// one unsorted sub (e.g. a heterogeneous mix of producers) is not sorted
// overall, even though every individual Next call still returns distinct ids.
func (o *Or) Statistics(b *budget.Budget) (Stats, bool, error) {
	var total uint64
	allDone := true
	sorted := true
	for _, s := range o.subs {
		st, done, err := s.Statistics(b)
		if err != nil {
			return Stats{}, false, err
		}
		if !done {
			allDone = false
		}
		total += st.N
		if !st.Sorted || st.Direction != o.dir {
			sorted = false
		}
	}
	return Stats{N: total, Sorted: sorted, Direction: o.dir}, allDone, nil
}

func (o *Or) Clone() Iterator {
	clones := make([]Iterator, len(o.subs))
	for i, s := range o.subs {
		clones[i] = s.Clone()
	}
	return NewOr(clones, o.dir)
}

func (o *Or) Reset() {
	for _, s := range o.subs {
		s.Reset()
	}
	for i := range o.have {
		o.have[i] = false
	}
	o.lastSeen = false
}

// Freeze carries the cross-sub dedup state (lastID/lastSeen) as its first
// frame, then for each sub a "<have>,<pendingID>" frame ahead of the sub's
// own cursor. The pending frame matters because fill already called Next on
// a sub to cache its look-ahead value before Or decided which sub won the
// round: that value is consumed from the sub's own position but not yet
// returned to Or's caller, so without it thaw would silently skip it (the
// sub's own Freeze only knows it already yielded that id, not that Or is
// still holding it unread).
func (o *Or) Freeze(scope FreezeScope) (string, error) {
	parts := make([]string, 0, len(o.subs)*2+1)
	parts = append(parts, fmt.Sprintf("%d,%v", o.lastID, o.lastSeen))
	for i, s := range o.subs {
		sub, err := s.Freeze(scope)
		if err != nil {
			return "", err
		}
		pend := "0,0"
		if o.have[i] && o.pending[i].Outcome == Found {
			pend = fmt.Sprintf("1,%d", o.pending[i].ID)
		}
		parts = append(parts, pend, sub)
	}
	return "or:" + frameJoin(parts), nil
}

func (o *Or) PrimitiveSummary() Summary { return Summary{Complete: false} }

func (o *Or) Beyond(id primitive.ID) bool {
	for _, s := range o.subs {
		if !s.Beyond(id) {
			return false
		}
	}
	return true
}

func (o *Or) Direction() Direction { return o.dir }
func (o *Or) TypeTag() string      { return "or" }

func (o *Or) Close() {
	for _, s := range o.subs {
		s.Close()
	}
}
