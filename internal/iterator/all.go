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

// All is the full primitive range [0, high) (spec §4.3: "sorted; cheap
// next, O(1) check").
type All struct {
	low, high primitive.ID
	dir       Direction
	pos       primitive.ID // next candidate to return (forward) or just-below (reverse)
	started   bool
	done      bool
}

// NewAll returns an iterator over [low, high) in the given direction.
func NewAll(low, high primitive.ID, dir Direction) *All {
	return &All{low: low, high: high, dir: dir}
}

func (a *All) Next(b *budget.Budget) (NextResult, error) {
	if b.Charge(budget.CostNext) {
		return suspendResult, nil
	}
	if a.done {
		return doneResult, nil
	}
	if !a.started {
		a.started = true
		if a.dir == Forward {
			a.pos = a.low
		} else {
			a.pos = a.high - 1
		}
	} else if a.dir == Forward {
		a.pos++
	} else {
		a.pos--
	}
	if a.dir == Forward && a.pos >= a.high {
		a.done = true
		return doneResult, nil
	}
	if a.dir == Reverse && (a.pos < a.low || a.pos == primitive.NoID) {
		a.done = true
		return doneResult, nil
	}
	return found(a.pos), nil
}

func (a *All) Find(b *budget.Budget, id primitive.ID) (NextResult, error) {
	if b.Charge(budget.CostFind) {
		return suspendResult, nil
	}
	if a.dir == Forward {
		if id < a.low {
			id = a.low
		}
		if id >= a.high {
			a.done = true
			return doneResult, nil
		}
		a.started = true
		a.pos = id
		return found(a.pos), nil
	}
	if id >= a.high {
		id = a.high - 1
	}
	if id < a.low {
		a.done = true
		return doneResult, nil
	}
	a.started = true
	a.pos = id
	return found(a.pos), nil
}

func (a *All) Check(b *budget.Budget, id primitive.ID) (CheckOutcome, error) {
	if b.Charge(budget.CostCheck) {
		return CheckSuspend, nil
	}
	if id >= a.low && id < a.high {
		return Yes, nil
	}
	return No, nil
}

func (a *All) Statistics(b *budget.Budget) (Stats, bool, error) {
	return Stats{
		N:         uint64(a.high - a.low),
		CheckCost: 1,
		NextCost:  1,
		FindCost:  1,
		Sorted:    true,
		Direction: a.dir,
		Done:      true,
	}, true, nil
}

func (a *All) Clone() Iterator {
	c := *a
	return &c
}

func (a *All) Reset() {
	a.started = false
	a.done = false
}

func (a *All) Freeze(scope FreezeScope) (string, error) {
	return fmt.Sprintf("all:%d,%d/%d,%v", a.low, a.high, a.pos, a.started), nil
}

func (a *All) PrimitiveSummary() Summary {
	return Summary{Complete: false}
}

func (a *All) Beyond(id primitive.ID) bool {
	if !a.started {
		return false
	}
	if a.dir == Forward {
		return id < a.pos
	}
	return id > a.pos
}

func (a *All) Direction() Direction { return a.dir }
func (a *All) TypeTag() string      { return "all" }
func (a *All) Close()               {}

// Null is the always-empty iterator (spec §4.3 "null: empty").
type Null struct{ dir Direction }

func NewNull() *Null { return &Null{} }

func (n *Null) Next(b *budget.Budget) (NextResult, error)             { return doneResult, nil }
func (n *Null) Find(b *budget.Budget, id primitive.ID) (NextResult, error) { return doneResult, nil }
func (n *Null) Check(b *budget.Budget, id primitive.ID) (CheckOutcome, error) {
	return No, nil
}
func (n *Null) Statistics(b *budget.Budget) (Stats, bool, error) {
	return Stats{Sorted: true, Done: true}, true, nil
}
func (n *Null) Clone() Iterator                     { return &Null{dir: n.dir} }
func (n *Null) Reset()                              {}
func (n *Null) Freeze(scope FreezeScope) (string, error) { return "null:", nil }
func (n *Null) PrimitiveSummary() Summary           { return Summary{Complete: true} }
func (n *Null) Beyond(id primitive.ID) bool         { return true }
func (n *Null) Direction() Direction                { return n.dir }
func (n *Null) TypeTag() string                     { return "null" }
func (n *Null) Close()                              {}
