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

package constraint

// Variable is a per-constraint named binding site for a value computed at
// that constraint (spec §3.6). LinkCount tracks how many patterns
// reference it; planning decrements it to a fixpoint and drops assignments
// whose LHS reaches zero (spec §4.5 step 8).
type Variable struct {
	Name       string
	Owner      int // arena index into Request.Constraints
	LinkCount  int
	Slot       int // local slot index, assigned at planning (step 10)
	Assignment int // arena index into Request.Patterns computing this var's value, -1 if none yet

	// Alias, when >= 0, means this variable has been rewritten to refer to
	// another variable's slot (spec §4.5 steps 4/6, "resolve-aliases").
	Alias int
}

// NewVariable returns a Variable with no assignment or alias yet.
func NewVariable(name string, owner int) *Variable {
	return &Variable{Name: name, Owner: owner, Assignment: -1, Alias: -1, Slot: -1}
}

// Retain increments LinkCount, recording one more pattern reference.
func (v *Variable) Retain() { v.LinkCount++ }

// Release decrements LinkCount, used when a pattern referencing v is
// removed (spec §4.5 step 8). Never goes negative.
func (v *Variable) Release() {
	if v.LinkCount > 0 {
		v.LinkCount--
	}
}

// Dead reports whether v has no remaining references and should be
// eliminated (spec §4.5 step 8 fixpoint).
func (v *Variable) Dead() bool { return v.LinkCount == 0 }

// ResolveAlias follows the Alias chain to the final, non-aliased variable
// index, protecting against (and erroring on) a cycle.
func ResolveAlias(idx int, vars []*Variable) (int, error) {
	seen := map[int]struct{}{}
	for {
		if _, ok := seen[idx]; ok {
			return 0, errAliasCycle
		}
		seen[idx] = struct{}{}
		v := vars[idx]
		if v.Alias < 0 {
			return idx, nil
		}
		idx = v.Alias
	}
}

var errAliasCycle = aliasCycleError("constraint: variable alias cycle")

type aliasCycleError string

func (e aliasCycleError) Error() string { return string(e) }
