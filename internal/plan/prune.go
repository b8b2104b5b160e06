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

import "github.com/graphd-project/graphd/internal/constraint"

// patternRequestsContents reports whether patIdx (or any descendant) is a
// KindAggregate(contents) node — the trigger spec §4.5 step 2 keys off.
func patternRequestsContents(req *constraint.Request, patIdx int) bool {
	if patIdx < 0 {
		return false
	}
	p := req.Pattern(patIdx)
	if p.Kind == constraint.KindAggregate && p.Agg == constraint.AggregateContents {
		return true
	}
	for _, c := range p.Children {
		if patternRequestsContents(req, c) {
			return true
		}
	}
	return false
}

// RemoveUnusedResults is pipeline step 2 (spec §4.5): if a constraint's
// parent does not request contents, clear sub-constraints' result patterns,
// transitively.
func RemoveUnusedResults(req *constraint.Request) error {
	return req.Walk(req.Root, func(idx int, c *constraint.Constraint) error {
		if c.Parent < 0 {
			return nil
		}
		parent := req.Constraint(c.Parent)
		if !patternRequestsContents(req, parent.ResultPattern) {
			c.ResultPattern = -1
		}
		return nil
	})
}

// sortDependent reports whether a constraint's result is sort-dependent:
// it samples (wants one representative, order matters for which one wins)
// or feeds an aggregate whose value depends on iteration order.
func sortDependent(req *constraint.Request, patIdx int) bool {
	if patIdx < 0 {
		return false
	}
	p := req.Pattern(patIdx)
	if p.Sample {
		return true
	}
	if p.Kind == constraint.KindAggregate {
		return true
	}
	for _, c := range p.Children {
		if sortDependent(req, c) {
			return true
		}
	}
	return false
}

// RemoveUnusedSorts is pipeline step 3 (spec §4.5): drop sort= on
// constraints whose result is not sort-dependent.
func RemoveUnusedSorts(req *constraint.Request) error {
	return req.Walk(req.Root, func(idx int, c *constraint.Constraint) error {
		if c.SortPattern < 0 {
			return nil
		}
		if !sortDependent(req, c.ResultPattern) {
			c.SortPattern = -1
		}
		return nil
	})
}

// RemoveUnusedDeclarations is pipeline step 8 (spec §4.5): decrement
// linkcounts to a fixpoint, eliminating assignments whose LHS has linkcount
// 0. Operates in rounds because releasing one variable's last reference can
// cascade (its assignment pattern may itself reference other variables).
func RemoveUnusedDeclarations(req *constraint.Request) error {
	for {
		changed := false
		for varIdx, v := range req.Variables {
			if !v.Dead() {
				continue
			}
			for _, c := range req.Constraints {
				if patIdx, ok := c.Assignments[varIdx]; ok {
					releaseVarsIn(req, patIdx)
					delete(c.Assignments, varIdx)
					changed = true
				}
			}
		}
		if !changed {
			return nil
		}
	}
}

func releaseVarsIn(req *constraint.Request, patIdx int) {
	if patIdx < 0 {
		return
	}
	p := req.Pattern(patIdx)
	if p.Kind == constraint.KindVariable {
		req.Variables[p.VarID].Release()
	}
	for _, c := range p.Children {
		releaseVarsIn(req, c)
	}
}

// RemoveUnusedPageSize is pipeline step 11 (spec §4.5): if no per-primitive
// data is produced (no result pattern at all), clamp resultpagesize to 1.
func RemoveUnusedPageSize(req *constraint.Request) error {
	return req.Walk(req.Root, func(idx int, c *constraint.Constraint) error {
		if c.ResultPattern < 0 {
			c.PageSize = 1
		}
		return nil
	})
}
