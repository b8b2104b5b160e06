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

// Infer is pipeline step 1 (spec §4.5): propagate variable declarations
// upward so a variable used above its declaration gains a chain of
// implicit pass-through assignments, and for or-branches create
// pick-assignments in the prototype (spec §4.4's "the prototype gains a
// pick($v[or#1], $v[or#2], …) assignment to the original $v").
func Infer(req *constraint.Request) error {
	owners := PatternOwners(req)
	uses := VariableUses(req, owners)

	for varIdx, v := range req.Variables {
		for _, useConstraint := range uses[varIdx] {
			if err := passThroughTo(req, varIdx, v.Owner, useConstraint); err != nil {
				return err
			}
		}
	}
	return pickAssignOrBranches(req)
}

// passThroughTo ensures every constraint strictly between owner and
// useConstraint (exclusive of owner, inclusive of useConstraint) carries an
// Assignment entry for varIdx, chaining a reference up the tree one level
// at a time.
func passThroughTo(req *constraint.Request, varIdx, owner, useConstraint int) error {
	chain := Ancestors(req, useConstraint)
	// chain is [useConstraint, ..., root]; keep the prefix down to (but not
	// including) owner.
	var toFill []int
	for _, idx := range chain {
		if idx == owner {
			break
		}
		toFill = append(toFill, idx)
	}
	for _, idx := range toFill {
		c := req.Constraint(idx)
		if _, ok := c.Assignments[varIdx]; ok {
			continue
		}
		refPattern := newVarRefPattern(varIdx)
		ref := req.AddPattern(&refPattern)
		c.Assignments[varIdx] = ref
		req.Variables[varIdx].Retain()
	}
	return nil
}

// newVarRefPattern builds the pass-through pattern node for varID: a plain
// variable reference with no sort/sample/collect flags of its own.
func newVarRefPattern(varID int) constraint.Pattern {
	return constraint.Pattern{Kind: constraint.KindVariable, VarID: varID, OrIndex: -1}
}

// pickAssignOrBranches implements spec §4.4's or-branch variable rewrite:
// if a branch assigns $v, the prototype gains a pick($v[or#1], ...)
// assignment back to $v. Branches already route their assignments through
// Constraint.Assignments, so this walks each OrGroup and, for every
// variable assigned in the head or tail, builds (or extends) a KindPick
// pattern on the prototype.
func pickAssignOrBranches(req *constraint.Request) error {
	for _, g := range req.OrGroups {
		proto := req.Constraint(g.Prototype)
		branches := []int{g.Head}
		if g.HasTail {
			branches = append(branches, g.Tail)
		}
		seen := map[int]bool{}
		for _, b := range branches {
			bc := req.Constraint(b)
			for varIdx := range bc.Assignments {
				if seen[varIdx] {
					continue
				}
				seen[varIdx] = true
				if _, already := proto.Assignments[varIdx]; already {
					continue
				}
				var alts []int
				for _, b2 := range branches {
					bc2 := req.Constraint(b2)
					if patIdx, ok := bc2.Assignments[varIdx]; ok {
						alts = append(alts, patIdx)
					} else {
						alts = append(alts, -1)
					}
				}
				pick := &constraint.Pattern{Kind: constraint.KindPick, Children: alts, OrIndex: -1}
				pickIdx := req.AddPattern(pick)
				proto.Assignments[varIdx] = pickIdx
				req.Variables[varIdx].Retain()
			}
		}
	}
	return nil
}
