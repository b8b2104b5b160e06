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

// Package plan implements the variable analysis & planning pipeline of spec
// §4.5 (11 named steps applied once per parsed request) and the cost-based
// iterator-shape planner of spec §4.3.
package plan

import "github.com/graphd-project/graphd/internal/constraint"

// PatternOwners maps every pattern arena index reachable from req's
// constraint tree to the constraint that owns it (the constraint whose
// ResultPattern, SortPattern, or an Assignment's RHS the pattern is, or an
// ancestor thereof for nested list/pick children). Several of the pipeline
// steps need "which constraint does this variable reference belong to" and
// the arena stores only the reverse link (constraint -> pattern), so this
// walks the tree once and builds the map the steps share.
func PatternOwners(req *constraint.Request) map[int]int {
	owners := make(map[int]int)
	var mark func(patIdx, constraintIdx int)
	mark = func(patIdx, constraintIdx int) {
		if patIdx < 0 {
			return
		}
		if _, ok := owners[patIdx]; ok {
			return
		}
		owners[patIdx] = constraintIdx
		p := req.Pattern(patIdx)
		for _, c := range p.Children {
			mark(c, constraintIdx)
		}
	}
	_ = req.Walk(req.Root, func(idx int, c *constraint.Constraint) error {
		mark(c.ResultPattern, idx)
		mark(c.SortPattern, idx)
		for _, patIdx := range c.Assignments {
			mark(patIdx, idx)
		}
		return nil
	})
	return owners
}

// VariableUses returns, for each variable arena index, the set of
// constraint indices whose pattern tree references it (a KindVariable node
// with that VarID), derived from owners.
func VariableUses(req *constraint.Request, owners map[int]int) map[int][]int {
	uses := make(map[int][]int)
	for patIdx, p := range req.Patterns {
		if p.Kind != constraint.KindVariable {
			continue
		}
		c, ok := owners[patIdx]
		if !ok {
			continue
		}
		uses[p.VarID] = append(uses[p.VarID], c)
	}
	return uses
}

// Ancestors returns the chain of constraint indices from idx up to the
// request root, inclusive: [idx, parent(idx), ..., root].
func Ancestors(req *constraint.Request, idx int) []int {
	var chain []int
	for idx >= 0 {
		chain = append(chain, idx)
		idx = req.Constraint(idx).Parent
	}
	return chain
}
