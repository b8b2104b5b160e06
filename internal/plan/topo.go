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
	"fmt"

	"github.com/graphd-project/graphd/internal/constraint"
)

// ErrAssignmentCycle is returned by TopoSortAssignments when two variables'
// assignments depend on each other.
var ErrAssignmentCycle = fmt.Errorf("constraint: variable assignment cycle")

// TopoSortAssignments is pipeline step 9 (spec §4.5): order every
// constraint's variable assignments so each is bound before any assignment
// that reads it, via plain depth-first topological sort over the
// variable-reference dependency graph, and rewrites
// Constraint.AssignmentOrder to record it.
func TopoSortAssignments(req *constraint.Request) error {
	order := make(map[int][]int, len(req.Constraints))
	for ci, c := range req.Constraints {
		sorted, err := topoSortOne(req, c)
		if err != nil {
			return fmt.Errorf("constraint %d: %w", ci, err)
		}
		order[ci] = sorted
	}
	for ci, c := range req.Constraints {
		c.AssignmentOrder = order[ci]
	}
	return nil
}

func topoSortOne(req *constraint.Request, c *constraint.Constraint) ([]int, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[int]int, len(c.Assignments))
	var out []int
	var visit func(varIdx int) error
	visit = func(varIdx int) error {
		switch color[varIdx] {
		case black:
			return nil
		case gray:
			return ErrAssignmentCycle
		}
		color[varIdx] = gray
		if patIdx, ok := c.Assignments[varIdx]; ok {
			for _, dep := range varRefsIn(req, patIdx) {
				if _, owned := c.Assignments[dep]; owned {
					if err := visit(dep); err != nil {
						return err
					}
				}
			}
		}
		color[varIdx] = black
		out = append(out, varIdx)
		return nil
	}
	for varIdx := range c.Assignments {
		if err := visit(varIdx); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func varRefsIn(req *constraint.Request, patIdx int) []int {
	if patIdx < 0 {
		return nil
	}
	p := req.Pattern(patIdx)
	var out []int
	if p.Kind == constraint.KindVariable {
		out = append(out, p.VarID)
	}
	for _, c := range p.Children {
		out = append(out, varRefsIn(req, c)...)
	}
	return out
}
