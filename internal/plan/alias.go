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

// ResolveAliases is pipeline steps 4 and 6 (spec §4.5): replace $x
// references where $x = $y with $y, to the fixpoint. A variable is an
// alias of another when its sole assignment, wherever it appears, is a
// bare KindVariable reference to that other variable.
func ResolveAliases(req *constraint.Request) error {
	for varIdx, v := range req.Variables {
		sole := soleAssignmentTarget(req, varIdx)
		if sole < 0 {
			continue
		}
		p := req.Pattern(sole)
		if p.Kind == constraint.KindVariable && p.VarID != varIdx {
			v.Alias = p.VarID
		}
	}
	// Rewrite every remaining KindVariable pattern to point at its
	// fully-resolved target.
	for _, p := range req.Patterns {
		if p.Kind != constraint.KindVariable {
			continue
		}
		resolved, err := constraint.ResolveAlias(p.VarID, req.Variables)
		if err != nil {
			return err
		}
		p.VarID = resolved
	}
	return nil
}

// soleAssignmentTarget returns the pattern index of varIdx's one and only
// assignment site across the whole request, or -1 if it has zero or more
// than one (aliasing only applies to a variable with exactly one binding).
func soleAssignmentTarget(req *constraint.Request, varIdx int) int {
	found := -1
	for _, c := range req.Constraints {
		if patIdx, ok := c.Assignments[varIdx]; ok {
			if found >= 0 && found != patIdx {
				return -1
			}
			found = patIdx
		}
	}
	return found
}
