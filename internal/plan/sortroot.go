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

// MarkSortRoots is pipeline step 5 (spec §4.5): annotate the constraint
// whose ordering determines an outer result's order, promoting the
// sort-root mark upward through constraints whose own order is inherited
// entirely from a single sorted child (no intervening or-group, no
// sampling) rather than computed independently.
func MarkSortRoots(req *constraint.Request) error {
	return req.Walk(req.Root, func(idx int, c *constraint.Constraint) error {
		if c.SortPattern < 0 {
			return nil
		}
		c.SortRoot = true
		promoteSortRoot(req, c.Parent, idx)
		return nil
	})
}

// promoteSortRoot walks upward from child through single-child ancestors
// (no or-group, no sibling sub-constraints, no sort of their own already
// decided) marking them SortRoot too, since their output order is entirely
// determined by child's.
func promoteSortRoot(req *constraint.Request, parent, child int) {
	for parent >= 0 {
		p := req.Constraint(parent)
		if p.OrGroup >= 0 || len(p.Sub) != 1 || p.SortPattern >= 0 {
			return
		}
		p.SortRoot = true
		child = parent
		parent = p.Parent
	}
}
