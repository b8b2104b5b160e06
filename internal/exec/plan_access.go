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

package exec

import (
	"github.com/graphd-project/graphd/internal/constraint"
	"github.com/graphd-project/graphd/internal/plan"
)

// branchPlan resolves a constraint's compiled ConstraintPlan without
// panicking on an unplanned constraint (an or-branch that shares its
// parent's iterator entirely and was never separately planned).
func branchPlan(c *constraint.Constraint) (*plan.ConstraintPlan, bool) {
	cp, ok := c.Plan.(*plan.ConstraintPlan)
	return cp, ok
}
