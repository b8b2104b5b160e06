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

package store

import (
	"context"

	"github.com/graphd-project/graphd/internal/budget"
	"github.com/graphd-project/graphd/internal/constraint"
	"github.com/graphd-project/graphd/internal/exec"
	"github.com/graphd-project/graphd/internal/iterator"
	"github.com/graphd-project/graphd/internal/plan"
)

// Run plans and drives req to completion, a page boundary, or budget
// exhaustion, the end-to-end path spec §2's data-flow diagram describes:
// "parsed constraint tree -> variable analysis rewrites it -> planner
// picks iterator shapes -> execution ... streams the aggregated value
// tree to the formatter". dateline, if nonzero, is the checkpoint the
// read's snapshot depends on; the reply is held until it is stable (spec
// §5). cursor, if non-empty, is a prior call's Outcome.Cursor: the root
// constraint resumes from it instead of starting its producer over (spec
// §8 scenario 5, "cursor resume").
func (s *Store) Run(ctx context.Context, req *constraint.Request, dir iterator.Direction, budgetUnits int, dateline int64, cursor string) (exec.Outcome, error) {
	if dateline > 0 {
		if err := s.checkpoint.WaitStable(ctx, dateline); err != nil {
			return exec.Outcome{}, err
		}
	}
	if err := plan.Run(req); err != nil {
		return exec.Outcome{}, err
	}
	if err := exec.Prepare(req, s, dir); err != nil {
		return exec.Outcome{}, err
	}
	if cursor != "" {
		if err := exec.ResumeRoot(req, iterator.NewDefaultRegistry(dir), cursor); err != nil {
			return exec.Outcome{}, err
		}
	}
	return exec.Run(req, s, budget.New(budgetUnits), dir)
}
