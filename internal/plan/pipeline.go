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

// Run executes the variable analysis & planning pipeline of spec §4.5: the
// 11 named steps, in order, once per parsed request. Any rule violation is
// returned wrapped as "SEMANTICS ...", matching spec §4.5's "Failure mode:
// any rule violation emits a structured error SEMANTICS <message>".
func Run(req *constraint.Request) error {
	steps := []struct {
		name string
		fn   func(*constraint.Request) error
	}{
		{"infer", Infer},
		{"remove-unused-results", RemoveUnusedResults},
		{"remove-unused-sorts", RemoveUnusedSorts},
		{"resolve-aliases", ResolveAliases},
		{"mark-sort-roots", MarkSortRoots},
		{"re-resolve-aliases", ResolveAliases},
		{"validate-patterns", validatePatterns},
		{"remove-unused-declarations", RemoveUnusedDeclarations},
		{"topologically-sort-assignments", TopoSortAssignments},
		{"build-pattern-frames", BuildPatternFrames},
		{"remove-unused-page-size", RemoveUnusedPageSize},
	}
	for _, step := range steps {
		if err := step.fn(req); err != nil {
			return fmt.Errorf("SEMANTICS %s: %w", step.name, err)
		}
	}
	return nil
}

// validatePatterns is pipeline step 7: enforce the pattern depth rule and
// the aggregate-depth rule across every constraint's result and sort
// patterns (spec §4.5 step 7, reusing constraint.ValidateDepth).
func validatePatterns(req *constraint.Request) error {
	get := func(i int) *constraint.Pattern { return req.Pattern(i) }
	return req.Walk(req.Root, func(idx int, c *constraint.Constraint) error {
		if c.ResultPattern >= 0 {
			if err := constraint.ValidateDepth(c.ResultPattern, get); err != nil {
				return err
			}
		}
		if c.SortPattern >= 0 {
			if err := constraint.ValidateDepth(c.SortPattern, get); err != nil {
				return err
			}
		}
		return nil
	})
}
