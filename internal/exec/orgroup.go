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
	"github.com/graphd-project/graphd/internal/iterator"
	"github.com/graphd-project/graphd/internal/primitive"
)

// branchHead and branchTail index OrGroup's two alternatives, matching
// Pattern.OrIndex's convention (0 = head, 1 = tail) so a KindPick's
// Children[i] lines up with whichever branch matched.
const (
	branchHead = 0
	branchTail = 1
)

// evalOrGroup is the "feasible_under_or(id)" test of spec §4.6's execution
// loop: does id satisfy the head alternative, the tail alternative, or
// both? ShortCircuit (`||`) skips evaluating the tail once the head
// matches, since the union membership result is already decided; full-or
// (`|`) always evaluates both so pick() can still choose correctly between
// them.
func (st *runState) evalOrGroup(g *constraint.OrGroup, id primitive.ID, p *primitive.Primitive) (active int, matched bool, suspended bool, err error) {
	headOK, suspended, err := st.checkBranch(g.Head, id, p)
	if err != nil || suspended {
		return -1, false, suspended, err
	}
	if headOK && g.ShortCircuit {
		return branchHead, true, false, nil
	}

	tailOK := false
	if g.HasTail {
		tailOK, suspended, err = st.checkBranch(g.Tail, id, p)
		if err != nil || suspended {
			return -1, false, suspended, err
		}
	}

	switch {
	case headOK:
		return branchHead, true, false, nil
	case tailOK:
		return branchTail, true, false, nil
	default:
		return -1, false, false, nil
	}
}

// checkBranch reports whether id/p satisfies one or-branch: its own
// compiled iterator (if the branch has a distinguishing sub-iterator
// beyond what it shares with the prototype) and its scalar predicate,
// already filled out by constraint.Inherit at parse time.
func (st *runState) checkBranch(branchIdx int, id primitive.ID, p *primitive.Primitive) (bool, bool, error) {
	b := st.req.Constraint(branchIdx)
	if !matchesPredicate(p, &b.Predicate) {
		return false, false, nil
	}
	cp, ok := branchPlan(b)
	if !ok || cp.Iter == nil {
		return true, false, nil
	}
	outcome, err := cp.Iter.Check(st.budget, id)
	if err != nil {
		return false, false, err
	}
	switch outcome {
	case iterator.Yes:
		return true, false, nil
	case iterator.No:
		return false, false, nil
	default:
		return false, true, nil
	}
}
