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

// Package exec implements the suspendable execution state machine of spec
// §4.6: for each constraint it drives the planned producer iterator, checks
// candidate IDs against checkers and scalar predicates, recurses into
// sub-constraints seeded by the matching linkage, binds primitive fields
// into the constraint's pattern-frame, and streams the resulting value
// tree to the caller, freezing live iterators and returning a resume
// cursor when the budget runs out or a page fills.
package exec

import (
	"errors"
	"fmt"

	"github.com/graphd-project/graphd/internal/budget"
	"github.com/graphd-project/graphd/internal/constraint"
	"github.com/graphd-project/graphd/internal/iterator"
	"github.com/graphd-project/graphd/internal/plan"
	"github.com/graphd-project/graphd/internal/primitive"
	"github.com/graphd-project/graphd/internal/result"
)

// Env is the live environment a running request drives against: primitive
// lookups, the raw index-source catalog planning needs, and the
// subrequest-seeding hook spec §4.6 names ("the sub-constraint's iterator
// is intersected with the GMAP entry L.map[id]").
type Env interface {
	plan.Catalog
	// Primitive resolves id to its record.
	Primitive(id primitive.ID) (*primitive.Primitive, error)
	// LinkedIterator returns the iterator over primitives linked to parent
	// via linkage (or, if reversed, primitives parent is linked *to*): the
	// GMAP lookup spec §4.6 calls "L.map[id] (or {id}.map[L], symmetric
	// case)".
	LinkedIterator(parent primitive.ID, linkage primitive.Linkage, reversed bool, dir iterator.Direction) (iterator.Iterator, error)
}

// ErrTooHard is returned when a nested constraint (below the top level)
// suspends mid-recursion. Only the top-level constraint's producer
// position is frozen into a resumable cursor (see DESIGN.md): a full
// per-level cursor stack is a known simplification this package does not
// implement, since none of spec §8's scenarios require resuming mid-way
// through a nested join.
var ErrTooHard = errors.New("exec: nested constraint suspended; no cursor for this depth")

// ErrTimeout names spec §7's "error TIMEOUT" condition. Run does not return
// it: when the budget is exhausted before the request completes or reaches a
// page boundary, Run suspends and hands back a resume cursor in
// Outcome.Cursor instead.
var ErrTimeout = errors.New("exec: budget exhausted")

// Outcome is what running a request produced.
type Outcome struct {
	Values []result.Value
	Cursor string // resume token for the root constraint, empty if exhausted
	Done   bool   // true once the root producer is fully drained
}

// Prepare builds the iterator shape for every constraint in req's tree
// (root, sub-constraints, and or-branch alternatives), wiring each against
// env. Call once per request before Run.
func Prepare(req *constraint.Request, env Env, dir iterator.Direction) error {
	return req.Walk(req.Root, func(idx int, c *constraint.Constraint) error {
		return plan.BuildIteratorShape(req, c, env, dir)
	})
}

// ResumeRoot replaces the root constraint's freshly-planned producer with
// one thawed from cursor, a token a prior Run returned in Outcome.Cursor
// (spec §8 scenario 5, "cursor resume"). Call after Prepare, before Run.
// Only the root constraint carries a resumable cursor (see ErrTooHard):
// sub-constraints are always re-seeded per parent ID, never resumed mid-way.
func ResumeRoot(req *constraint.Request, reg *iterator.Registry, cursor string) error {
	root := req.Constraint(req.Root)
	cp, ok := root.Plan.(*plan.ConstraintPlan)
	if !ok {
		return fmt.Errorf("exec: root constraint has no compiled iterator shape")
	}
	it, err := reg.Thaw(cursor)
	if err != nil {
		return fmt.Errorf("exec: thaw cursor: %w", err)
	}
	cp.Iter = it
	return nil
}

// Run drives req's root constraint to completion, to a full page, or until
// b is exhausted, per spec §4.6's per-constraint loop. dir is the
// direction established at Prepare time.
func Run(req *constraint.Request, env Env, b *budget.Budget, dir iterator.Direction) (Outcome, error) {
	root := req.Constraint(req.Root)
	pageSize := root.PageSize
	if pageSize <= 0 {
		pageSize = -1 // unlimited
	}

	st := &runState{req: req, env: env, budget: b, dir: dir}
	values, suspended, err := st.runConstraint(req.Root, pageSize)
	if err != nil {
		return Outcome{}, err
	}
	if suspended {
		cursor, ferr := root.Plan.(*plan.ConstraintPlan).Iter.Freeze(iterator.FreezeEverything)
		if ferr != nil {
			return Outcome{}, fmt.Errorf("exec: freeze root cursor: %w", ferr)
		}
		return Outcome{Values: values, Cursor: cursor}, nil
	}
	return Outcome{Values: values, Done: true}, nil
}

type runState struct {
	req    *constraint.Request
	env    Env
	budget *budget.Budget
	dir    iterator.Direction
}

// runConstraint executes the loop of spec §4.6 for constraint cIdx, whose
// producer is already seeded (by Prepare for the root, or by the caller's
// subrequest-seeding for a nested constraint). limit bounds how many
// records this level emits (-1 = unlimited); only meaningful for the root,
// since nested constraints always run to exhaustion for the current parent
// ID (spec §4.6: "recurse. ... collect sub-results").
func (st *runState) runConstraint(cIdx int, limit int) ([]result.Value, bool, error) {
	c := st.req.Constraint(cIdx)
	cp, ok := c.Plan.(*plan.ConstraintPlan)
	if !ok || cp.Iter == nil {
		return nil, false, fmt.Errorf("exec: constraint %d has no compiled iterator shape", cIdx)
	}
	prod := cp.Iter

	var out []result.Value
	for {
		if limit >= 0 && len(out) >= limit {
			// Page filled before the producer ran dry: spec §4.6's "if
			// results-produced >= pagesize: freeze and return" applies
			// even though the producer itself hasn't signalled Done.
			return out, true, nil
		}
		nr, err := prod.Next(st.budget)
		if err != nil {
			return out, false, err
		}
		if nr.Outcome == iterator.Suspend {
			return out, true, nil
		}
		if nr.Outcome == iterator.Done {
			break
		}
		id := nr.ID

		if c.BadIDCache != nil {
			if _, bad := c.BadIDCache[id]; bad {
				continue
			}
		}

		p, err := st.env.Primitive(id)
		if err != nil {
			return out, false, err
		}

		ctx, matched, suspended, err := st.evaluate(cIdx, c, p)
		if err != nil {
			return out, false, err
		}
		if suspended {
			return out, true, nil
		}
		if !matched {
			markBad(c, id)
			continue
		}

		for _, subIdx := range c.Sub {
			records, subSuspended, err := st.runSub(subIdx, id)
			if err != nil {
				return out, false, err
			}
			if subSuspended {
				return out, false, ErrTooHard
			}
			ctx.subRecords[subIdx] = records
		}

		if c.ResultPattern >= 0 {
			v, err := bindPattern(st.req, ctx, c.ResultPattern)
			if err != nil {
				return out, false, err
			}
			out = append(out, v)
		}
	}
	return out, false, nil
}

// runSub seeds sub-constraint subIdx's producer to the primitives linked
// to parentID (spec §4.6 "subrequest seeding") and runs it to exhaustion,
// since a nested constraint's match set for one parent ID is always fully
// collected into that parent's record.
func (st *runState) runSub(subIdx int, parentID primitive.ID) ([]result.Value, bool, error) {
	sub := st.req.Constraint(subIdx)
	cp, ok := sub.Plan.(*plan.ConstraintPlan)
	if !ok {
		return nil, false, fmt.Errorf("exec: sub-constraint %d has no compiled iterator shape", subIdx)
	}

	linked, err := st.env.LinkedIterator(parentID, sub.Linkage, sub.Reversed, st.dir)
	if err != nil {
		return nil, false, err
	}
	seeded, _, err := intersectTwo(linked, cp.Iter, st.dir, st.budget)
	if err != nil {
		return nil, false, err
	}

	saved := cp.Iter
	cp.Iter = seeded
	defer func() { cp.Iter = saved }()

	return st.runConstraint(subIdx, -1)
}

func markBad(c *constraint.Constraint, id primitive.ID) {
	if c.BadIDCache == nil {
		c.BadIDCache = make(map[primitive.ID]struct{})
	}
	c.BadIDCache[id] = struct{}{}
}
