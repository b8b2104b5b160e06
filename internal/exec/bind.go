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
	"fmt"

	"github.com/graphd-project/graphd/internal/constraint"
	"github.com/graphd-project/graphd/internal/primitive"
	"github.com/graphd-project/graphd/internal/result"
)

// bindCtx carries everything bindPattern needs to materialize one matched
// primitive's record: the primitive itself, the variable values computed
// for this constraint (in AssignmentOrder), the collected sub-constraint
// records keyed by sub arena index, and which or-branch (if any) this
// primitive satisfied.
type bindCtx struct {
	c            *constraint.Constraint
	p            *primitive.Primitive
	vars         map[int]result.Value
	subRecords   map[int][]result.Value
	activeBranch int // branchHead, branchTail, or -1 if c has no OrGroup
}

// evaluate runs the full per-candidate match test of spec §4.6's loop
// body: the constraint's own compiled iterator (already satisfied, since
// the caller only reaches here after producer.Next), its scalar predicate,
// its or-group (if any), and the assignment bindings that feed its result
// pattern.
func (st *runState) evaluate(cIdx int, c *constraint.Constraint, p *primitive.Primitive) (bindCtx, bool, bool, error) {
	if !matchesPredicate(p, &c.Predicate) {
		return bindCtx{}, false, false, nil
	}

	activeBranch := -1
	if c.OrGroup >= 0 {
		g := st.req.OrGroups[c.OrGroup]
		branch, matched, suspended, err := st.evalOrGroup(g, p.ID, p)
		if err != nil || suspended {
			return bindCtx{}, false, suspended, err
		}
		if !matched {
			return bindCtx{}, false, false, nil
		}
		activeBranch = branch
	}

	vars, err := st.bindAssignments(c, p, activeBranch)
	if err != nil {
		return bindCtx{}, false, false, err
	}

	ctx := bindCtx{
		c:            c,
		p:            p,
		vars:         vars,
		subRecords:   make(map[int][]result.Value, len(c.Sub)),
		activeBranch: activeBranch,
	}
	return ctx, true, false, nil
}

// bindAssignments evaluates c.AssignmentOrder (spec §4.5 step 9: each
// variable bound before any assignment that reads it) against p,
// resolving variable references from earlier entries in the same pass.
func (st *runState) bindAssignments(c *constraint.Constraint, p *primitive.Primitive, activeBranch int) (map[int]result.Value, error) {
	vars := make(map[int]result.Value, len(c.AssignmentOrder))
	partial := bindCtx{c: c, p: p, vars: vars, activeBranch: activeBranch}
	for _, varIdx := range c.AssignmentOrder {
		patIdx, ok := c.Assignments[varIdx]
		if !ok {
			continue
		}
		v, err := bindPattern(st.req, partial, patIdx)
		if err != nil {
			return nil, err
		}
		vars[varIdx] = v
	}
	return vars, nil
}

// bindPattern materializes patIdx into a result.Value tree given ctx,
// the binding context assembled while evaluating the matching primitive
// (spec §3.8/§4.6: "bind primitive fields into pattern-frame for id").
func bindPattern(req *constraint.Request, ctx bindCtx, patIdx int) (result.Value, error) {
	if patIdx < 0 {
		return result.Null, nil
	}
	pat := req.Pattern(patIdx)
	switch pat.Kind {
	case constraint.KindLiteral:
		return result.String(pat.Literal), nil
	case constraint.KindVariable:
		if v, ok := ctx.vars[pat.VarID]; ok {
			return v, nil
		}
		return result.Null, nil
	case constraint.KindField:
		return bindField(ctx.p, pat.Field), nil
	case constraint.KindAggregate:
		return bindAggregate(req, ctx, pat)
	case constraint.KindList:
		items := make([]result.Value, 0, len(pat.Children))
		for _, childIdx := range pat.Children {
			v, err := bindPattern(req, ctx, childIdx)
			if err != nil {
				return result.Value{}, err
			}
			items = append(items, v)
		}
		return result.List(items...), nil
	case constraint.KindPick:
		if ctx.activeBranch < 0 || ctx.activeBranch >= len(pat.Children) {
			return result.Null, nil
		}
		return bindPattern(req, ctx, pat.Children[ctx.activeBranch])
	default:
		return result.Value{}, fmt.Errorf("exec: unknown pattern kind %d", pat.Kind)
	}
}

// bindField extracts one primitive-field value (spec §3.5's closed field
// vocabulary).
func bindField(p *primitive.Primitive, f constraint.Field) result.Value {
	switch f {
	case constraint.FieldGUID:
		return result.GUIDValue(p.GUID)
	case constraint.FieldName:
		return result.String(p.Name)
	case constraint.FieldValue:
		return result.String(p.Value)
	case constraint.FieldValuetype:
		return result.Num(int64(p.ValueType))
	case constraint.FieldTimestamp:
		return result.Value{Kind: result.KindTimestamp, Timestamp: p.Timestamp}
	case constraint.FieldGeneration:
		return result.Num(int64(p.Generation))
	case constraint.FieldLive:
		return result.Bool(p.Live)
	case constraint.FieldArchival:
		return result.Bool(p.Archival)
	case constraint.FieldLeft:
		return idOrNull(p.Left)
	case constraint.FieldRight:
		return idOrNull(p.Right)
	case constraint.FieldScope:
		return idOrNull(p.Scope)
	case constraint.FieldTypeguid:
		return idOrNull(p.Type)
	case constraint.FieldPrevious:
		return idOrNull(p.Previous)
	default:
		return result.Null
	}
}

func idOrNull(id primitive.ID) result.Value {
	if !id.Valid() {
		return result.Null
	}
	return result.Num(int64(id))
}

// bindAggregate evaluates the aggregate pattern vocabulary (spec §3.5):
// contents (the immediate sub-constraints' collected records, flattened),
// count (how many records this level has collected so far). Both walk
// ctx.c.Sub rather than ranging over the subRecords map directly: map
// iteration order is randomized per Go's spec, and runConstraint populates
// subRecords keyed by sub arena index, not in collection order — flattening
// via the map would make contents' element order nondeterministic across
// runs, breaking cursor determinism (spec.md's "same cursor yields the same
// sequence of results").
func bindAggregate(req *constraint.Request, ctx bindCtx, pat *constraint.Pattern) (result.Value, error) {
	switch pat.Agg {
	case constraint.AggregateContents:
		var items []result.Value
		for _, subIdx := range ctx.c.Sub {
			items = append(items, ctx.subRecords[subIdx]...)
		}
		return result.List(items...), nil
	case constraint.AggregateCount:
		total := 0
		for _, subIdx := range ctx.c.Sub {
			total += len(ctx.subRecords[subIdx])
		}
		return result.Num(int64(total)), nil
	default:
		// estimate, estimate-count, iterator, cursor, timeout depend on
		// planner/runloop state outside a single bound primitive;
		// internal/store wires these once it owns the full request
		// lifecycle (cursor text, elapsed budget). Left null here.
		return result.Null, nil
	}
}
