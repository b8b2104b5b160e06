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

package constraint

import "github.com/graphd-project/graphd/internal/primitive"

// Constraint is one node of the parsed query tree (spec §3.4). It restricts
// a set of primitive IDs and may own sub-constraints linked by a linkage
// (is the parent the left/right/scope/typeguid of the child, or vice
// versa, or are they related without directed linkage).
type Constraint struct {
	Parent  int // arena index, -1 for the request root
	Linkage primitive.Linkage
	// Reversed is true when the *child* is the parent's left/right/etc
	// rather than the other way around (the symmetric case spec §4.6
	// names: "L.map[id] or {id}.map[L]").
	Reversed bool

	Predicate Predicate
	Sub       []int // arena indices into Request.Constraints

	OrGroup   int // arena index into Request.OrGroups, -1 if none
	IsOrProto bool

	ResultPattern int // arena index into Request.Patterns, -1 if none
	SortPattern   int
	// Assignments maps variable arena index -> pattern arena index
	// computing its value at this constraint (spec §3.6).
	Assignments map[int]int
	// AssignmentOrder is Assignments' keys in dependency order (each bound
	// before any assignment that reads it), computed by
	// internal/plan.TopoSortAssignments (spec §4.5 step 9).
	AssignmentOrder []int

	PageSize int

	// Planning-time caches (spec §3.4 "planning-time caches"). Opaque to
	// this package; internal/plan and internal/exec populate and consume
	// them. Declared here because they are logically part of the
	// constraint node's lifetime (freed with the rest of the request
	// arena, spec §3.9).
	Plan         any // *plan.ConstraintPlan once planning runs
	SortRoot     bool
	BadIDCache   map[primitive.ID]struct{}
}

// NewConstraint returns an empty Constraint parented at parent (-1 for the
// request root) via the given linkage.
func NewConstraint(parent int, linkage primitive.Linkage) *Constraint {
	return &Constraint{
		Parent:        parent,
		Linkage:       linkage,
		OrGroup:       -1,
		ResultPattern: -1,
		SortPattern:   -1,
		Assignments:   make(map[int]int),
	}
}

// Request is the per-request arena (spec §3.9): constraints, patterns,
// variables, and or-groups are allocated from flat slices here and
// referenced by index, never by pointer, so cyclic structures (a pattern
// referencing a variable whose assignment pattern references it back) are
// representable without a cycle in Go's allocator graph, and the whole
// thing is freed en masse when the request completes or aborts (simply by
// dropping the Request value).
type Request struct {
	Verb        string
	Constraints []*Constraint
	Patterns    []*Pattern
	Variables   []*Variable
	OrGroups    []*OrGroup
	Root        int // arena index into Constraints
}

// NewRequest returns an empty arena for verb (e.g. "read", "write").
func NewRequest(verb string) *Request {
	return &Request{Verb: verb, Root: -1}
}

// AddConstraint appends c and returns its arena index.
func (r *Request) AddConstraint(c *Constraint) int {
	r.Constraints = append(r.Constraints, c)
	return len(r.Constraints) - 1
}

// AddPattern appends p and returns its arena index.
func (r *Request) AddPattern(p *Pattern) int {
	r.Patterns = append(r.Patterns, p)
	return len(r.Patterns) - 1
}

// AddVariable appends v and returns its arena index.
func (r *Request) AddVariable(v *Variable) int {
	r.Variables = append(r.Variables, v)
	return len(r.Variables) - 1
}

// AddOrGroup appends g and returns its arena index.
func (r *Request) AddOrGroup(g *OrGroup) int {
	r.OrGroups = append(r.OrGroups, g)
	return len(r.OrGroups) - 1
}

// Pattern resolves an arena index to its Pattern, the accessor
// ValidateDepth and the plan package's pattern walks need.
func (r *Request) Pattern(idx int) *Pattern { return r.Patterns[idx] }

// Constraint resolves an arena index to its Constraint.
func (r *Request) Constraint(idx int) *Constraint { return r.Constraints[idx] }

// Variable resolves an arena index to its Variable.
func (r *Request) Variable(idx int) *Variable { return r.Variables[idx] }

// Walk visits the constraint tree rooted at idx depth-first, pre-order,
// including sub-constraints and or-branch alternatives.
func (r *Request) Walk(idx int, visit func(idx int, c *Constraint) error) error {
	c := r.Constraints[idx]
	if err := visit(idx, c); err != nil {
		return err
	}
	if c.OrGroup >= 0 {
		g := r.OrGroups[c.OrGroup]
		if err := r.Walk(g.Head, visit); err != nil {
			return err
		}
		if g.HasTail {
			if err := r.Walk(g.Tail, visit); err != nil {
				return err
			}
		}
	}
	for _, s := range c.Sub {
		if err := r.Walk(s, visit); err != nil {
			return err
		}
	}
	return nil
}
