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

import "fmt"

// Comparator is the closed set of string/value comparison operators a
// predicate field may carry (=, ~=, <, <=, >, >=, and their negations).
type Comparator uint8

const (
	CmpNone Comparator = iota
	CmpEq
	CmpNotEq
	CmpMatch // ~=
	CmpLess
	CmpLessEq
	CmpGreater
	CmpGreaterEq
)

// Range is an inclusive [Low, High] bound used for generation/timestamp
// predicates; either bound may be absent.
type Range struct {
	HasLow, HasHigh bool
	Low, High       int64
}

// Predicate is the set of field restrictions a constraint (or an
// or-branch) pins. Fields absent from a branch are inherited from the
// prototype (spec §4.4).
type Predicate struct {
	TypeSet        bool
	Comparator     Comparator
	Name, Value    []byte
	Live, Archival *bool
	Valuetype      *byte
	Generation     Range
	Timestamp      Range
	// LinkGUIDs pins a linkage's target to a literal GUID (e.g. left="...").
	LinkGUIDs map[int]string // keyed by primitive.Linkage, value hex GUID
}

// forbiddenInOrBranch are fields that spec §4.4 requires live only on the
// prototype: result=, linkage, sort=, page-size family, cursor, comparator
// list, count-limit. Represented here as a checklist OrGroup.Validate
// walks; the parser is responsible for routing these onto the prototype in
// the first place, so this is a defense-in-depth check, not the primary
// enforcement point.
type forbiddenSet struct {
	ResultSet    bool
	LinkageSet   bool
	SortSet      bool
	PageSizeSet  bool
	CursorSet    bool
	ComparatorsSet bool
	CountLimitSet  bool
}

// OrGroup is one constraint's or subtree (spec §4.4): a prototype (the
// containing constraint), a head alternative, an optional tail, and a
// short-circuit flag distinguishing `||` (stop at first match) from `|`
// (evaluate all branches).
type OrGroup struct {
	Prototype     int // arena index into Request.Constraints
	Head          int
	HasTail       bool
	Tail          int
	ShortCircuit  bool
	headForbidden forbiddenSet
	tailForbidden forbiddenSet
}

// ErrForbiddenInOrBranch is returned when an or-branch sets a field spec
// §4.4 reserves for the prototype.
var ErrForbiddenInOrBranch = fmt.Errorf("constraint: field forbidden inside or-branch")

// MarkForbidden records that branch (0=head, 1=tail) set one of the
// prototype-only fields; used by the parser as it builds the tree so
// Validate can report a precise semantic error rather than silently
// accepting it.
func (g *OrGroup) MarkForbidden(branch int, which string) {
	fs := &g.headForbidden
	if branch == 1 {
		fs = &g.tailForbidden
	}
	switch which {
	case "result":
		fs.ResultSet = true
	case "linkage":
		fs.LinkageSet = true
	case "sort":
		fs.SortSet = true
	case "pagesize":
		fs.PageSizeSet = true
	case "cursor":
		fs.CursorSet = true
	case "comparators":
		fs.ComparatorsSet = true
	case "countlimit":
		fs.CountLimitSet = true
	}
}

// Validate reports ErrForbiddenInOrBranch if either branch set a
// prototype-only field (spec §4.4: "violations are semantic errors").
func (g *OrGroup) Validate() error {
	if g.headForbidden != (forbiddenSet{}) {
		return fmt.Errorf("%w: in head branch", ErrForbiddenInOrBranch)
	}
	if g.HasTail && g.tailForbidden != (forbiddenSet{}) {
		return fmt.Errorf("%w: in tail branch", ErrForbiddenInOrBranch)
	}
	return nil
}

// Inherit applies prototype defaults to branch wherever branch leaves a
// field unset (spec §4.4: "each or-branch inherits defaults from its
// prototype... local overrides that conflict with the prototype force the
// prototype false"). Conflict detection (e.g. branch pins Live=true while
// prototype pins Live=false) is the caller's responsibility at parse time;
// Inherit only fills gaps.
func Inherit(prototype, branch *Predicate) *Predicate {
	out := *branch
	// TypeSet records that Comparator holds an explicit value rather than
	// the zero CmpNone; deriving it from Comparator itself (instead of
	// trusting callers to have set the bool) means inheritance works
	// regardless of how the branch/prototype predicates were built.
	if out.Comparator == CmpNone && prototype.Comparator != CmpNone {
		out.Comparator = prototype.Comparator
		out.TypeSet = true
	} else if out.Comparator != CmpNone {
		out.TypeSet = true
	}
	if out.Live == nil {
		out.Live = prototype.Live
	}
	if out.Archival == nil {
		out.Archival = prototype.Archival
	}
	if out.Valuetype == nil {
		out.Valuetype = prototype.Valuetype
	}
	if !out.Generation.HasLow && !out.Generation.HasHigh {
		out.Generation = prototype.Generation
	}
	if !out.Timestamp.HasLow && !out.Timestamp.HasHigh {
		out.Timestamp = prototype.Timestamp
	}
	if out.LinkGUIDs == nil {
		out.LinkGUIDs = prototype.LinkGUIDs
	} else if prototype.LinkGUIDs != nil {
		merged := make(map[int]string, len(prototype.LinkGUIDs)+len(out.LinkGUIDs))
		for k, v := range prototype.LinkGUIDs {
			merged[k] = v
		}
		for k, v := range out.LinkGUIDs {
			merged[k] = v
		}
		out.LinkGUIDs = merged
	}
	return &out
}
