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

// Package constraint implements the parsed query representation of spec
// §3.4–§3.6: the constraint tree, the closed pattern tag set, or-branches
// with prototype inheritance, and variable declarations. Everything here is
// arena-indexed rather than pointer-linked (spec §9's "cyclic structures
// become arena-index references"), so a cross-reference from a pattern to a
// variable it binds, or from a variable to the pattern that computes it, is
// always an index into the owning Request's slice, never a pointer.
package constraint

import "fmt"

// Field is the closed primitive-field vocabulary a pattern node may name
// (spec §3.5).
type Field uint8

const (
	FieldNone Field = iota
	FieldGUID
	FieldName
	FieldValue
	FieldType
	FieldTypeguid
	FieldLeft
	FieldRight
	FieldScope
	FieldLive
	FieldArchival
	FieldDatatype
	FieldValuetype
	FieldTimestamp
	FieldGeneration
	FieldNext
	FieldPrevious
	FieldMeta
)

func (f Field) String() string {
	switch f {
	case FieldGUID:
		return "guid"
	case FieldName:
		return "name"
	case FieldValue:
		return "value"
	case FieldType:
		return "type"
	case FieldTypeguid:
		return "typeguid"
	case FieldLeft:
		return "left"
	case FieldRight:
		return "right"
	case FieldScope:
		return "scope"
	case FieldLive:
		return "live"
	case FieldArchival:
		return "archival"
	case FieldDatatype:
		return "datatype"
	case FieldValuetype:
		return "valuetype"
	case FieldTimestamp:
		return "timestamp"
	case FieldGeneration:
		return "generation"
	case FieldNext:
		return "next"
	case FieldPrevious:
		return "previous"
	case FieldMeta:
		return "meta"
	default:
		return "none"
	}
}

// Aggregate is the closed aggregate-pattern vocabulary (spec §3.5).
type Aggregate uint8

const (
	AggregateNone Aggregate = iota
	AggregateCount
	AggregateEstimate
	AggregateEstimateCount
	AggregateIterator
	AggregateCursor
	AggregateTimeout
	AggregateContents
)

// Kind is the closed pattern node tag (spec §3.5): literal, variable,
// primitive-field, aggregate, or composite.
type Kind uint8

const (
	KindLiteral Kind = iota
	KindVariable
	KindField
	KindAggregate
	KindList
	KindPick
)

// Pattern is one node of a pattern tree (spec §3.5). Each node carries a
// sort-direction flag, a sample flag (take one representative match), a
// collect flag (gather across sibling matches), and an or-index tying it to
// a specific or-branch alternative.
type Pattern struct {
	Kind Kind

	Literal []byte // valid when Kind == KindLiteral
	VarID   int    // arena index into Request.Variables, when Kind == KindVariable
	Field   Field  // valid when Kind == KindField
	Agg     Aggregate

	// Children holds a KindList's sequence, or a KindPick's per-or-branch
	// alternatives (index i is the pattern used when OrIndex == i).
	Children []int // arena indices into Request.Patterns

	SortDescending bool
	Sample         bool
	Collect        bool
	OrIndex        int // -1 when not tied to a specific or-branch
}

// MaxPatternDepth is the depth rule of spec §3.5/§8: no pattern nests more
// than two levels, and at most one nested list per containing list.
const MaxPatternDepth = 2

// ValidateDepth enforces spec §4.5 step 7 ("parenthesize/validate
// patterns"): depth <= MaxPatternDepth, and a KindList may contain at most
// one nested KindList child. get resolves an arena index to its Pattern.
func ValidateDepth(root int, get func(int) *Pattern) error {
	return validateDepth(root, get, 0)
}

func validateDepth(idx int, get func(int) *Pattern, depth int) error {
	if depth > MaxPatternDepth {
		return fmt.Errorf("constraint: pattern nests deeper than %d levels", MaxPatternDepth)
	}
	p := get(idx)
	switch p.Kind {
	case KindAggregate:
		if depth > 1 && (p.Agg == AggregateCount || p.Agg == AggregateCursor || p.Agg == AggregateTimeout) {
			return fmt.Errorf("constraint: aggregate %v must appear at depth 0 or 1", p.Agg)
		}
	case KindList:
		nestedLists := 0
		for _, c := range p.Children {
			child := get(c)
			if child.Kind == KindList {
				nestedLists++
			}
			if err := validateDepth(c, get, depth+1); err != nil {
				return err
			}
		}
		if nestedLists > 1 {
			return fmt.Errorf("constraint: at most one nested list per result list")
		}
	case KindPick:
		for _, c := range p.Children {
			if err := validateDepth(c, get, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
