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
	"bytes"

	"github.com/graphd-project/graphd/internal/constraint"
	"github.com/graphd-project/graphd/internal/primitive"
)

// matchesPredicate evaluates the scalar parts of pred against p: the parts
// spec §3.4 lists that an iterator alone cannot enforce (string comparator
// on name/value, the live/archival flags, valuetype, and the generation/
// timestamp ranges). Linkage equality (left=, right=, etc) is already
// enforced structurally by the compiled iterator and is not re-checked
// here.
func matchesPredicate(p *primitive.Primitive, pred *constraint.Predicate) bool {
	if len(pred.Name) > 0 && !compareBytes(pred.Comparator, p.Name, pred.Name) {
		return false
	}
	if len(pred.Value) > 0 && !compareBytes(pred.Comparator, p.Value, pred.Value) {
		return false
	}
	if pred.Live != nil && *pred.Live != p.Live {
		return false
	}
	if pred.Archival != nil && *pred.Archival != p.Archival {
		return false
	}
	if pred.Valuetype != nil && *pred.Valuetype != p.ValueType {
		return false
	}
	if !inRange(pred.Generation, int64(p.Generation)) {
		return false
	}
	if !inRange(pred.Timestamp, p.Timestamp) {
		return false
	}
	return true
}

// compareBytes applies comparator op between a field value a and the
// predicate's literal b. CmpMatch ("~=") is a case-insensitive substring
// test: spec §9 flags the exact match grammar as an implementer tunable,
// not an invariant, so a simple containment test stands in for it here.
func compareBytes(op constraint.Comparator, a, b []byte) bool {
	switch op {
	case constraint.CmpNone, constraint.CmpEq:
		return bytes.Equal(a, b)
	case constraint.CmpNotEq:
		return !bytes.Equal(a, b)
	case constraint.CmpMatch:
		return bytes.Contains(bytes.ToLower(a), bytes.ToLower(b))
	case constraint.CmpLess:
		return bytes.Compare(a, b) < 0
	case constraint.CmpLessEq:
		return bytes.Compare(a, b) <= 0
	case constraint.CmpGreater:
		return bytes.Compare(a, b) > 0
	case constraint.CmpGreaterEq:
		return bytes.Compare(a, b) >= 0
	default:
		return false
	}
}

func inRange(r constraint.Range, v int64) bool {
	if r.HasLow && v < r.Low {
		return false
	}
	if r.HasHigh && v > r.High {
		return false
	}
	return true
}
