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

// Package iterator implements the polymorphic lazy ID-stream algebra of
// spec §3.7 and §4.3: every iterator variant (all, null, gmap/bgmap, vip,
// fixed, prefix, isa, linksto, sort, without, or, and) speaks the same
// Next/Find/Check/Statistics/Clone/Freeze/Thaw contract so the planner and
// executor never need to know which shape they're driving.
package iterator

import (
	"fmt"

	"github.com/graphd-project/graphd/internal/budget"
	"github.com/graphd-project/graphd/internal/primitive"
)

// Outcome is the three-way result of Next/Find: a value, end of stream, or
// a request to yield back to the runloop because the budget ran out
// (spec §4.3's "Some(id) | None | NeedsMore").
type Outcome int

const (
	Found Outcome = iota
	Done
	Suspend
)

// NextResult is what Next/Find return.
type NextResult struct {
	Outcome Outcome
	ID      primitive.ID
}

func found(id primitive.ID) NextResult { return NextResult{Outcome: Found, ID: id} }

var doneResult = NextResult{Outcome: Done}
var suspendResult = NextResult{Outcome: Suspend}

// CheckOutcome is the three-way result of Check ("Yes | No | NeedsMore").
type CheckOutcome int

const (
	Yes CheckOutcome = iota
	No
	CheckSuspend
)

// Direction is the sort direction an iterator produces IDs in.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

// Stats is the refined cost/cardinality estimate of spec §4.3.
type Stats struct {
	N          uint64 // estimated cardinality
	CheckCost  float64
	NextCost   float64
	FindCost   float64
	Sorted     bool
	Direction  Direction
	Done       bool // true once the estimate has stabilised
}

// Summary tells planners what field-equality an iterator enforces, used to
// decide whether a cheaper representation (e.g. vip) applies (spec §4.3
// `primitive_summary`).
type Summary struct {
	LockedLinkages map[primitive.Linkage]primitive.ID
	ResultLinkage  primitive.Linkage
	Complete       bool // true if Summary fully characterises membership
}

// FreezeScope selects which portion(s) of an iterator's cursor to emit
// (spec §4.3 freeze/thaw discipline: SET / POSITION / STATE).
type FreezeScope int

const (
	FreezeSet FreezeScope = 1 << iota
	FreezePosition
	FreezeState
)

const FreezeEverything = FreezeSet | FreezePosition | FreezeState

// Iterator is the common contract every variant in this package satisfies.
type Iterator interface {
	// Next emits the next ID in the iterator's sort direction.
	Next(b *budget.Budget) (NextResult, error)
	// Find repositions to the smallest id' >= id (forward) or largest
	// id' <= id (reverse), which becomes Next's new anchor.
	Find(b *budget.Budget, id primitive.ID) (NextResult, error)
	// Check is a set-membership test independent of position.
	Check(b *budget.Budget, id primitive.ID) (CheckOutcome, error)
	// Statistics refines the iterator's cost/cardinality estimate. Returns
	// false while more budgeted work would improve the estimate.
	Statistics(b *budget.Budget) (Stats, bool, error)
	// Clone returns a peer over the same underlying set with an
	// independent position (spec's clone-independence property).
	Clone() Iterator
	// Reset re-anchors the iterator at the set's start.
	Reset()
	// Freeze emits a textual cursor for the requested scope.
	Freeze(scope FreezeScope) (string, error)
	// PrimitiveSummary reports the field-equality this iterator enforces.
	PrimitiveSummary() Summary
	// Beyond reports whether the iterator has already advanced past id.
	Beyond(id primitive.ID) bool
	// Direction reports the iterator's natural sort order.
	Direction() Direction
	// TypeTag names the on-the-wire iterator type prefix (spec §6).
	TypeTag() string
	// Close releases any pinned resources (tile references held by a
	// backing GMap/block read). Safe to call multiple times.
	Close()
}

// ErrThaw is returned by Thaw when cursor text cannot be parsed.
var ErrThaw = fmt.Errorf("iterator: malformed cursor")

// unboundedBudget returns a budget large enough that no single internal
// materialization loop (isa) will spuriously
// suspend; used only where a variant must eagerly drain a bounded-size sub
// before it can report itself, never on the caller's own op budget.
func unboundedBudget() *budget.Budget {
	return budget.New(1 << 30)
}
