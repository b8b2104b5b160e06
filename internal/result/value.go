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

// Package result implements the tagged result value tree and cursor codec
// of spec §3.8/§4.7: the value kinds execution binds into, the wire
// formatter that renders them (parenthesized lists, escaped strings), and
// the cursor-modifier line (cursor=, dateline=, cost=, id=, heatmap=)
// appended to a reply.
package result

import "github.com/graphd-project/graphd/internal/primitive"

// Kind is the closed tag set of spec §3.8.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindAtom
	KindGUID
	KindDatatype
	KindTimestamp
	KindList     // parenthesized, ordered
	KindSequence // borderless, ordered
	KindRecords  // deferred bulk range of primitive IDs
	KindDeferred // unevaluated sub-pipeline
)

// Deferred is the unevaluated-subquery payload a KindDeferred Value holds.
// Run drives it to completion or to NeedsMore; the formatter calls it when
// it reaches the value (spec §4.7).
type Deferred interface {
	// Run advances the deferred computation as far as the budget allows,
	// returning the realized Value once complete, or ok=false if it needs
	// more budget (the caller must resume later with the same Deferred).
	Run(budgetUnits int) (v Value, ok bool, err error)
}

// Records is the KindRecords payload: a range of primitive IDs materialized
// during formatting rather than up front.
type Records struct {
	IDs []primitive.ID
}

// Value is one node of the result value tree (spec §3.8). Only the field
// matching Kind is meaningful; the rest are zero.
type Value struct {
	Kind Kind

	Boolean   bool
	Number    int64
	String    []byte
	Atom      string
	GUID      primitive.GUID
	Datatype  byte
	Timestamp int64

	Items []Value // KindList, KindSequence

	Records  *Records
	Deferred Deferred
}

// Null is the shared null value.
var Null = Value{Kind: KindNull}

// String constructs a KindString value.
func String(s []byte) Value { return Value{Kind: KindString, String: s} }

// Atomic constructs a KindAtom value (a bare identifier, never quoted or
// escaped by the formatter).
func Atomic(s string) Value { return Value{Kind: KindAtom, Atom: s} }

// Num constructs a KindNumber value.
func Num(n int64) Value { return Value{Kind: KindNumber, Number: n} }

// Bool constructs a KindBoolean value.
func Bool(b bool) Value { return Value{Kind: KindBoolean, Boolean: b} }

// GUIDValue constructs a KindGUID value.
func GUIDValue(g primitive.GUID) Value { return Value{Kind: KindGUID, GUID: g} }

// List constructs a KindList value (parenthesized on the wire).
func List(items ...Value) Value { return Value{Kind: KindList, Items: items} }

// Sequence constructs a KindSequence value (borderless on the wire).
func Sequence(items ...Value) Value { return Value{Kind: KindSequence, Items: items} }
