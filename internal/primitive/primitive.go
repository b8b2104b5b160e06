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

// Package primitive defines the atomic record graphd stores and the two
// identities it is known by: the 128-bit content-addressed GUID (external)
// and the dense 34-bit pdb_id (internal). See spec §3.1–§3.2.
package primitive

import (
	"encoding/hex"
	"fmt"

	"github.com/graphd-project/graphd/internal/bitutil"
)

// GUID is the 128-bit globally unique, content-addressed external identity
// of a primitive.
type GUID [16]byte

// Zero reports whether g is the all-zero GUID (used as "absent" by callers).
func (g GUID) Zero() bool {
	return g == GUID{}
}

// String renders g as 32 lowercase hex digits, the wire form used in
// requests and replies (e.g. "00000000000000000000000000000001").
func (g GUID) String() string {
	return hex.EncodeToString(g[:])
}

// Less reports whether g sorts before o under the byte-lexicographic order
// requests use for GUID comparisons.
func (g GUID) Less(o GUID) bool {
	for i := range g {
		if g[i] != o[i] {
			return g[i] < o[i]
		}
	}
	return false
}

// ParseGUID parses the 32-hex-digit wire form of a GUID.
func ParseGUID(s string) (GUID, error) {
	var g GUID
	if len(s) != 32 {
		return g, fmt.Errorf("primitive: guid %q must be 32 hex digits", s)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return g, fmt.Errorf("primitive: guid %q: %w", s, err)
	}
	copy(g[:], b)
	return g, nil
}

// ID is the internal 34-bit, dense, monotonic insertion index of a
// primitive (pdb_id). IDs are never reused (§3.1 invariant).
type ID uint64

// Valid reports whether id fits the 34-bit pdb_id range.
func (id ID) Valid() bool {
	return bitutil.CheckID34(uint64(id)) == nil
}

// NoID is the sentinel "absent" ID, used for unset left/right/scope/typeguid
// linkages and for "no such ID" lookup failures (§3.2).
const NoID ID = ID(bitutil.MaxID34) + 1

// Linkage names which directed relationship a constraint is viewed through;
// see spec §3.4.
type Linkage uint8

const (
	// LinkageNone means "related, but with no directed linkage asserted".
	LinkageNone Linkage = iota
	LinkageLeft
	LinkageRight
	LinkageScope
	LinkageTypeguid
)

// String implements fmt.Stringer for debug dumps (heatmap=, test failures).
func (l Linkage) String() string {
	switch l {
	case LinkageLeft:
		return "left"
	case LinkageRight:
		return "right"
	case LinkageScope:
		return "scope"
	case LinkageTypeguid:
		return "typeguid"
	default:
		return "none"
	}
}

// Primitive is the atomic, immutable record graphd stores (§3.1). Once
// written, a Primitive's fields never change; a newer generation with the
// same lineage is a distinct Primitive referencing Previous.
type Primitive struct {
	ID    ID
	GUID  GUID
	Left  ID // NoID if unset
	Right ID
	Scope ID
	Type  ID // the primitive acting as this primitive's typeguid

	Name  []byte
	Value []byte

	ValueType byte // 1..255; 0 is reserved/invalid

	Timestamp int64 // monotonic per database
	Generation uint32
	Previous   ID // NoID if this is generation 0

	Live     bool
	Archival bool
	TxStart  bool
}

// HasLinkage reports whether the primitive has the given linkage populated.
func (p *Primitive) HasLinkage(l Linkage) bool {
	switch l {
	case LinkageLeft:
		return p.Left != NoID
	case LinkageRight:
		return p.Right != NoID
	case LinkageScope:
		return p.Scope != NoID
	case LinkageTypeguid:
		return p.Type != NoID
	default:
		return false
	}
}

// LinkageID returns the ID on the given linkage field, or NoID if unset or if
// l is LinkageNone.
func (p *Primitive) LinkageID(l Linkage) ID {
	switch l {
	case LinkageLeft:
		return p.Left
	case LinkageRight:
		return p.Right
	case LinkageScope:
		return p.Scope
	case LinkageTypeguid:
		return p.Type
	default:
		return NoID
	}
}
