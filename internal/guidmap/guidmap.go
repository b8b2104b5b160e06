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

// Package guidmap implements the GUID<->ID bijection for live primitives
// (spec §3.2). Externally primitives are addressed by GUID; internally
// everything uses the dense 34-bit ID. The map is append-only from the
// sole writer's perspective, matching the single-threaded cooperative
// scheduling model in spec §5 — no locking is needed.
package guidmap

import (
	"fmt"

	"github.com/graphd-project/graphd/internal/primitive"
)

// ErrNoSuchID is returned by Reverse when id has never been assigned, and by
// Lookup when the guid has never been written. Matches spec §3.2: "lookup
// failures are reported as 'no such ID'".
var ErrNoSuchID = fmt.Errorf("guidmap: no such id")

// Map is the in-process bijection. It is backed by a durable log through
// the Appender interface so the top-level store can persist assignments;
// Map itself only owns the in-memory index used to serve lookups in O(1).
type Map struct {
	byGUID map[primitive.GUID]primitive.ID
	byID   []primitive.GUID // dense, index i holds the guid for ID(i)
}

// New returns an empty bijection.
func New() *Map {
	return &Map{
		byGUID: make(map[primitive.GUID]primitive.ID),
	}
}

// Assign records that id now denotes guid. Called exactly once per id, in
// increasing id order, by the writer (mirrors pdb_id's dense/monotonic
// invariant, spec §3.1). Returns an error if guid is already assigned to a
// different id, or if id is not the next dense id.
func (m *Map) Assign(id primitive.ID, guid primitive.GUID) error {
	if existing, ok := m.byGUID[guid]; ok {
		if existing != id {
			return fmt.Errorf("guidmap: guid %s already assigned to id %d, cannot reassign to %d", guid, existing, id)
		}
		return nil
	}
	if int(id) != len(m.byID) {
		return fmt.Errorf("guidmap: non-dense assignment: id %d, expected %d", id, len(m.byID))
	}
	m.byID = append(m.byID, guid)
	m.byGUID[guid] = id
	return nil
}

// Lookup returns the ID assigned to guid.
func (m *Map) Lookup(guid primitive.GUID) (primitive.ID, error) {
	id, ok := m.byGUID[guid]
	if !ok {
		return primitive.NoID, ErrNoSuchID
	}
	return id, nil
}

// Reverse returns the GUID assigned to id.
func (m *Map) Reverse(id primitive.ID) (primitive.GUID, error) {
	if id < 0 || int(id) >= len(m.byID) {
		return primitive.GUID{}, ErrNoSuchID
	}
	return m.byID[id], nil
}

// Next returns the ID that Assign would require next — the current dense
// high-water mark, i.e. the count of primitives ever assigned.
func (m *Map) Next() primitive.ID {
	return primitive.ID(len(m.byID))
}

// Len reports how many GUIDs are currently mapped.
func (m *Map) Len() int {
	return len(m.byID)
}
