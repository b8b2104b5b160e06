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

package gmap

// Well-known index map names (spec §3.3: "one per linkage field ... plus
// application-level indexes"). Naming/comment idiom grounded on
// erigon-lib/kv/tables.go's "key - ...\nvalue - ..." constant documentation
// style.

const (
	// Left
	// key   - a primitive ID
	// value - IDs of primitives whose left points at the key
	Left = "left"

	// Right
	// key   - a primitive ID
	// value - IDs of primitives whose right points at the key
	Right = "right"

	// Scope
	// key   - a primitive ID
	// value - IDs of primitives whose scope points at the key
	Scope = "scope"

	// Typeguid
	// key   - a primitive ID (acting as a type)
	// value - IDs of primitives whose typeguid points at the key
	Typeguid = "typeguid"

	// Live
	// key   - 0 (a single well-known key)
	// value - IDs of all live primitives, ascending
	Live = "live"
)
