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

import "encoding/binary"

// Backend names the physical representation behind one source key's set,
// per spec §3.3.
type Backend byte

const (
	BackendEmpty Backend = iota
	BackendSingleton
	BackendArray
	BackendLarge
	BackendBitmap
)

func (b Backend) String() string {
	switch b {
	case BackendEmpty:
		return "empty"
	case BackendSingleton:
		return "singleton"
	case BackendArray:
		return "multi-array"
	case BackendLarge:
		return "large-file"
	case BackendBitmap:
		return "bitmap"
	default:
		return "unknown"
	}
}

// slotSize is the width of one index slot. The original graphd packs a
// 2-bit tag and a 34-bit payload into 5 bytes (spec §6); this
// implementation instead spends a full byte on the tag and a full uint64
// on the payload (9 bytes) — simpler to pack/unpack correctly and wide
// enough for any payload encoding below, at the cost of exact on-disk
// byte-compatibility with the original, which spec §1 scopes as an
// out-of-scope collaborator concern (persisted layout is documented "only
// for cross-implementation compatibility", not a functional requirement on
// this core). See DESIGN.md's internal/gmap entry.
const slotSize = 9

// slot is the decoded form of one 9-byte index slot.
type slot struct {
	tag     Backend
	payload uint64
}

func encodeSlot(s slot) [slotSize]byte {
	var b [slotSize]byte
	b[0] = byte(s.tag)
	binary.BigEndian.PutUint64(b[1:], s.payload)
	return b
}

func decodeSlot(b []byte) slot {
	return slot{
		tag:     Backend(b[0]),
		payload: binary.BigEndian.Uint64(b[1:9]),
	}
}

// Array-backend payload packing: offset (48 bits) << 8 | exponent (8 bits).
func packArrayPayload(offset int64, exp uint) uint64 {
	return uint64(offset)<<8 | uint64(exp&0xff)
}

func unpackArrayPayload(payload uint64) (offset int64, exp uint) {
	return int64(payload >> 8), uint(payload & 0xff)
}
