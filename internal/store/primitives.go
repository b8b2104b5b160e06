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

package store

import (
	"encoding/binary"
	"fmt"

	"github.com/graphd-project/graphd/internal/block"
	"github.com/graphd-project/graphd/internal/primitive"
)

// primitiveLog is the append-only record of every primitive ever written
// (spec §3.1: "never destroyed"), backed by the block store facade (§4.1).
// Records are variable-length (name/value are byte strings), so unlike
// gmap's fixed-width slot table this keeps an in-memory offset index
// (primitiveLog.offsets), the same "dense index, positions never reused"
// idiom guidmap.Map uses for its byGUID/byID pair.
type primitiveLog struct {
	store   *block.Store
	offsets []int64 // index i holds the byte offset of primitive ID i
	tail    int64   // next append offset
}

func openPrimitiveLog(st *block.Store) (*primitiveLog, error) {
	l := &primitiveLog{store: st}
	if err := l.reindex(); err != nil {
		return nil, err
	}
	return l, nil
}

// reindex replays the log on open, rebuilding the in-memory offset index.
// The write path that appends new records is out of scope (spec §1); a
// store opened against an existing file must still reconstruct this index
// since it is never itself persisted.
func (l *primitiveLog) reindex() error {
	var off int64
	size := l.store.Size()
	for off < size {
		n, err := l.recordLen(off)
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		l.offsets = append(l.offsets, off)
		off += n
	}
	l.tail = off
	return nil
}

// readExact stitches together the (possibly tile-spanning) contiguous runs
// ReadRaw hands back until n bytes starting at off have been collected,
// releasing each tile reference as soon as its bytes are copied out.
func readExact(st *block.Store, off int64, n int64) ([]byte, error) {
	out := make([]byte, 0, n)
	for int64(len(out)) < n {
		chunk, end, ref, err := st.ReadRaw(off+int64(len(out)), off+n)
		if err != nil {
			return nil, err
		}
		if ref == nil || len(chunk) == 0 {
			return nil, fmt.Errorf("store: short read at offset %d", off)
		}
		out = append(out, chunk...)
		ref.Release()
		_ = end
	}
	return out, nil
}

func (l *primitiveLog) recordLen(off int64) (int64, error) {
	if off+4 > l.store.Size() {
		return 0, nil
	}
	header, err := readExact(l.store, off, 4)
	if err != nil {
		return 0, err
	}
	body := int64(binary.BigEndian.Uint32(header))
	if body == 0 {
		return 0, nil
	}
	return 4 + body, nil
}

// Get decodes the primitive stored at dense index id.
func (l *primitiveLog) Get(id primitive.ID) (*primitive.Primitive, error) {
	if id < 0 || int(id) >= len(l.offsets) {
		return nil, fmt.Errorf("store: no such id %d", id)
	}
	off := l.offsets[id]
	header, err := readExact(l.store, off, 4)
	if err != nil {
		return nil, err
	}
	body := int64(binary.BigEndian.Uint32(header))
	raw, err := readExact(l.store, off+4, body)
	if err != nil {
		return nil, err
	}
	p, err := decodePrimitive(raw)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return p, nil
}

// Append writes p as the next dense record (id must equal l.Len()). Used
// by tests and by the primitive ingestion path this package stubs for
// callers that construct a store directly from in-memory primitives.
func (l *primitiveLog) Append(p *primitive.Primitive) error {
	if int(p.ID) != len(l.offsets) {
		return fmt.Errorf("store: non-dense append: id %d, expected %d", p.ID, len(l.offsets))
	}
	raw := encodePrimitive(p)
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(raw)))
	if err := l.store.Grow(l.tail + 4 + int64(len(raw))); err != nil {
		return err
	}
	// Records are kept small enough in practice not to span a tile
	// boundary (spec §4.1 "never spans a tile boundary internally,
	// splitting the request if required"); a primitive whose name+value
	// crosses one would need the splitting Alloc already does for gmap
	// arrays, not yet implemented here for variable-length records.
	if err := l.store.Put(l.tail, header[:]); err != nil {
		return err
	}
	if err := l.store.Put(l.tail+4, raw); err != nil {
		return err
	}
	l.offsets = append(l.offsets, l.tail)
	l.tail += 4 + int64(len(raw))
	return nil
}

// Len reports how many primitives the log holds.
func (l *primitiveLog) Len() int { return len(l.offsets) }

func putID(b []byte, id primitive.ID) {
	binary.BigEndian.PutUint64(b, uint64(id))
}

func getID(b []byte) primitive.ID {
	return primitive.ID(binary.BigEndian.Uint64(b))
}

func putBytes(buf []byte, s []byte) []byte {
	var lenb [4]byte
	binary.BigEndian.PutUint32(lenb[:], uint32(len(s)))
	buf = append(buf, lenb[:]...)
	return append(buf, s...)
}

func takeBytes(b []byte) (s []byte, rest []byte) {
	n := binary.BigEndian.Uint32(b[:4])
	return b[4 : 4+n], b[4+n:]
}

// encodePrimitive is the fixed-then-variable layout: GUID, five linkage
// IDs, valuetype/flags/generation/timestamp, then length-prefixed
// name/value. Exact on-disk byte layout is this implementation's own
// choice (spec §1 scopes persisted format as an out-of-scope
// cross-implementation compatibility concern, not a functional
// requirement).
func encodePrimitive(p *primitive.Primitive) []byte {
	buf := make([]byte, 0, 16+5*8+1+3+4+8+8)
	buf = append(buf, p.GUID[:]...)
	idbuf := make([]byte, 8)
	putID(idbuf, p.Left)
	buf = append(buf, idbuf...)
	putID(idbuf, p.Right)
	buf = append(buf, idbuf...)
	putID(idbuf, p.Scope)
	buf = append(buf, idbuf...)
	putID(idbuf, p.Type)
	buf = append(buf, idbuf...)
	putID(idbuf, p.Previous)
	buf = append(buf, idbuf...)
	buf = append(buf, p.ValueType)
	var flags byte
	if p.Live {
		flags |= 1
	}
	if p.Archival {
		flags |= 2
	}
	if p.TxStart {
		flags |= 4
	}
	buf = append(buf, flags)
	var genbuf [4]byte
	binary.BigEndian.PutUint32(genbuf[:], p.Generation)
	buf = append(buf, genbuf[:]...)
	var tsbuf [8]byte
	binary.BigEndian.PutUint64(tsbuf[:], uint64(p.Timestamp))
	buf = append(buf, tsbuf[:]...)
	buf = putBytes(buf, p.Name)
	buf = putBytes(buf, p.Value)
	return buf
}

func decodePrimitive(b []byte) (*primitive.Primitive, error) {
	if len(b) < 16+5*8+1+1+4+8 {
		return nil, fmt.Errorf("store: truncated primitive record")
	}
	p := &primitive.Primitive{}
	copy(p.GUID[:], b[:16])
	b = b[16:]
	p.Left = getID(b[:8])
	b = b[8:]
	p.Right = getID(b[:8])
	b = b[8:]
	p.Scope = getID(b[:8])
	b = b[8:]
	p.Type = getID(b[:8])
	b = b[8:]
	p.Previous = getID(b[:8])
	b = b[8:]
	p.ValueType = b[0]
	b = b[1:]
	flags := b[0]
	p.Live = flags&1 != 0
	p.Archival = flags&2 != 0
	p.TxStart = flags&4 != 0
	b = b[1:]
	p.Generation = binary.BigEndian.Uint32(b[:4])
	b = b[4:]
	p.Timestamp = int64(binary.BigEndian.Uint64(b[:8]))
	b = b[8:]
	p.Name, b = takeBytes(b)
	p.Value, b = takeBytes(b)
	return p, nil
}
