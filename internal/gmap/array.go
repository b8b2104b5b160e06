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

import (
	"encoding/binary"
	"fmt"

	"github.com/graphd-project/graphd/internal/primitive"
)

const arrayEntrySize = 8
const sentinelFlag = uint64(1) << 63

func (m *Map) readArrayEntry(p *partition, offset int64, index int) (uint64, error) {
	page, ref, err := p.store.Get(offset + int64(index)*arrayEntrySize)
	if err != nil {
		return 0, err
	}
	defer ref.Release()
	return binary.BigEndian.Uint64(page.Bytes[:arrayEntrySize]), nil
}

func (m *Map) writeArrayEntry(p *partition, offset int64, index int, v uint64) error {
	var b [arrayEntrySize]byte
	binary.BigEndian.PutUint64(b[:], v)
	return p.store.Put(offset+int64(index)*arrayEntrySize, b[:])
}

// arrayFillAndN returns the current real-element count and the array's
// total capacity N=2^exp, determined by inspecting the sentinel slot (spec
// §3.3/§4.2: "the final slot is a sentinel whose low bits encode the fill
// level").
func (m *Map) arrayFillAndN(p *partition, s slot) (count, n int, err error) {
	offset, exp := unpackArrayPayload(s.payload)
	n = 1 << exp
	last, err := m.readArrayEntry(p, offset, n-1)
	if err != nil {
		return 0, 0, err
	}
	if last&sentinelFlag != 0 {
		return int(last &^ sentinelFlag), n, nil
	}
	return n, n, nil
}

func (m *Map) allocArray(p *partition, exp uint) (int64, error) {
	n := 1 << exp
	if list := p.freelist[exp]; len(list) > 0 {
		off := list[len(list)-1]
		p.freelist[exp] = list[:len(list)-1]
		return off, nil
	}
	return p.store.Alloc(n * arrayEntrySize)
}

func (m *Map) freeArray(p *partition, offset int64, exp uint) {
	p.freelist[exp] = append(p.freelist[exp], offset)
}

// writeArrayBody lays out count entries (count <= n) into a freshly
// allocated array region of capacity n, installing the sentinel if the
// array is not yet full.
func (m *Map) writeArrayBody(p *partition, offset int64, n int, entries []primitive.ID) error {
	for i, e := range entries {
		if err := m.writeArrayEntry(p, offset, i, uint64(e)); err != nil {
			return err
		}
	}
	if len(entries) < n {
		if err := m.writeArrayEntry(p, offset, n-1, sentinelFlag|uint64(len(entries))); err != nil {
			return err
		}
	}
	return nil
}

// createArray promotes a Singleton slot to a 2-element multi-array (spec
// §4.2 step "Singleton(prev) -> ... allocate a 2-slot multi-array").
func (m *Map) createArray(p *partition, local uint64, entries []primitive.ID) error {
	const exp = 1
	n := 1 << exp
	offset, err := m.allocArray(p, exp)
	if err != nil {
		return err
	}
	if err := m.writeArrayBody(p, offset, n, entries); err != nil {
		return err
	}
	return p.writeSlot(local, slot{tag: BackendArray, payload: packArrayPayload(offset, exp)})
}

func (m *Map) readArray(p *partition, s slot) ([]primitive.ID, error) {
	offset, exp := unpackArrayPayload(s.payload)
	n := 1 << exp
	count, _, err := m.arrayFillAndN(p, s)
	if err != nil {
		return nil, err
	}
	out := make([]primitive.ID, 0, count)
	for i := 0; i < count; i++ {
		if i == n-1 && count < n {
			break // last slot is the sentinel, not a real entry
		}
		v, err := m.readArrayEntry(p, offset, i)
		if err != nil {
			return nil, err
		}
		out = append(out, primitive.ID(v))
	}
	return out, nil
}

// addToArray implements spec §4.2's Multi-array case: append if room
// remains, otherwise double (or migrate to large-file past split_threshold).
func (m *Map) addToArray(source primitive.ID, p *partition, local uint64, s slot, target primitive.ID, duplicatesOK bool) error {
	offset, exp := unpackArrayPayload(s.payload)
	n := 1 << exp
	count, _, err := m.arrayFillAndN(p, s)
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("gmap: corrupt array at partition offset %d: zero fill", offset)
	}
	lastIdx := count - 1
	last, err := m.readArrayEntry(p, offset, lastIdx)
	if err != nil {
		return err
	}
	last &^= sentinelFlag
	lastID := primitive.ID(last)
	switch {
	case lastID == target:
		return m.duplicate(duplicatesOK)
	case lastID > target:
		return ErrOutOfOrder
	}

	if count < n {
		if err := m.writeArrayEntry(p, offset, count, uint64(target)); err != nil {
			return err
		}
		newCount := count + 1
		if newCount < n {
			if err := m.writeArrayEntry(p, offset, n-1, sentinelFlag|uint64(newCount)); err != nil {
				return err
			}
		}
		return nil
	}

	// Array is full: double it (or migrate to large-file past threshold).
	newExp := exp + 1
	if newExp > m.cfg.SplitThreshold {
		all, err := m.readArray(p, s)
		if err != nil {
			return err
		}
		all = append(all, target)
		if err := m.migrateArrayToLarge(source, p, local, offset, exp, all); err != nil {
			return err
		}
		return nil
	}

	newN := 1 << newExp
	newOffset, err := m.allocArray(p, newExp)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		v, err := m.readArrayEntry(p, offset, i)
		if err != nil {
			return err
		}
		v &^= sentinelFlag
		if err := m.writeArrayEntry(p, newOffset, i, v); err != nil {
			return err
		}
	}
	if err := m.writeArrayEntry(p, newOffset, n, uint64(target)); err != nil {
		return err
	}
	newFill := n + 1
	if newFill < newN {
		if err := m.writeArrayEntry(p, newOffset, newN-1, sentinelFlag|uint64(newFill)); err != nil {
			return err
		}
	}
	m.freeArray(p, offset, exp)
	return p.writeSlot(local, slot{tag: BackendArray, payload: packArrayPayload(newOffset, newExp)})
}

// migrateArrayToLarge implements the "if the new exponent exceeds
// split_threshold, migrate to Large-file before writing" step of spec
// §4.2: it creates source's large file pre-loaded with all, frees the old
// array region, and repoints source's index slot at the large file.
func (m *Map) migrateArrayToLarge(source primitive.ID, p *partition, local uint64, offset int64, exp uint, all []primitive.ID) error {
	if err := m.createLargeFile(source, all); err != nil {
		return err
	}
	m.freeArray(p, offset, exp)
	return p.writeSlot(local, slot{tag: BackendLarge, payload: uint64(len(all))})
}
