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
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/graphd-project/graphd/internal/primitive"
)

// bitmapEntry caches one source key's BGMAP bitmap and population count in
// memory, flushed to a side file on every mutation. graphd IDs are 34-bit
// (spec §3.1), larger than roaring's native 32-bit Bitmap, so BGMAP uses
// roaring64 — the same RoaringBitmap family the teacher's stack depends on
// for its own dense ID-set indices.
type bitmapEntry struct {
	bm    *roaring64.Bitmap
	count uint64
}

func (m *Map) bitmapPath(source primitive.ID) string {
	return filepath.Join(m.dir, fmt.Sprintf("%s.%d.bm", m.name, source))
}

func (m *Map) loadBitmap(source primitive.ID) (*bitmapEntry, error) {
	if e, ok := m.bitmaps[source]; ok {
		return e, nil
	}
	bm := roaring64.New()
	path := m.bitmapPath(source)
	if data, err := os.ReadFile(path); err == nil {
		if _, err := bm.ReadFrom(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("gmap: decode bitmap %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("gmap: read bitmap %s: %w", path, err)
	}
	e := &bitmapEntry{bm: bm, count: bm.GetCardinality()}
	m.bitmaps[source] = e
	return e, nil
}

func (m *Map) saveBitmap(source primitive.ID, e *bitmapEntry) error {
	data, err := e.bm.ToBytes()
	if err != nil {
		return fmt.Errorf("gmap: encode bitmap: %w", err)
	}
	if err := os.WriteFile(m.bitmapPath(source), data, 0o644); err != nil {
		return fmt.Errorf("gmap: write bitmap: %w", err)
	}
	return nil
}

// migrateLargeToBitmap implements the Large-file -> Bitmap promotion of
// spec §4.2, triggered when "density now warrants it".
func (m *Map) migrateLargeToBitmap(source primitive.ID, entries []primitive.ID) error {
	e, err := m.loadBitmap(source)
	if err != nil {
		return err
	}
	for _, id := range entries {
		e.bm.Add(uint64(id))
	}
	e.count = e.bm.GetCardinality()
	if err := m.saveBitmap(source, e); err != nil {
		return err
	}
	p, local, err := m.partitionOf(source)
	if err != nil {
		return err
	}
	return p.writeSlot(local, slot{tag: BackendBitmap, payload: e.count})
}

// addToBitmap implements spec §4.2's Bitmap case: set the bit, bump count.
func (m *Map) addToBitmap(source primitive.ID, s slot, target primitive.ID, duplicatesOK bool) error {
	e, err := m.loadBitmap(source)
	if err != nil {
		return err
	}
	if e.bm.Contains(uint64(target)) {
		return m.duplicate(duplicatesOK)
	}
	e.bm.Add(uint64(target))
	e.count++
	if err := m.saveBitmap(source, e); err != nil {
		return err
	}
	p, local, err := m.partitionOf(source)
	if err != nil {
		return err
	}
	return p.writeSlot(local, slot{tag: BackendBitmap, payload: e.count})
}

func (m *Map) readBitmap(source primitive.ID) ([]primitive.ID, error) {
	e, err := m.loadBitmap(source)
	if err != nil {
		return nil, err
	}
	out := make([]primitive.ID, 0, e.count)
	it := e.bm.Iterator()
	for it.HasNext() {
		out = append(out, primitive.ID(it.Next()))
	}
	return out, nil
}

// Contains reports whether target is a member of source's set (spec §4.3
// `check`). Only the bitmap backend answers without materializing the whole
// set; the array and large-file backends read it via Members and
// binary-search it.
func (m *Map) Contains(source, target primitive.ID) (bool, error) {
	_, _, s, err := m.slotFor(source)
	if err != nil {
		return false, err
	}
	switch s.tag {
	case BackendEmpty:
		return false, nil
	case BackendSingleton:
		return primitive.ID(s.payload) == target, nil
	case BackendBitmap:
		e, err := m.loadBitmap(source)
		if err != nil {
			return false, err
		}
		return e.bm.Contains(uint64(target)), nil
	default:
		members, err := m.Members(source)
		if err != nil {
			return false, err
		}
		lo, hi := 0, len(members)
		for lo < hi {
			mid := (lo + hi) / 2
			if members[mid] < target {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		return lo < len(members) && members[lo] == target, nil
	}
}
