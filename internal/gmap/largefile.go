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
	"path/filepath"

	"github.com/graphd-project/graphd/internal/block"
	"github.com/graphd-project/graphd/internal/primitive"
)

// Large-file layout per spec §6: an 80-byte header ("lfv3" magic + 8-byte
// size, zero-padded) followed by 5-byte big-endian ID entries.
const (
	largeFileMagic      = "lfv3"
	largeFileHeaderSize = 80
	largeFileEntrySize  = 5
)

func (m *Map) largeFilePath(source primitive.ID) string {
	return filepath.Join(m.dir, fmt.Sprintf("%s.%d.lf", m.name, source))
}

func (m *Map) largeFileStore(source primitive.ID) (*block.Store, error) {
	if st, ok := m.largefiles[source]; ok {
		return st, nil
	}
	st, err := block.Open(m.log, m.largeFilePath(source), m.cfg.TileSize)
	if err != nil {
		return nil, err
	}
	if st.Size() < largeFileHeaderSize {
		if err := st.Grow(largeFileHeaderSize); err != nil {
			return nil, err
		}
		var hdr [largeFileHeaderSize]byte
		copy(hdr[:4], largeFileMagic)
		if err := st.Put(0, hdr[:]); err != nil {
			return nil, err
		}
	}
	m.largefiles[source] = st
	return st, nil
}

func writeID5(id primitive.ID) [largeFileEntrySize]byte {
	var full [8]byte
	binary.BigEndian.PutUint64(full[:], uint64(id))
	var out [largeFileEntrySize]byte
	copy(out[:], full[3:]) // low 40 bits, big-endian
	return out
}

func readID5(b []byte) primitive.ID {
	var full [8]byte
	copy(full[3:], b[:largeFileEntrySize])
	return primitive.ID(binary.BigEndian.Uint64(full[:]))
}

func (m *Map) largeFileSize(st *block.Store) (int, error) {
	page, ref, err := st.Get(4)
	if err != nil {
		return 0, err
	}
	defer ref.Release()
	return int(binary.BigEndian.Uint64(page.Bytes[:8])), nil
}

func (m *Map) setLargeFileSize(st *block.Store, n int) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(n))
	return st.Put(4, b[:])
}

// createLargeFile writes entries (already ascending) as source's large
// file from scratch, used when an array is promoted past split_threshold.
func (m *Map) createLargeFile(source primitive.ID, entries []primitive.ID) error {
	st, err := m.largeFileStore(source)
	if err != nil {
		return err
	}
	need := largeFileHeaderSize + len(entries)*largeFileEntrySize
	if int64(need) > st.Size() {
		if err := st.Grow(int64(need)); err != nil {
			return err
		}
	}
	for i, e := range entries {
		b := writeID5(e)
		if err := st.Put(int64(largeFileHeaderSize+i*largeFileEntrySize), b[:]); err != nil {
			return err
		}
	}
	return m.setLargeFileSize(st, len(entries))
}

func (m *Map) readLarge(source primitive.ID) ([]primitive.ID, error) {
	st, err := m.largeFileStore(source)
	if err != nil {
		return nil, err
	}
	n, err := m.largeFileSize(st)
	if err != nil {
		return nil, err
	}
	out := make([]primitive.ID, 0, n)
	for i := 0; i < n; i++ {
		page, ref, err := st.Get(int64(largeFileHeaderSize + i*largeFileEntrySize))
		if err != nil {
			return nil, err
		}
		out = append(out, readID5(page.Bytes[:largeFileEntrySize]))
		ref.Release()
	}
	return out, nil
}

// addToLarge implements spec §4.2's Large-file case: append, then migrate
// to Bitmap once density warrants it.
func (m *Map) addToLarge(source primitive.ID, s slot, target primitive.ID, duplicatesOK bool) error {
	st, err := m.largeFileStore(source)
	if err != nil {
		return err
	}
	n, err := m.largeFileSize(st)
	if err != nil {
		return err
	}
	if n > 0 {
		page, ref, err := st.Get(int64(largeFileHeaderSize + (n-1)*largeFileEntrySize))
		if err != nil {
			return err
		}
		last := readID5(page.Bytes[:largeFileEntrySize])
		ref.Release()
		switch {
		case last == target:
			return m.duplicate(duplicatesOK)
		case last > target:
			return ErrOutOfOrder
		}
	}
	need := largeFileHeaderSize + (n+1)*largeFileEntrySize
	if int64(need) > st.Size() {
		if err := st.Grow(int64(need)); err != nil {
			return err
		}
	}
	b := writeID5(target)
	if err := st.Put(int64(largeFileHeaderSize+n*largeFileEntrySize), b[:]); err != nil {
		return err
	}
	newCount := n + 1
	if err := m.setLargeFileSize(st, newCount); err != nil {
		return err
	}

	maxID := m.cfg.MaxID()
	if maxID != primitive.NoID && newCount > m.cfg.BitmapDensityMinSize && newCount*40 > int(maxID) {
		entries, err := m.readLarge(source)
		if err != nil {
			return err
		}
		if err := m.migrateLargeToBitmap(source, entries); err != nil {
			return err
		}
	}

	p, local, err := m.partitionOf(source)
	if err != nil {
		return err
	}
	current, err := p.readSlot(local)
	if err != nil {
		return err
	}
	if current.tag == BackendLarge {
		return p.writeSlot(local, slot{tag: BackendLarge, payload: uint64(newCount)})
	}
	return nil // already migrated to bitmap by the branch above
}
