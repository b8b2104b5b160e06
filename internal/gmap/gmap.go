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

// Package gmap implements the index map (GMAP) abstraction of spec §3.3 and
// §4.2: a mapping from a source ID to a strictly ascending set of target
// IDs, physically represented as one of empty / singleton / multi-array /
// large-file / bitmap, promoted automatically by size. Grounded on the
// teacher's lazily-opened, deterministically-named partition files
// (turbo/snapshotsync/snapshotsync.go) for the slot table and array region,
// and on github.com/RoaringBitmap/roaring/v2 (an Erigon dependency used for
// its own dense ID-set indices) for the bitmap backend.
package gmap

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/graphd-project/graphd/internal/block"
	"github.com/graphd-project/graphd/internal/primitive"
)

// ErrAlreadyExists is returned by Add when target is already present under
// source and duplicatesOK was requested (spec §3.3, §4.2 step 3).
var ErrAlreadyExists = fmt.Errorf("gmap: already exists")

// ErrOutOfOrder is the fatal "inserted out of order" condition of spec
// §4.2 step 3: the caller tried to insert an ID not greater than the
// current maximum, and duplicates were not expected.
var ErrOutOfOrder = fmt.Errorf("gmap: inserted out of order")

// Config carries the tunables spec §9 calls out as implementation-defined:
// "the exact threshold constants ... appear as magic numbers; implementers
// must treat them as tunables, not invariants, and expose them in config."
type Config struct {
	// PartitionStride is the number of source keys per partition file.
	PartitionStride uint64
	// SplitThreshold is the array size-exponent above which a key migrates
	// to the large-file backend (spec §4.2, default 14).
	SplitThreshold uint
	// BitmapDensityMinSize is the minimum element count before density is
	// even considered for large-file -> bitmap migration (spec §4.2,
	// default 131072).
	BitmapDensityMinSize int
	// MaxID bounds the dense ID range a BGMAP bitmap must cover; used in
	// the density test "size*40 > max_id" (spec §4.2, §9).
	MaxID func() primitive.ID
	// TileSize is the mmap window size for partition files (spec §4.1).
	TileSize int
}

// DefaultConfig returns the tunables used when none are supplied.
func DefaultConfig() Config {
	return Config{
		PartitionStride:       1 << 16,
		SplitThreshold:        14,
		BitmapDensityMinSize:  131072,
		MaxID:                 func() primitive.ID { return primitive.NoID },
		TileSize:              block.DefaultTileSize,
	}
}

// Map is one index map instance (e.g. the "right" linkage index).
type Map struct {
	log  *zap.Logger
	name string
	dir  string
	cfg  Config

	partitions map[uint64]*partition
	largefiles map[primitive.ID]*block.Store
	bitmaps    map[primitive.ID]*bitmapEntry
}

// Open opens (creating if needed) the GMAP named name under dir.
func Open(log *zap.Logger, dir, name string, cfg Config) (*Map, error) {
	if cfg.PartitionStride == 0 {
		cfg = DefaultConfig()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("gmap: mkdir %s: %w", dir, err)
	}
	return &Map{
		log:        log,
		name:       name,
		dir:        dir,
		cfg:        cfg,
		partitions: make(map[uint64]*partition),
		largefiles: make(map[primitive.ID]*block.Store),
		bitmaps:    make(map[primitive.ID]*bitmapEntry),
	}, nil
}

// Name returns the map's name (as used in heatmap traces and file names).
func (m *Map) Name() string { return m.name }

type partition struct {
	store    *block.Store
	freelist map[uint][]int64 // exponent -> freed array offsets; in-memory
	// (crash recovery of the freelist is delegated to the out-of-scope
	// checkpoint collaborator, spec §1; losing it on restart costs some
	// fragmentation, never correctness).
}

func (m *Map) partitionOf(source primitive.ID) (*partition, uint64, error) {
	idx := uint64(source) / m.cfg.PartitionStride
	local := uint64(source) % m.cfg.PartitionStride
	if p, ok := m.partitions[idx]; ok {
		return p, local, nil
	}
	path := filepath.Join(m.dir, fmt.Sprintf("%s.%d.gm", m.name, idx))
	header := int64(m.cfg.PartitionStride) * slotSize
	st, err := block.Open(m.log, path, m.cfg.TileSize)
	if err != nil {
		return nil, 0, err
	}
	if st.Size() < header {
		if err := st.Grow(header); err != nil {
			return nil, 0, err
		}
	}
	p := &partition{store: st, freelist: make(map[uint][]int64)}
	m.partitions[idx] = p
	return p, local, nil
}

func (p *partition) readSlot(local uint64) (slot, error) {
	page, ref, err := p.store.Get(int64(local) * slotSize)
	if err != nil {
		return slot{}, err
	}
	defer ref.Release()
	return decodeSlot(page.Bytes[:slotSize]), nil
}

func (p *partition) writeSlot(local uint64, s slot) error {
	b := encodeSlot(s)
	return p.store.Put(int64(local)*slotSize, b[:])
}

// arrayRegionHeader is the byte offset where array-region allocations
// begin: right after the fixed slot table.
func (m *Map) arrayRegionHeader() int64 {
	return int64(m.cfg.PartitionStride) * slotSize
}

// slotFor returns the decoded slot for source (spec §4.2 step 1).
func (m *Map) slotFor(source primitive.ID) (*partition, uint64, slot, error) {
	p, local, err := m.partitionOf(source)
	if err != nil {
		return nil, 0, slot{}, err
	}
	s, err := p.readSlot(local)
	if err != nil {
		return nil, 0, slot{}, err
	}
	return p, local, s, nil
}

// Backend reports the current physical representation for source.
func (m *Map) Backend(source primitive.ID) (Backend, error) {
	_, _, s, err := m.slotFor(source)
	if err != nil {
		return 0, err
	}
	return s.tag, nil
}

// Add appends target to source's ordered set, migrating backends as
// thresholds are crossed (spec §4.2). If duplicatesOK is false and target
// is already present, Add returns ErrOutOfOrder (matching spec §9's "bare
// assert paths are hard contracts" note: callers that did not expect
// duplicates have committed a programmer error). If duplicatesOK is true
// and target is already present, Add returns ErrAlreadyExists and makes no
// change.
func (m *Map) Add(source, target primitive.ID, duplicatesOK bool) error {
	p, local, s, err := m.slotFor(source)
	if err != nil {
		return err
	}
	switch s.tag {
	case BackendEmpty:
		return p.writeSlot(local, slot{tag: BackendSingleton, payload: uint64(target)})

	case BackendSingleton:
		prev := primitive.ID(s.payload)
		switch {
		case prev == target:
			return m.duplicate(duplicatesOK)
		case prev > target:
			return ErrOutOfOrder
		default:
			return m.createArray(p, local, []primitive.ID{prev, target})
		}

	case BackendArray:
		return m.addToArray(source, p, local, s, target, duplicatesOK)

	case BackendLarge:
		return m.addToLarge(source, s, target, duplicatesOK)

	case BackendBitmap:
		return m.addToBitmap(source, s, target, duplicatesOK)

	default:
		return fmt.Errorf("gmap: unknown backend tag %d", s.tag)
	}
}

func (m *Map) duplicate(duplicatesOK bool) error {
	if duplicatesOK {
		return ErrAlreadyExists
	}
	return ErrOutOfOrder
}

// Members returns the full ordered set of target IDs for source, read whole
// into memory. The iterator layer's GMap loads each source's set through
// it, and Contains uses it for the array and large-file backends.
func (m *Map) Members(source primitive.ID) ([]primitive.ID, error) {
	_, _, s, err := m.slotFor(source)
	if err != nil {
		return nil, err
	}
	switch s.tag {
	case BackendEmpty:
		return nil, nil
	case BackendSingleton:
		return []primitive.ID{primitive.ID(s.payload)}, nil
	case BackendArray:
		p, _, _ := m.partitionOf(source)
		return m.readArray(p, s)
	case BackendLarge:
		return m.readLarge(source)
	case BackendBitmap:
		return m.readBitmap(source)
	default:
		return nil, fmt.Errorf("gmap: unknown backend tag %d", s.tag)
	}
}

// Count returns the number of targets for source without materializing
// them, used by iterator statistics (spec §4.3).
func (m *Map) Count(source primitive.ID) (int, error) {
	_, _, s, err := m.slotFor(source)
	if err != nil {
		return 0, err
	}
	switch s.tag {
	case BackendEmpty:
		return 0, nil
	case BackendSingleton:
		return 1, nil
	case BackendArray:
		p, _, _ := m.partitionOf(source)
		count, _, err := m.arrayFillAndN(p, s)
		if err != nil {
			return 0, err
		}
		return count, nil
	case BackendLarge:
		return int(s.payload), nil
	case BackendBitmap:
		return int(s.payload), nil
	default:
		return 0, fmt.Errorf("gmap: unknown backend tag %d", s.tag)
	}
}

// Close releases all open partitions, large files, and bitmaps.
func (m *Map) Close() error {
	var firstErr error
	for _, p := range m.partitions {
		if err := p.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, lf := range m.largefiles {
		if err := lf.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
