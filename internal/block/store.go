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

// Package block implements the tile-paged block store facade of spec §4.1:
// mmap-backed partition files exporting get/put/alloc/grow, with pinned
// tile references borrowed by callers and released on every exit path
// (including suspension). Grounded on the teacher's lazily-opened,
// deterministically-named partition files
// (turbo/snapshotsync/snapshotsync.go) and mmap'd via
// github.com/edsrzf/mmap-go, the same mmap idiom erigon-lib uses for its
// own KV pages.
package block

import (
	"fmt"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// DefaultTileSize is the span of one mmap'd window into a partition file.
// Must be a multiple of the OS page size; allocations never span a tile
// boundary (spec §4.1: "never spans a tile boundary internally, splitting
// the request if required").
const DefaultTileSize = 1 << 16 // 64 KiB

// Ref is an opaque, pinned borrow onto a Page. Its Release drops the pin;
// callers must call Release on every exit path, including error paths and
// cooperative-yield suspensions (spec §5 "scoped resources").
type Ref struct {
	tile *tile
}

// Release drops the pin this reference holds. Safe to call more than once.
func (r *Ref) Release() {
	if r == nil || r.tile == nil {
		return
	}
	r.tile.unpin()
	r.tile = nil
}

// Page is a pinned, in-memory view of one tile's bytes.
type Page struct {
	Bytes []byte
}

type tile struct {
	key    tileKey
	mm     mmap.MMap
	pinned int
}

func (t *tile) unpin() {
	if t == nil {
		return
	}
	t.pinned--
}

type tileKey struct {
	offset int64
}

// Store is a single partition file's tile-paged facade.
type Store struct {
	log      *zap.Logger
	path     string
	tileSize int

	mu    sync.Mutex // guards file/cache bookkeeping across goroutines (formatter deferreds, checkpoint waits)
	f     *os.File
	size  int64
	cache *lru.Cache[tileKey, *tile]
}

// Open lazily creates/opens the partition file at path. The file is not
// mmap'd until the first Get/ReadRaw/Alloc touches a tile (spec §4.2
// "partition files are ... opened lazily").
func Open(log *zap.Logger, path string, tileSize int) (*Store, error) {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("block: open partition %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("block: stat partition %s: %w", path, err)
	}
	cache, err := lru.NewWithEvict[tileKey, *tile](256, func(_ tileKey, t *tile) {
		if t.pinned > 0 {
			// A pinned tile leaves the cache but is not unmapped here, so
			// the holder's reference stays valid; it is not re-added.
			return
		}
		if t.mm != nil {
			_ = t.mm.Unmap()
		}
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("block: building tile cache: %w", err)
	}
	return &Store{
		log:      log,
		path:     path,
		tileSize: tileSize,
		f:        f,
		size:     fi.Size(),
		cache:    cache,
	}, nil
}

// Close releases the underlying file descriptor. Callers must ensure no
// Refs are outstanding.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range s.cache.Keys() {
		if t, ok := s.cache.Peek(key); ok && t.mm != nil {
			_ = t.mm.Unmap()
		}
	}
	s.cache.Purge()
	return s.f.Close()
}

func (s *Store) tileOffset(offset int64) int64 {
	return (offset / int64(s.tileSize)) * int64(s.tileSize)
}

// getTile returns the pinned tile covering offset, mmap'ing it on first
// touch. Caller must unpin via the returned Ref.
func (s *Store) getTile(offset int64) (*tile, error) {
	key := tileKey{offset: s.tileOffset(offset)}
	if t, ok := s.cache.Get(key); ok {
		t.pinned++
		return t, nil
	}
	length := s.tileSize
	if key.offset+int64(length) > s.size {
		// Partial final tile: map only what exists, bytes beyond are
		// supplied by callers via Grow before they write past EOF.
		length = int(s.size - key.offset)
		if length <= 0 {
			return nil, fmt.Errorf("block: offset %d beyond partition size %d", offset, s.size)
		}
	}
	mm, err := mmap.MapRegion(s.f, length, mmap.RDWR, 0, key.offset)
	if err != nil {
		return nil, fmt.Errorf("block: mmap tile at %d: %w", key.offset, err)
	}
	t := &tile{key: key, mm: mm, pinned: 1}
	s.cache.Add(key, t)
	return t, nil
}

// Get returns a pinned page covering offset.
func (s *Store) Get(offset int64) (Page, *Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.getTile(offset)
	if err != nil {
		return Page{}, nil, err
	}
	start := offset - t.key.offset
	return Page{Bytes: t.mm[start:]}, &Ref{tile: t}, nil
}

// Put writes value at offset, growing the backing tile's dirty window as
// needed. It does not itself extend the file; callers must Grow first.
func (s *Store) Put(offset int64, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset+int64(len(value)) > s.size {
		return fmt.Errorf("block: put at %d len %d exceeds partition size %d", offset, len(value), s.size)
	}
	t, err := s.getTile(offset)
	if err != nil {
		return err
	}
	defer t.unpin()
	start := offset - t.key.offset
	n := copy(t.mm[start:], value)
	if n < len(value) {
		return fmt.Errorf("block: put at %d spans a tile boundary (wrote %d of %d bytes); caller must split", offset, n, len(value))
	}
	return nil
}

// Alloc reserves size bytes at the end of the partition, growing the file
// if needed, and never letting the reserved span cross a tile boundary —
// padding to the next tile start if it would (spec §4.1).
func (s *Store) Alloc(size int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offset := s.size
	tileEnd := s.tileOffset(offset) + int64(s.tileSize)
	if offset+int64(size) > tileEnd {
		offset = tileEnd
	}
	newSize := offset + int64(size)
	if err := s.growLocked(newSize); err != nil {
		return 0, err
	}
	return offset, nil
}

// Grow extends the partition file to at least newSize bytes.
func (s *Store) Grow(newSize int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.growLocked(newSize)
}

func (s *Store) growLocked(newSize int64) error {
	if newSize <= s.size {
		return nil
	}
	if err := s.f.Truncate(newSize); err != nil {
		return fmt.Errorf("block: grow partition %s to %d: %w", s.path, newSize, err)
	}
	s.size = newSize
	return nil
}

// Size reports the current partition length.
func (s *Store) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// ReadRaw returns the longest contiguous run starting at start and not
// passing end, pinned for the duration of the Ref (spec §4.1).
func (s *Store) ReadRaw(start, end int64) ([]byte, int64, *Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if end > s.size {
		end = s.size
	}
	if start >= end {
		return nil, start, nil, nil
	}
	t, err := s.getTile(start)
	if err != nil {
		return nil, start, nil, err
	}
	tileEnd := t.key.offset + int64(len(t.mm))
	runEnd := end
	if tileEnd < runEnd {
		runEnd = tileEnd
	}
	from := start - t.key.offset
	to := runEnd - t.key.offset
	return t.mm[from:to], runEnd, &Ref{tile: t}, nil
}
