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

// Package store wires the leaf components (internal/block, internal/gmap,
// internal/guidmap) and the query layers (internal/plan, internal/exec)
// into the single-writer, multi-reader engine of spec §5: one process
// holds the write lock, any number of read sessions open the same files
// read-only, and every reply is held until the checkpoint it depends on
// reaches stable storage.
package store

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/graphd-project/graphd/internal/block"
	"github.com/graphd-project/graphd/internal/config"
	"github.com/graphd-project/graphd/internal/gmap"
	"github.com/graphd-project/graphd/internal/guidmap"
	"github.com/graphd-project/graphd/internal/primitive"
)

// indexNames is the fixed set of per-linkage index maps every store opens
// (spec §3.3 "one per linkage field"), plus the well-known "live" index.
var indexNames = []string{gmap.Left, gmap.Right, gmap.Scope, gmap.Typeguid, gmap.Live}

// Store is one open graphd database: the primitive log, the GUID<->ID
// bijection, and the per-linkage index maps, plus the advisory lock and
// checkpoint-wait machinery spec §5 requires of the single writer.
type Store struct {
	log *zap.Logger
	dir string
	cfg config.Config

	guids      *guidmap.Map
	primitives *primitiveLog
	indexes    map[string]*gmap.Map

	lock       *writerLock
	checkpoint *checkpoint
}

// Open opens (creating if needed) the database rooted at dir. writer
// selects whether this session takes the exclusive single-writer lock
// (spec §5); read-only sessions never block on it.
func Open(log *zap.Logger, dir string, cfg config.Config, writer bool) (*Store, error) {
	lock, err := acquireLock(dir, writer)
	if err != nil {
		return nil, err
	}

	primStore, err := block.Open(log.Named("primitives"), filepath.Join(dir, "primitives.pdb"), block.DefaultTileSize)
	if err != nil {
		lock.Release()
		return nil, err
	}
	plog, err := openPrimitiveLog(primStore)
	if err != nil {
		lock.Release()
		return nil, err
	}

	guids := guidmap.New()
	for id := primitive.ID(0); int(id) < plog.Len(); id++ {
		p, err := plog.Get(id)
		if err != nil {
			lock.Release()
			return nil, err
		}
		if err := guids.Assign(id, p.GUID); err != nil {
			lock.Release()
			return nil, err
		}
	}

	indexes := make(map[string]*gmap.Map, len(indexNames))
	gcfg := gmap.DefaultConfig()
	gcfg.PartitionStride = uint64(cfg.PartitionStride)
	gcfg.SplitThreshold = uint(cfg.SplitThreshold)
	gcfg.MaxID = func() primitive.ID { return primitive.ID(plog.Len()) }
	for _, name := range indexNames {
		m, err := gmap.Open(log.Named("gmap."+name), filepath.Join(dir, "index"), name, gcfg)
		if err != nil {
			lock.Release()
			return nil, err
		}
		indexes[name] = m
	}

	return &Store{
		log:        log,
		dir:        dir,
		cfg:        cfg,
		guids:      guids,
		primitives: plog,
		indexes:    indexes,
		lock:       lock,
		checkpoint: newCheckpoint(),
	}, nil
}

func (s *Store) indexFor(l primitive.Linkage) (*gmap.Map, error) {
	var name string
	switch l {
	case primitive.LinkageLeft:
		name = gmap.Left
	case primitive.LinkageRight:
		name = gmap.Right
	case primitive.LinkageScope:
		name = gmap.Scope
	case primitive.LinkageTypeguid:
		name = gmap.Typeguid
	default:
		return nil, fmt.Errorf("store: linkage %s has no index map", l)
	}
	m, ok := s.indexes[name]
	if !ok {
		return nil, fmt.Errorf("store: index map %q not open", name)
	}
	return m, nil
}

// Close releases every open resource, aggregating failures from the gmap
// partitions, the primitive log, and the writer lock into one error (spec
// §5 "engine drains all pinned tile references before suspending").
func (s *Store) Close() error {
	return s.teardown()
}
