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
	"github.com/graphd-project/graphd/internal/idarray"
	"github.com/graphd-project/graphd/internal/iterator"
	"github.com/graphd-project/graphd/internal/primitive"
)

// LinkGUID implements plan.Catalog: the iterator over primitives whose
// linkage field equals the primitive named by guidHex (spec §4.3
// "linksto"). linkage == LinkageNone has no index and is rejected by the
// caller's predicate compiler before it ever reaches here.
func (s *Store) LinkGUID(linkage primitive.Linkage, guidHex string, dir iterator.Direction) (iterator.Iterator, error) {
	guid, err := primitive.ParseGUID(guidHex)
	if err != nil {
		return nil, err
	}
	id, err := s.guids.Lookup(guid)
	if err != nil {
		return iterator.NewNull(), nil
	}
	m, err := s.indexFor(linkage)
	if err != nil {
		return nil, err
	}
	return iterator.NewLinksTo(m, linkage, id, dir)
}

// Vip implements plan.Catalog. This store does not maintain a composite
// linkage+typeguid index (spec §4.3's vip is an optimization, not a
// requirement: "callers fall back to intersecting the two plain indices
// instead" when the catalog reports false here), so every vip rewrite
// falls back to the two-index intersection the planner already knows how
// to build.
func (s *Store) Vip(linkage primitive.Linkage, guidHex, typeguidHex string, dir iterator.Direction) (iterator.Iterator, bool, error) {
	return nil, false, nil
}

// All implements plan.Catalog: the full dense primitive-ID range.
func (s *Store) All(dir iterator.Direction) (iterator.Iterator, error) {
	return iterator.NewAll(0, primitive.ID(s.primitives.Len()), dir), nil
}

// Primitive implements exec.Env.
func (s *Store) Primitive(id primitive.ID) (*primitive.Primitive, error) {
	return s.primitives.Get(id)
}

// LinkedIterator implements exec.Env, the subrequest-seeding hook of spec
// §4.6: reversed==false asks "who points at parent via linkage" (an index
// lookup, arbitrarily many results); reversed==true asks "what does
// parent itself point at via linkage" (a single-valued field read,
// presented as a 0-or-1-element iterator).
func (s *Store) LinkedIterator(parent primitive.ID, linkage primitive.Linkage, reversed bool, dir iterator.Direction) (iterator.Iterator, error) {
	if !reversed {
		m, err := s.indexFor(linkage)
		if err != nil {
			return nil, err
		}
		return iterator.NewLinksTo(m, linkage, parent, dir)
	}

	p, err := s.primitives.Get(parent)
	if err != nil {
		return nil, err
	}
	target := p.LinkageID(linkage)
	if !target.Valid() {
		return iterator.NewFixed(idarray.Slice{}, dir), nil
	}
	return iterator.NewFixed(idarray.Slice{target}, dir), nil
}
