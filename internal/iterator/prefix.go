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

package iterator

import (
	"github.com/graphd-project/graphd/internal/gmap"
	"github.com/graphd-project/graphd/internal/primitive"
)

// HMapSource resolves the per-character hash-map GMAP a prefix query
// fans out over: one GMAP keyed by (position, byte value), looked up once
// per byte of the prefix string. NewPrefix intersects those lookups; it
// does not union them (spec §4.3 names "gmap / bgmap / hmap" as
// siblings; a prefix match is their composition).
type HMapSource func(position int, b byte) (*gmap.Map, primitive.ID, error)

// NewPrefix builds the "primitives whose name starts with prefix" iterator
// by intersecting, for each byte of prefix, the per-position hmap GMap
// lookup resolve supplies — an And of GMap iterators, reported under the
// prefix wire tag.
func NewPrefix(resolve HMapSource, prefix []byte, dir Direction) (Iterator, error) {
	if len(prefix) == 0 {
		return nil, errEmptyPrefix
	}
	subs := make([]Iterator, 0, len(prefix))
	for i, c := range prefix {
		m, source, err := resolve(i, c)
		if err != nil {
			return nil, err
		}
		g, err := NewGMap(m, source, dir)
		if err != nil {
			return nil, err
		}
		subs = append(subs, g)
	}
	and := NewAnd(subs, 0, dir)
	return &prefixIterator{And: and}, nil
}

var errEmptyPrefix = prefixError("iterator: empty prefix")

type prefixError string

func (e prefixError) Error() string { return string(e) }

// prefixIterator wraps And purely to report the "prefix" wire tag instead
// of "and".
type prefixIterator struct {
	*And
}

func (p *prefixIterator) TypeTag() string { return "prefix" }

func (p *prefixIterator) Clone() Iterator {
	return &prefixIterator{And: p.And.Clone().(*And)}
}
