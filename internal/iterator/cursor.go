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
	"strconv"
	"strings"
)

// ThawFunc reconstructs an iterator from the portion of a frozen cursor
// following its "tag:" prefix. It is handed the environment it needs
// (live gmap.Maps, primitive lookups, sub-thawers) by whatever registers it
// — cursor.go itself only knows how to split the tag off and dispatch.
type ThawFunc func(body string) (Iterator, error)

// Registry dispatches Thaw by the wire type prefix spec §6 lists: fixed,
// and, fixed-and, or, or-linksto, isa, fixed-isa, linksto, fixed-linksto,
// islink, prefix, sort, vip, vrange, without, all, null, gmap, bgmap.
type Registry struct {
	handlers map[string]ThawFunc
}

// NewRegistry returns an empty registry; callers register the tags their
// store actually produces (a store with no bitmap-backed GMAPs need never
// register "bgmap", for instance).
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]ThawFunc)}
}

// Register installs the thaw handler for tag, overwriting any previous one.
func (r *Registry) Register(tag string, fn ThawFunc) {
	r.handlers[tag] = fn
}

// Thaw splits cursor on its first ':' to recover the wire tag, then
// dispatches to the registered handler. Returns ErrThaw if the cursor is
// malformed or no handler is registered for its tag.
func (r *Registry) Thaw(cursor string) (Iterator, error) {
	tag, body, ok := strings.Cut(cursor, ":")
	if !ok {
		return nil, ErrThaw
	}
	fn, ok := r.handlers[tag]
	if !ok {
		return nil, ErrThaw
	}
	return fn(body)
}

// Freeze is a convenience wrapper: it defers entirely to the iterator's own
// Freeze, existing so callers can pair Registry.Thaw with iterator.Freeze
// without importing both call styles.
func Freeze(it Iterator, scope FreezeScope) (string, error) {
	return it.Freeze(scope)
}

// frameJoin concatenates parts as "<len>:<content>" segments back to back,
// so a compound iterator's Freeze can embed several nested cursors (each
// free to contain its own ':' and '|' bytes) in one string without
// ambiguity. frameSplit reverses it.
func frameJoin(parts []string) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(strconv.Itoa(len(p)))
		sb.WriteByte(':')
		sb.WriteString(p)
	}
	return sb.String()
}

func frameSplit(body string) ([]string, error) {
	var parts []string
	for len(body) > 0 {
		i := strings.IndexByte(body, ':')
		if i < 0 {
			return nil, ErrThaw
		}
		n, err := strconv.Atoi(body[:i])
		if err != nil || n < 0 {
			return nil, ErrThaw
		}
		body = body[i+1:]
		if n > len(body) {
			return nil, ErrThaw
		}
		parts = append(parts, body[:n])
		body = body[n:]
	}
	return parts, nil
}
