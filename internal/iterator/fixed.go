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
	"fmt"
	"strconv"
	"strings"

	"github.com/graphd-project/graphd/internal/budget"
	"github.com/graphd-project/graphd/internal/idarray"
	"github.com/graphd-project/graphd/internal/primitive"
)

// Fixed is an explicit in-memory sorted ID array: the product of small
// intersections, subrequest seeding collapse, and the server-side resource
// cache (spec §4.3 "fixed").
//
// A Fixed may carry a masquerade: a caller-chosen stable string under which
// its contents are keyed in the resource cache, used when the content
// itself is unstable or too large to fingerprint cheaply (spec GLOSSARY
// "Masquerade").
type Fixed struct {
	ids        idarray.Slice
	dir        Direction
	masquerade string
	pos        int // index of the last-returned element, -1 before start
	started    bool
	// tag overrides TypeTag's default "fixed" report: set by constructors
	// (NewIsa) that materialize into a Fixed but need the wire cursor to
	// stay distinguishable from a plain fixed set (spec §6 "fixed-isa").
	tag string
}

// NewFixed wraps an already-sorted ID slice. ids must be sorted ascending;
// Reverse direction walks it back to front.
func NewFixed(ids idarray.Slice, dir Direction) *Fixed {
	return &Fixed{ids: ids, dir: dir, pos: -1}
}

// WithMasquerade attaches a caller-chosen cache key and returns the
// receiver for chaining.
func (f *Fixed) WithMasquerade(key string) *Fixed {
	f.masquerade = key
	return f
}

func (f *Fixed) Masquerade() string { return f.masquerade }

func (f *Fixed) step() (int, bool) {
	if f.dir == Forward {
		if !f.started {
			return 0, 0 < len(f.ids)
		}
		return f.pos + 1, f.pos+1 < len(f.ids)
	}
	if !f.started {
		return len(f.ids) - 1, len(f.ids) > 0
	}
	return f.pos - 1, f.pos-1 >= 0
}

func (f *Fixed) Next(b *budget.Budget) (NextResult, error) {
	if b.Charge(budget.CostNext) {
		return suspendResult, nil
	}
	next, ok := f.step()
	f.started = true
	if !ok {
		f.pos = next
		return doneResult, nil
	}
	f.pos = next
	return found(f.ids[f.pos]), nil
}

func (f *Fixed) Find(b *budget.Budget, id primitive.ID) (NextResult, error) {
	if b.Charge(budget.CostFind) {
		return suspendResult, nil
	}
	idx, exact := f.ids.Find(id)
	f.started = true
	if f.dir == Forward {
		if idx >= len(f.ids) {
			f.pos = idx
			return doneResult, nil
		}
		f.pos = idx
		return found(f.ids[idx]), nil
	}
	// Reverse: want the largest id' <= id.
	if exact {
		f.pos = idx
		return found(f.ids[idx]), nil
	}
	idx--
	if idx < 0 {
		f.pos = -1
		return doneResult, nil
	}
	f.pos = idx
	return found(f.ids[idx]), nil
}

func (f *Fixed) Check(b *budget.Budget, id primitive.ID) (CheckOutcome, error) {
	if b.Charge(budget.CostCheck) {
		return CheckSuspend, nil
	}
	_, exact := f.ids.Find(id)
	if exact {
		return Yes, nil
	}
	return No, nil
}

func (f *Fixed) Statistics(b *budget.Budget) (Stats, bool, error) {
	return Stats{
		N:         uint64(len(f.ids)),
		CheckCost: 1,
		NextCost:  1,
		FindCost:  1,
		Sorted:    true,
		Direction: f.dir,
		Done:      true,
	}, true, nil
}

func (f *Fixed) Clone() Iterator {
	c := &Fixed{ids: f.ids, dir: f.dir, masquerade: f.masquerade, pos: -1, tag: f.tag}
	return c
}

func (f *Fixed) Reset() {
	f.pos = -1
	f.started = false
}

// Freeze emits "<tag>:<masquerade>;<csv-of-ids>;<pos>,<started>" — the
// masquerade segment is empty when unset, in which case the full ID list
// must be carried (spec §4.3's "absence on resume is tolerated... possibly
// via recover callbacks" does not apply to plain fixed sets, only to
// islink-style ones). tag is "fixed" unless a constructor like NewIsa
// overrode it.
func (f *Fixed) Freeze(scope FreezeScope) (string, error) {
	var sb strings.Builder
	sb.WriteString(f.TypeTag())
	sb.WriteByte(':')
	sb.WriteString(f.masquerade)
	sb.WriteByte(';')
	if scope&FreezeSet != 0 {
		for i, id := range f.ids {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatUint(uint64(id), 10))
		}
	}
	sb.WriteByte(';')
	if scope&FreezePosition != 0 {
		fmt.Fprintf(&sb, "%d,%v", f.pos, f.started)
	}
	return sb.String(), nil
}

// ThawFixed parses a cursor produced by Freeze, whatever tag prefix it
// carries ("fixed" or "fixed-isa" — both share this body shape). recover,
// if non-nil, is consulted to re-derive the ID list from the masquerade
// when the SET portion was omitted because the server's resource cache
// evicted it.
func ThawFixed(cursor string, dir Direction, recover func(masquerade string) (idarray.Slice, error)) (*Fixed, error) {
	tag, body, ok := strings.Cut(cursor, ":")
	if !ok {
		return nil, ErrThaw
	}
	parts := strings.SplitN(body, ";", 3)
	if len(parts) != 3 {
		return nil, ErrThaw
	}
	masquerade, setPart, posPart := parts[0], parts[1], parts[2]

	var ids idarray.Slice
	if setPart != "" {
		for _, s := range strings.Split(setPart, ",") {
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return nil, ErrThaw
			}
			ids = append(ids, primitive.ID(n))
		}
	} else if masquerade != "" && recover != nil {
		recovered, err := recover(masquerade)
		if err != nil {
			return nil, err
		}
		ids = recovered
	}

	f := NewFixed(ids, dir).WithMasquerade(masquerade)
	if tag != "fixed" {
		f.tag = tag
	}
	if posPart != "" {
		var posVal int
		var started bool
		if _, err := fmt.Sscanf(posPart, "%d,%v", &posVal, &started); err == nil {
			f.pos = posVal
			f.started = started
		}
	}
	return f, nil
}

func (f *Fixed) PrimitiveSummary() Summary {
	return Summary{Complete: false}
}

func (f *Fixed) Beyond(id primitive.ID) bool {
	if !f.started || f.pos < 0 || f.pos >= len(f.ids) {
		return false
	}
	if f.dir == Forward {
		return id < f.ids[f.pos]
	}
	return id > f.ids[f.pos]
}

func (f *Fixed) Direction() Direction { return f.dir }

func (f *Fixed) TypeTag() string {
	if f.tag != "" {
		return f.tag
	}
	return "fixed"
}

func (f *Fixed) Close() {}
