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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphd-project/graphd/internal/budget"
	"github.com/graphd-project/graphd/internal/idarray"
	"github.com/graphd-project/graphd/internal/primitive"
)

// TestDefaultRegistryThawsAnd exercises a root-level cursor resume for a
// compound And, the shape spec.md:314's cursor-resume scenario needs
// whenever the root constraint's producer is itself an intersection.
func TestDefaultRegistryThawsAnd(t *testing.T) {
	a := NewFixed(idarray.Slice(idsOf(1, 2, 3, 4, 5)), Forward)
	b := NewFixed(idarray.Slice(idsOf(2, 4, 6)), Forward)
	and := NewAnd([]Iterator{a, b}, 0, Forward)

	cursor, err := and.Freeze(FreezeEverything)
	require.NoError(t, err)

	reg := NewDefaultRegistry(Forward)
	thawed, err := reg.Thaw(cursor)
	require.NoError(t, err)
	require.Equal(t, "and", thawed.TypeTag())
	require.Equal(t, idsOf(2, 4), drain(t, thawed))
}

// TestDefaultRegistryThawsOrMidScan freezes an Or after it has already
// returned one value, which leaves a losing sub's look-ahead cached in
// Or's own pending/have state (fetched from the sub, not yet delivered to
// the caller). Freeze must carry that cached value explicitly or it's lost
// on resume.
func TestDefaultRegistryThawsOrMidScan(t *testing.T) {
	a := NewFixed(idarray.Slice(idsOf(1, 3, 5)), Forward)
	b := NewFixed(idarray.Slice(idsOf(3, 4, 5, 6)), Forward)
	or := NewOr([]Iterator{a, b}, Forward)

	first, err := or.Next(budget.New(1 << 20))
	require.NoError(t, err)
	require.Equal(t, primitive.ID(1), first.ID) // b now holds 3 pending, unread

	cursor, err := or.Freeze(FreezeEverything)
	require.NoError(t, err)

	reg := NewDefaultRegistry(Forward)
	thawed, err := reg.Thaw(cursor)
	require.NoError(t, err)
	require.Equal(t, idsOf(3, 4, 5, 6), drain(t, thawed))
}

func TestDefaultRegistryThawsWithout(t *testing.T) {
	base := NewFixed(idarray.Slice(idsOf(1, 2, 3, 4, 5)), Forward)
	excl := NewFixed(idarray.Slice(idsOf(2, 4)), Forward)
	w := NewWithout(base, excl, Forward)

	cursor, err := w.Freeze(FreezeEverything)
	require.NoError(t, err)

	reg := NewDefaultRegistry(Forward)
	thawed, err := reg.Thaw(cursor)
	require.NoError(t, err)
	require.Equal(t, idsOf(1, 3, 5), drain(t, thawed))
}

func TestDefaultRegistryThawsVRange(t *testing.T) {
	a := NewAll(0, 100, Forward)
	r := NewVRange(a, 10, 15, Forward)

	cursor, err := r.Freeze(FreezeEverything)
	require.NoError(t, err)

	reg := NewDefaultRegistry(Forward)
	thawed, err := reg.Thaw(cursor)
	require.NoError(t, err)
	require.Equal(t, idsOf(10, 11, 12, 13, 14), drain(t, thawed))
}

func TestDefaultRegistryThawsAll(t *testing.T) {
	a := NewAll(0, 10, Forward)
	_, err := a.Next(budget.New(1 << 20))
	require.NoError(t, err)
	_, err = a.Next(budget.New(1 << 20))
	require.NoError(t, err)

	cursor, err := a.Freeze(FreezeEverything)
	require.NoError(t, err)

	reg := NewDefaultRegistry(Forward)
	thawed, err := reg.Thaw(cursor)
	require.NoError(t, err)
	require.Equal(t, idsOf(2, 3, 4, 5, 6, 7, 8, 9), drain(t, thawed))
}

// TestDefaultRegistryThawsFilledSort covers the resumable half of Sort's
// Freeze: once the buffer has drained the source, the replay Fixed carries
// the whole cursor.
func TestDefaultRegistryThawsFilledSort(t *testing.T) {
	s := NewSort(NewFixed(idarray.Slice(idsOf(5, 1, 3)), Forward), Forward)
	require.Equal(t, idsOf(1, 3, 5), drain(t, s))

	cursor, err := s.Freeze(FreezeEverything)
	require.NoError(t, err)

	reg := NewDefaultRegistry(Forward)
	thawed, err := reg.Thaw(cursor)
	require.NoError(t, err)
	require.Equal(t, "sort", thawed.TypeTag())
}

// TestDefaultRegistryRejectsUnfilledSort documents the simplification: a
// Sort suspended mid-fill has no serializable buffer, so resuming it is
// explicitly unsupported rather than silently wrong.
func TestDefaultRegistryRejectsUnfilledSort(t *testing.T) {
	s := NewSort(NewFixed(idarray.Slice(idsOf(1, 2, 3)), Forward), Forward)
	cursor, err := s.Freeze(FreezeEverything)
	require.NoError(t, err)

	reg := NewDefaultRegistry(Forward)
	_, err = reg.Thaw(cursor)
	require.ErrorIs(t, err, ErrThaw)
}

func TestDefaultRegistryThawsFixedIsa(t *testing.T) {
	f := NewFixed(idarray.Slice(idsOf(7, 8, 9)), Forward)
	f.tag = "fixed-isa"
	cursor, err := f.Freeze(FreezeEverything)
	require.NoError(t, err)

	reg := NewDefaultRegistry(Forward)
	thawed, err := reg.Thaw(cursor)
	require.NoError(t, err)
	require.Equal(t, "fixed-isa", thawed.TypeTag())
	require.Equal(t, idsOf(7, 8, 9), drain(t, thawed))
}
