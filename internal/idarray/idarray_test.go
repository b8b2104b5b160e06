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

package idarray

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphd-project/graphd/internal/primitive"
)

func ids(xs ...int) Slice {
	out := make(Slice, len(xs))
	for i, x := range xs {
		out[i] = primitive.ID(x)
	}
	return out
}

func TestFind(t *testing.T) {
	a := ids(1, 3, 5, 7, 9)
	idx, exact := a.Find(5)
	require.True(t, exact)
	require.Equal(t, 2, idx)

	idx, exact = a.Find(6)
	require.False(t, exact)
	require.Equal(t, 3, idx)

	idx, exact = a.Find(100)
	require.False(t, exact)
	require.Equal(t, 5, idx)
}

func TestIntersect(t *testing.T) {
	cases := []struct {
		a, b, want Slice
	}{
		{ids(), ids(2, 4, 6), ids()},
		{ids(1, 2, 5, 7), ids(2, 4, 6, 8), ids(2)},
		{ids(1, 2, 3), ids(1, 2, 3, 4), ids(1, 2, 3)},
		{ids(1, 2, 3), ids(1, 2, 3), ids(1, 2, 3)},
	}
	for _, c := range cases {
		got := Intersect(c.a, c.b)
		require.Equal(t, []primitive.ID(c.want), got)
	}
}

func TestIntersectLarge(t *testing.T) {
	var a, b Slice
	for i := 0; i < 100; i += 2 {
		a = append(a, primitive.ID(i))
	}
	for i := 0; i < 100; i += 3 {
		b = append(b, primitive.ID(i))
	}
	got := Intersect(a, b)
	var want Slice
	for i := 0; i < 100; i += 6 {
		want = append(want, primitive.ID(i))
	}
	require.Equal(t, []primitive.ID(want), got)
}
