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

package block

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(zap.NewNop(), filepath.Join(dir, "test.gm"), 4096)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAllocPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	off, err := s.Alloc(16)
	require.NoError(t, err)
	require.NoError(t, s.Put(off, []byte("0123456789ABCDEF")))

	page, ref, err := s.Get(off)
	require.NoError(t, err)
	defer ref.Release()
	require.Equal(t, []byte("0123456789ABCDEF"), page.Bytes[:16])
}

func TestAllocNeverSpansTileBoundary(t *testing.T) {
	s := openTestStore(t)
	s.tileSize = 32

	first, err := s.Alloc(30)
	require.NoError(t, err)
	require.Equal(t, int64(0), first)

	second, err := s.Alloc(8)
	require.NoError(t, err)
	require.Equal(t, int64(32), second, "allocation must pad to next tile rather than straddle the boundary")
}

func TestReadRawReturnsLongestContiguousRun(t *testing.T) {
	s := openTestStore(t)
	s.tileSize = 16

	off, err := s.Alloc(16)
	require.NoError(t, err)
	require.NoError(t, s.Put(off, []byte("0123456789ABCDEF")))
	off2, err := s.Alloc(16)
	require.NoError(t, err)
	require.NoError(t, s.Put(off2, []byte("ghijklmnopqrstuv")))

	data, runEnd, ref, err := s.ReadRaw(0, 32)
	require.NoError(t, err)
	defer ref.Release()
	require.Equal(t, int64(16), runEnd)
	require.Equal(t, []byte("0123456789ABCDEF"), data)
}

func TestGrowIsIdempotentBelowCurrentSize(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Grow(100))
	require.Equal(t, int64(100), s.Size())
	require.NoError(t, s.Grow(50))
	require.Equal(t, int64(100), s.Size())
}
