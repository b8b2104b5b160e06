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

package gmap

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/graphd-project/graphd/internal/primitive"
)

func openTestMap(t *testing.T) *Map {
	t.Helper()
	cfg := DefaultConfig()
	cfg.PartitionStride = 64
	cfg.SplitThreshold = 4 // exponents above 4 (i.e. N>16) migrate to large-file in tests
	cfg.BitmapDensityMinSize = 8
	cfg.MaxID = func() primitive.ID { return 1 << 30 } // keep bitmap migration out of the way by default
	m, err := Open(zap.NewNop(), t.TempDir(), "typeguid", cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// TestSingletonGrowthSequence mirrors spec §8 scenario 2: writing IDs
// 0..16 under one source key should transit empty -> singleton ->
// multi-array with no duplicate emission, and Count must track 1..17.
func TestSingletonGrowthSequence(t *testing.T) {
	m := openTestMap(t)
	const source = primitive.ID(42)

	b, err := m.Backend(source)
	require.NoError(t, err)
	require.Equal(t, BackendEmpty, b)

	for i := 0; i < 17; i++ {
		require.NoError(t, m.Add(source, primitive.ID(i), false))
		n, err := m.Count(source)
		require.NoError(t, err)
		require.Equal(t, i+1, n, "count after inserting %d", i)

		members, err := m.Members(source)
		require.NoError(t, err)
		require.Len(t, members, i+1)
		for j, v := range members {
			require.Equal(t, primitive.ID(j), v)
		}
	}

	b, err = m.Backend(source)
	require.NoError(t, err)
	require.NotEqual(t, BackendEmpty, b)
	require.NotEqual(t, BackendSingleton, b)
}

func TestAddDuplicateAndOutOfOrder(t *testing.T) {
	m := openTestMap(t)
	const source = primitive.ID(1)

	require.NoError(t, m.Add(source, 10, false))
	require.ErrorIs(t, m.Add(source, 10, false), ErrOutOfOrder)

	require.NoError(t, m.Add(source, 20, true))
	require.ErrorIs(t, m.Add(source, 20, true), ErrAlreadyExists)

	require.ErrorIs(t, m.Add(source, 5, false), ErrOutOfOrder)
}

func TestArrayMigratesToLargeFile(t *testing.T) {
	m := openTestMap(t)
	const source = primitive.ID(7)

	for i := 0; i < 40; i++ {
		require.NoError(t, m.Add(source, primitive.ID(i), false))
	}
	b, err := m.Backend(source)
	require.NoError(t, err)
	require.Equal(t, BackendLarge, b, "exponent should have exceeded split_threshold by now")

	n, err := m.Count(source)
	require.NoError(t, err)
	require.Equal(t, 40, n)

	members, err := m.Members(source)
	require.NoError(t, err)
	require.Len(t, members, 40)
	for i, v := range members {
		require.Equal(t, primitive.ID(i), v)
	}
}

func TestLargeFileMigratesToBitmapUnderDensity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PartitionStride = 64
	cfg.SplitThreshold = 4
	cfg.BitmapDensityMinSize = 8
	cfg.MaxID = func() primitive.ID { return 1000 } // newCount*40 > 1000 once newCount > 25
	m, err := Open(zap.NewNop(), t.TempDir(), "typeguid", cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	const source = primitive.ID(9)
	for i := 0; i < 40; i++ {
		require.NoError(t, m.Add(source, primitive.ID(i), false))
	}
	b, err := m.Backend(source)
	require.NoError(t, err)
	require.Equal(t, BackendBitmap, b)

	members, err := m.Members(source)
	require.NoError(t, err)
	require.Len(t, members, 40)

	ok, err := m.Contains(source, 39)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestContainsOnArrayBackend(t *testing.T) {
	m := openTestMap(t)
	const source = primitive.ID(3)
	for i := 0; i < 5; i++ {
		require.NoError(t, m.Add(source, primitive.ID(i*2), false))
	}
	ok, err := m.Contains(source, 4)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = m.Contains(source, 5)
	require.NoError(t, err)
	require.False(t, ok)
}
