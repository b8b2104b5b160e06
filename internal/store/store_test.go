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
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/graphd-project/graphd/internal/budget"
	"github.com/graphd-project/graphd/internal/config"
	"github.com/graphd-project/graphd/internal/constraint"
	"github.com/graphd-project/graphd/internal/iterator"
	"github.com/graphd-project/graphd/internal/primitive"
	"github.com/graphd-project/graphd/internal/result"
)

func openTestStore(t *testing.T, n int) (*Store, []primitive.GUID) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(zap.NewNop(), dir, config.Default(), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	guids := make([]primitive.GUID, n)
	for i := 0; i < n; i++ {
		var g primitive.GUID
		g[15] = byte(i + 1)
		guids[i] = g
		p := &primitive.Primitive{
			ID:         primitive.ID(i),
			GUID:       g,
			Left:       primitive.NoID,
			Right:      primitive.NoID,
			Scope:      primitive.NoID,
			Type:       primitive.NoID,
			Previous:   primitive.NoID,
			Name:       []byte(fmt.Sprintf("n%d", i)),
			ValueType:  1,
			Live:       true,
			Generation: uint32(i),
		}
		if i > 0 {
			p.Left = primitive.ID(0)
		}
		require.NoError(t, s.primitives.Append(p))
		require.NoError(t, s.guids.Assign(p.ID, g))
		if i > 0 {
			require.NoError(t, s.indexes["left"].Add(0, p.ID, false))
		}
	}
	return s, guids
}

func TestPrimitiveRoundTrip(t *testing.T) {
	s, guids := openTestStore(t, 3)
	p, err := s.Primitive(0)
	require.NoError(t, err)
	require.Equal(t, guids[0], p.GUID)
	require.Equal(t, []byte("n0"), p.Name)
}

func TestLinkGUIDFindsLinkedChildren(t *testing.T) {
	s, guids := openTestStore(t, 3)
	it, err := s.LinkGUID(primitive.LinkageLeft, guids[0].String(), iterator.Forward)
	require.NoError(t, err)

	b := budget.New(1 << 20)
	var ids []primitive.ID
	for {
		nr, err := it.Next(b)
		require.NoError(t, err)
		if nr.Outcome != iterator.Found {
			break
		}
		ids = append(ids, nr.ID)
	}
	require.Equal(t, []primitive.ID{1, 2}, ids)
}

func TestLinkedIteratorReversedReadsSingleField(t *testing.T) {
	s, _ := openTestStore(t, 3)
	it, err := s.LinkedIterator(1, primitive.LinkageLeft, true, iterator.Forward)
	require.NoError(t, err)

	nr, err := it.Next(budget.New(1 << 20))
	require.NoError(t, err)
	require.Equal(t, iterator.Found, nr.Outcome)
	require.Equal(t, primitive.ID(0), nr.ID)
}

func TestRunFlatReadOverEveryPrimitive(t *testing.T) {
	s, _ := openTestStore(t, 5)

	req := constraint.NewRequest("read")
	root := req.AddConstraint(constraint.NewConstraint(-1, primitive.LinkageNone))
	req.Root = root
	gen := req.AddPattern(&constraint.Pattern{Kind: constraint.KindField, Field: constraint.FieldGeneration, OrIndex: -1})
	req.Constraints[root].ResultPattern = req.AddPattern(&constraint.Pattern{Kind: constraint.KindList, Children: []int{gen}, OrIndex: -1})

	out, err := s.Run(context.Background(), req, iterator.Forward, 1<<20, 0, "")
	require.NoError(t, err)
	require.True(t, out.Done)
	require.Len(t, out.Values, 5)
}

func TestRunCursorResumeHasNoOverlapOrGap(t *testing.T) {
	s, _ := openTestStore(t, 5)

	newReq := func(pageSize int) (*constraint.Request, int) {
		req := constraint.NewRequest("read")
		root := req.AddConstraint(constraint.NewConstraint(-1, primitive.LinkageNone))
		req.Root = root
		gen := req.AddPattern(&constraint.Pattern{Kind: constraint.KindField, Field: constraint.FieldGeneration, OrIndex: -1})
		req.Constraints[root].ResultPattern = req.AddPattern(&constraint.Pattern{Kind: constraint.KindList, Children: []int{gen}, OrIndex: -1})
		req.Constraints[root].PageSize = pageSize
		return req, root
	}

	full, err := s.Run(context.Background(), func() *constraint.Request { r, _ := newReq(0); return r }(), iterator.Forward, 1<<20, 0, "")
	require.NoError(t, err)
	require.True(t, full.Done)
	require.Len(t, full.Values, 5)

	req1, _ := newReq(2)
	page1, err := s.Run(context.Background(), req1, iterator.Forward, 1<<20, 0, "")
	require.NoError(t, err)
	require.False(t, page1.Done)
	require.Len(t, page1.Values, 2)
	require.NotEmpty(t, page1.Cursor)

	req2, _ := newReq(-1)
	page2, err := s.Run(context.Background(), req2, iterator.Forward, 1<<20, 0, page1.Cursor)
	require.NoError(t, err)
	require.True(t, page2.Done)

	combined := append(append([]result.Value{}, page1.Values...), page2.Values...)
	require.Equal(t, full.Values, combined)
}

func TestWriterLockRejectsSecondWriter(t *testing.T) {
	dir := t.TempDir()
	s1, err := Open(zap.NewNop(), dir, config.Default(), true)
	require.NoError(t, err)
	defer s1.Close()

	_, err = Open(zap.NewNop(), dir, config.Default(), true)
	require.ErrorIs(t, err, ErrAlreadyWriting)
}

func TestCheckpointWaitStableUnblocksAfterAdvance(t *testing.T) {
	c := newCheckpoint()
	c.newBackoff = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = time.Millisecond
		b.MaxElapsedTime = time.Second
		return b
	}

	ctx := context.Background()
	require.NoError(t, c.Advance(ctx, 10))
	require.NoError(t, c.WaitStable(ctx, 10))
	require.Error(t, c.WaitStable(ctx, 11))

	require.NoError(t, c.Advance(ctx, 11))
	require.NoError(t, c.WaitStable(ctx, 11))
}
