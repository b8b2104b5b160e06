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

package exec

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphd-project/graphd/internal/budget"
	"github.com/graphd-project/graphd/internal/constraint"
	"github.com/graphd-project/graphd/internal/idarray"
	"github.com/graphd-project/graphd/internal/iterator"
	"github.com/graphd-project/graphd/internal/primitive"
	"github.com/graphd-project/graphd/internal/result"
)

type fakeEnv struct {
	prims map[primitive.ID]*primitive.Primitive
	all   []primitive.ID
}

func newFakeEnv(n int) *fakeEnv {
	e := &fakeEnv{prims: make(map[primitive.ID]*primitive.Primitive)}
	for i := 0; i < n; i++ {
		id := primitive.ID(i)
		e.prims[id] = &primitive.Primitive{ID: id, Name: []byte(fmt.Sprintf("n%d", i)), Live: true, Generation: uint32(i)}
		e.all = append(e.all, id)
	}
	return e
}

func (e *fakeEnv) LinkGUID(l primitive.Linkage, guidHex string, dir iterator.Direction) (iterator.Iterator, error) {
	return iterator.NewNull(), nil
}

func (e *fakeEnv) Vip(l primitive.Linkage, guidHex, typeguidHex string, dir iterator.Direction) (iterator.Iterator, bool, error) {
	return nil, false, nil
}

func (e *fakeEnv) All(dir iterator.Direction) (iterator.Iterator, error) {
	return iterator.NewFixed(idarray.Slice(e.all), dir), nil
}

func (e *fakeEnv) Primitive(id primitive.ID) (*primitive.Primitive, error) {
	p, ok := e.prims[id]
	if !ok {
		return nil, fmt.Errorf("exec: no such id %d", id)
	}
	return p, nil
}

func (e *fakeEnv) LinkedIterator(parent primitive.ID, linkage primitive.Linkage, reversed bool, dir iterator.Direction) (iterator.Iterator, error) {
	return iterator.NewNull(), nil
}

func buildFlatReadRequest(pageSize int) *constraint.Request {
	req := constraint.NewRequest("read")
	root := req.AddConstraint(constraint.NewConstraint(-1, primitive.LinkageNone))
	req.Root = root
	gen := req.AddPattern(&constraint.Pattern{Kind: constraint.KindField, Field: constraint.FieldGeneration, OrIndex: -1})
	req.Constraints[root].ResultPattern = req.AddPattern(&constraint.Pattern{Kind: constraint.KindList, Children: []int{gen}, OrIndex: -1})
	req.Constraints[root].PageSize = pageSize
	return req
}

func TestEmptyReadReturnsNoValues(t *testing.T) {
	env := newFakeEnv(0)
	req := buildFlatReadRequest(0)
	require.NoError(t, Prepare(req, env, iterator.Forward))
	out, err := Run(req, env, budget.New(1<<20), iterator.Forward)
	require.NoError(t, err)
	require.True(t, out.Done)
	require.Empty(t, out.Values)
}

func TestFlatReadReturnsEveryPrimitiveWhenUnbounded(t *testing.T) {
	env := newFakeEnv(5)
	req := buildFlatReadRequest(0)
	require.NoError(t, Prepare(req, env, iterator.Forward))
	out, err := Run(req, env, budget.New(1<<20), iterator.Forward)
	require.NoError(t, err)
	require.True(t, out.Done)
	require.Len(t, out.Values, 5)
}

func TestPageSizeFreezesAndResumesWithNoOverlap(t *testing.T) {
	env := newFakeEnv(10)
	req := buildFlatReadRequest(4)
	require.NoError(t, Prepare(req, env, iterator.Forward))

	var pages [][]int64
	for {
		out, err := Run(req, env, budget.New(1<<20), iterator.Forward)
		require.NoError(t, err)
		if len(out.Values) > 0 {
			pages = append(pages, resultValueIDs(out.Values))
		}
		if out.Done {
			break
		}
		require.NotEmpty(t, out.Cursor)
	}

	require.Len(t, pages, 3) // 4, 4, 2
	require.Len(t, pages[0], 4)
	require.Len(t, pages[1], 4)
	require.Len(t, pages[2], 2)

	seen := map[int64]bool{}
	for _, page := range pages {
		for _, id := range page {
			require.False(t, seen[id], "id %d returned twice", id)
			seen[id] = true
		}
	}
	require.Len(t, seen, 10)
}

func TestIntersectTwoDedupsAndSorts(t *testing.T) {
	a := iterator.NewFixed(idarray.Slice{1, 2, 3, 4}, iterator.Forward)
	b := iterator.NewFixed(idarray.Slice{2, 4, 6}, iterator.Forward)
	merged, ok, err := intersectTwo(a, b, iterator.Forward, budget.New(1<<20))
	require.NoError(t, err)
	require.True(t, ok)
	var ids []primitive.ID
	for {
		nr, err := merged.Next(budget.New(100))
		require.NoError(t, err)
		if nr.Outcome != iterator.Found {
			break
		}
		ids = append(ids, nr.ID)
	}
	require.Equal(t, []primitive.ID{2, 4}, ids)
}

// resultValueIDs extracts the lone Generation number bound into each
// list(generation) record produced by buildFlatReadRequest.
func resultValueIDs(values []result.Value) []int64 {
	out := make([]int64, 0, len(values))
	for _, v := range values {
		out = append(out, v.Items[0].Number)
	}
	return out
}
