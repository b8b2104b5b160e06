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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphd-project/graphd/internal/constraint"
	"github.com/graphd-project/graphd/internal/result"
)

// TestBindAggregateContentsFollowsSubOrder guards against bindAggregate
// flattening ctx.subRecords by ranging over the map directly, which would
// make the result order depend on Go's randomized map iteration instead of
// c.Sub (the order runConstraint actually ran the sub-constraints in).
func TestBindAggregateContentsFollowsSubOrder(t *testing.T) {
	req := constraint.NewRequest("read")
	c := &constraint.Constraint{Sub: []int{7, 3, 11, 1, 9}}

	ctx := bindCtx{
		c: c,
		subRecords: map[int][]result.Value{
			1:  {result.Num(100)},
			3:  {result.Num(300)},
			7:  {result.Num(700)},
			9:  {result.Num(900)},
			11: {result.Num(1100)},
		},
	}

	pat := &constraint.Pattern{Kind: constraint.KindAggregate, Agg: constraint.AggregateContents}

	for i := 0; i < 20; i++ {
		v, err := bindPattern(req, ctx, req.AddPattern(pat))
		require.NoError(t, err)
		require.Len(t, v.Items, 5)
		require.Equal(t, []int64{700, 300, 1100, 100, 900}, []int64{
			v.Items[0].Number, v.Items[1].Number, v.Items[2].Number, v.Items[3].Number, v.Items[4].Number,
		})
	}
}

func TestBindAggregateCountSumsAllSubs(t *testing.T) {
	req := constraint.NewRequest("read")
	c := &constraint.Constraint{Sub: []int{0, 1}}
	ctx := bindCtx{
		c: c,
		subRecords: map[int][]result.Value{
			0: {result.Num(1), result.Num(2)},
			1: {result.Num(3)},
		},
	}
	pat := &constraint.Pattern{Kind: constraint.KindAggregate, Agg: constraint.AggregateCount}
	v, err := bindPattern(req, ctx, req.AddPattern(pat))
	require.NoError(t, err)
	require.Equal(t, int64(3), v.Number)
}
