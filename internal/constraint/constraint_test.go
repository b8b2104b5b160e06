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

package constraint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphd-project/graphd/internal/primitive"
)

func TestRequestArenaWalk(t *testing.T) {
	req := NewRequest("read")
	root := req.AddConstraint(NewConstraint(-1, primitive.LinkageNone))
	child := req.AddConstraint(NewConstraint(root, primitive.LinkageLeft))
	req.Constraints[root].Sub = append(req.Constraints[root].Sub, child)
	req.Root = root

	var visited []int
	err := req.Walk(root, func(idx int, c *Constraint) error {
		visited = append(visited, idx)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{root, child}, visited)
}

func TestOrGroupForbiddenFieldIsRejected(t *testing.T) {
	req := NewRequest("read")
	proto := req.AddConstraint(NewConstraint(-1, primitive.LinkageNone))
	head := req.AddConstraint(NewConstraint(proto, primitive.LinkageNone))
	g := &OrGroup{Prototype: proto, Head: head}
	g.MarkForbidden(0, "result")
	require.ErrorIs(t, g.Validate(), ErrForbiddenInOrBranch)
}

func TestOrGroupInheritsPrototypeDefaults(t *testing.T) {
	live := true
	proto := &Predicate{Live: &live, LinkGUIDs: map[int]string{1: "aa"}}
	branch := &Predicate{LinkGUIDs: map[int]string{2: "bb"}}
	merged := Inherit(proto, branch)
	require.Equal(t, &live, merged.Live)
	require.Equal(t, "aa", merged.LinkGUIDs[1])
	require.Equal(t, "bb", merged.LinkGUIDs[2])
}

func TestOrGroupInheritsPrototypeComparator(t *testing.T) {
	proto := &Predicate{Comparator: CmpGreaterEq}
	branch := &Predicate{}
	merged := Inherit(proto, branch)
	require.True(t, merged.TypeSet)
	require.Equal(t, CmpGreaterEq, merged.Comparator)

	// a branch with its own explicit comparator is left alone.
	branch2 := &Predicate{Comparator: CmpLess}
	merged2 := Inherit(proto, branch2)
	require.True(t, merged2.TypeSet)
	require.Equal(t, CmpLess, merged2.Comparator)
}

func TestVariableLinkCountFixpoint(t *testing.T) {
	v := NewVariable("$n", 0)
	v.Retain()
	v.Retain()
	require.False(t, v.Dead())
	v.Release()
	require.False(t, v.Dead())
	v.Release()
	require.True(t, v.Dead())
}

func TestResolveAliasFollowsChain(t *testing.T) {
	vars := []*Variable{
		{Alias: 1},
		{Alias: 2},
		{Alias: -1},
	}
	idx, err := ResolveAlias(0, vars)
	require.NoError(t, err)
	require.Equal(t, 2, idx)
}

func TestResolveAliasDetectsCycle(t *testing.T) {
	vars := []*Variable{
		{Alias: 1},
		{Alias: 0},
	}
	_, err := ResolveAlias(0, vars)
	require.Error(t, err)
}

func TestValidateDepthRejectsTooDeep(t *testing.T) {
	patterns := []*Pattern{
		{Kind: KindField, Field: FieldName},          // 0
		{Kind: KindList, Children: []int{0}},         // 1
		{Kind: KindList, Children: []int{1}},         // 2
		{Kind: KindList, Children: []int{2}},         // 3: depth 3, too deep
	}
	get := func(i int) *Pattern { return patterns[i] }
	require.NoError(t, ValidateDepth(1, get))
	require.Error(t, ValidateDepth(3, get))
}

func TestValidateDepthRejectsTwoNestedLists(t *testing.T) {
	patterns := []*Pattern{
		{Kind: KindField, Field: FieldName},  // 0
		{Kind: KindField, Field: FieldValue}, // 1
		{Kind: KindList, Children: []int{0}}, // 2: nested list A
		{Kind: KindList, Children: []int{1}}, // 3: nested list B
		{Kind: KindList, Children: []int{2, 3}}, // 4: two nested lists, rejected
	}
	get := func(i int) *Pattern { return patterns[i] }
	require.Error(t, ValidateDepth(4, get))
}
