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

package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphd-project/graphd/internal/constraint"
	"github.com/graphd-project/graphd/internal/idarray"
	"github.com/graphd-project/graphd/internal/iterator"
	"github.com/graphd-project/graphd/internal/primitive"
)

func buildSimpleRequest() *constraint.Request {
	req := constraint.NewRequest("read")
	root := req.AddConstraint(constraint.NewConstraint(-1, primitive.LinkageNone))
	req.Root = root
	name := req.AddPattern(&constraint.Pattern{Kind: constraint.KindField, Field: constraint.FieldName, OrIndex: -1})
	req.Constraints[root].ResultPattern = req.AddPattern(&constraint.Pattern{Kind: constraint.KindList, Children: []int{name}, OrIndex: -1})
	return req
}

func TestRunPipelineSucceedsOnSimpleRequest(t *testing.T) {
	req := buildSimpleRequest()
	require.NoError(t, Run(req))
}

func TestRemoveUnusedResultsClearsChildWithoutContents(t *testing.T) {
	req := constraint.NewRequest("read")
	root := req.AddConstraint(constraint.NewConstraint(-1, primitive.LinkageNone))
	child := req.AddConstraint(constraint.NewConstraint(root, primitive.LinkageLeft))
	req.Constraints[root].Sub = []int{child}
	req.Root = root

	name := req.AddPattern(&constraint.Pattern{Kind: constraint.KindField, Field: constraint.FieldName, OrIndex: -1})
	req.Constraints[root].ResultPattern = req.AddPattern(&constraint.Pattern{Kind: constraint.KindList, Children: []int{name}, OrIndex: -1})
	req.Constraints[child].ResultPattern = name

	require.NoError(t, RemoveUnusedResults(req))
	require.Equal(t, -1, req.Constraints[child].ResultPattern)
}

func TestRemoveUnusedResultsKeepsChildWithContents(t *testing.T) {
	req := constraint.NewRequest("read")
	root := req.AddConstraint(constraint.NewConstraint(-1, primitive.LinkageNone))
	child := req.AddConstraint(constraint.NewConstraint(root, primitive.LinkageLeft))
	req.Constraints[root].Sub = []int{child}
	req.Root = root

	contents := req.AddPattern(&constraint.Pattern{Kind: constraint.KindAggregate, Agg: constraint.AggregateContents, OrIndex: -1})
	req.Constraints[root].ResultPattern = req.AddPattern(&constraint.Pattern{Kind: constraint.KindList, Children: []int{contents}, OrIndex: -1})
	childResult := req.AddPattern(&constraint.Pattern{Kind: constraint.KindField, Field: constraint.FieldName, OrIndex: -1})
	req.Constraints[child].ResultPattern = childResult

	require.NoError(t, RemoveUnusedResults(req))
	require.Equal(t, childResult, req.Constraints[child].ResultPattern)
}

func TestResolveAliasesRewritesVariableReference(t *testing.T) {
	req := constraint.NewRequest("read")
	root := req.AddConstraint(constraint.NewConstraint(-1, primitive.LinkageNone))
	req.Root = root
	x := req.AddVariable(constraint.NewVariable("$x", root))
	y := req.AddVariable(constraint.NewVariable("$y", root))

	yRef := req.AddPattern(&constraint.Pattern{Kind: constraint.KindVariable, VarID: y, OrIndex: -1})
	req.Constraints[root].Assignments[x] = yRef

	xUse := req.AddPattern(&constraint.Pattern{Kind: constraint.KindVariable, VarID: x, OrIndex: -1})
	require.NoError(t, ResolveAliases(req))
	require.Equal(t, y, req.Patterns[xUse].VarID)
}

func TestTopoSortOrdersDependentAssignments(t *testing.T) {
	req := constraint.NewRequest("read")
	root := req.AddConstraint(constraint.NewConstraint(-1, primitive.LinkageNone))
	req.Root = root
	a := req.AddVariable(constraint.NewVariable("$a", root))
	b := req.AddVariable(constraint.NewVariable("$b", root))

	// $b = $a (depends on a), $a = literal.
	aRef := req.AddPattern(&constraint.Pattern{Kind: constraint.KindVariable, VarID: a, OrIndex: -1})
	lit := req.AddPattern(&constraint.Pattern{Kind: constraint.KindLiteral, Literal: []byte("x"), OrIndex: -1})
	req.Constraints[root].Assignments[b] = aRef
	req.Constraints[root].Assignments[a] = lit

	require.NoError(t, TopoSortAssignments(req))
	order := req.Constraints[root].AssignmentOrder
	require.Len(t, order, 2)
	aPos, bPos := -1, -1
	for i, v := range order {
		if v == a {
			aPos = i
		}
		if v == b {
			bPos = i
		}
	}
	require.True(t, aPos < bPos, "a must be bound before b")
}

func TestTopoSortDetectsCycle(t *testing.T) {
	req := constraint.NewRequest("read")
	root := req.AddConstraint(constraint.NewConstraint(-1, primitive.LinkageNone))
	req.Root = root
	a := req.AddVariable(constraint.NewVariable("$a", root))
	b := req.AddVariable(constraint.NewVariable("$b", root))
	aRef := req.AddPattern(&constraint.Pattern{Kind: constraint.KindVariable, VarID: a, OrIndex: -1})
	bRef := req.AddPattern(&constraint.Pattern{Kind: constraint.KindVariable, VarID: b, OrIndex: -1})
	req.Constraints[root].Assignments[a] = bRef
	req.Constraints[root].Assignments[b] = aRef

	err := TopoSortAssignments(req)
	require.Error(t, err)
}

type stubCatalog struct {
	all iterator.Iterator
}

func (s stubCatalog) LinkGUID(l primitive.Linkage, guid string, dir iterator.Direction) (iterator.Iterator, error) {
	return iterator.NewFixed(idarray.Slice{1, 2, 3}, dir), nil
}

func (s stubCatalog) Vip(l primitive.Linkage, guid, typeguid string, dir iterator.Direction) (iterator.Iterator, bool, error) {
	return nil, false, nil
}

func (s stubCatalog) All(dir iterator.Direction) (iterator.Iterator, error) {
	return s.all, nil
}

func TestBuildIteratorShapeFallsBackToAll(t *testing.T) {
	req := constraint.NewRequest("read")
	root := req.AddConstraint(constraint.NewConstraint(-1, primitive.LinkageNone))
	req.Root = root
	cat := stubCatalog{all: iterator.NewAll(0, 10, iterator.Forward)}

	require.NoError(t, BuildIteratorShape(req, req.Constraints[root], cat, iterator.Forward))
	cp := req.Constraints[root].Plan.(*ConstraintPlan)
	require.NotNil(t, cp.Iter)
	require.Equal(t, "all", cp.Iter.TypeTag())
}

func TestBuildIteratorShapeFastPathIntersection(t *testing.T) {
	req := constraint.NewRequest("read")
	root := req.AddConstraint(constraint.NewConstraint(-1, primitive.LinkageNone))
	req.Root = root
	req.Constraints[root].Predicate.LinkGUIDs = map[int]string{
		int(primitive.LinkageLeft):  "aa",
		int(primitive.LinkageRight): "bb",
	}
	cat := stubCatalog{all: iterator.NewNull()}

	require.NoError(t, BuildIteratorShape(req, req.Constraints[root], cat, iterator.Forward))
	cp := req.Constraints[root].Plan.(*ConstraintPlan)
	require.Equal(t, "fixed", cp.Iter.TypeTag())
}
