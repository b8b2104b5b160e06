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
	"github.com/google/btree"

	"github.com/graphd-project/graphd/internal/budget"
	"github.com/graphd-project/graphd/internal/idarray"
	"github.com/graphd-project/graphd/internal/primitive"
)

const sortBTreeDegree = 32

// Sort imposes order on an unsorted sub-iterator by buffering its members
// into a b-tree and replaying them in sorted order (spec §4.3 "sort"; the
// planner reaches for this only when nothing else in the sub-tree already
// produces a sorted stream, since it costs a full drain of the source
// before the first result).
//
// The buffer fills on first use, charged against the caller's budget one
// drained element at a time so a large unsorted source still cooperates
// with suspension; once filled, replay is a plain Fixed walk.
type Sort struct {
	source  Iterator
	dir     Direction
	tree    *btree.BTreeG[primitive.ID]
	filled  bool
	replay  *Fixed
}

func idLess(a, b primitive.ID) bool { return a < b }

// NewSort wraps source, which need not be sorted, draining it into buffered
// order the first time Next/Find/Statistics touches it.
func NewSort(source Iterator, dir Direction) *Sort {
	return &Sort{source: source, dir: dir, tree: btree.NewG(sortBTreeDegree, idLess)}
}

func (s *Sort) fill(b *budget.Budget) (bool, error) {
	if s.filled {
		return true, nil
	}
	for {
		res, err := s.source.Next(b)
		if err != nil {
			return false, err
		}
		switch res.Outcome {
		case Suspend:
			return false, nil
		case Done:
			s.filled = true
			ids := make(idarray.Slice, 0, s.tree.Len())
			s.tree.Ascend(func(id primitive.ID) bool {
				ids = append(ids, id)
				return true
			})
			s.replay = NewFixed(ids, s.dir)
			return true, nil
		}
		s.tree.ReplaceOrInsert(res.ID)
		if b.Exhausted() {
			return false, nil
		}
	}
}

func (s *Sort) Next(b *budget.Budget) (NextResult, error) {
	ok, err := s.fill(b)
	if err != nil || !ok {
		return suspendResult, err
	}
	return s.replay.Next(b)
}

func (s *Sort) Find(b *budget.Budget, id primitive.ID) (NextResult, error) {
	ok, err := s.fill(b)
	if err != nil || !ok {
		return suspendResult, err
	}
	return s.replay.Find(b, id)
}

func (s *Sort) Check(b *budget.Budget, id primitive.ID) (CheckOutcome, error) {
	ok, err := s.fill(b)
	if err != nil {
		return No, err
	}
	if !ok {
		return CheckSuspend, nil
	}
	return s.replay.Check(b, id)
}

func (s *Sort) Statistics(b *budget.Budget) (Stats, bool, error) {
	ok, err := s.fill(b)
	if err != nil {
		return Stats{}, false, err
	}
	if !ok {
		return Stats{}, false, nil
	}
	return s.replay.Statistics(b)
}

func (s *Sort) Clone() Iterator {
	c := &Sort{source: s.source.Clone(), dir: s.dir, tree: btree.NewG(sortBTreeDegree, idLess)}
	if s.filled {
		c.filled = true
		c.replay = s.replay.Clone().(*Fixed)
	}
	return c
}

func (s *Sort) Reset() {
	if s.replay != nil {
		s.replay.Reset()
	}
}

// Freeze marks the buffered replay with a leading "1" frame so Thaw can
// rebuild the sorted Fixed directly; an unfilled Sort freezes as "0" since
// the partial b-tree accumulated so far has no serializable form (the
// filled case is the only one Thaw can resume — see thaw.go).
func (s *Sort) Freeze(scope FreezeScope) (string, error) {
	if !s.filled {
		return "sort:" + frameJoin([]string{"0"}), nil
	}
	inner, err := s.replay.Freeze(scope)
	if err != nil {
		return "", err
	}
	return "sort:" + frameJoin([]string{"1", inner}), nil
}

func (s *Sort) PrimitiveSummary() Summary { return Summary{Complete: false} }

func (s *Sort) Beyond(id primitive.ID) bool {
	if s.replay == nil {
		return false
	}
	return s.replay.Beyond(id)
}

func (s *Sort) Direction() Direction { return s.dir }
func (s *Sort) TypeTag() string      { return "sort" }
func (s *Sort) Close()               { s.source.Close() }
